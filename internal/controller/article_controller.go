package controller

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"wheredjsplay_backend/internal/model"
	"wheredjsplay_backend/pkg/database"
	"wheredjsplay_backend/pkg/newsletter"
	"wheredjsplay_backend/pkg/utils/jwt"
)

// articleAutomation is injected at startup; the manual publish path shares
// the automation gate with the scheduler, and the gate's idempotency check
// keeps the two from double-sending.
var articleAutomation *newsletter.Automation

func InitArticleController(automation *newsletter.Automation) {
	articleAutomation = automation
}

type ArticleInput struct {
	Title          string         `json:"title" validate:"required"`
	Excerpt        string         `json:"excerpt"`
	Content        string         `json:"content" validate:"required"`
	CategoryID     uint           `json:"category_id" validate:"required"`
	Image          string         `json:"image"`
	Featured       bool           `json:"featured"`
	Breaking       bool           `json:"breaking"`
	Headline       bool           `json:"headline"`
	Status         string         `json:"status"`
	Tags           datatypes.JSON `json:"tags"`
	SEOTitle       string         `json:"seo_title"`
	SEODescription string         `json:"seo_description"`
	PublishDate    *time.Time     `json:"publish_date"`
}

type ScheduleInput struct {
	PublishDate time.Time `json:"publish_date" validate:"required"`
}

// articleWithRefs is the list/detail response row, articles joined with
// their category and author names.
type articleWithRefs struct {
	model.Article
	CategoryName  string `json:"category_name"`
	CategorySlug  string `json:"category_slug"`
	CategoryColor string `json:"category_color"`
	AuthorName    string `json:"author_name"`
}

func articleQuery(db *gorm.DB) *gorm.DB {
	return db.Model(&model.Article{}).
		Select("articles.*, c.name AS category_name, c.slug AS category_slug, c.color AS category_color, u.name AS author_name").
		Joins("LEFT JOIN categories c ON articles.category_id = c.id").
		Joins("LEFT JOIN users u ON articles.author_id = u.id")
}

func ListArticles(c *fiber.Ctx) error {
	db := database.GetDB()

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	q := articleQuery(db)

	if status := c.Query("status", "published"); status != "" && status != "all" {
		q = q.Where("articles.status = ?", status)
	}
	if category := c.Query("category"); category != "" {
		q = q.Where("c.slug = ?", category)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		q = q.Where("articles.title LIKE ? OR articles.excerpt LIKE ?", pattern, pattern)
	}
	if featured := c.Query("featured"); featured != "" {
		q = q.Where("articles.featured = ?", featured == "true")
	}
	if authorID := c.Query("author_id"); authorID != "" {
		q = q.Where("articles.author_id = ?", authorID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not fetch articles",
		})
	}

	var articles []articleWithRefs
	err := q.Order("articles.created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Scan(&articles).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not fetch articles",
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data": fiber.Map{
			"articles": articles,
			"pagination": fiber.Map{
				"page":  page,
				"limit": limit,
				"total": total,
				"pages": (total + int64(limit) - 1) / int64(limit),
			},
		},
	})
}

func GetFeaturedArticles(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "5"))
	if limit < 1 || limit > 20 {
		limit = 5
	}

	var articles []articleWithRefs
	err := articleQuery(database.GetDB()).
		Where("articles.featured = ? AND articles.status = ?", true, model.ArticleStatusPublished).
		Order("articles.publish_date DESC").
		Limit(limit).
		Scan(&articles).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not fetch featured articles",
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data":  articles,
	})
}

func GetArticle(c *fiber.Ctx) error {
	db := database.GetDB()

	var article articleWithRefs
	err := articleQuery(db).
		Where("articles.id = ?", c.Params("id")).
		Scan(&article).Error
	if err != nil || article.ID == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Article not found",
		})
	}

	// Only published articles accumulate public views.
	if article.Status == model.ArticleStatusPublished {
		db.Model(&model.Article{}).
			Where("id = ?", article.ID).
			Update("views", gorm.Expr("views + ?", 1))
		article.Views++
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data":  article,
	})
}

func CreateArticle(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(ArticleInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid input",
		})
	}
	if input.Title == "" || input.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Title and content are required",
		})
	}

	var category model.Category
	if err := database.GetDB().First(&category, input.CategoryID).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Category not found",
		})
	}

	status := model.ArticleStatusDraft
	switch model.ArticleStatus(input.Status) {
	case model.ArticleStatusDraft, model.ArticleStatusPending:
		status = model.ArticleStatus(input.Status)
	case model.ArticleStatusPublished:
		status = model.ArticleStatusPublished
		if input.PublishDate == nil {
			now := time.Now()
			input.PublishDate = &now
		}
	}

	article := model.Article{
		Title:          input.Title,
		Excerpt:        input.Excerpt,
		Content:        input.Content,
		CategoryID:     input.CategoryID,
		AuthorID:       claims.UserID,
		Image:          input.Image,
		Featured:       input.Featured,
		Breaking:       input.Breaking,
		Headline:       input.Headline,
		Status:         status,
		Tags:           input.Tags,
		SEOTitle:       input.SEOTitle,
		SEODescription: input.SEODescription,
		PublishDate:    input.PublishDate,
	}

	if err := database.GetDB().Create(&article).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not create article",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"error":   false,
		"message": "Article created successfully",
		"data":    article,
	})
}

func loadArticleForWrite(c *fiber.Ctx) (*model.Article, *jwt.Claims, error) {
	claims := c.Locals("user").(*jwt.Claims)

	var article model.Article
	if err := database.GetDB().First(&article, c.Params("id")).Error; err != nil {
		return nil, claims, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Article not found",
		})
	}

	if claims.Role == string(model.RoleAuthor) && article.AuthorID != claims.UserID {
		return nil, claims, c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   true,
			"message": "You can only edit your own articles",
		})
	}

	return &article, claims, nil
}

func UpdateArticle(c *fiber.Ctx) error {
	article, _, err := loadArticleForWrite(c)
	if article == nil {
		return err
	}

	input := new(ArticleInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid input",
		})
	}

	updates := map[string]interface{}{}
	if input.Title != "" {
		updates["title"] = input.Title
	}
	if input.Excerpt != "" {
		updates["excerpt"] = input.Excerpt
	}
	if input.Content != "" {
		updates["content"] = input.Content
	}
	if input.CategoryID != 0 {
		var category model.Category
		if err := database.GetDB().First(&category, input.CategoryID).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Category not found",
			})
		}
		updates["category_id"] = input.CategoryID
	}
	if input.Image != "" {
		updates["image"] = input.Image
	}
	if input.Tags != nil {
		updates["tags"] = input.Tags
	}
	if input.SEOTitle != "" {
		updates["seo_title"] = input.SEOTitle
	}
	if input.SEODescription != "" {
		updates["seo_description"] = input.SEODescription
	}
	if input.PublishDate != nil {
		updates["publish_date"] = input.PublishDate
	}

	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "No fields to update",
		})
	}

	if err := database.GetDB().Model(article).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not update article",
		})
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Article updated successfully",
		"data":    article,
	})
}

func DeleteArticle(c *fiber.Ctx) error {
	db := database.GetDB()

	var article model.Article
	if err := db.First(&article, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Article not found",
		})
	}

	// Short links and their click events go with the article.
	if err := db.Select("ShortLinks").Delete(&article).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not delete article",
		})
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Article deleted successfully",
	})
}

// PublishArticle is the immediate publish path. An article holding a future
// publish date belongs to the scheduler; publishing it now would silently
// cancel the schedule, so that case is rejected.
func PublishArticle(c *fiber.Ctx) error {
	db := database.GetDB()

	var article model.Article
	if err := db.First(&article, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Article not found",
		})
	}

	if article.PublishDate != nil && article.PublishDate.After(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Article is scheduled for future publication. Remove the schedule first or let the scheduler publish it.",
		})
	}

	now := time.Now()
	if err := db.Model(&article).Updates(map[string]interface{}{
		"status":       model.ArticleStatusPublished,
		"publish_date": now,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not publish article",
		})
	}

	article.Status = model.ArticleStatusPublished
	article.PublishDate = &now

	if articleAutomation != nil && articleAutomation.ShouldSend(&article) {
		if _, err := articleAutomation.SendForArticle(&article); err != nil &&
			!errors.Is(err, newsletter.ErrNoSubscribers) &&
			!errors.Is(err, newsletter.ErrAlreadySent) {
			log.Printf("Automated newsletter for article %d failed: %v", article.ID, err)
		}
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Article published successfully",
	})
}

func UnpublishArticle(c *fiber.Ctx) error {
	res := database.GetDB().Model(&model.Article{}).
		Where("id = ?", c.Params("id")).
		Update("status", model.ArticleStatusDraft)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not unpublish article",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Article not found",
		})
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Article unpublished successfully",
	})
}

// ScheduleArticle stores a strictly-future publish date; the scheduler
// performs the actual transition when the date passes.
func ScheduleArticle(c *fiber.Ctx) error {
	db := database.GetDB()

	var article model.Article
	if err := db.First(&article, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Article not found",
		})
	}

	input := new(ScheduleInput)
	if err := c.BodyParser(input); err != nil || input.PublishDate.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "A valid publish_date is required",
		})
	}

	if !input.PublishDate.After(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "publish_date must be in the future",
		})
	}

	if err := db.Model(&article).Updates(map[string]interface{}{
		"status":       model.ArticleStatusDraft,
		"publish_date": input.PublishDate,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not schedule article",
		})
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Article scheduled successfully",
		"data": fiber.Map{
			"publish_date": input.PublishDate,
		},
	})
}

func ToggleFeatured(c *fiber.Ctx) error {
	db := database.GetDB()

	var article model.Article
	if err := db.First(&article, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Article not found",
		})
	}

	newStatus := !article.Featured
	if err := db.Model(&article).Update("featured", newStatus).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not update article",
		})
	}

	message := "Article unfeatured successfully"
	if newStatus {
		message = "Article featured successfully"
	}
	return c.JSON(fiber.Map{
		"error":   false,
		"message": message,
		"data":    fiber.Map{"featured": newStatus},
	})
}
