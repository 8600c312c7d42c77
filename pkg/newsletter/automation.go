package newsletter

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"wheredjsplay_backend/internal/model"
	"wheredjsplay_backend/pkg/email"
	"wheredjsplay_backend/pkg/settings"
)

// Automation decides whether a freshly published article gets broadcast to
// subscribers, and runs the broadcast when it does.
type Automation struct {
	db          *gorm.DB
	settings    *settings.Service
	dispatcher  *Dispatcher
	baseURL     string
	frontendURL string
}

func NewAutomation(db *gorm.DB, s *settings.Service, d *Dispatcher, baseURL, frontendURL string) *Automation {
	return &Automation{
		db:          db,
		settings:    s,
		dispatcher:  d,
		baseURL:     baseURL,
		frontendURL: frontendURL,
	}
}

// ShouldSend is the automation gate. It refuses when the global toggle is
// off, when an automated campaign for the article already exists, or when
// the article lacks the fields the notification template needs.
//
// The existence check is a fast path only: two concurrent publish paths can
// both pass it, and the unique constraint on newsletter_campaigns is what
// actually prevents the double send.
func (n *Automation) ShouldSend(article *model.Article) bool {
	if !n.settings.NewsletterAutomationEnabled() {
		return false
	}

	var count int64
	n.db.Model(&model.NewsletterCampaign{}).
		Where("campaign_type = ? AND article_id = ?", model.CampaignTypeAutomated, article.ID).
		Count(&count)
	if count > 0 {
		return false
	}

	if article.Title == "" || article.Excerpt == "" {
		return false
	}

	return true
}

// SendForArticle broadcasts the article notification to active subscribers.
// Callers are expected to consult ShouldSend first; a duplicate trigger that
// slips through surfaces as ErrAlreadySent.
func (n *Automation) SendForArticle(article *model.Article) (*SendResult, error) {
	var category model.Category
	if err := n.db.First(&category, article.CategoryID).Error; err != nil {
		log.Printf("Automated newsletter: could not load category %d: %v", article.CategoryID, err)
	}
	var author model.User
	if err := n.db.First(&author, article.AuthorID).Error; err != nil {
		log.Printf("Automated newsletter: could not load author %d: %v", article.AuthorID, err)
	}

	categoryName := category.Name
	if categoryName == "" {
		categoryName = "News"
	}
	authorName := author.Name
	if authorName == "" {
		authorName = "Editor"
	}

	publishDate := article.CreatedAt
	if article.PublishDate != nil {
		publishDate = *article.PublishDate
	}

	imageURL := ""
	if article.Image != "" {
		imageURL = fmt.Sprintf("%s/uploads/%s", n.baseURL, article.Image)
	}

	data := email.ArticleNotificationData{
		Title:       article.Title,
		Excerpt:     excerptOrDefault(article.Excerpt),
		Image:       imageURL,
		Category:    categoryName,
		Author:      authorName,
		PublishDate: publishDate.Format("January 2, 2006"),
		ArticleURL:  fmt.Sprintf("%s/article/%s", n.frontendURL, article.Slug),
		WebsiteURL:  n.frontendURL,
	}

	articleID := article.ID
	subject := fmt.Sprintf("New Article: %s", article.Title)
	content := fmt.Sprintf("Automated newsletter for article: %s", article.Title)

	deliver := func(sub model.Subscriber, unsubscribeURL string) error {
		return n.dispatcher.sender.SendArticleNotificationEmail(sub.Email, sub.Name, data, unsubscribeURL)
	}
	return n.dispatcher.broadcast(subject, content, model.CampaignTypeAutomated, &articleID, article.AuthorID, deliver)
}

func excerptOrDefault(excerpt string) string {
	if excerpt == "" {
		return "Read the full article to learn more..."
	}
	return excerpt
}
