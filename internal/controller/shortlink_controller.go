package controller

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"wheredjsplay_backend/internal/model"
	"wheredjsplay_backend/pkg/database"
	"wheredjsplay_backend/pkg/shortlink"
)

var (
	linkRegistry     *shortlink.Registry
	linkAnalytics    *shortlink.Analytics
	shortLinkBaseURL string
)

func InitShortLinkController(registry *shortlink.Registry, analytics *shortlink.Analytics, baseURL string) {
	linkRegistry = registry
	linkAnalytics = analytics
	shortLinkBaseURL = baseURL
}

type GenerateShortLinkInput struct {
	ArticleID   uint   `json:"article_id" validate:"required"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMTerm     string `json:"utm_term"`
	UTMContent  string `json:"utm_content"`
}

func GenerateShortLink(c *fiber.Ctx) error {
	input := new(GenerateShortLinkInput)
	if err := c.BodyParser(input); err != nil || input.ArticleID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Article ID is required",
		})
	}

	link, err := linkRegistry.Generate(input.ArticleID, shortlink.UTMParams{
		Source:   input.UTMSource,
		Medium:   input.UTMMedium,
		Campaign: input.UTMCampaign,
		Term:     input.UTMTerm,
		Content:  input.UTMContent,
	})
	if err != nil {
		if errors.Is(err, shortlink.ErrArticleNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   true,
				"message": "Article not found",
			})
		}
		if errors.Is(err, shortlink.ErrSlugConflict) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   true,
				"message": "Could not allocate a unique short slug",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to generate short link",
		})
	}

	clickCount, _ := linkAnalytics.ClickCount(link.ID)

	return c.JSON(fiber.Map{
		"error": false,
		"data": fiber.Map{
			"short_link":  shortlink.ShortURL(shortLinkBaseURL, link.ShortSlug),
			"short_slug":  link.ShortSlug,
			"full_url":    link.FullURL,
			"click_count": clickCount,
			"created_at":  link.CreatedAt,
		},
	})
}

// GetArticleShortLinks lists every short link of one article, with click
// counts derived from the event log.
func GetArticleShortLinks(c *fiber.Ctx) error {
	articleID, err := strconv.ParseUint(c.Params("articleId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid article ID",
		})
	}

	type linkRow struct {
		model.ShortLink
		ClickCount int64 `json:"click_count"`
	}

	var links []linkRow
	err = database.GetDB().Model(&model.ShortLink{}).
		Select("short_links.*, (SELECT COUNT(*) FROM link_analytics la WHERE la.short_link_id = short_links.id) AS click_count").
		Where("short_links.article_id = ?", articleID).
		Order("short_links.created_at DESC").
		Scan(&links).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not fetch short links",
		})
	}

	data := make([]fiber.Map, 0, len(links))
	for _, link := range links {
		data = append(data, fiber.Map{
			"id":           link.ID,
			"short_slug":   link.ShortSlug,
			"short_link":   shortlink.ShortURL(shortLinkBaseURL, link.ShortSlug),
			"full_url":     link.FullURL,
			"utm_source":   link.UTMSource,
			"utm_medium":   link.UTMMedium,
			"utm_campaign": link.UTMCampaign,
			"utm_term":     link.UTMTerm,
			"utm_content":  link.UTMContent,
			"click_count":  link.ClickCount,
			"created_at":   link.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data":  data,
	})
}

func queryPeriod(c *fiber.Ctx) int {
	period, err := strconv.Atoi(c.Query("period", "30"))
	if err != nil || period < 1 || period > 365 {
		return 30
	}
	return period
}

func GetShortLinkAnalytics(c *fiber.Ctx) error {
	articleID, err := strconv.ParseUint(c.Params("articleId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid article ID",
		})
	}
	period := queryPeriod(c)

	summary, err := linkAnalytics.ArticleSummary(uint(articleID), period)
	if err != nil {
		return analyticsError(c, err)
	}
	referrers, err := linkAnalytics.ArticleReferrers(uint(articleID), 10)
	if err != nil {
		return analyticsError(c, err)
	}
	dailyClicks, err := linkAnalytics.ArticleDailyClicks(uint(articleID), period)
	if err != nil {
		return analyticsError(c, err)
	}
	geoData, err := linkAnalytics.ArticleGeo(uint(articleID), period, 10)
	if err != nil {
		return analyticsError(c, err)
	}
	utmData, err := linkAnalytics.UTMBreakdown(uint(articleID), period)
	if err != nil {
		return analyticsError(c, err)
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data": fiber.Map{
			"summary":     summary,
			"referrers":   referrers,
			"dailyClicks": dailyClicks,
			"geoData":     geoData,
			"utmData":     utmData,
		},
	})
}

func GetShortLinkDashboard(c *fiber.Ctx) error {
	dashboard, err := linkAnalytics.DashboardStats(queryPeriod(c))
	if err != nil {
		return analyticsError(c, err)
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data":  dashboard,
	})
}

func GetDetailedClicks(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	clicks, total, err := linkAnalytics.DetailedClicks(queryPeriod(c), page, limit)
	if err != nil {
		return analyticsError(c, err)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data": fiber.Map{
			"clicks": clicks,
			"pagination": fiber.Map{
				"page":  page,
				"limit": limit,
				"total": total,
				"pages": (total + int64(limit) - 1) / int64(limit),
			},
		},
	})
}

func analyticsError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   true,
		"message": "Failed to get analytics data",
	})
}
