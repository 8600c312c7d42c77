package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"wheredjsplay_backend/internal/model"
	"wheredjsplay_backend/pkg/database"
)

const maxSuggestions = 10

type suggestion struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Slug  string `json:"slug,omitempty"`
}

// SearchArticles is the full-text-ish search endpoint. Unlike the list
// filter it also matches against the article body.
func SearchArticles(c *fiber.Ctx) error {
	db := database.GetDB()

	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Search query is required",
		})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	pattern := "%" + query + "%"
	q := articleQuery(db).
		Where("articles.title LIKE ? OR articles.excerpt LIKE ? OR articles.content LIKE ?",
			pattern, pattern, pattern)

	status := c.Query("status", "published")
	if status != "" && status != "all" {
		q = q.Where("articles.status = ?", status)
	}
	category := c.Query("category")
	if category != "" {
		q = q.Where("c.slug = ?", category)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not search articles",
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
			"message": "Could not search articles",
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
			"search": fiber.Map{
				"query":    query,
				"category": category,
				"status":   status,
			},
		},
	})
}

// SearchSuggestions powers the search box autocomplete: a mix of article
// titles, categories and author names, capped at a handful of entries.
func SearchSuggestions(c *fiber.Ctx) error {
	db := database.GetDB()

	query := c.Query("q")
	if len(query) < 2 {
		return c.JSON(fiber.Map{
			"error": false,
			"data":  []suggestion{},
		})
	}
	pattern := "%" + query + "%"

	var titles []string
	db.Model(&model.Article{}).
		Distinct("title").
		Where("title LIKE ? AND status = ?", pattern, model.ArticleStatusPublished).
		Limit(5).
		Pluck("title", &titles)

	var categories []model.Category
	db.Select("name, slug").
		Where("name LIKE ?", pattern).
		Limit(5).
		Find(&categories)

	var authors []string
	db.Model(&model.User{}).
		Distinct("name").
		Where("name LIKE ? AND status = ?", pattern, model.UserStatusActive).
		Limit(5).
		Pluck("name", &authors)

	suggestions := make([]suggestion, 0, maxSuggestions)
	for _, t := range titles {
		suggestions = append(suggestions, suggestion{Type: "title", Value: t})
	}
	for _, cat := range categories {
		suggestions = append(suggestions, suggestion{Type: "category", Value: cat.Name, Slug: cat.Slug})
	}
	for _, a := range authors {
		suggestions = append(suggestions, suggestion{Type: "author", Value: a})
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data":  suggestions,
	})
}
