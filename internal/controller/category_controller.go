package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"wheredjsplay_backend/internal/model"
	"wheredjsplay_backend/pkg/database"
)

type CategoryInput struct {
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type categoryWithCounts struct {
	model.Category
	ArticleCount int64 `json:"article_count"`
	TotalViews   int64 `json:"total_views"`
}

func categoryQuery() *gorm.DB {
	return database.GetDB().Model(&model.Category{}).
		Select("categories.*, COUNT(a.id) AS article_count, COALESCE(SUM(a.views), 0) AS total_views").
		Joins("LEFT JOIN articles a ON categories.id = a.category_id AND a.status = ?", model.ArticleStatusPublished).
		Group("categories.id")
}

func ListCategories(c *fiber.Ctx) error {
	var categories []categoryWithCounts
	err := categoryQuery().Order("categories.name ASC").Scan(&categories).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not fetch categories",
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data":  categories,
	})
}

func GetCategory(c *fiber.Ctx) error {
	var category categoryWithCounts
	err := categoryQuery().Where("categories.id = ?", c.Params("id")).Scan(&category).Error
	if err != nil || category.ID == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Category not found",
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data":  category,
	})
}

func CreateCategory(c *fiber.Ctx) error {
	input := new(CategoryInput)
	if err := c.BodyParser(input); err != nil || input.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Category name is required",
		})
	}

	category := model.Category{
		Name:        input.Name,
		Slug:        input.Slug,
		Description: input.Description,
		Color:       input.Color,
	}

	if err := database.GetDB().Create(&category).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   true,
			"message": "Could not create category (duplicate slug?)",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"error":   false,
		"message": "Category created successfully",
		"data":    category,
	})
}

func UpdateCategory(c *fiber.Ctx) error {
	db := database.GetDB()

	var category model.Category
	if err := db.First(&category, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Category not found",
		})
	}

	input := new(CategoryInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid input",
		})
	}

	updates := map[string]interface{}{}
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.Slug != "" {
		updates["slug"] = input.Slug
	}
	if input.Description != "" {
		updates["description"] = input.Description
	}
	if input.Color != "" {
		updates["color"] = input.Color
	}

	if err := db.Model(&category).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not update category",
		})
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Category updated successfully",
		"data":    category,
	})
}

func DeleteCategory(c *fiber.Ctx) error {
	db := database.GetDB()

	var count int64
	db.Model(&model.Article{}).Where("category_id = ?", c.Params("id")).Count(&count)
	if count > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   true,
			"message": "Cannot delete a category that still has articles",
		})
	}

	res := db.Delete(&model.Category{}, c.Params("id"))
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not delete category",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Category not found",
		})
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Category deleted successfully",
	})
}
