package controller

import (
	"github.com/gofiber/fiber/v2"

	"wheredjsplay_backend/pkg/settings"
)

var siteSettings *settings.Service

func InitSettingsController(s *settings.Service) {
	siteSettings = s
}

// GetSettings serves every setting as a flat key-value map.
func GetSettings(c *fiber.Ctx) error {
	all, err := siteSettings.All()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not fetch settings",
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data":  all,
	})
}

// UpdateSettings upserts each submitted key. Admin only.
func UpdateSettings(c *fiber.Ctx) error {
	var input map[string]string
	if err := c.BodyParser(&input); err != nil || len(input) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid input",
		})
	}

	for key, value := range input {
		if err := siteSettings.Set(key, value); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   true,
				"message": "Could not update settings",
			})
		}
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Settings updated successfully",
	})
}
