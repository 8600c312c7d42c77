package controller

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"wheredjsplay_backend/pkg/utils/cloudflare"
	"wheredjsplay_backend/pkg/utils/image"
	"wheredjsplay_backend/pkg/utils/validation"
)

// UploadArticleImage accepts a multipart image, re-encodes it and stores it
// in R2 under the articles/ prefix.
func UploadArticleImage(c *fiber.Ctx) error {
	r2 := cloudflare.GetR2()
	if r2 == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "File uploads are not configured",
		})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No image file provided",
		})
	}

	if err := validation.ValidateImageFile(file); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	buf, contentType, err := image.ProcessImage(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not process image",
		})
	}

	ext := ".webp"
	if contentType != "image/webp" {
		ext = strings.ToLower(filepath.Ext(file.Filename))
	}

	url, err := r2.UploadFile(c.Context(), buf, contentType, "articles", ext)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not upload image",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Image uploaded successfully",
		"data": fiber.Map{
			"url": url,
		},
	})
}
