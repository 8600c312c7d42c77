package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"wheredjsplay_backend/pkg/geo"
	"wheredjsplay_backend/pkg/shortlink"
)

var geoProvider geo.Provider

func InitRedirectController(registry *shortlink.Registry, analytics *shortlink.Analytics, provider geo.Provider) {
	linkRegistry = registry
	linkAnalytics = analytics
	geoProvider = provider
}

// RedirectShortLink serves GET /s/:slug. The click is logged synchronously
// before the response goes out, but a failed log write never turns into a
// failed redirect; the visitor gets their 301 either way.
func RedirectShortLink(c *fiber.Ctx) error {
	slug := c.Params("slug")

	link, err := linkRegistry.Resolve(slug)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Short link not found",
		})
	}

	clientIP := shortlink.ClientIP(c)
	userAgent := c.Get("User-Agent")
	referrer := shortlink.SanitizeReferrer(c.Get("Referer"))
	visitUTM := shortlink.ExtractUTM(c)
	location := geo.Lookup(geoProvider, clientIP)

	if err := linkAnalytics.Record(link.ID, clientIP, userAgent, referrer, location.Country, location.City); err != nil {
		log.Printf("Failed to record click for short link %s: %v", slug, err)
	}

	return c.Redirect(shortlink.AppendUTM(link.FullURL, visitUTM), fiber.StatusMovedPermanently)
}
