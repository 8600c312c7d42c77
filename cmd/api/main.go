package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"wheredjsplay_backend/internal/controller"
	"wheredjsplay_backend/internal/middleware"
	"wheredjsplay_backend/internal/model"
	"wheredjsplay_backend/pkg/config"
	"wheredjsplay_backend/pkg/database"
	"wheredjsplay_backend/pkg/email"
	"wheredjsplay_backend/pkg/geo"
	"wheredjsplay_backend/pkg/newsletter"
	"wheredjsplay_backend/pkg/scheduler"
	"wheredjsplay_backend/pkg/seed"
	"wheredjsplay_backend/pkg/settings"
	"wheredjsplay_backend/pkg/shortlink"
	"wheredjsplay_backend/pkg/utils/cloudflare"
	"wheredjsplay_backend/pkg/utils/jwt"
)

func main() {
	cfg := config.Load()
	jwt.Init(cfg.JWT.Secret)

	if err := email.InitEmailService(cfg.Email.BrevoAPIKey, cfg.Email.SenderEmail, cfg.Email.SenderName); err != nil {
		log.Printf("Email service not available: %v", err)
	}

	cloudflare.InitR2()

	database.InitDB(cfg.Database.URL)
	db := database.GetDB()

	if err := database.MigrateDatabase(
		&model.User{},
		&model.Category{},
		&model.Article{},
		&model.ShortLink{},
		&model.ClickEvent{},
		&model.Subscriber{},
		&model.NewsletterCampaign{},
		&model.SiteSetting{},
	); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	siteSettings := settings.NewService(db)
	seed.Run(db, siteSettings)

	var sender email.Sender
	if email.GlobalEmailService != nil {
		sender = email.GlobalEmailService
	}
	dispatcher := newsletter.NewDispatcher(db, sender, cfg.URLs.FrontendURL)
	automation := newsletter.NewAutomation(db, siteSettings, dispatcher, cfg.URLs.BaseURL, cfg.URLs.FrontendURL)
	registry := shortlink.NewRegistry(db, cfg.URLs.FrontendURL)
	analytics := shortlink.NewAnalytics(db)

	publishScheduler := scheduler.NewScheduler(db, automation)
	if err := publishScheduler.Start(); err != nil {
		log.Fatalf("Could not start publish scheduler: %v", err)
	}
	defer publishScheduler.Stop()

	controller.InitArticleController(automation)
	controller.InitShortLinkController(registry, analytics, cfg.URLs.BaseURL)
	controller.InitRedirectController(registry, analytics, geo.NoopProvider{})
	controller.InitSubscriberController(dispatcher)
	controller.InitSettingsController(siteSettings)
	controller.InitUserController(cfg.URLs.FrontendURL)

	app := fiber.New(fiber.Config{
		AppName: "WhereDJsPlay API",
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.URLs.FrontendURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC()})
	})

	// Public short link redirect, rate limited per visitor IP.
	app.Get("/s/:slug", limiter.New(limiter.Config{
		Max:        1000,
		Expiration: time.Minute,
	}), controller.RedirectShortLink)

	api := app.Group("/api/v1")

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Get("/me", middleware.AuthMiddleware(), controller.GetMe)

	// Articles
	articles := api.Group("/articles")
	articles.Get("/", controller.ListArticles)
	articles.Get("/featured", controller.GetFeaturedArticles)
	articles.Get("/:id", controller.GetArticle)
	articles.Post("/", middleware.AuthMiddleware(), controller.CreateArticle)
	articles.Put("/:id", middleware.AuthMiddleware(), controller.UpdateArticle)
	articles.Delete("/:id", middleware.AuthMiddleware(), controller.DeleteArticle)
	articles.Post("/:id/publish", middleware.AuthMiddleware(), middleware.RequireRole("admin", "editor"), controller.PublishArticle)
	articles.Post("/:id/unpublish", middleware.AuthMiddleware(), middleware.RequireRole("admin", "editor"), controller.UnpublishArticle)
	articles.Post("/:id/schedule", middleware.AuthMiddleware(), middleware.RequireRole("admin", "editor"), controller.ScheduleArticle)
	articles.Post("/:id/featured", middleware.AuthMiddleware(), middleware.RequireRole("admin", "editor"), controller.ToggleFeatured)

	// Search
	search := api.Group("/search")
	search.Get("/articles", controller.SearchArticles)
	search.Get("/suggestions", controller.SearchSuggestions)

	// Users
	users := api.Group("/users")
	users.Get("/", middleware.AuthMiddleware(), middleware.RequireRole("admin", "editor"), controller.ListUsers)
	users.Get("/authors", middleware.AuthMiddleware(), controller.GetAuthors)
	users.Post("/", middleware.AuthMiddleware(), middleware.RequireRole("admin"), controller.CreateUser)
	users.Post("/invite", middleware.AuthMiddleware(), middleware.RequireRole("admin", "editor"), controller.InviteUser)
	users.Get("/:id", middleware.AuthMiddleware(), controller.GetUser)
	users.Put("/:id", middleware.AuthMiddleware(), controller.UpdateUser)
	users.Put("/:id/status", middleware.AuthMiddleware(), middleware.RequireRole("admin"), controller.UpdateUserStatus)
	users.Delete("/:id", middleware.AuthMiddleware(), middleware.RequireRole("admin"), controller.DeleteUser)
	users.Get("/:id/articles", controller.GetUserArticles)

	// Categories
	categories := api.Group("/categories")
	categories.Get("/", controller.ListCategories)
	categories.Get("/:id", controller.GetCategory)
	categories.Post("/", middleware.AuthMiddleware(), middleware.RequireRole("admin", "editor"), controller.CreateCategory)
	categories.Put("/:id", middleware.AuthMiddleware(), middleware.RequireRole("admin", "editor"), controller.UpdateCategory)
	categories.Delete("/:id", middleware.AuthMiddleware(), middleware.RequireRole("admin"), controller.DeleteCategory)

	// Short links and click analytics
	links := api.Group("/short-links")
	links.Post("/generate", limiter.New(limiter.Config{
		Max:        100,
		Expiration: 15 * time.Minute,
	}), middleware.AuthMiddleware(), controller.GenerateShortLink)
	links.Get("/article/:articleId", middleware.AuthMiddleware(), controller.GetArticleShortLinks)
	links.Get("/dashboard", middleware.AuthMiddleware(), middleware.RequireRole("admin", "editor"), controller.GetShortLinkDashboard)
	links.Get("/detailed-clicks", middleware.AuthMiddleware(), middleware.RequireRole("admin", "editor"), controller.GetDetailedClicks)
	links.Get("/analytics/:articleId", middleware.AuthMiddleware(), controller.GetShortLinkAnalytics)

	// Subscribers and newsletter
	subscribers := api.Group("/subscribers")
	subscribers.Post("/subscribe", controller.Subscribe)
	subscribers.Post("/unsubscribe", controller.Unsubscribe)
	subscribers.Get("/", middleware.AuthMiddleware(), middleware.RequireRole("admin", "editor"), controller.ListSubscribers)
	subscribers.Get("/stats", middleware.AuthMiddleware(), middleware.RequireRole("admin", "editor"), controller.GetSubscriberStats)
	subscribers.Delete("/:id", middleware.AuthMiddleware(), middleware.RequireRole("admin"), controller.DeleteSubscriber)

	newsletterGroup := api.Group("/newsletter", middleware.AuthMiddleware(), middleware.RequireRole("admin", "editor"))
	newsletterGroup.Post("/send", controller.SendCampaign)
	newsletterGroup.Get("/campaigns", controller.ListCampaigns)

	// Settings
	settingsGroup := api.Group("/settings")
	settingsGroup.Get("/", middleware.AuthMiddleware(), middleware.RequireRole("admin", "editor"), controller.GetSettings)
	settingsGroup.Put("/", middleware.AuthMiddleware(), middleware.RequireRole("admin"), controller.UpdateSettings)

	// Uploads
	api.Post("/upload/article-image", middleware.AuthMiddleware(), controller.UploadArticleImage)

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
