package controller

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wheredjsplay_backend/internal/model"
	"wheredjsplay_backend/pkg/database"
	"wheredjsplay_backend/pkg/geo"
	"wheredjsplay_backend/pkg/newsletter"
	"wheredjsplay_backend/pkg/settings"
	"wheredjsplay_backend/pkg/shortlink"
	"wheredjsplay_backend/pkg/utils/jwt"
)

// setupTest installs an in-memory database behind the package globals the
// handlers read, and wires every controller dependency against it.
func setupTest(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("getting sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Article{},
		&model.ShortLink{},
		&model.ClickEvent{},
		&model.Subscriber{},
		&model.NewsletterCampaign{},
		&model.SiteSetting{},
	); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	database.DB = db
	t.Cleanup(func() { database.DB = nil })

	registry := shortlink.NewRegistry(db, "https://wheredjsplay.com")
	analytics := shortlink.NewAnalytics(db)
	dispatcher := newsletter.NewDispatcher(db, nil, "https://wheredjsplay.com")
	dispatcher.BatchDelay = 0
	automation := newsletter.NewAutomation(db, settings.NewService(db), dispatcher,
		"https://api.wheredjsplay.com", "https://wheredjsplay.com")

	InitArticleController(automation)
	InitShortLinkController(registry, analytics, "https://api.wheredjsplay.com")
	InitRedirectController(registry, analytics, geo.NoopProvider{})
	InitSubscriberController(dispatcher)
	InitSettingsController(settings.NewService(db))
	InitUserController("https://wheredjsplay.com")

	return db
}

// asUser injects claims the way the auth middleware would after validating
// a token.
func asUser(userID uint, email, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", &jwt.Claims{UserID: userID, Email: email, Role: role})
		return c.Next()
	}
}

func seedAuthor(t *testing.T, db *gorm.DB) (*model.User, *model.Category) {
	t.Helper()

	user := model.User{
		Name:     "Test Editor",
		Email:    "editor@example.com",
		Password: "hashed",
		Role:     model.RoleEditor,
		Status:   model.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	category := model.Category{Name: "News"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seeding category: %v", err)
	}
	return &user, &category
}

func seedArticle(t *testing.T, db *gorm.DB, authorID, categoryID uint, status model.ArticleStatus) *model.Article {
	t.Helper()

	article := model.Article{
		Title:      "Test Article",
		Excerpt:    "Excerpt",
		Content:    "Content",
		CategoryID: categoryID,
		AuthorID:   authorID,
		Status:     status,
	}
	if err := db.Create(&article).Error; err != nil {
		t.Fatalf("seeding article: %v", err)
	}
	return &article
}
