package seed

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"wheredjsplay_backend/internal/model"
	"wheredjsplay_backend/pkg/settings"
)

var defaultCategories = []model.Category{
	{Name: "News", Description: "Latest news from the scene"},
	{Name: "Interviews", Description: "Conversations with artists"},
	{Name: "Events", Description: "Festivals, club nights and tours"},
	{Name: "Reviews", Description: "Releases and live sets reviewed"},
}

// Run creates the default admin account, base categories and initial site
// settings. Every step is idempotent so it is safe on every startup.
func Run(db *gorm.DB, svc *settings.Service) {
	seedAdmin(db)
	seedCategories(db)
	seedSettings(svc)
}

func seedAdmin(db *gorm.DB) {
	var count int64
	db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count)
	if count > 0 {
		return
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" {
		email = "admin@wheredjsplay.com"
	}
	if password == "" {
		password = "admin123"
		log.Println("ADMIN_PASSWORD not set, using default credentials")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("could not hash admin password: %v", err)
		return
	}

	admin := model.User{
		Name:     "Admin",
		Email:    email,
		Password: string(hashed),
		Role:     model.RoleAdmin,
		Status:   model.UserStatusActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("could not seed admin user: %v", err)
		return
	}
	log.Printf("Seeded admin user %s", email)
}

func seedCategories(db *gorm.DB) {
	var count int64
	db.Model(&model.Category{}).Count(&count)
	if count > 0 {
		return
	}

	for _, cat := range defaultCategories {
		c := cat
		if err := db.Create(&c).Error; err != nil {
			log.Printf("could not seed category %q: %v", c.Name, err)
		}
	}
	log.Printf("Seeded %d categories", len(defaultCategories))
}

func seedSettings(svc *settings.Service) {
	defaults := map[string]string{
		settings.KeySiteName:                    "WhereDJsPlay",
		settings.KeySiteTagline:                 "Electronic music news and culture",
		settings.KeyNewsletterAutomationEnabled: "false",
	}

	existing, err := svc.All()
	if err != nil {
		log.Printf("could not read settings: %v", err)
		return
	}

	for key, value := range defaults {
		if _, ok := existing[key]; ok {
			continue
		}
		if err := svc.Set(key, value); err != nil {
			log.Printf("could not seed setting %q: %v", key, err)
		}
	}
}
