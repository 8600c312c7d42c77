package newsletter

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"wheredjsplay_backend/internal/model"
	"wheredjsplay_backend/pkg/settings"
)

func createPublishedArticle(t *testing.T, db *gorm.DB, title string) *model.Article {
	t.Helper()

	category := model.Category{Name: "News " + title}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seeding category: %v", err)
	}
	author := model.User{Name: "Editor", Email: title + "@example.com", Password: "x", Role: model.RoleEditor}
	if err := db.Create(&author).Error; err != nil {
		t.Fatalf("seeding author: %v", err)
	}

	article := model.Article{
		Title:      title,
		Excerpt:    "A short excerpt",
		Content:    "Body",
		CategoryID: category.ID,
		AuthorID:   author.ID,
		Status:     model.ArticleStatusPublished,
	}
	if err := db.Create(&article).Error; err != nil {
		t.Fatalf("creating article: %v", err)
	}
	return &article
}

func TestShouldSendRequiresToggle(t *testing.T) {
	db := newTestDB(t)
	svc := settings.NewService(db)
	auto := NewAutomation(db, svc, newTestDispatcher(db, &fakeSender{}), "https://api.wheredjsplay.com", "https://wheredjsplay.com")
	article := createPublishedArticle(t, db, "Toggle Check")

	if auto.ShouldSend(article) {
		t.Error("gate should refuse while the setting is missing")
	}

	svc.Set(settings.KeyNewsletterAutomationEnabled, "false")
	if auto.ShouldSend(article) {
		t.Error("gate should refuse while the setting is false")
	}

	svc.Set(settings.KeyNewsletterAutomationEnabled, "true")
	if !auto.ShouldSend(article) {
		t.Error("gate should pass once enabled")
	}
}

func TestShouldSendRequiresTitleAndExcerpt(t *testing.T) {
	db := newTestDB(t)
	svc := enableAutomation(t, db)
	auto := NewAutomation(db, svc, newTestDispatcher(db, &fakeSender{}), "https://api.wheredjsplay.com", "https://wheredjsplay.com")

	article := createPublishedArticle(t, db, "Complete Article")
	article.Excerpt = ""
	if auto.ShouldSend(article) {
		t.Error("gate should refuse an article without an excerpt")
	}
}

func TestShouldSendRefusesDuplicateAutomatedCampaign(t *testing.T) {
	db := newTestDB(t)
	svc := enableAutomation(t, db)
	auto := NewAutomation(db, svc, newTestDispatcher(db, &fakeSender{}), "https://api.wheredjsplay.com", "https://wheredjsplay.com")
	article := createPublishedArticle(t, db, "Already Broadcast")

	existing := model.NewsletterCampaign{
		Subject:      "New Article: Already Broadcast",
		CampaignType: model.CampaignTypeAutomated,
		Status:       model.CampaignStatusSent,
		ArticleID:    &article.ID,
	}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatalf("seeding campaign: %v", err)
	}

	if auto.ShouldSend(article) {
		t.Error("gate should refuse when an automated campaign already exists")
	}
}

func TestSendForArticleBroadcastsOnce(t *testing.T) {
	db := newTestDB(t)
	svc := enableAutomation(t, db)
	sender := &fakeSender{}
	auto := NewAutomation(db, svc, newTestDispatcher(db, sender), "https://api.wheredjsplay.com", "https://wheredjsplay.com")
	article := createPublishedArticle(t, db, "Festival Announcement")
	seedSubscribers(t, db, 3)

	result, err := auto.SendForArticle(article)
	if err != nil {
		t.Fatalf("SendForArticle: %v", err)
	}
	if result.SentCount != 3 {
		t.Errorf("sent count = %d, want 3", result.SentCount)
	}
	if len(sender.articleSent) != 3 {
		t.Errorf("deliveries = %d, want 3", len(sender.articleSent))
	}

	var campaign model.NewsletterCampaign
	if err := db.Where("campaign_type = ? AND article_id = ?",
		model.CampaignTypeAutomated, article.ID).First(&campaign).Error; err != nil {
		t.Fatalf("loading campaign: %v", err)
	}
	if campaign.Status != model.CampaignStatusSent {
		t.Errorf("campaign status = %q, want sent", campaign.Status)
	}

	// The unique index makes a second send for the same article refuse.
	if _, err := auto.SendForArticle(article); !errors.Is(err, ErrAlreadySent) {
		t.Errorf("second send err = %v, want ErrAlreadySent", err)
	}

	var count int64
	db.Model(&model.NewsletterCampaign{}).
		Where("campaign_type = ? AND article_id = ?", model.CampaignTypeAutomated, article.ID).
		Count(&count)
	if count != 1 {
		t.Errorf("automated campaigns for article = %d, want 1", count)
	}
}

func TestSendForArticleAllowsManualAndAutomated(t *testing.T) {
	db := newTestDB(t)
	svc := enableAutomation(t, db)
	sender := &fakeSender{}
	d := newTestDispatcher(db, sender)
	auto := NewAutomation(db, svc, d, "https://api.wheredjsplay.com", "https://wheredjsplay.com")
	article := createPublishedArticle(t, db, "Mixed Campaigns")
	seedSubscribers(t, db, 1)

	if _, err := auto.SendForArticle(article); err != nil {
		t.Fatalf("SendForArticle: %v", err)
	}

	// A manual campaign is not constrained by the automated index.
	if _, err := d.SendCampaign("Manual Blast", "<p>hello</p>", 1); err != nil {
		t.Fatalf("manual SendCampaign after automated: %v", err)
	}

	var count int64
	db.Model(&model.NewsletterCampaign{}).Count(&count)
	if count != 2 {
		t.Errorf("campaign rows = %d, want 2", count)
	}
}
