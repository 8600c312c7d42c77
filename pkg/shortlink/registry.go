// Package shortlink owns the slug-to-URL registry, the redirect helpers and
// the click analytics queries. Every click count it reports is derived from
// the link_analytics event log.
package shortlink

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"wheredjsplay_backend/internal/model"
)

var (
	ErrArticleNotFound = errors.New("article not found")
	ErrSlugConflict    = errors.New("short slug conflicts with another article's link")
)

// maxSlugAttempts bounds the retry-with-suffix loop when an insert races a
// concurrent generate for a colliding slug.
const maxSlugAttempts = 5

// UTMParams are the five standard campaign-tracking fields.
type UTMParams struct {
	Source   string `json:"utm_source"`
	Medium   string `json:"utm_medium"`
	Campaign string `json:"utm_campaign"`
	Term     string `json:"utm_term"`
	Content  string `json:"utm_content"`
}

func (u UTMParams) IsZero() bool {
	return u.Source == "" && u.Medium == "" && u.Campaign == "" && u.Term == "" && u.Content == ""
}

// Registry issues short links for articles.
type Registry struct {
	db          *gorm.DB
	frontendURL string
}

func NewRegistry(db *gorm.DB, frontendURL string) *Registry {
	return &Registry{db: db, frontendURL: frontendURL}
}

// Generate returns the short link for an article, creating it on first call.
// The slug is derived from the article's own slug, so repeated calls are
// idempotent: an existing active link is returned unchanged even when the
// caller passes different UTM parameters (the slug carries article identity,
// visit-time UTM overrides happen at redirect time).
//
// The unique constraint on short_slug is the real collision guard; when an
// insert loses a race against a link for a different article, the slug is
// retried with a numeric suffix.
func (r *Registry) Generate(articleID uint, utm UTMParams) (*model.ShortLink, error) {
	var article model.Article
	if err := r.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	base := article.Slug
	if base == "" {
		base = fmt.Sprintf("article-%d", article.ID)
	}

	fullURL := fmt.Sprintf("%s/article/%s", r.frontendURL, article.Slug)

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%d", base, attempt+1)
		}

		var existing model.ShortLink
		err := r.db.Where("short_slug = ? AND is_active = ?", candidate, true).First(&existing).Error
		if err == nil {
			if existing.ArticleID == article.ID {
				return &existing, nil
			}
			// Slug is taken by another article's link, try the next suffix.
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		link := model.ShortLink{
			ArticleID:   article.ID,
			ShortSlug:   candidate,
			FullURL:     fullURL,
			UTMSource:   utm.Source,
			UTMMedium:   utm.Medium,
			UTMCampaign: utm.Campaign,
			UTMTerm:     utm.Term,
			UTMContent:  utm.Content,
			IsActive:    true,
		}

		err = r.db.Create(&link).Error
		if err == nil {
			return &link, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost an insert race. If the winner belongs to the same
			// article we can return it, otherwise retry with a suffix.
			var winner model.ShortLink
			if lookupErr := r.db.Where("short_slug = ? AND is_active = ?", candidate, true).
				First(&winner).Error; lookupErr == nil && winner.ArticleID == article.ID {
				return &winner, nil
			}
			continue
		}
		return nil, err
	}

	return nil, ErrSlugConflict
}

// Resolve looks up an active short link by slug.
func (r *Registry) Resolve(slug string) (*model.ShortLink, error) {
	var link model.ShortLink
	err := r.db.Where("short_slug = ? AND is_active = ?", slug, true).First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// ShortURL builds the public /s/ URL for a slug against the given base.
func ShortURL(baseURL, slug string) string {
	return fmt.Sprintf("%s/s/%s", baseURL, slug)
}
