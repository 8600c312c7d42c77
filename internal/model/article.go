package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gosimple/slug"
)

// Article statuses
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPending   ArticleStatus = "pending"
	ArticleStatusPublished ArticleStatus = "published"
)

type Article struct {
	gorm.Model
	Title   string `json:"title" gorm:"not null"`
	Slug    string `json:"slug" gorm:"uniqueIndex;not null"`
	Excerpt string `json:"excerpt" gorm:"type:text"`
	Content string `json:"content" gorm:"type:text"`
	Image   string `json:"image"`

	CategoryID uint `json:"category_id" gorm:"index;not null"`
	AuthorID   uint `json:"author_id" gorm:"index;not null"`

	Status ArticleStatus `json:"status" gorm:"size:20;default:'draft';not null"`
	// PublishDate in the future while status is draft means "scheduled".
	PublishDate *time.Time `json:"publish_date" gorm:"index"`

	Featured bool `json:"featured" gorm:"default:false"`
	Breaking bool `json:"breaking" gorm:"default:false"`
	Headline bool `json:"headline" gorm:"default:false"`

	Tags           datatypes.JSON `json:"tags"`
	SEOTitle       string         `json:"seo_title"`
	SEODescription string         `json:"seo_description" gorm:"type:text"`

	Views int64 `json:"views" gorm:"default:0"`

	Category   Category    `json:"-" gorm:"foreignKey:CategoryID"`
	Author     User        `json:"-" gorm:"foreignKey:AuthorID"`
	ShortLinks []ShortLink `json:"-" gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
}

// IsScheduled reports whether the article is waiting for the publish
// scheduler to pick it up.
func (a *Article) IsScheduled() bool {
	return a.Status == ArticleStatusDraft && a.PublishDate != nil && a.PublishDate.After(time.Now())
}

// BeforeCreate derives the URL slug from the title. On collision the
// creation date is appended, same scheme the frontend relies on.
func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.Slug == "" {
		s := slug.Make(a.Title)

		var count int64
		tx.Model(&Article{}).Where("slug = ?", s).Count(&count)
		if count > 0 {
			s = s + "-" + time.Now().Format("20060102150405")
		}

		a.Slug = s
	}
	return nil
}
