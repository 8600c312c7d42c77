package model

import (
	"time"

	"gorm.io/gorm"
)

// ShortLink maps a short slug to an article's canonical URL. An article may
// carry several short links with different UTM sets; the slug itself is
// unique across the table and never reassigned while active.
type ShortLink struct {
	gorm.Model
	ArticleID uint   `json:"article_id" gorm:"index;not null"`
	ShortSlug string `json:"short_slug" gorm:"uniqueIndex;not null"`
	FullURL   string `json:"full_url" gorm:"not null"`

	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMTerm     string `json:"utm_term"`
	UTMContent  string `json:"utm_content"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	Article Article      `json:"-" gorm:"foreignKey:ArticleID"`
	Clicks  []ClickEvent `json:"-" gorm:"foreignKey:ShortLinkID;constraint:OnDelete:CASCADE"`
}

// ClickEvent is one recorded visit to a short link. Rows are append-only;
// every reported click count is derived from this table, there is no
// denormalized counter anywhere that could drift from it.
type ClickEvent struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ShortLinkID uint      `json:"short_link_id" gorm:"index;not null"`
	IPAddress   string    `json:"ip_address" gorm:"index"`
	UserAgent   string    `json:"user_agent"`
	Referrer    *string   `json:"referrer"`
	Country     *string   `json:"country"`
	City        *string   `json:"city"`
	ClickedAt   time.Time `json:"clicked_at" gorm:"index;autoCreateTime"`

	ShortLink ShortLink `json:"-" gorm:"foreignKey:ShortLinkID"`
}

func (ClickEvent) TableName() string {
	return "link_analytics"
}
