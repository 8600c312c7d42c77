package model

import (
	"time"

	"gorm.io/gorm"
)

// Campaign types
type CampaignType string

const (
	CampaignTypeManual    CampaignType = "manual"
	CampaignTypeAutomated CampaignType = "automated"
)

// Campaign statuses
type CampaignStatus string

const (
	CampaignStatusSending CampaignStatus = "sending"
	CampaignStatusSent    CampaignStatus = "sent"
)

// NewsletterCampaign is an immutable audit record of one broadcast. The row
// is created with status=sending before the first email leaves, so a crash
// mid-send is still visible, and flipped to sent exactly once.
//
// The partial unique index on article_id is the enforcement point for the
// "one automated campaign per article" rule; the application-level check in
// the automation gate is only a fast path.
type NewsletterCampaign struct {
	gorm.Model
	Subject string `json:"subject" gorm:"not null"`
	Content string `json:"content" gorm:"type:text"`

	CampaignType CampaignType   `json:"campaign_type" gorm:"size:20;default:'manual';not null"`
	Status       CampaignStatus `json:"status" gorm:"size:20;default:'sending';not null"`

	ArticleID *uint `json:"article_id" gorm:"uniqueIndex:idx_automated_article,where:campaign_type = 'automated'"`

	TotalSubscribers int64 `json:"total_subscribers" gorm:"default:0"`
	SentCount        int64 `json:"sent_count" gorm:"default:0"`
	FailedCount      int64 `json:"failed_count" gorm:"default:0"`

	SentBy uint       `json:"sent_by"`
	SentAt *time.Time `json:"sent_at"`

	Sender User `json:"-" gorm:"foreignKey:SentBy"`
}

func (NewsletterCampaign) TableName() string {
	return "newsletter_campaigns"
}
