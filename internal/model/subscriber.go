package model

import (
	"time"

	"gorm.io/gorm"
)

// Subscriber statuses
type SubscriberStatus string

const (
	SubscriberStatusActive       SubscriberStatus = "active"
	SubscriberStatusUnsubscribed SubscriberStatus = "unsubscribed"
)

// Subscriber is a newsletter recipient. Unsubscribing is a soft state flip
// so the same email can re-subscribe without a duplicate row; only an admin
// hard-deletes the record.
type Subscriber struct {
	gorm.Model
	Email  string           `json:"email" gorm:"uniqueIndex;not null"`
	Name   string           `json:"name" gorm:"size:255"`
	Status SubscriberStatus `json:"status" gorm:"size:20;default:'active';not null"`

	SubscribedAt   time.Time  `json:"subscribed_at" gorm:"autoCreateTime"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at"`

	LastEmailSent *time.Time `json:"last_email_sent"`
	EmailCount    int64      `json:"email_count" gorm:"default:0"`
}
