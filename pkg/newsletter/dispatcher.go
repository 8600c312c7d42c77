// Package newsletter implements campaign broadcasts and the automation gate
// that triggers them when the publish scheduler releases an article.
package newsletter

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"gorm.io/gorm"

	"wheredjsplay_backend/internal/model"
	"wheredjsplay_backend/pkg/email"
)

var (
	ErrNoSubscribers = errors.New("no active subscribers found")
	ErrNoSender      = errors.New("email sender not configured")
	// ErrAlreadySent means an automated campaign for this article already
	// exists; the unique constraint on newsletter_campaigns caught a
	// duplicate trigger.
	ErrAlreadySent = errors.New("automated campaign already sent for this article")
)

// SendResult summarizes one finished broadcast.
type SendResult struct {
	CampaignID       uint  `json:"campaign_id"`
	SentCount        int64 `json:"sent_count"`
	FailedCount      int64 `json:"failed_count"`
	TotalSubscribers int64 `json:"total_subscribers"`
}

// Dispatcher broadcasts a campaign to every active subscriber in fixed-size
// batches with a delay in between, the only deliberate backpressure point in
// the process. Per-recipient failures are counted and logged, never fatal.
type Dispatcher struct {
	db          *gorm.DB
	sender      email.Sender
	frontendURL string

	// BatchSize and BatchDelay default to the email provider's comfortable
	// rate; tests shrink them.
	BatchSize  int
	BatchDelay time.Duration
}

func NewDispatcher(db *gorm.DB, sender email.Sender, frontendURL string) *Dispatcher {
	return &Dispatcher{
		db:          db,
		sender:      sender,
		frontendURL: frontendURL,
		BatchSize:   10,
		BatchDelay:  time.Second,
	}
}

// SendCampaign runs a manual broadcast with the given subject and HTML body.
func (d *Dispatcher) SendCampaign(subject, content string, sentBy uint) (*SendResult, error) {
	deliver := func(sub model.Subscriber, unsubscribeURL string) error {
		return d.sender.SendNewsletterEmail(sub.Email, sub.Name, subject, content, unsubscribeURL)
	}
	return d.broadcast(subject, content, model.CampaignTypeManual, nil, sentBy, deliver)
}

func (d *Dispatcher) unsubscribeURL(subscriberEmail string) string {
	return fmt.Sprintf("%s/unsubscribe?email=%s", d.frontendURL, url.QueryEscape(subscriberEmail))
}

// broadcast creates the campaign row before anything is sent, so a crash
// mid-send leaves an auditable status=sending row, then works through the
// subscriber list and finalizes the row exactly once.
func (d *Dispatcher) broadcast(
	subject, content string,
	campaignType model.CampaignType,
	articleID *uint,
	sentBy uint,
	deliver func(sub model.Subscriber, unsubscribeURL string) error,
) (*SendResult, error) {
	if d.sender == nil {
		return nil, ErrNoSender
	}

	var subscribers []model.Subscriber
	if err := d.db.Where("status = ?", model.SubscriberStatusActive).Find(&subscribers).Error; err != nil {
		return nil, err
	}
	if len(subscribers) == 0 {
		return nil, ErrNoSubscribers
	}

	campaign := model.NewsletterCampaign{
		Subject:          subject,
		Content:          content,
		CampaignType:     campaignType,
		Status:           model.CampaignStatusSending,
		ArticleID:        articleID,
		TotalSubscribers: int64(len(subscribers)),
		SentBy:           sentBy,
	}
	if err := d.db.Create(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadySent
		}
		return nil, err
	}

	batchSize := d.BatchSize
	if batchSize < 1 {
		batchSize = 10
	}

	var sentCount, failedCount int64
	for i := 0; i < len(subscribers); i += batchSize {
		end := i + batchSize
		if end > len(subscribers) {
			end = len(subscribers)
		}

		for _, sub := range subscribers[i:end] {
			if err := deliver(sub, d.unsubscribeURL(sub.Email)); err != nil {
				log.Printf("Failed to send campaign %d email to %s: %v", campaign.ID, sub.Email, err)
				failedCount++
				continue
			}

			if err := d.db.Model(&model.Subscriber{}).
				Where("email = ?", sub.Email).
				Updates(map[string]interface{}{
					"last_email_sent": time.Now(),
					"email_count":     gorm.Expr("email_count + ?", 1),
				}).Error; err != nil {
				log.Printf("Failed to update stats for subscriber %s: %v", sub.Email, err)
			}

			sentCount++
		}

		if end < len(subscribers) {
			time.Sleep(d.BatchDelay)
		}
	}

	// The status predicate guards the sending -> sent transition so the
	// final counts are written exactly once.
	now := time.Now()
	if err := d.db.Model(&model.NewsletterCampaign{}).
		Where("id = ? AND status = ?", campaign.ID, model.CampaignStatusSending).
		Updates(map[string]interface{}{
			"status":       model.CampaignStatusSent,
			"sent_at":      now,
			"sent_count":   sentCount,
			"failed_count": failedCount,
		}).Error; err != nil {
		return nil, err
	}

	return &SendResult{
		CampaignID:       campaign.ID,
		SentCount:        sentCount,
		FailedCount:      failedCount,
		TotalSubscribers: int64(len(subscribers)),
	}, nil
}
