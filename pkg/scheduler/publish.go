// Package scheduler owns the recurring task that releases scheduled
// articles. It is an explicit, injectable component rather than a hidden
// module-level timer, so it can be started, stopped and ticked in tests.
package scheduler

import (
	"errors"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"wheredjsplay_backend/internal/model"
	"wheredjsplay_backend/pkg/newsletter"
)

// Scheduler polls once per minute for draft articles whose publish date has
// passed, flips them to published and hands each to the newsletter
// automation gate. There is no lock anywhere: the transition is a single
// conditional update, so an overlapping tick simply matches zero rows.
type Scheduler struct {
	db         *gorm.DB
	automation *newsletter.Automation
	cron       *cron.Cron

	// RunTickOnStart triggers an immediate pass when Start is called,
	// matching the behavior the frontend relies on after a deploy.
	RunTickOnStart bool
}

func NewScheduler(db *gorm.DB, automation *newsletter.Automation) *Scheduler {
	return &Scheduler{
		db:             db,
		automation:     automation,
		RunTickOnStart: true,
	}
}

func (s *Scheduler) Start() error {
	s.cron = cron.New()

	if _, err := s.cron.AddFunc("@every 1m", s.Tick); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("Article publish scheduler started")

	if s.RunTickOnStart {
		s.Tick()
	}
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Tick is one scheduler pass. Articles are processed independently; an
// error on one never aborts the rest of the batch.
func (s *Scheduler) Tick() {
	now := time.Now()

	var due []model.Article
	err := s.db.Where("status = ? AND publish_date IS NOT NULL AND publish_date <= ?",
		model.ArticleStatusDraft, now).Find(&due).Error
	if err != nil {
		log.Printf("Scheduler: error fetching due articles: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}

	log.Printf("Scheduler: found %d scheduled article(s) to publish", len(due))

	for _, article := range due {
		s.publishOne(article, now)
	}
}

func (s *Scheduler) publishOne(article model.Article, now time.Time) {
	// The conditional update is the idempotency mechanism: a concurrent
	// tick that already published this article matches zero rows here.
	res := s.db.Model(&model.Article{}).
		Where("id = ? AND status = ? AND publish_date IS NOT NULL AND publish_date <= ?",
			article.ID, model.ArticleStatusDraft, now).
		Update("status", model.ArticleStatusPublished)
	if res.Error != nil {
		log.Printf("Scheduler: error publishing article %d: %v", article.ID, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		return
	}

	log.Printf("Scheduler: published article %q (ID: %d)", article.Title, article.ID)
	article.Status = model.ArticleStatusPublished

	if s.automation == nil {
		return
	}
	if !s.automation.ShouldSend(&article) {
		return
	}

	result, err := s.automation.SendForArticle(&article)
	if err != nil {
		if errors.Is(err, newsletter.ErrNoSubscribers) || errors.Is(err, newsletter.ErrAlreadySent) {
			return
		}
		log.Printf("Scheduler: automated newsletter for article %d failed: %v", article.ID, err)
		return
	}
	log.Printf("Scheduler: automated newsletter for article %d sent (sent: %d, failed: %d)",
		article.ID, result.SentCount, result.FailedCount)
}
