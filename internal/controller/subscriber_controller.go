package controller

import (
	"errors"
	"log"
	"net/mail"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"wheredjsplay_backend/internal/model"
	"wheredjsplay_backend/pkg/database"
	"wheredjsplay_backend/pkg/email"
	"wheredjsplay_backend/pkg/newsletter"
	"wheredjsplay_backend/pkg/utils/jwt"
)

var campaignDispatcher *newsletter.Dispatcher

func InitSubscriberController(dispatcher *newsletter.Dispatcher) {
	campaignDispatcher = dispatcher
}

type SubscribeInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

type UnsubscribeInput struct {
	Email string `json:"email" validate:"required,email"`
}

type CampaignInput struct {
	Subject string `json:"subject" validate:"required,min=1,max=255"`
	Content string `json:"content" validate:"required,min=1"`
}

func Subscribe(c *fiber.Ctx) error {
	input := new(SubscribeInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid input",
		})
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid email format",
		})
	}

	db := database.GetDB()

	var existing model.Subscriber
	err := db.Where("email = ?", input.Email).First(&existing).Error
	if err == nil {
		if existing.Status == model.SubscriberStatusActive {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   true,
				"message": "This email is already subscribed to our newsletter.",
			})
		}

		// A previously unsubscribed address comes back on the same row.
		if err := db.Model(&existing).Updates(map[string]interface{}{
			"status":          model.SubscriberStatusActive,
			"unsubscribed_at": nil,
		}).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   true,
				"message": "Failed to subscribe. Please try again.",
			})
		}

		return c.JSON(fiber.Map{
			"error":   false,
			"message": "Welcome back! Your subscription has been reactivated.",
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to subscribe. Please try again.",
		})
	}

	subscriber := model.Subscriber{
		Email:  input.Email,
		Name:   input.Name,
		Status: model.SubscriberStatusActive,
	}
	if err := db.Create(&subscriber).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   true,
				"message": "This email is already subscribed to our newsletter.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to subscribe. Please try again.",
		})
	}

	if email.GlobalEmailService != nil {
		go func(to, name string) {
			if err := email.GlobalEmailService.SendWelcomeEmail(to, name); err != nil {
				log.Printf("Failed to send welcome email to %s: %v", to, err)
			}
		}(subscriber.Email, subscriber.Name)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"error":   false,
		"message": "Thank you for subscribing to our newsletter!",
	})
}

func Unsubscribe(c *fiber.Ctx) error {
	input := new(UnsubscribeInput)
	if err := c.BodyParser(input); err != nil || input.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Email is required.",
		})
	}

	res := database.GetDB().Model(&model.Subscriber{}).
		Where("email = ?", input.Email).
		Updates(map[string]interface{}{
			"status":          model.SubscriberStatusUnsubscribed,
			"unsubscribed_at": time.Now(),
		})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to unsubscribe. Please try again.",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Email not found in our subscription list.",
		})
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "You have been successfully unsubscribed from our newsletter.",
	})
}

func ListSubscribers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	q := database.GetDB().Model(&model.Subscriber{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		q = q.Where("email LIKE ? OR name LIKE ?", pattern, pattern)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to fetch subscribers.",
		})
	}

	var subscribers []model.Subscriber
	err := q.Order("subscribed_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&subscribers).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to fetch subscribers.",
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data":  subscribers,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func GetSubscriberStats(c *fiber.Ctx) error {
	db := database.GetDB()
	now := time.Now()

	var stats struct {
		TotalSubscribers        int64 `json:"total_subscribers"`
		ActiveSubscribers       int64 `json:"active_subscribers"`
		UnsubscribedSubscribers int64 `json:"unsubscribed_subscribers"`
		NewThisWeek             int64 `json:"new_this_week"`
		NewThisMonth            int64 `json:"new_this_month"`
	}

	db.Model(&model.Subscriber{}).Count(&stats.TotalSubscribers)
	db.Model(&model.Subscriber{}).Where("status = ?", model.SubscriberStatusActive).Count(&stats.ActiveSubscribers)
	db.Model(&model.Subscriber{}).Where("status = ?", model.SubscriberStatusUnsubscribed).Count(&stats.UnsubscribedSubscribers)
	db.Model(&model.Subscriber{}).Where("subscribed_at >= ?", now.AddDate(0, 0, -7)).Count(&stats.NewThisWeek)
	db.Model(&model.Subscriber{}).Where("subscribed_at >= ?", now.AddDate(0, 0, -30)).Count(&stats.NewThisMonth)

	return c.JSON(fiber.Map{
		"error": false,
		"data":  stats,
	})
}

// DeleteSubscriber hard-deletes the row. Admin-only; user-initiated
// removal goes through Unsubscribe, which keeps the row re-subscribable.
func DeleteSubscriber(c *fiber.Ctx) error {
	res := database.GetDB().Unscoped().Delete(&model.Subscriber{}, c.Params("id"))
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to delete subscriber.",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Subscriber not found.",
		})
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Subscriber deleted successfully.",
	})
}

func SendCampaign(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(CampaignInput)
	if err := c.BodyParser(input); err != nil || input.Subject == "" || input.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Subject and content are required",
		})
	}

	result, err := campaignDispatcher.SendCampaign(input.Subject, input.Content, claims.UserID)
	if err != nil {
		if errors.Is(err, newsletter.ErrNoSubscribers) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "No active subscribers found.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to send newsletter campaign.",
		})
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Newsletter sent successfully!",
		"data":    result,
	})
}

func ListCampaigns(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	db := database.GetDB()

	var total int64
	db.Model(&model.NewsletterCampaign{}).Count(&total)

	type campaignRow struct {
		model.NewsletterCampaign
		SenderName string `json:"sender_name"`
	}

	var campaigns []campaignRow
	err := db.Model(&model.NewsletterCampaign{}).
		Select("newsletter_campaigns.*, u.name AS sender_name").
		Joins("LEFT JOIN users u ON newsletter_campaigns.sent_by = u.id").
		Order("newsletter_campaigns.created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Scan(&campaigns).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to fetch campaigns.",
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data":  campaigns,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}
