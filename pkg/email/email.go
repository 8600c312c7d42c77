package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// Sender is the slice of EmailService the campaign dispatcher depends on,
// so broadcasts can be tested against a fake provider.
type Sender interface {
	SendNewsletterEmail(toEmail, toName, subject, content, unsubscribeURL string) error
	SendArticleNotificationEmail(toEmail, toName string, article ArticleNotificationData, unsubscribeURL string) error
}

type EmailService struct {
	apiKey      string
	senderEmail string
	senderName  string
	templates   *template.Template
	client      *http.Client
}

type brevoParty struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoPayload struct {
	Sender      brevoParty   `json:"sender"`
	To          []brevoParty `json:"to"`
	Subject     string       `json:"subject"`
	HTMLContent string       `json:"htmlContent"`
	TextContent string       `json:"textContent,omitempty"`
}

// Template data structures
type WelcomeEmailData struct {
	Name string
}

type NewsletterEmailData struct {
	Name           string
	Subject        string
	Content        template.HTML
	UnsubscribeURL string
}

type UserInvitationData struct {
	Name     string
	Email    string
	Password string
	Role     string
	LoginURL string
}

type ArticleNotificationData struct {
	Title          string
	Excerpt        string
	Image          string
	Category       string
	Author         string
	PublishDate    string
	ArticleURL     string
	WebsiteURL     string
	UnsubscribeURL string
}

func NewEmailService(apiKey, senderEmail, senderName string) (*EmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("brevo API key is required")
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %v", err)
	}

	return &EmailService{
		apiKey:      apiKey,
		senderEmail: senderEmail,
		senderName:  senderName,
		templates:   templates,
		client:      &http.Client{},
	}, nil
}

func (s *EmailService) sendTemplateEmail(toEmail, toName, subject, templateName string, data interface{}) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %v", err)
	}

	payload := brevoPayload{
		Sender:      brevoParty{Name: s.senderName, Email: s.senderEmail},
		To:          []brevoParty{{Name: toName, Email: toEmail}},
		Subject:     subject,
		HTMLContent: body.String(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling email data: %v", err)
	}

	req, err := http.NewRequest("POST", brevoEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("Brevo API error: status %d, body: %s", resp.StatusCode, string(respBody))
		return fmt.Errorf("brevo API error: %s", string(respBody))
	}

	return nil
}

// Email sending methods
func (s *EmailService) SendWelcomeEmail(toEmail, name string) error {
	data := WelcomeEmailData{
		Name: name,
	}
	return s.sendTemplateEmail(toEmail, name, "Welcome to WhereDJsPlay!", "welcome.html", data)
}

func (s *EmailService) SendUserInvitationEmail(toEmail string, data UserInvitationData) error {
	return s.sendTemplateEmail(toEmail, data.Name, "You've been invited to WhereDJsPlay", "user_invitation.html", data)
}

func (s *EmailService) SendNewsletterEmail(toEmail, toName, subject, content, unsubscribeURL string) error {
	data := NewsletterEmailData{
		Name:           toName,
		Subject:        subject,
		Content:        template.HTML(content),
		UnsubscribeURL: unsubscribeURL,
	}
	return s.sendTemplateEmail(toEmail, toName, subject, "newsletter.html", data)
}

func (s *EmailService) SendArticleNotificationEmail(toEmail, toName string, article ArticleNotificationData, unsubscribeURL string) error {
	article.UnsubscribeURL = unsubscribeURL
	subject := fmt.Sprintf("New Article: %s", article.Title)
	return s.sendTemplateEmail(toEmail, toName, subject, "article_notification.html", article)
}
