package email

var GlobalEmailService *EmailService

func InitEmailService(apiKey, senderEmail, senderName string) error {
	service, err := NewEmailService(apiKey, senderEmail, senderName)
	if err != nil {
		return err
	}
	GlobalEmailService = service
	return nil
}
