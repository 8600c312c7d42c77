package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Email    EmailConfig
	URLs     URLConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
}

type EmailConfig struct {
	BrevoAPIKey string
	SenderEmail string
	SenderName  string
}

// URLConfig holds the public origins used when building short links,
// article URLs and unsubscribe links.
type URLConfig struct {
	BaseURL     string
	FrontendURL string
}

func Load() *Config {
	godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3001"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "dev_jwt_secret_change_in_production"),
		},
		Email: EmailConfig{
			BrevoAPIKey: getEnv("BREVO_API_KEY", ""),
			SenderEmail: getEnv("BREVO_SENDER_EMAIL", "noreply@wheredjsplay.com"),
			SenderName:  getEnv("BREVO_SENDER_NAME", "WhereDJsPlay"),
		},
		URLs: URLConfig{
			BaseURL:     getEnv("BASE_URL", "http://localhost:3001"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
