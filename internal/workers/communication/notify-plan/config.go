// internal/workers/communication/notify-plan/config.go
package notifyplan

import (
	"os"
	"time"
)

type Config struct {
	Timeout time.Duration

	Region    string
	FromEmail string

	// SMSEnabled gates the SNS path; email always goes out.
	SMSEnabled bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    30 * time.Second,
		Region:     envOr("AWS_REGION", "us-east-1"),
		FromEmail:  envOr("NOTIFICATIONS_FROM_EMAIL", "plans@fairtrip.example.com"),
		SMSEnabled: os.Getenv("NOTIFICATIONS_SMS_ENABLED") == "true",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
