package main

import (
	"time"

	"github.com/md-rashed-zaman/apptbook/libs/config"
	"github.com/md-rashed-zaman/apptbook/libs/events"
	"github.com/md-rashed-zaman/apptbook/libs/kafkax"
)

type Config struct {
	ServiceName    string   `validate:"required"`
	Port           string   `validate:"required"`
	DatabaseURL    string   `validate:"required"`
	KafkaBrokers   []string `validate:"min=1"`
	GroupID        string   `validate:"required"`
	Topics         []string `validate:"min=1,dive,required"`
	EmailProvider  string   `validate:"oneof=smtp sendgrid log"`
	SMTPHost       string   `validate:"required_if=EmailProvider smtp"`
	SMTPPort       string   `validate:"required_if=EmailProvider smtp"`
	SMTPUsername   string
	SMTPPassword   string
	EmailFrom      string `validate:"required,email"`
	EmailFromName  string
	SendGridAPIKey string        `validate:"required_if=EmailProvider sendgrid"`
	MaxAttempts    int           `validate:"gt=0"`
	RetryBackoff   time.Duration `validate:"gt=0"`
}

func loadConfig() (Config, error) {
	_ = config.LoadDotEnv()

	port, err := config.Port("PORT", "8085")
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		ServiceName:    config.String("SERVICE_NAME", "notification-service"),
		Port:           port,
		DatabaseURL:    config.String("DATABASE_URL", ""),
		KafkaBrokers:   kafkax.SplitBrokers(config.String("KAFKA_BROKERS", "")),
		GroupID:        config.String("KAFKA_GROUP_ID", "notification-service"),
		Topics:         config.List("KAFKA_CONSUME_TOPICS", events.TopicAppointmentConfirmed+","+events.TopicAppointmentCancelled),
		EmailProvider:  config.String("EMAIL_PROVIDER", "log"),
		SMTPHost:       config.String("SMTP_HOST", ""),
		SMTPPort:       config.String("SMTP_PORT", "587"),
		SMTPUsername:   config.String("SMTP_USER", ""),
		SMTPPassword:   config.String("SMTP_PASS", ""),
		EmailFrom:      config.String("EMAIL_FROM", "noreply@apptbook.local"),
		EmailFromName:  config.String("EMAIL_FROM_NAME", "Appointment Booking"),
		SendGridAPIKey: config.String("SENDGRID_API_KEY", ""),
		MaxAttempts:    config.Int("NOTIFY_MAX_ATTEMPTS", 3),
		RetryBackoff:   config.Duration("NOTIFY_RETRY_BACKOFF", time.Second),
	}
	if err := config.Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
