package main

import (
	"time"

	"github.com/md-rashed-zaman/apptbook/libs/config"
	"github.com/md-rashed-zaman/apptbook/libs/kafkax"
)

const (
	notifyModeOutbox = "outbox"
	notifyModeLog    = "log"
)

type Config struct {
	ServiceName   string `validate:"required"`
	Port          string `validate:"required"`
	GRPCPort      string
	DatabaseURL   string `validate:"required"`
	NotifyMode    string `validate:"oneof=outbox log"`
	KafkaBrokers  []string
	SlotsHidePast bool
	PollEvery     time.Duration `validate:"gt=0"`
	BatchSize     int           `validate:"gt=0,lte=1000"`
	BodyLimit     int64         `validate:"gt=0"`
	Timeout       time.Duration `validate:"gt=0"`
}

func loadConfig() (Config, error) {
	_ = config.LoadDotEnv()

	port, err := config.Port("PORT", "8083")
	if err != nil {
		return Config{}, err
	}
	grpcPort := ""
	if config.String("GRPC_PORT", "") != "" {
		if grpcPort, err = config.Port("GRPC_PORT", ""); err != nil {
			return Config{}, err
		}
	}
	cfg := Config{
		ServiceName:   config.String("SERVICE_NAME", "booking-service"),
		Port:          port,
		GRPCPort:      grpcPort,
		DatabaseURL:   config.String("DATABASE_URL", ""),
		NotifyMode:    config.String("NOTIFY_MODE", notifyModeOutbox),
		KafkaBrokers:  kafkax.SplitBrokers(config.String("KAFKA_BROKERS", "")),
		SlotsHidePast: config.Bool("SLOTS_HIDE_PAST", false),
		PollEvery:     config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
		BatchSize:     config.Int("OUTBOX_BATCH_SIZE", 50),
		BodyLimit:     int64(config.Int("HTTP_BODY_LIMIT_BYTES", 1<<20)),
		Timeout:       config.Duration("HTTP_HANDLER_TIMEOUT", 15*time.Second),
	}
	if err := config.Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
