package main

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/apptbook")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Port != "8083" || cfg.NotifyMode != notifyModeOutbox {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("brokers = %v", cfg.KafkaBrokers)
	}
	if cfg.PollEvery != 2*time.Second || cfg.BatchSize != 50 {
		t.Fatalf("outbox settings = %v/%d", cfg.PollEvery, cfg.BatchSize)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/apptbook")
	t.Setenv("NOTIFY_MODE", "carrier-pigeon")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected invalid NOTIFY_MODE to fail")
	}

	t.Setenv("NOTIFY_MODE", "log")
	t.Setenv("GRPC_PORT", "70000")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected out of range GRPC_PORT to fail")
	}
}

func TestLoadConfigRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected missing DATABASE_URL to fail")
	}
}
