package main

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/slots"
)

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://agenda@localhost/agenda")
	t.Setenv("SLOT_STEP_MINUTES", "")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	s, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if s.step != slots.Hour || s.port != "8080" || s.availTTL != 5*time.Minute {
		t.Fatalf("unexpected defaults %+v", s)
	}
	if len(s.kafkaBrokers) != 2 || s.kafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", s.kafkaBrokers)
	}
}

func TestLoadSettingsRejects(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := loadSettings(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://agenda@localhost/agenda")
	t.Setenv("SLOT_STEP_MINUTES", "45")
	if _, err := loadSettings(); err == nil {
		t.Fatal("expected error for a 45 minute step")
	}
}
