package main

import (
	"time"

	"github.com/md-rashed-zaman/clinicagenda/libs/config"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/slots"
)

type settings struct {
	service     string
	port        string
	grpcPort    string
	databaseURL string
	migrate     bool

	redisAddr     string
	redisPassword string
	redisDB       int
	availTTL      time.Duration
	listTTL       time.Duration

	step slots.Step

	kafkaBrokers []string
	outboxPoll   time.Duration

	jwtSecret   string
	corsOrigins []string
	rateLimit   int
}

func loadSettings() (settings, error) {
	s := settings{
		service:       config.String("SERVICE_NAME", "agenda-service"),
		migrate:       config.Bool("MIGRATE_ON_START", true),
		redisAddr:     config.String("REDIS_ADDR", ""),
		redisPassword: config.String("REDIS_PASSWORD", ""),
		kafkaBrokers:  config.List("KAFKA_BROKERS"),
		jwtSecret:     config.String("AUTH_JWT_SECRET", ""),
		corsOrigins:   config.List("CORS_ALLOWED_ORIGINS"),
	}
	var err error
	if s.port, err = config.Port("PORT", "8080"); err != nil {
		return settings{}, err
	}
	if s.grpcPort, err = config.Port("GRPC_PORT", "9090"); err != nil {
		return settings{}, err
	}
	if s.databaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
		return settings{}, err
	}
	if s.redisDB, err = config.Int("REDIS_DB", 0); err != nil {
		return settings{}, err
	}
	if s.availTTL, err = config.Duration("AVAILABILITY_CACHE_TTL", 5*time.Minute); err != nil {
		return settings{}, err
	}
	if s.listTTL, err = config.Duration("LIST_CACHE_TTL", time.Minute); err != nil {
		return settings{}, err
	}
	if s.outboxPoll, err = config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second); err != nil {
		return settings{}, err
	}
	if s.rateLimit, err = config.Int("RATE_LIMIT_PER_MINUTE", 300); err != nil {
		return settings{}, err
	}
	minutes, err := config.Int("SLOT_STEP_MINUTES", 60)
	if err != nil {
		return settings{}, err
	}
	if s.step, err = slots.ParseStep(minutes); err != nil {
		return settings{}, err
	}
	return s, nil
}
