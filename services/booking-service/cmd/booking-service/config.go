package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/md-rashed-zaman/salonbook/libs/db"
)

type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"booking-service"`
	Port        string `envconfig:"PORT" default:"8083"`
	GRPCPort    string `envconfig:"GRPC_PORT" default:"9093"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"true"`

	db.PoolConfig

	OutboxSink         string        `envconfig:"OUTBOX_SINK" default:"kafka"`
	KafkaBrokers       string        `envconfig:"KAFKA_BROKERS"`
	AMQPURL            string        `envconfig:"AMQP_URL"`
	AMQPExchange       string        `envconfig:"AMQP_EXCHANGE" default:"salonbook.events"`
	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"50"`
	OutboxMaxAttempts  int           `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"20"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"30m"`

	SlotStepMinutes    int           `envconfig:"SLOT_STEP_MINUTES" default:"30"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	RequestBodyLimit   int64         `envconfig:"REQUEST_BODY_LIMIT_BYTES" default:"1048576"`
	CORSOrigins        string        `envconfig:"CORS_ALLOWED_ORIGINS"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return cfg, err
	}
	cfg.OutboxSink = strings.ToLower(strings.TrimSpace(cfg.OutboxSink))
	switch cfg.OutboxSink {
	case "kafka", "amqp":
	default:
		return cfg, fmt.Errorf("OUTBOX_SINK must be kafka or amqp (got %q)", cfg.OutboxSink)
	}
	if err := config.ValidatePort("PORT", cfg.Port); err != nil {
		return cfg, err
	}
	if err := config.ValidatePort("GRPC_PORT", cfg.GRPCPort); err != nil {
		return cfg, err
	}
	if cfg.SlotStepMinutes <= 0 {
		return cfg, fmt.Errorf("SLOT_STEP_MINUTES must be positive (got %d)", cfg.SlotStepMinutes)
	}
	return cfg, nil
}
