package main

import (
	"fmt"
	"strings"

	"github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/md-rashed-zaman/salonbook/libs/db"
)

type Config struct {
	ServiceName    string `envconfig:"SERVICE_NAME" default:"notification-service"`
	Port           string `envconfig:"PORT" default:"8085"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"true"`

	db.PoolConfig

	QueueBackend      string `envconfig:"QUEUE_BACKEND" default:"kafka"`
	KafkaBrokers      string `envconfig:"KAFKA_BROKERS"`
	KafkaGroupID      string `envconfig:"KAFKA_GROUP_ID" default:"notification-service"`
	KafkaConsumeTopic string `envconfig:"KAFKA_CONSUME_TOPIC" default:"booking.appointment.employee_deleted.v1"`
	AMQPURL           string `envconfig:"AMQP_URL"`
	AMQPExchange      string `envconfig:"AMQP_EXCHANGE" default:"salonbook.events"`
	AMQPQueue         string `envconfig:"AMQP_QUEUE" default:"notification-service.employee-deleted"`

	SMTPHost        string `envconfig:"SMTP_HOST" default:"mailpit"`
	SMTPPort        string `envconfig:"SMTP_PORT" default:"1025"`
	SMTPFrom        string `envconfig:"SMTP_FROM" default:"no-reply@salonbook.local"`
	SMSProvider     string `envconfig:"SMS_PROVIDER" default:"noop"`
	SMSWebhookURL   string `envconfig:"SMS_WEBHOOK_URL"`
	SMSWebhookToken string `envconfig:"SMS_WEBHOOK_TOKEN"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return cfg, err
	}
	cfg.QueueBackend = strings.ToLower(strings.TrimSpace(cfg.QueueBackend))
	if cfg.QueueBackend != "kafka" && cfg.QueueBackend != "amqp" {
		return cfg, fmt.Errorf("QUEUE_BACKEND must be kafka or amqp (got %q)", cfg.QueueBackend)
	}
	if err := config.ValidatePort("PORT", cfg.Port); err != nil {
		return cfg, err
	}
	cfg.SMSProvider = strings.ToLower(strings.TrimSpace(cfg.SMSProvider))
	return cfg, nil
}
