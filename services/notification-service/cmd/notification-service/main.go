package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/amqpx"
	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/salonbook/libs/otel"
	"github.com/md-rashed-zaman/salonbook/libs/runtime"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/consumer"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/handlers"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/inbox"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/notify"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/sms"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/storage"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/migrations"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("config invalid", "err", err)
		os.Exit(1)
	}
	logger := runtime.NewLogger(cfg.ServiceName, cfg.LogLevel)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.ServiceName))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, cfg.PoolConfig)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(pool, migrations.FS, ".", logger); err != nil {
			logger.Error("migration failed", "err", err)
			os.Exit(1)
		}
	}

	var smsSender sms.Sender
	switch cfg.SMSProvider {
	case "webhook":
		smsSender = sms.NewWebhookSender(cfg.SMSWebhookURL, cfg.SMSWebhookToken)
	case "noop":
		smsSender = sms.NewNoopSender()
	default:
		logger.Warn("unknown sms provider; using webhook", "provider", cfg.SMSProvider)
		smsSender = sms.NewWebhookSender(cfg.SMSWebhookURL, cfg.SMSWebhookToken)
	}
	notifications := storage.NewRepository(pool)
	processor := notify.NewProcessor(
		inbox.NewRepository(pool),
		notifications,
		email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom),
		smsSender,
		logger,
	)

	readyChecks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	var eventConsumer consumer.Consumer
	switch cfg.QueueBackend {
	case "amqp":
		c, err := consumer.NewAMQP(logger, consumer.AMQPConfig{
			URL:      cfg.AMQPURL,
			Exchange: cfg.AMQPExchange,
			Queue:    cfg.AMQPQueue,
			Keys:     []string{notify.TopicEmployeeDeleted},
		}, processor.Handle)
		if err != nil {
			logger.Error("amqp consumer init failed", "err", err)
			os.Exit(1)
		}
		eventConsumer = c
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "amqp", Check: amqpx.ReadyCheck(cfg.AMQPURL)})
	default:
		eventConsumer = consumer.NewKafka(logger, consumer.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
			Topic:   cfg.KafkaConsumeTopic,
		}, processor.Handle)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkax.SplitBrokers(cfg.KafkaBrokers))})
	}
	go eventConsumer.Run(ctx)
	logger.Info("consumer started", "backend", cfg.QueueBackend)

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	handlers.NewHistoryHandler(notifications, logger).Register(mux)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := runtime.Serve(ctx, logger, srv, 10*time.Second); err != nil {
		logger.Error("http server error", "err", err)
	}
}
