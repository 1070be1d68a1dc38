package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/amqpx"
	"github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/salonbook/libs/otel"
	"github.com/md-rashed-zaman/salonbook/libs/runtime"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/hours"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/lifecycle"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/modification"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/sessions"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/staff"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/migrations"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var errNoBrokers = errors.New("KAFKA_BROKERS is empty")

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

	readyChecks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	outboxRepo := outbox.NewRepository(pool)
	sink, sinkCheck, err := newSink(cfg)
	if err != nil {
		logger.Error("outbox sink init failed; events stay in the outbox", "sink", cfg.OutboxSink, "err", err)
	} else {
		readyChecks = append(readyChecks, sinkCheck)
	}
	publisher := outbox.NewPublisher(outboxRepo, sink, logger, outbox.PublisherConfig{
		PollEvery:   cfg.OutboxPollInterval,
		BatchSize:   cfg.OutboxBatchSize,
		MaxAttempts: cfg.OutboxMaxAttempts,
	})
	go publisher.Run(ctx)

	var (
		sessionStore modification.SessionStore
		limiter      httpx.Limiter
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		sessionStore = sessions.NewRedisStore(rdb, cfg.SessionTTL, "booking:modify")
		limiter = httpx.NewRedisLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "booking:rl")
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: sessions.ReadyCheck(rdb)})
		logger.Info("sessions and rate limiting use redis", "redis_addr", cfg.RedisAddr)
	} else {
		sessionStore = sessions.NewMemoryStore(cfg.SessionTTL)
		limiter = httpx.NewMemoryLimiter(cfg.RateLimitPerMinute, time.Minute)
		logger.Info("sessions and rate limiting are in-memory")
	}

	store := storage.NewStore(pool, outboxRepo)
	resolver := hours.NewResolver(store)
	calc := availability.NewCalculator(resolver, store)

	lifecycleSvc := lifecycle.NewService(store, calc, cfg.SlotStepMinutes, logger)
	modifySvc := modification.NewService(store, calc, sessionStore, cfg.SlotStepMinutes, logger)
	staffMgr := staff.NewManager(store, store, staff.NewOutboxQueue(outboxRepo), logger)

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	handlers.Routes{
		Availability: handlers.NewAvailabilityHandler(calc, resolver, cfg.SlotStepMinutes, logger),
		Appointments: handlers.NewAppointmentHandler(lifecycleSvc, logger),
		Modification: handlers.NewModificationHandler(modifySvc, logger),
		Staff:        handlers.NewStaffHandler(staffMgr, logger),
	}.Register(mux)

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: config.List(cfg.CORSOrigins),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(cfg.RequestBodyLimit),
		httpx.WithTimeout(cfg.RequestTimeout),
		httpx.RateLimit(limiter, logger, true),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := startGrpcServer(ctx, logger, cfg.GRPCPort, db.ReadyCheck(pool)); err != nil {
		logger.Error("grpc server init failed", "err", err)
	}

	if err := runtime.Serve(ctx, logger, srv, 10*time.Second); err != nil {
		logger.Error("http server error", "err", err)
	}
}

// newSink picks the outbox transport. A nil sink leaves the publisher idle
// so rows accumulate until a broker is configured.
func newSink(cfg Config) (outbox.Sink, runtime.ReadyCheck, error) {
	switch cfg.OutboxSink {
	case "amqp":
		pub, err := amqpx.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, runtime.ReadyCheck{}, err
		}
		return outbox.NewAMQPSink(pub), runtime.ReadyCheck{Name: "amqp", Check: amqpx.ReadyCheck(cfg.AMQPURL)}, nil
	default:
		brokers := kafkax.SplitBrokers(cfg.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, runtime.ReadyCheck{}, errNoBrokers
		}
		return outbox.NewKafkaSink(brokers), runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)}, nil
	}
}
