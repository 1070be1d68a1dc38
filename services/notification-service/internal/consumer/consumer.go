package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Handler processes one message body. A returned error means the message
// should be delivered again.
type Handler func(ctx context.Context, eventType string, body []byte) error

type Consumer interface {
	Run(ctx context.Context)
}

type KafkaConfig struct {
	Brokers string
	GroupID string
	Topic   string
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConsumer struct {
	reader      messageReader
	logger      *slog.Logger
	handler     Handler
	backoff     time.Duration
	maxAttempts int
}

func NewKafka(logger *slog.Logger, cfg KafkaConfig, handler Handler) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  kafkax.SplitBrokers(cfg.Brokers),
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &KafkaConsumer{reader: reader, logger: logger, handler: handler, backoff: time.Second, maxAttempts: 5}
}

// Run retries a failing message in place up to maxAttempts before it logs
// and skips it. Offsets are committed only after that decision.
func (c *KafkaConsumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			sleep(ctx, c.backoff)
			continue
		}

		meta := kafkax.ExtractEventMeta(msg)
		ctxSpan, span := otel.Tracer("kafka").Start(kafkax.ExtractTraceContext(ctx, msg), "kafka.consume",
			trace.WithAttributes(
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.destination", msg.Topic),
				attribute.String("messaging.message_id", meta.EventID),
			),
		)
		if err := c.handle(ctxSpan, meta, msg.Value); err != nil {
			if ctx.Err() != nil {
				span.End()
				return
			}
			c.logger.Error("giving up on message", "err", err, "event_id", meta.EventID, "attempts", c.maxAttempts)
			span.RecordError(err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("kafka commit failed", "err", err, "event_id", meta.EventID)
		}
		span.End()
	}
}

func (c *KafkaConsumer) handle(ctx context.Context, meta kafkax.EventMeta, body []byte) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = c.handler(ctx, meta.EventType, body); err == nil {
			return nil
		}
		if attempt >= c.maxAttempts || ctx.Err() != nil {
			return err
		}
		c.logger.Warn("handler error; retrying", "err", err, "event_id", meta.EventID, "attempt", attempt)
		sleep(ctx, c.backoff)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
