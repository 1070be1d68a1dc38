package consumer

import (
	"context"
	"log/slog"

	"github.com/md-rashed-zaman/salonbook/libs/amqpx"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type AMQPConfig struct {
	URL      string
	Exchange string
	Queue    string
	Keys     []string
}

type deliverySource interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
	Close() error
}

type AMQPConsumer struct {
	source  deliverySource
	logger  *slog.Logger
	handler Handler
}

func NewAMQP(logger *slog.Logger, cfg AMQPConfig, handler Handler) (*AMQPConsumer, error) {
	c, err := amqpx.NewConsumer(cfg.URL, cfg.Exchange, cfg.Queue, cfg.Keys)
	if err != nil {
		return nil, err
	}
	return &AMQPConsumer{source: c, logger: logger, handler: handler}, nil
}

// Run acks a delivery after the handler succeeded and requeues it otherwise.
func (c *AMQPConsumer) Run(ctx context.Context) {
	defer c.source.Close()

	deliveries, err := c.source.Deliveries(ctx)
	if err != nil {
		c.logger.Error("amqp consume failed", "err", err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() == nil {
					c.logger.Error("amqp delivery channel closed")
				}
				return
			}
			c.handle(ctx, d)
		}
	}
}

func (c *AMQPConsumer) handle(ctx context.Context, d amqp.Delivery) {
	eventType := amqpx.HeaderString(d.Headers, "event_type")
	if eventType == "" {
		eventType = d.RoutingKey
	}
	ctxSpan, span := otel.Tracer("amqp").Start(amqpx.ExtractTraceContext(ctx, d.Headers), "amqp.consume",
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination", d.RoutingKey),
			attribute.String("messaging.message_id", d.MessageId),
		),
	)
	defer span.End()

	if err := c.handler(ctxSpan, eventType, d.Body); err != nil {
		c.logger.Error("handler error", "err", err, "message_id", d.MessageId)
		span.RecordError(err)
		if nackErr := d.Nack(false, true); nackErr != nil {
			c.logger.Error("amqp nack failed", "err", nackErr)
		}
		return
	}
	if err := d.Ack(false); err != nil {
		c.logger.Error("amqp ack failed", "err", err, "message_id", d.MessageId)
	}
}
