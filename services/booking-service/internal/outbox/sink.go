package outbox

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/salonbook/libs/amqpx"
	"github.com/md-rashed-zaman/salonbook/libs/kafkax"
)

// Sink delivers one outbox record to a broker. A nil error means the broker
// has accepted it.
type Sink interface {
	Send(ctx context.Context, r Record) error
	Close() error
}

type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(brokers []string) *KafkaSink {
	return &KafkaSink{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}}
}

func (s *KafkaSink) Send(ctx context.Context, r Record) error {
	meta := kafkax.EventMeta{EventID: r.EventID, EventType: r.EventType, AggregateID: r.AggregateID}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Topic:   r.EventType,
		Key:     []byte(r.AggregateID),
		Value:   r.Payload,
		Headers: kafkax.InjectTraceHeaders(r.Trace.Attach(ctx), meta.Headers()),
	})
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// AMQPPublisher is the subset of amqpx.Publisher the sink uses.
type AMQPPublisher interface {
	Publish(ctx context.Context, routingKey, messageID string, body []byte, headers map[string]string) error
	Close() error
}

type AMQPSink struct {
	pub AMQPPublisher
}

func NewAMQPSink(pub AMQPPublisher) *AMQPSink {
	return &AMQPSink{pub: pub}
}

func (s *AMQPSink) Send(ctx context.Context, r Record) error {
	headers := amqpx.InjectTraceHeaders(r.Trace.Attach(ctx), map[string]string{
		"event_id":   r.EventID,
		"event_type": r.EventType,
	})
	return s.pub.Publish(ctx, r.EventType, r.EventID, r.Payload, headers)
}

func (s *AMQPSink) Close() error {
	return s.pub.Close()
}
