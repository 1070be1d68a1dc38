package kafkax

import (
	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/salonbook/libs/config"
)

const (
	HeaderEventID     = "event_id"
	HeaderEventType   = "event_type"
	HeaderAggregateID = "aggregate_id"
)

// EventMeta is what producers put in message headers next to the JSON body.
type EventMeta struct {
	EventID     string
	EventType   string
	AggregateID string
}

func (m EventMeta) Headers() []kafka.Header {
	h := make([]kafka.Header, 0, 3)
	for _, kv := range [][2]string{
		{HeaderEventID, m.EventID},
		{HeaderEventType, m.EventType},
		{HeaderAggregateID, m.AggregateID},
	} {
		if kv[1] != "" {
			h = append(h, kafka.Header{Key: kv[0], Value: []byte(kv[1])})
		}
	}
	return h
}

// ExtractEventMeta reads the headers back, falling back to the message key
// and topic for producers that do not set them.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	m := EventMeta{
		EventID:     HeaderValue(msg.Headers, HeaderEventID),
		EventType:   HeaderValue(msg.Headers, HeaderEventType),
		AggregateID: HeaderValue(msg.Headers, HeaderAggregateID),
	}
	if m.AggregateID == "" {
		m.AggregateID = string(msg.Key)
	}
	if m.EventID == "" {
		m.EventID = string(msg.Key)
	}
	if m.EventType == "" {
		m.EventType = msg.Topic
	}
	return m
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	return config.List(raw)
}
