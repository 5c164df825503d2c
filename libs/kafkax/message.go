package kafkax

import (
	"context"
	"strings"

	"github.com/segmentio/kafka-go"
)

// EventMeta is the metadata carried in headers on every published event.
type EventMeta struct {
	EventID   string
	EventType string
}

// NewMessage builds a message on the topic named after the event type, keyed
// by aggregate id, with event metadata and trace context in headers.
func NewMessage(ctx context.Context, meta EventMeta, key string, payload []byte) kafka.Message {
	msg := kafka.Message{
		Topic: meta.EventType,
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(meta.EventID)},
			{Key: "event_type", Value: []byte(meta.EventType)},
		},
	}
	msg.Headers = InjectTraceHeaders(ctx, msg.Headers)
	return msg
}

func ExtractEventMeta(msg kafka.Message) EventMeta {
	eventID := HeaderValue(msg.Headers, "event_id")
	eventType := HeaderValue(msg.Headers, "event_type")
	if eventID == "" {
		eventID = string(msg.Key)
	}
	if eventType == "" {
		eventType = msg.Topic
	}
	return EventMeta{EventID: eventID, EventType: eventType}
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
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
