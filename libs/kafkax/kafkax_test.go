package kafkax

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092 ")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers: %v", got)
	}
}

func TestNewMessageCarriesMeta(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	msg := NewMessage(context.Background(), EventMeta{EventID: "e-1", EventType: "agenda.appointment.canceled.v1"}, "appt-1", []byte(`{}`))
	if msg.Topic != "agenda.appointment.canceled.v1" {
		t.Fatalf("unexpected topic: %s", msg.Topic)
	}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "e-1" || meta.EventType != msg.Topic {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestExtractEventMetaFallbacks(t *testing.T) {
	meta := ExtractEventMeta(kafka.Message{Topic: "t", Key: []byte("k")})
	if meta.EventID != "k" || meta.EventType != "t" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestTraceHeadersRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.MapCarrier{"traceparent": parent})

	headers := InjectTraceHeaders(ctx, nil)
	if HeaderValue(headers, "traceparent") != parent {
		t.Fatalf("expected traceparent header, got %v", headers)
	}
	back := ExtractTraceContext(context.Background(), kafka.Message{Headers: headers})
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(back, carrier)
	if carrier["traceparent"] != parent {
		t.Fatalf("expected round trip, got %q", carrier["traceparent"])
	}
}
