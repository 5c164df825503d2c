package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/libs/kafkax"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
	"github.com/shopspring/decimal"
)

func TestAppointmentEvent(t *testing.T) {
	at := time.Date(2026, 4, 15, 13, 0, 0, 0, time.UTC)
	a := model.Appointment{
		ID:             "a1",
		ClinicID:       "c1",
		PractitionerID: "p1",
		PatientID:      "pt1",
		ScheduledAt:    at,
		Price:          decimal.RequireFromString("120.00"),
		Status:         model.StatusConfirmed,
	}
	evt, err := AppointmentEvent(AppointmentConfirmed, a, model.StatusPending, at)
	if err != nil {
		t.Fatalf("AppointmentEvent: %v", err)
	}
	if evt.AggregateType != AggregateAppointment || evt.AggregateID != "a1" || evt.EventType != AppointmentConfirmed {
		t.Fatalf("unexpected envelope: %+v", evt)
	}

	var payload AppointmentPayload
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.PreviousStatus != model.StatusPending || payload.Status != model.StatusConfirmed {
		t.Fatalf("unexpected statuses: %+v", payload)
	}
	if payload.ScheduledAt != "2026-04-15T13:00:00Z" {
		t.Fatalf("unexpected scheduled_at %q", payload.ScheduledAt)
	}
	if !payload.Price.Equal(decimal.RequireFromString("120")) {
		t.Fatalf("unexpected price %s", payload.Price)
	}
}

func TestMessagesCarryEventMeta(t *testing.T) {
	records := []Record{
		{ID: 1, EventID: "e1", AggregateID: "a1", EventType: AppointmentCreated, Payload: []byte(`{}`)},
		{ID: 2, EventID: "e2", AggregateID: "a1", EventType: AppointmentCanceled, Payload: []byte(`{}`)},
	}
	msgs := Messages(context.Background(), records)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	for i, msg := range msgs {
		meta := kafkax.ExtractEventMeta(msg)
		if meta.EventID != records[i].EventID || meta.EventType != records[i].EventType {
			t.Fatalf("message %d: unexpected meta %+v", i, meta)
		}
		if msg.Topic != records[i].EventType || string(msg.Key) != "a1" {
			t.Fatalf("message %d: unexpected routing topic=%s key=%s", i, msg.Topic, msg.Key)
		}
	}
}
