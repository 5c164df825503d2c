package outbox

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
	"github.com/shopspring/decimal"
)

// Event is the envelope written to the outbox table. The Kafka topic name
// equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const AggregateAppointment = "appointment"

const (
	AppointmentCreated   = "agenda.appointment.created.v1"
	AppointmentConfirmed = "agenda.appointment.confirmed.v1"
	AppointmentReverted  = "agenda.appointment.reverted.v1"
	AppointmentCanceled  = "agenda.appointment.canceled.v1"
	AppointmentUpdated   = "agenda.appointment.updated.v1"
	AppointmentDeleted   = "agenda.appointment.deleted.v1"
)

type AppointmentPayload struct {
	AppointmentID  string          `json:"appointment_id"`
	ClinicID       string          `json:"clinic_id"`
	PractitionerID string          `json:"practitioner_id"`
	PatientID      string          `json:"patient_id"`
	ScheduledAt    string          `json:"scheduled_at"`
	Price          decimal.Decimal `json:"price"`
	Status         model.Status    `json:"status"`
	PreviousStatus model.Status    `json:"previous_status,omitempty"`
	OccurredAt     string          `json:"occurred_at"`
}

// AppointmentEvent builds the event for a change to a. previous is the
// status before the change, or "" on creation.
func AppointmentEvent(eventType string, a model.Appointment, previous model.Status, now time.Time) (Event, error) {
	payload, err := json.Marshal(AppointmentPayload{
		AppointmentID:  a.ID,
		ClinicID:       a.ClinicID,
		PractitionerID: a.PractitionerID,
		PatientID:      a.PatientID,
		ScheduledAt:    a.ScheduledAt.UTC().Format(time.RFC3339),
		Price:          a.Price,
		Status:         a.Status,
		PreviousStatus: previous,
		OccurredAt:     now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateAppointment,
		AggregateID:   a.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
