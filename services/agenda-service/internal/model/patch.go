package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Field is an optional value in a partial update. The zero Field means the
// value was omitted; Null marks an explicit clear.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

func Cleared[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// Present reports whether the field carries a non-null value.
func (f Field[T]) Present() bool {
	return f.Set && !f.Null
}

// UnmarshalJSON is only invoked for keys present in the payload, so a missing
// key leaves Set false.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(b, &f.Value)
}

// AppointmentPatch lists the fields an edit or update may touch.
type AppointmentPatch struct {
	PractitionerID Field[string]          `json:"practitioner_id"`
	PatientID      Field[string]          `json:"patient_id"`
	ScheduledAt    Field[time.Time]       `json:"scheduled_at"`
	Price          Field[decimal.Decimal] `json:"price"`
	Notes          Field[string]          `json:"notes"`
	// Status is honoured only by the status-aware update path.
	Status Field[Status] `json:"status"`
}

func (p AppointmentPatch) Empty() bool {
	return !p.PractitionerID.Set && !p.PatientID.Set && !p.ScheduledAt.Set &&
		!p.Price.Set && !p.Notes.Set && !p.Status.Set
}

// Validate rejects clearing a required field and negative prices.
func (p AppointmentPatch) Validate() error {
	switch {
	case p.PractitionerID.Null, p.PractitionerID.Set && p.PractitionerID.Value == "":
		return InvalidInput("practitioner_id cannot be cleared")
	case p.PatientID.Null, p.PatientID.Set && p.PatientID.Value == "":
		return InvalidInput("patient_id cannot be cleared")
	case p.ScheduledAt.Null, p.ScheduledAt.Set && p.ScheduledAt.Value.IsZero():
		return InvalidInput("scheduled time cannot be cleared")
	case p.Price.Null:
		return InvalidInput("price cannot be cleared")
	case p.Price.Set && p.Price.Value.IsNegative():
		return InvalidInput("price cannot be negative")
	case p.Status.Null, p.Status.Set && !p.Status.Value.Valid():
		return InvalidInput("invalid status")
	}
	return nil
}

// Moves reports whether applying the patch to a changes its practitioner or
// instant, i.e. whether a different slot becomes occupied.
func (p AppointmentPatch) Moves(a Appointment) bool {
	if p.PractitionerID.Present() && p.PractitionerID.Value != a.PractitionerID {
		return true
	}
	return p.ScheduledAt.Present() && !p.ScheduledAt.Value.Equal(a.ScheduledAt)
}

// Apply returns a copy of a with the patch applied. Status is left alone.
func (p AppointmentPatch) Apply(a Appointment) Appointment {
	if p.PractitionerID.Present() {
		a.PractitionerID = p.PractitionerID.Value
	}
	if p.PatientID.Present() {
		a.PatientID = p.PatientID.Value
	}
	if p.ScheduledAt.Present() {
		a.ScheduledAt = p.ScheduledAt.Value
	}
	if p.Price.Present() {
		a.Price = p.Price.Value
	}
	if p.Notes.Set {
		if p.Notes.Null {
			a.Notes = nil
		} else {
			notes := p.Notes.Value
			a.Notes = &notes
		}
	}
	return a
}
