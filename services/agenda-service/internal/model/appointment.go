package model

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCanceled:
		return true
	}
	return false
}

type Appointment struct {
	ID             string          `json:"id"`
	ClinicID       string          `json:"clinic_id"`
	PractitionerID string          `json:"practitioner_id"`
	PatientID      string          `json:"patient_id"`
	ScheduledAt    time.Time       `json:"scheduled_at"`
	Price          decimal.Decimal `json:"price"`
	Status         Status          `json:"status"`
	Notes          *string         `json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ListFilter narrows an appointment listing. Zero fields match everything.
type ListFilter struct {
	PractitionerID string
	Date           civil.Date
	Status         Status
	Limit          int
}

// Key renders the filter as a stable cache key fragment.
func (f ListFilter) Key() string {
	date := ""
	if !f.Date.IsZero() {
		date = f.Date.String()
	}
	return fmt.Sprintf("p=%s:d=%s:s=%s:l=%d", f.PractitionerID, date, f.Status, f.Limit)
}

// WorkingHours is a practitioner's weekly window. Weekdays run 0 (Sunday)
// to 6 (Saturday); times are civil "HH:MM:SS". Open > Close is stored as
// given and simply matches nothing.
type WorkingHours struct {
	WeekdayOpen  int
	WeekdayClose int
	TimeOpen     string
	TimeClose    string
}

type Practitioner struct {
	ID       string
	ClinicID string
	Name     string
	// Hours is nil when working hours were never configured.
	Hours *WorkingHours
	Price decimal.Decimal
}

// Slot is a bookable time-of-day on the queried date. Never persisted.
type Slot struct {
	Time      string `json:"time"`
	Label     string `json:"time_label"`
	Available bool   `json:"available"`
}
