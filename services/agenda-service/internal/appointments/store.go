package appointments

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/availability"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/outbox"
)

// Tx is the set of writes available inside one transaction. Lookups lock the
// row until commit.
type Tx interface {
	AppointmentForUpdate(ctx context.Context, clinicID, id string) (model.Appointment, error)
	// Insert returns model.ErrBookingConflict when another live booking
	// already holds the practitioner's slot.
	Insert(ctx context.Context, a model.Appointment) (model.Appointment, error)
	// Patch writes only the fields set in p, including Status.
	Patch(ctx context.Context, clinicID, id string, p model.AppointmentPatch) (model.Appointment, error)
	SetStatus(ctx context.Context, clinicID, id string, status model.Status) (model.Appointment, error)
	Delete(ctx context.Context, clinicID, id string) error
	Enqueue(ctx context.Context, evt outbox.Event) error

	// Reads a slot check needs, on the transaction's connection.
	Practitioner(ctx context.Context, clinicID, id string) (model.Practitioner, error)
	ActiveAppointments(ctx context.Context, practitionerID string, from, to time.Time) ([]model.Appointment, error)
}

type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	List(ctx context.Context, clinicID string, f model.ListFilter) ([]model.Appointment, error)
}

type PractitionerSource interface {
	Practitioner(ctx context.Context, clinicID, id string) (model.Practitioner, error)
}

// SlotChecker confirms a practitioner offers and has free the slot at an
// instant. excludeID names an appointment whose own slot is ignored.
// CheckSlotIn does the same reading through src, so a check made inside a
// transaction holds no second connection.
type SlotChecker interface {
	CheckSlot(ctx context.Context, clinicID, practitionerID string, at time.Time, excludeID string) error
	CheckSlotIn(ctx context.Context, src availability.SlotSource, clinicID, practitionerID string, at time.Time, excludeID string) error
}

// Cache holds listings and is told which availability entries went stale.
// Listings are stored under the clinic's list version read before the
// database query, so a write racing with a read cannot leave stale entries
// under the current version.
type Cache interface {
	InvalidateSlots(ctx context.Context, practitionerID string, dates ...civil.Date) error
	ListVersion(ctx context.Context, clinicID string) (string, error)
	List(ctx context.Context, clinicID, version string, f model.ListFilter) ([]model.Appointment, bool, error)
	StoreList(ctx context.Context, clinicID, version string, f model.ListFilter, appts []model.Appointment) error
	InvalidateLists(ctx context.Context, clinicID string) error
}
