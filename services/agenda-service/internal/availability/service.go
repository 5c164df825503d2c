package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	otelx "github.com/md-rashed-zaman/clinicagenda/libs/otel"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/lifecycle"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/slots"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("agenda-service/availability")

// ErrOutsideWindow means a requested time is not one of the offered slots.
var ErrOutsideWindow = errors.New("time outside working hours")

type PractitionerSource interface {
	Practitioner(ctx context.Context, clinicID, id string) (model.Practitioner, error)
}

type BookingSource interface {
	// ActiveAppointments returns the practitioner's non-canceled
	// appointments with ScheduledAt in [from, to).
	ActiveAppointments(ctx context.Context, practitionerID string, from, to time.Time) ([]model.Appointment, error)
}

type AppointmentSource interface {
	BookingSource
	Appointment(ctx context.Context, clinicID, id string) (model.Appointment, error)
}

// SlotSource is everything a slot check reads. A caller holding a
// transaction passes it so the check runs on the same connection.
type SlotSource interface {
	PractitionerSource
	BookingSource
}

type slotSource struct {
	PractitionerSource
	BookingSource
}

// Cache stores base (non-edit) results per practitioner and date. Entries
// live under the version read before the database scan; writers bump the
// version after commit, so a scan that raced with a write is stored where
// no later reader looks.
type Cache interface {
	SlotsVersion(ctx context.Context, practitionerID string, date civil.Date) (string, error)
	Slots(ctx context.Context, practitionerID string, date civil.Date, version string) ([]model.Slot, bool, error)
	StoreSlots(ctx context.Context, practitionerID string, date civil.Date, version string, slots []model.Slot) error
}

type Query struct {
	PractitionerID      string
	Date                civil.Date
	EditedAppointmentID string
}

type Config struct {
	Zone civil.Zone
	Step slots.Step
}

type Service struct {
	practitioners PractitionerSource
	appointments  AppointmentSource
	cache         Cache
	logger        *slog.Logger
	zone          civil.Zone
	step          slots.Step
}

// NewService builds the query service. cache may be nil.
func NewService(practitioners PractitionerSource, appointments AppointmentSource, cache Cache, logger *slog.Logger, cfg Config) *Service {
	return &Service{
		practitioners: practitioners,
		appointments:  appointments,
		cache:         cache,
		logger:        logger,
		zone:          cfg.Zone,
		step:          cfg.Step,
	}
}

// Query returns the slots offered on q.Date, ascending by time-of-day.
func (s *Service) Query(ctx context.Context, clinicID string, q Query) (out []model.Slot, err error) {
	ctx, span := tracer.Start(ctx, "availability.Query", trace.WithAttributes(
		attribute.String("practitioner_id", q.PractitionerID),
		attribute.String("date", q.Date.String()),
		attribute.Bool("edit_mode", q.EditedAppointmentID != ""),
	))
	defer func() { otelx.EndSpan(span, err, model.Rejections...) }()

	// The version is read before the practitioner and the bookings so that
	// either write bumping it afterwards retires what this call stores.
	version := s.slotsVersion(ctx, q.PractitionerID, q.Date)
	p, err := loadPractitioner(ctx, s.practitioners, clinicID, q.PractitionerID)
	if err != nil {
		return nil, err
	}
	if !WeekdayInRange(q.Date, p.Hours.WeekdayOpen, p.Hours.WeekdayClose) {
		return []model.Slot{}, nil
	}

	base, err := s.cachedBase(ctx, p, q.Date, version)
	if err != nil {
		return nil, err
	}
	if q.EditedAppointmentID == "" {
		return base, nil
	}

	edited, err := s.appointments.Appointment(ctx, clinicID, q.EditedAppointmentID)
	if err != nil {
		return nil, model.Persistence("load edited appointment", err)
	}
	if edited.PractitionerID != p.ID || !lifecycle.Occupies(edited.Status) {
		return base, nil
	}
	d, tod := s.zone.Localize(edited.ScheduledAt)
	if d != q.Date {
		return base, nil
	}
	return ReconcileEdited(base, tod.String()), nil
}

// CheckSlot verifies that practitionerID can take a booking at the instant
// at. excludeID names the appointment being moved, whose own slot never
// counts as taken. The check bypasses the cache.
func (s *Service) CheckSlot(ctx context.Context, clinicID, practitionerID string, at time.Time, excludeID string) error {
	return s.CheckSlotIn(ctx, slotSource{s.practitioners, s.appointments}, clinicID, practitionerID, at, excludeID)
}

// CheckSlotIn is CheckSlot reading from src.
func (s *Service) CheckSlotIn(ctx context.Context, src SlotSource, clinicID, practitionerID string, at time.Time, excludeID string) error {
	p, err := loadPractitioner(ctx, src, clinicID, practitionerID)
	if err != nil {
		return err
	}
	d, tod := s.zone.Localize(at)
	if at.Nanosecond() != 0 {
		return ErrOutsideWindow
	}
	candidates := Window(d, *p.Hours, s.step)

	appts, err := s.activeOn(ctx, src, p.ID, d)
	if err != nil {
		return err
	}
	kept := appts[:0:0]
	for _, a := range appts {
		if a.ID != excludeID {
			kept = append(kept, a)
		}
	}
	for _, slot := range ResolveConflicts(candidates, d, kept, s.zone) {
		if slot.Time != tod.String() {
			continue
		}
		if !slot.Available {
			return fmt.Errorf("%s %s: %w", d, tod, model.ErrBookingConflict)
		}
		return nil
	}
	return ErrOutsideWindow
}

func loadPractitioner(ctx context.Context, src PractitionerSource, clinicID, id string) (model.Practitioner, error) {
	p, err := src.Practitioner(ctx, clinicID, id)
	if err != nil {
		return model.Practitioner{}, model.Persistence("load practitioner", err)
	}
	if p.Hours == nil {
		return model.Practitioner{}, fmt.Errorf("practitioner %s: %w", p.ID, model.ErrConfigurationMissing)
	}
	return p, nil
}

// slotsVersion returns "" when there is no usable cache.
func (s *Service) slotsVersion(ctx context.Context, practitionerID string, d civil.Date) string {
	if s.cache == nil {
		return ""
	}
	v, err := s.cache.SlotsVersion(ctx, practitionerID, d)
	if err != nil {
		s.logger.Warn("availability cache version read failed", "err", err, "practitioner_id", practitionerID, "date", d.String())
		return ""
	}
	return v
}

func (s *Service) cachedBase(ctx context.Context, p model.Practitioner, d civil.Date, version string) ([]model.Slot, error) {
	if version != "" {
		cached, ok, err := s.cache.Slots(ctx, p.ID, d, version)
		if err != nil {
			s.logger.Warn("availability cache read failed", "err", err, "practitioner_id", p.ID, "date", d.String())
		} else if ok {
			return cached, nil
		}
	}

	appts, err := s.activeOn(ctx, s.appointments, p.ID, d)
	if err != nil {
		return nil, err
	}
	base := ResolveConflicts(Window(d, *p.Hours, s.step), d, appts, s.zone)

	if version != "" {
		if err := s.cache.StoreSlots(ctx, p.ID, d, version, base); err != nil {
			s.logger.Warn("availability cache write failed", "err", err, "practitioner_id", p.ID, "date", d.String())
		}
	}
	return base, nil
}

func (s *Service) activeOn(ctx context.Context, src BookingSource, practitionerID string, d civil.Date) ([]model.Appointment, error) {
	from, to := s.zone.DayBounds(d)
	appts, err := src.ActiveAppointments(ctx, practitionerID, from, to)
	if err != nil {
		return nil, model.Persistence("list appointments", err)
	}
	return appts, nil
}
