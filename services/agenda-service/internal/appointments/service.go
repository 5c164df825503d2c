package appointments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	otelx "github.com/md-rashed-zaman/clinicagenda/libs/otel"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/availability"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/lifecycle"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/outbox"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("agenda-service/appointments")

// Result is the outcome shown to the user. Business-rule rejections come
// back as Success=false with a nil error.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type CreateInput struct {
	PractitionerID string
	PatientID      string
	ScheduledAt    time.Time
	// Price falls back to the practitioner's price when nil.
	Price *decimal.Decimal
	Notes *string
}

type Config struct {
	Zone civil.Zone
	Now  func() time.Time
}

type Service struct {
	store         Store
	practitioners PractitionerSource
	slots         SlotChecker
	cache         Cache
	logger        *slog.Logger
	zone          civil.Zone
	now           func() time.Time
}

// NewService wires the appointment operations. cache may be nil.
func NewService(store Store, practitioners PractitionerSource, slots SlotChecker, cache Cache, logger *slog.Logger, cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		store:         store,
		practitioners: practitioners,
		slots:         slots,
		cache:         cache,
		logger:        logger,
		zone:          cfg.Zone,
		now:           cfg.Now,
	}
}

func (s *Service) Create(ctx context.Context, clinicID string, in CreateInput) (appt model.Appointment, res Result, err error) {
	ctx, span := tracer.Start(ctx, "appointments.Create", trace.WithAttributes(
		attribute.String("practitioner_id", in.PractitionerID),
	))
	defer func() { otelx.EndSpan(span, err, model.Rejections...) }()

	switch {
	case in.PractitionerID == "":
		return model.Appointment{}, Result{}, model.InvalidInput("practitioner_id is required")
	case in.PatientID == "":
		return model.Appointment{}, Result{}, model.InvalidInput("patient_id is required")
	case in.ScheduledAt.IsZero():
		return model.Appointment{}, Result{}, model.InvalidInput("scheduled_at is required")
	case in.Price != nil && in.Price.IsNegative():
		return model.Appointment{}, Result{}, model.InvalidInput("price cannot be negative")
	}

	p, err := s.practitioners.Practitioner(ctx, clinicID, in.PractitionerID)
	if err != nil {
		return model.Appointment{}, Result{}, model.Persistence("load practitioner", err)
	}
	if err := s.slots.CheckSlot(ctx, clinicID, p.ID, in.ScheduledAt, ""); err != nil {
		res, err := outcome(lifecycle.OpCreate, err)
		return model.Appointment{}, res, err
	}

	now := s.now()
	appt = model.Appointment{
		ID:             uuid.NewString(),
		ClinicID:       clinicID,
		PractitionerID: p.ID,
		PatientID:      in.PatientID,
		ScheduledAt:    in.ScheduledAt.UTC(),
		Price:          p.Price,
		Status:         model.StatusPending,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.Price != nil {
		appt.Price = *in.Price
	}

	err = s.store.InTx(ctx, func(tx Tx) error {
		created, err := tx.Insert(ctx, appt)
		if err != nil {
			return err
		}
		appt = created
		return s.enqueue(ctx, tx, outbox.AppointmentCreated, created, "")
	})
	if err != nil {
		res, err := outcome(lifecycle.OpCreate, err)
		return model.Appointment{}, res, err
	}

	s.invalidate(ctx, clinicID, appt)
	s.logger.Info("appointment created", "appointment_id", appt.ID, "practitioner_id", appt.PractitionerID, "clinic_id", clinicID)
	return appt, Result{Success: true, Message: lifecycle.SuccessMessage(lifecycle.OpCreate)}, nil
}

func (s *Service) Cancel(ctx context.Context, clinicID, id string) (Result, error) {
	return s.transition(ctx, clinicID, id, lifecycle.OpCancel, outbox.AppointmentCanceled)
}

func (s *Service) Confirm(ctx context.Context, clinicID, id string) (Result, error) {
	return s.transition(ctx, clinicID, id, lifecycle.OpConfirm, outbox.AppointmentConfirmed)
}

func (s *Service) RevertToPending(ctx context.Context, clinicID, id string) (Result, error) {
	return s.transition(ctx, clinicID, id, lifecycle.OpRevert, outbox.AppointmentReverted)
}

// Delete permanently removes a canceled appointment.
func (s *Service) Delete(ctx context.Context, clinicID, id string) (res Result, err error) {
	ctx, span := tracer.Start(ctx, "appointments.Delete", trace.WithAttributes(attribute.String("appointment_id", id)))
	defer func() { otelx.EndSpan(span, err, model.Rejections...) }()

	var removed model.Appointment
	err = s.store.InTx(ctx, func(tx Tx) error {
		a, err := tx.AppointmentForUpdate(ctx, clinicID, id)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckDelete(a.Status); err != nil {
			return err
		}
		if err := tx.Delete(ctx, clinicID, id); err != nil {
			return err
		}
		removed = a
		return s.enqueue(ctx, tx, outbox.AppointmentDeleted, a, a.Status)
	})
	if err == nil {
		s.invalidate(ctx, clinicID, removed)
	}
	return outcome(lifecycle.OpDelete, err)
}

// Edit changes fields of a pending appointment. Status cannot be set here.
func (s *Service) Edit(ctx context.Context, clinicID, id string, patch model.AppointmentPatch) (Result, error) {
	if patch.Status.Set {
		return Result{}, model.InvalidInput("status cannot be changed by edit")
	}
	return s.modify(ctx, clinicID, id, patch, lifecycle.OpEdit)
}

// Update changes fields of a pending or confirmed appointment and may move
// it between those two statuses.
func (s *Service) Update(ctx context.Context, clinicID, id string, patch model.AppointmentPatch) (Result, error) {
	return s.modify(ctx, clinicID, id, patch, lifecycle.OpUpdate)
}

func (s *Service) List(ctx context.Context, clinicID string, f model.ListFilter) (out []model.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "appointments.List")
	defer func() { otelx.EndSpan(span, err, model.Rejections...) }()

	if f.Status != "" && !f.Status.Valid() {
		return nil, model.InvalidInput("invalid status filter")
	}
	version := ""
	if s.cache != nil {
		v, verr := s.cache.ListVersion(ctx, clinicID)
		if verr != nil {
			s.logger.Warn("list cache version read failed", "err", verr, "clinic_id", clinicID)
		} else {
			version = v
		}
	}
	if version != "" {
		cached, ok, err := s.cache.List(ctx, clinicID, version, f)
		if err != nil {
			s.logger.Warn("list cache read failed", "err", err, "clinic_id", clinicID)
		} else if ok {
			return cached, nil
		}
	}

	out, err = s.store.List(ctx, clinicID, f)
	if err != nil {
		return nil, model.Persistence("list appointments", err)
	}
	if out == nil {
		out = []model.Appointment{}
	}
	if version != "" {
		if err := s.cache.StoreList(ctx, clinicID, version, f, out); err != nil {
			s.logger.Warn("list cache write failed", "err", err, "clinic_id", clinicID)
		}
	}
	return out, nil
}

func (s *Service) transition(ctx context.Context, clinicID, id string, op lifecycle.Op, eventType string) (res Result, err error) {
	ctx, span := tracer.Start(ctx, "appointments."+string(op), trace.WithAttributes(attribute.String("appointment_id", id)))
	defer func() { otelx.EndSpan(span, err, model.Rejections...) }()

	var changed model.Appointment
	err = s.store.InTx(ctx, func(tx Tx) error {
		a, err := tx.AppointmentForUpdate(ctx, clinicID, id)
		if err != nil {
			return err
		}
		next, err := lifecycle.Next(a.Status, op)
		if err != nil {
			return err
		}
		updated, err := tx.SetStatus(ctx, clinicID, id, next)
		if err != nil {
			return err
		}
		changed = updated
		return s.enqueue(ctx, tx, eventType, updated, a.Status)
	})
	if err == nil {
		s.invalidate(ctx, clinicID, changed)
		s.logger.Info("appointment status changed", "appointment_id", id, "op", string(op), "status", string(changed.Status))
	}
	return outcome(op, err)
}

func (s *Service) modify(ctx context.Context, clinicID, id string, patch model.AppointmentPatch, op lifecycle.Op) (res Result, err error) {
	ctx, span := tracer.Start(ctx, "appointments."+string(op), trace.WithAttributes(attribute.String("appointment_id", id)))
	defer func() { otelx.EndSpan(span, err, model.Rejections...) }()

	if err := patch.Validate(); err != nil {
		return Result{}, err
	}
	if patch.Empty() {
		return Result{Success: false, Message: lifecycle.MsgNothingToUpdate}, model.InvalidInput("no fields to update")
	}

	var before, after model.Appointment
	err = s.store.InTx(ctx, func(tx Tx) error {
		a, err := tx.AppointmentForUpdate(ctx, clinicID, id)
		if err != nil {
			return err
		}
		if op == lifecycle.OpEdit {
			err = lifecycle.CheckEdit(a.Status)
		} else {
			target := model.Status("")
			if patch.Status.Set {
				target = patch.Status.Value
			}
			err = lifecycle.CheckUpdate(a.Status, target)
		}
		if err != nil {
			return err
		}
		if patch.Moves(a) {
			moved := patch.Apply(a)
			if err := s.slots.CheckSlotIn(ctx, tx, clinicID, moved.PractitionerID, moved.ScheduledAt, a.ID); err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return model.InvalidInput(fmt.Sprintf("practitioner %q does not exist", moved.PractitionerID))
				}
				return err
			}
		}
		updated, err := tx.Patch(ctx, clinicID, id, patch)
		if err != nil {
			return err
		}
		before, after = a, updated
		return s.enqueue(ctx, tx, updateEventType(a.Status, updated.Status), updated, a.Status)
	})
	if err == nil {
		s.invalidate(ctx, clinicID, before, after)
	}
	return outcome(op, err)
}

// updateEventType names a status move made through update after the
// dedicated operation, so consumers see the same event either way.
func updateEventType(from, to model.Status) string {
	switch {
	case from == model.StatusPending && to == model.StatusConfirmed:
		return outbox.AppointmentConfirmed
	case from == model.StatusConfirmed && to == model.StatusPending:
		return outbox.AppointmentReverted
	}
	return outbox.AppointmentUpdated
}

func (s *Service) enqueue(ctx context.Context, tx Tx, eventType string, a model.Appointment, previous model.Status) error {
	evt, err := outbox.AppointmentEvent(eventType, a, previous, s.now())
	if err != nil {
		return err
	}
	return tx.Enqueue(ctx, evt)
}

// invalidate drops cached availability for every practitioner and civil date
// the appointments touch, then the clinic's listings. Failures are logged;
// entries expire on their own.
func (s *Service) invalidate(ctx context.Context, clinicID string, appts ...model.Appointment) {
	if s.cache == nil {
		return
	}
	seen := make(map[string]map[civil.Date]struct{})
	for _, a := range appts {
		if a.PractitionerID == "" {
			continue
		}
		d, _ := s.zone.Localize(a.ScheduledAt)
		if seen[a.PractitionerID] == nil {
			seen[a.PractitionerID] = make(map[civil.Date]struct{})
		}
		seen[a.PractitionerID][d] = struct{}{}
	}
	for pid, dates := range seen {
		list := make([]civil.Date, 0, len(dates))
		for d := range dates {
			list = append(list, d)
		}
		if err := s.cache.InvalidateSlots(ctx, pid, list...); err != nil {
			s.logger.Warn("availability cache invalidation failed", "err", err, "practitioner_id", pid)
		}
	}
	if err := s.cache.InvalidateLists(ctx, clinicID); err != nil {
		s.logger.Warn("list cache invalidation failed", "err", err, "clinic_id", clinicID)
	}
}

// outcome turns the error of an operation into the user-facing result.
// Guard violations are results, not errors.
func outcome(op lifecycle.Op, err error) (Result, error) {
	var te *lifecycle.TransitionError
	switch {
	case err == nil:
		return Result{Success: true, Message: lifecycle.SuccessMessage(op)}, nil
	case errors.As(err, &te):
		return Result{Success: false, Message: te.Message}, nil
	case errors.Is(err, model.ErrNotFound):
		return Result{Success: false, Message: lifecycle.MsgNotFound}, err
	case errors.Is(err, model.ErrBookingConflict):
		return Result{Success: false, Message: lifecycle.MsgSlotTaken}, err
	case errors.Is(err, availability.ErrOutsideWindow):
		return Result{Success: false, Message: lifecycle.MsgOutsideWindow}, fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	default:
		return Result{}, model.Persistence(string(op), err)
	}
}
