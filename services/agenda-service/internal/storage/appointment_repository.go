package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicagenda/libs/db"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/appointments"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/outbox"
	"github.com/shopspring/decimal"
)

const appointmentColumns = `id::text, clinic_id, practitioner_id::text, patient_id, scheduled_at, price::text, status, notes, created_at, updated_at`

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ querier         = (*db.Pool)(nil)
	_ querier         = pgx.Tx(nil)
	_ appointments.Tx = (*appointmentTx)(nil)
)

type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
	zone   civil.Zone
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository, zone civil.Zone) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: outboxRepo, zone: zone}
}

func (r *AppointmentRepository) Appointment(ctx context.Context, clinicID, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1 AND clinic_id = $2
	`, id, clinicID)
	a, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, lookupErr("appointment", id, err)
	}
	return a, nil
}

// ActiveAppointments returns the practitioner's non-canceled appointments
// scheduled in [from, to).
func (r *AppointmentRepository) ActiveAppointments(ctx context.Context, practitionerID string, from, to time.Time) ([]model.Appointment, error) {
	return selectActive(ctx, r.pool, practitionerID, from, to)
}

func selectActive(ctx context.Context, q querier, practitionerID string, from, to time.Time) ([]model.Appointment, error) {
	rows, err := q.Query(ctx, `SELECT `+appointmentColumns+`
		FROM appointments
		WHERE practitioner_id = $1
			AND status <> 'canceled'
			AND scheduled_at >= $2
			AND scheduled_at < $3
		ORDER BY scheduled_at ASC
	`, practitionerID, from, to)
	if err != nil {
		if isMalformedID(err) {
			return nil, nil
		}
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *AppointmentRepository) List(ctx context.Context, clinicID string, f model.ListFilter) ([]model.Appointment, error) {
	query, args := listQuery(clinicID, f, r.zone)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		if isMalformedID(err) {
			return nil, nil
		}
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *AppointmentRepository) InTx(ctx context.Context, fn func(appointments.Tx) error) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		return fn(&appointmentTx{tx: tx, outbox: r.outbox})
	})
}

type appointmentTx struct {
	tx     pgx.Tx
	outbox *outbox.Repository
}

func (t *appointmentTx) AppointmentForUpdate(ctx context.Context, clinicID, id string) (model.Appointment, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1 AND clinic_id = $2
		FOR UPDATE
	`, id, clinicID)
	a, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, lookupErr("appointment", id, err)
	}
	return a, nil
}

func (t *appointmentTx) Insert(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	row := t.tx.QueryRow(ctx, `
		INSERT INTO appointments (id, clinic_id, practitioner_id, patient_id, scheduled_at, price, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8)
		RETURNING `+appointmentColumns,
		a.ID, a.ClinicID, a.PractitionerID, a.PatientID, a.ScheduledAt, a.Price.String(), string(a.Status), a.Notes)
	created, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, writeErr(err)
	}
	return created, nil
}

func (t *appointmentTx) Patch(ctx context.Context, clinicID, id string, p model.AppointmentPatch) (model.Appointment, error) {
	query, args := patchQuery(clinicID, id, p)
	updated, err := scanAppointment(t.tx.QueryRow(ctx, query, args...))
	if err != nil {
		if IsConflict(err) {
			return model.Appointment{}, model.ErrBookingConflict
		}
		return model.Appointment{}, lookupErr("appointment", id, err)
	}
	return updated, nil
}

func (t *appointmentTx) SetStatus(ctx context.Context, clinicID, id string, status model.Status) (model.Appointment, error) {
	row := t.tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $3, updated_at = now()
		WHERE id = $1 AND clinic_id = $2
		RETURNING `+appointmentColumns,
		id, clinicID, string(status))
	updated, err := scanAppointment(row)
	if err != nil {
		if IsConflict(err) {
			return model.Appointment{}, model.ErrBookingConflict
		}
		return model.Appointment{}, lookupErr("appointment", id, err)
	}
	return updated, nil
}

func (t *appointmentTx) Delete(ctx context.Context, clinicID, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1 AND clinic_id = $2`, id, clinicID)
	if err != nil {
		return lookupErr("appointment", id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.NotFound("appointment", id)
	}
	return nil
}

func (t *appointmentTx) Enqueue(ctx context.Context, evt outbox.Event) error {
	return t.outbox.Insert(ctx, t.tx, evt)
}

func (t *appointmentTx) Practitioner(ctx context.Context, clinicID, id string) (model.Practitioner, error) {
	return selectPractitioner(ctx, t.tx, clinicID, id)
}

func (t *appointmentTx) ActiveAppointments(ctx context.Context, practitionerID string, from, to time.Time) ([]model.Appointment, error) {
	return selectActive(ctx, t.tx, practitionerID, from, to)
}

// patchQuery builds an UPDATE touching only the fields set in p.
func patchQuery(clinicID, id string, p model.AppointmentPatch) (string, []any) {
	args := []any{id, clinicID}
	sets := []string{}
	set := func(column, cast string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d%s", column, len(args), cast))
	}
	if p.PractitionerID.Present() {
		set("practitioner_id", "", p.PractitionerID.Value)
	}
	if p.PatientID.Present() {
		set("patient_id", "", p.PatientID.Value)
	}
	if p.ScheduledAt.Present() {
		set("scheduled_at", "", p.ScheduledAt.Value.UTC())
	}
	if p.Price.Present() {
		set("price", "::numeric", p.Price.Value.String())
	}
	if p.Notes.Set {
		var notes *string
		if !p.Notes.Null {
			notes = &p.Notes.Value
		}
		set("notes", "", notes)
	}
	if p.Status.Present() {
		set("status", "", string(p.Status.Value))
	}
	sets = append(sets, "updated_at = now()")

	query := `UPDATE appointments SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1 AND clinic_id = $2
		RETURNING ` + appointmentColumns
	return query, args
}

func listQuery(clinicID string, f model.ListFilter, zone civil.Zone) (string, []any) {
	args := []any{clinicID}
	where := []string{"clinic_id = $1"}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.PractitionerID != "" {
		add("practitioner_id = $%d", f.PractitionerID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if !f.Date.IsZero() {
		from, to := zone.DayBounds(f.Date)
		add("scheduled_at >= $%d", from)
		add("scheduled_at < $%d", to)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	args = append(args, limit)

	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY scheduled_at ASC
		LIMIT $` + fmt.Sprint(len(args))
	return query, args
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	var price, status string
	if err := row.Scan(&a.ID, &a.ClinicID, &a.PractitionerID, &a.PatientID, &a.ScheduledAt, &price, &status, &a.Notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return model.Appointment{}, err
	}
	var err error
	if a.Price, err = decimal.NewFromString(price); err != nil {
		return model.Appointment{}, fmt.Errorf("appointment %s price: %w", a.ID, err)
	}
	a.Status = model.Status(status)
	return a, nil
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()
	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
