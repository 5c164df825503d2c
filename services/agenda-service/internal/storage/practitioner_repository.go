package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicagenda/libs/db"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
	"github.com/shopspring/decimal"
)

type PractitionerRepository struct {
	pool *db.Pool
}

func NewPractitionerRepository(pool *db.Pool) *PractitionerRepository {
	return &PractitionerRepository{pool: pool}
}

func (r *PractitionerRepository) Practitioner(ctx context.Context, clinicID, id string) (model.Practitioner, error) {
	return selectPractitioner(ctx, r.pool, clinicID, id)
}

func selectPractitioner(ctx context.Context, q querier, clinicID, id string) (model.Practitioner, error) {
	row := q.QueryRow(ctx, `
		SELECT id::text, clinic_id, name, weekday_open, weekday_close, time_open::text, time_close::text, price::text
		FROM practitioners
		WHERE id = $1 AND clinic_id = $2
	`, id, clinicID)
	p, err := scanPractitioner(row)
	if err != nil {
		return model.Practitioner{}, lookupErr("practitioner", id, err)
	}
	return p, nil
}

// Save creates or replaces a practitioner. A nil Hours clears the working
// hours. Practitioners of another clinic are never overwritten.
func (r *PractitionerRepository) Save(ctx context.Context, p model.Practitioner) (model.Practitioner, error) {
	var wdOpen, wdClose *int16
	var tOpen, tClose *string
	if h := p.Hours; h != nil {
		o, c := int16(h.WeekdayOpen), int16(h.WeekdayClose)
		wdOpen, wdClose = &o, &c
		tOpen, tClose = &h.TimeOpen, &h.TimeClose
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO practitioners (id, clinic_id, name, weekday_open, weekday_close, time_open, time_close, price)
		VALUES ($1, $2, $3, $4, $5, $6::time, $7::time, $8::numeric)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			weekday_open = EXCLUDED.weekday_open,
			weekday_close = EXCLUDED.weekday_close,
			time_open = EXCLUDED.time_open,
			time_close = EXCLUDED.time_close,
			price = EXCLUDED.price,
			updated_at = now()
		WHERE practitioners.clinic_id = EXCLUDED.clinic_id
		RETURNING id::text, clinic_id, name, weekday_open, weekday_close, time_open::text, time_close::text, price::text
	`, p.ID, p.ClinicID, p.Name, wdOpen, wdClose, tOpen, tClose, p.Price.String())
	saved, err := scanPractitioner(row)
	if err != nil {
		return model.Practitioner{}, lookupErr("practitioner", p.ID, err)
	}
	return saved, nil
}

func scanPractitioner(row pgx.Row) (model.Practitioner, error) {
	var (
		p               model.Practitioner
		wdOpen, wdClose *int16
		tOpen, tClose   *string
		price           string
	)
	if err := row.Scan(&p.ID, &p.ClinicID, &p.Name, &wdOpen, &wdClose, &tOpen, &tClose, &price); err != nil {
		return model.Practitioner{}, err
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return model.Practitioner{}, fmt.Errorf("practitioner %s price: %w", p.ID, err)
	}
	if wdOpen == nil || wdClose == nil || tOpen == nil || tClose == nil {
		return p, nil
	}
	hours, err := workingHours(int(*wdOpen), int(*wdClose), *tOpen, *tClose)
	if err != nil {
		return model.Practitioner{}, fmt.Errorf("practitioner %s: %w", p.ID, err)
	}
	p.Hours = &hours
	return p, nil
}

// workingHours normalizes stored times to "HH:MM:SS" so they compare
// lexicographically against generated slots.
func workingHours(wdOpen, wdClose int, tOpen, tClose string) (model.WorkingHours, error) {
	open, err := civil.ParseTime(tOpen)
	if err != nil {
		return model.WorkingHours{}, err
	}
	closeAt, err := civil.ParseTime(tClose)
	if err != nil {
		return model.WorkingHours{}, err
	}
	return model.WorkingHours{
		WeekdayOpen:  wdOpen,
		WeekdayClose: wdClose,
		TimeOpen:     open.String(),
		TimeClose:    closeAt.String(),
	}, nil
}
