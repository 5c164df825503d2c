package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

// IsConflict reports a unique violation, which on appointments means the
// live-slot index rejected a second booking.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// isMalformedID catches ids that do not parse as uuid.
func isMalformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func lookupErr(what, id string, err error) error {
	if IsNotFound(err) || isMalformedID(err) {
		return model.NotFound(what, id)
	}
	return err
}

func writeErr(err error) error {
	if IsConflict(err) {
		return model.ErrBookingConflict
	}
	return err
}
