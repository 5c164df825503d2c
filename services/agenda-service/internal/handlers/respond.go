package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/clinicagenda/libs/httpx"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/appointments"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrBookingConflict), errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, model.ErrConfigurationMissing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeErr renders err with its mapped status. Internal failures are logged
// and never echoed to the client.
func writeErr(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "err", err, "request_id", httpx.RequestIDFromContext(r.Context()), "path", r.URL.Path)
		httpx.WriteError(w, status, "internal error")
		return
	}
	httpx.WriteError(w, status, err.Error())
}

// writeResult renders an operation outcome. A rejected business rule with no
// error is a 409 carrying the user-facing message.
func writeResult(w http.ResponseWriter, r *http.Request, logger *slog.Logger, res appointments.Result, err error) {
	switch {
	case err == nil && res.Success:
		httpx.WriteJSON(w, http.StatusOK, res)
	case err == nil:
		httpx.WriteJSON(w, http.StatusConflict, res)
	case res.Message != "":
		if statusFor(err) == http.StatusInternalServerError {
			writeErr(w, r, logger, err)
			return
		}
		httpx.WriteJSON(w, statusFor(err), res)
	default:
		writeErr(w, r, logger, err)
	}
}
