package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/libs/httpx"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/appointments"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
	"github.com/shopspring/decimal"
)

// createAppointmentRequest takes either an absolute scheduled_at or the
// civil date and time picked from the availability listing.
type createAppointmentRequest struct {
	PractitionerID string           `json:"practitioner_id" validate:"required"`
	PatientID      string           `json:"patient_id" validate:"required"`
	ScheduledAt    *time.Time       `json:"scheduled_at" validate:"required_without_all=Date Time"`
	Date           string           `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time           string           `json:"time" validate:"omitempty,civiltime"`
	Price          *decimal.Decimal `json:"price"`
	Notes          *string          `json:"notes" validate:"omitempty,max=2000"`
}

type createAppointmentResponse struct {
	appointments.Result
	Appointment *model.Appointment `json:"appointment,omitempty"`
}

type listAppointmentsResponse struct {
	Appointments []model.Appointment `json:"appointments"`
}

type listQuery struct {
	PractitionerID string `json:"practitioner_id"`
	Date           string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status         string `json:"status" validate:"omitempty,oneof=pending confirmed canceled"`
	Limit          string `json:"limit" validate:"omitempty,number"`
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.PractitionerID = strings.TrimSpace(req.PractitionerID)
	req.PatientID = strings.TrimSpace(req.PatientID)
	if err := validateStruct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	at, err := h.resolveInstant(req)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	appt, res, err := h.appointments.Create(r.Context(), ClinicIDFromContext(r.Context()), appointments.CreateInput{
		PractitionerID: req.PractitionerID,
		PatientID:      req.PatientID,
		ScheduledAt:    at,
		Price:          req.Price,
		Notes:          req.Notes,
	})
	if err != nil || !res.Success {
		writeResult(w, r, h.logger, res, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, createAppointmentResponse{Result: res, Appointment: &appt})
}

func (h *Handler) resolveInstant(req createAppointmentRequest) (time.Time, error) {
	if req.ScheduledAt != nil {
		return *req.ScheduledAt, nil
	}
	d, err := civil.ParseDate(req.Date)
	if err != nil {
		return time.Time{}, err
	}
	tod, err := civil.ParseTime(req.Time)
	if err != nil {
		return time.Time{}, err
	}
	return h.zone.Instant(d, tod), nil
}

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := listQuery{
		PractitionerID: strings.TrimSpace(q.Get("practitioner_id")),
		Date:           strings.TrimSpace(q.Get("date")),
		Status:         strings.TrimSpace(q.Get("status")),
		Limit:          strings.TrimSpace(q.Get("limit")),
	}
	if err := validateStruct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	f := model.ListFilter{PractitionerID: req.PractitionerID, Status: model.Status(req.Status)}
	if req.Date != "" {
		d, err := civil.ParseDate(req.Date)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Date = d
	}
	if req.Limit != "" {
		n, err := strconv.Atoi(req.Limit)
		if err != nil || n < 0 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}

	appts, err := h.appointments.List(r.Context(), ClinicIDFromContext(r.Context()), f)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, listAppointmentsResponse{Appointments: appts})
}

func (h *Handler) EditAppointment(w http.ResponseWriter, r *http.Request) {
	var patch model.AppointmentPatch
	if err := decodeJSON(r, &patch); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.appointments.Edit(r.Context(), ClinicIDFromContext(r.Context()), r.PathValue("id"), patch)
	writeResult(w, r, h.logger, res, err)
}

func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	var patch model.AppointmentPatch
	if err := decodeJSON(r, &patch); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.appointments.Update(r.Context(), ClinicIDFromContext(r.Context()), r.PathValue("id"), patch)
	writeResult(w, r, h.logger, res, err)
}

func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	res, err := h.appointments.Delete(r.Context(), ClinicIDFromContext(r.Context()), r.PathValue("id"))
	writeResult(w, r, h.logger, res, err)
}

func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	res, err := h.appointments.Cancel(r.Context(), ClinicIDFromContext(r.Context()), r.PathValue("id"))
	writeResult(w, r, h.logger, res, err)
}

func (h *Handler) ConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	res, err := h.appointments.Confirm(r.Context(), ClinicIDFromContext(r.Context()), r.PathValue("id"))
	writeResult(w, r, h.logger, res, err)
}

func (h *Handler) RevertAppointment(w http.ResponseWriter, r *http.Request) {
	res, err := h.appointments.RevertToPending(r.Context(), ClinicIDFromContext(r.Context()), r.PathValue("id"))
	writeResult(w, r, h.logger, res, err)
}
