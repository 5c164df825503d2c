package handlers

import (
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/clinicagenda/libs/httpx"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/availability"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

type availabilityQuery struct {
	PractitionerID      string `json:"practitioner_id" validate:"required"`
	Date                string `json:"date" validate:"required,datetime=2006-01-02"`
	EditedAppointmentID string `json:"edited_appointment_id"`
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := availabilityQuery{
		PractitionerID:      strings.TrimSpace(q.Get("practitioner_id")),
		Date:                strings.TrimSpace(q.Get("date")),
		EditedAppointmentID: strings.TrimSpace(q.Get("edited_appointment_id")),
	}
	if err := validateStruct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := civil.ParseDate(req.Date)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	slots, err := h.availability.Query(r.Context(), ClinicIDFromContext(r.Context()), availability.Query{
		PractitionerID:      req.PractitionerID,
		Date:                date,
		EditedAppointmentID: req.EditedAppointmentID,
	})
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	if slots == nil {
		slots = []model.Slot{}
	}
	httpx.WriteJSON(w, http.StatusOK, slots)
}
