package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/clinicagenda/libs/httpx"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
	"github.com/shopspring/decimal"
)

type workingHoursBody struct {
	WeekdayOpen  int    `json:"weekday_open" validate:"min=0,max=6"`
	WeekdayClose int    `json:"weekday_close" validate:"min=0,max=6"`
	TimeOpen     string `json:"time_open" validate:"required,civiltime"`
	TimeClose    string `json:"time_close" validate:"required,civiltime"`
}

type practitionerBody struct {
	Name  string          `json:"name" validate:"required,max=200"`
	Price decimal.Decimal `json:"price"`
	// WorkingHours null or omitted leaves the practitioner unbookable.
	WorkingHours *workingHoursBody `json:"working_hours"`
}

type practitionerResponse struct {
	ID           string            `json:"id"`
	ClinicID     string            `json:"clinic_id"`
	Name         string            `json:"name"`
	Price        decimal.Decimal   `json:"price"`
	WorkingHours *workingHoursBody `json:"working_hours"`
}

func toPractitionerResponse(p model.Practitioner) practitionerResponse {
	out := practitionerResponse{ID: p.ID, ClinicID: p.ClinicID, Name: p.Name, Price: p.Price}
	if h := p.Hours; h != nil {
		out.WorkingHours = &workingHoursBody{
			WeekdayOpen:  h.WeekdayOpen,
			WeekdayClose: h.WeekdayClose,
			TimeOpen:     h.TimeOpen,
			TimeClose:    h.TimeClose,
		}
	}
	return out
}

func (h *Handler) GetPractitioner(w http.ResponseWriter, r *http.Request) {
	p, err := h.practitioners.Practitioner(r.Context(), ClinicIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPractitionerResponse(p))
}

// SavePractitioner creates or replaces a practitioner and its working hours.
func (h *Handler) SavePractitioner(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "practitioner id must be a uuid")
		return
	}
	var req practitionerBody
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Price.IsNegative() {
		httpx.WriteError(w, http.StatusBadRequest, "price cannot be negative")
		return
	}

	p := model.Practitioner{ID: id, ClinicID: ClinicIDFromContext(r.Context()), Name: req.Name, Price: req.Price}
	if wh := req.WorkingHours; wh != nil {
		open, _ := civil.ParseTime(wh.TimeOpen)
		closeAt, _ := civil.ParseTime(wh.TimeClose)
		p.Hours = &model.WorkingHours{
			WeekdayOpen:  wh.WeekdayOpen,
			WeekdayClose: wh.WeekdayClose,
			TimeOpen:     open.String(),
			TimeClose:    closeAt.String(),
		}
	}

	saved, err := h.practitioners.Save(r.Context(), p)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	if h.slotCache != nil {
		if err := h.slotCache.InvalidatePractitioner(r.Context(), saved.ID); err != nil {
			h.logger.Warn("availability cache invalidation failed", "err", err, "practitioner_id", saved.ID)
		}
	}
	httpx.WriteJSON(w, http.StatusOK, toPractitionerResponse(saved))
}
