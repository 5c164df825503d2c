package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/clinicagenda/libs/httpx"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/appointments"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/availability"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

type AvailabilityQuerier interface {
	Query(ctx context.Context, clinicID string, q availability.Query) ([]model.Slot, error)
}

type AppointmentService interface {
	Create(ctx context.Context, clinicID string, in appointments.CreateInput) (model.Appointment, appointments.Result, error)
	Cancel(ctx context.Context, clinicID, id string) (appointments.Result, error)
	Confirm(ctx context.Context, clinicID, id string) (appointments.Result, error)
	RevertToPending(ctx context.Context, clinicID, id string) (appointments.Result, error)
	Delete(ctx context.Context, clinicID, id string) (appointments.Result, error)
	Edit(ctx context.Context, clinicID, id string, patch model.AppointmentPatch) (appointments.Result, error)
	Update(ctx context.Context, clinicID, id string, patch model.AppointmentPatch) (appointments.Result, error)
	List(ctx context.Context, clinicID string, f model.ListFilter) ([]model.Appointment, error)
}

type PractitionerStore interface {
	Practitioner(ctx context.Context, clinicID, id string) (model.Practitioner, error)
	Save(ctx context.Context, p model.Practitioner) (model.Practitioner, error)
}

// SlotInvalidator drops all cached availability of a practitioner.
type SlotInvalidator interface {
	InvalidatePractitioner(ctx context.Context, practitionerID string) error
}

type Deps struct {
	Availability  AvailabilityQuerier
	Appointments  AppointmentService
	Practitioners PractitionerStore
	// SlotCache may be nil.
	SlotCache SlotInvalidator
	Zone      civil.Zone
	Logger    *slog.Logger
}

type Handler struct {
	availability  AvailabilityQuerier
	appointments  AppointmentService
	practitioners PractitionerStore
	slotCache     SlotInvalidator
	zone          civil.Zone
	logger        *slog.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		availability:  d.Availability,
		appointments:  d.Appointments,
		practitioners: d.Practitioners,
		slotCache:     d.SlotCache,
		zone:          d.Zone,
		logger:        d.Logger,
	}
}

// Routes returns the /api/v1 surface wrapped in requireClinic.
func (h *Handler) Routes(requireClinic httpx.Middleware) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/availability", h.Availability)

	mux.HandleFunc("GET /api/v1/appointments", h.ListAppointments)
	mux.HandleFunc("POST /api/v1/appointments", h.CreateAppointment)
	mux.HandleFunc("PATCH /api/v1/appointments/{id}", h.EditAppointment)
	mux.HandleFunc("PUT /api/v1/appointments/{id}", h.UpdateAppointment)
	mux.HandleFunc("DELETE /api/v1/appointments/{id}", h.DeleteAppointment)
	mux.HandleFunc("POST /api/v1/appointments/{id}/cancel", h.CancelAppointment)
	mux.HandleFunc("POST /api/v1/appointments/{id}/confirm", h.ConfirmAppointment)
	mux.HandleFunc("POST /api/v1/appointments/{id}/revert", h.RevertAppointment)

	mux.HandleFunc("GET /api/v1/practitioners/{id}", h.GetPractitioner)
	mux.HandleFunc("PUT /api/v1/practitioners/{id}", h.SavePractitioner)
	return httpx.Chain(mux, requireClinic)
}
