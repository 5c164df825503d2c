package availability

import (
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/lifecycle"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

// OccupiedTimes returns the civil times-of-day taken on date by appointments
// that still hold their slot.
func OccupiedTimes(date civil.Date, appts []model.Appointment, zone civil.Zone) map[string]struct{} {
	occupied := make(map[string]struct{}, len(appts))
	for _, a := range appts {
		if !lifecycle.Occupies(a.Status) {
			continue
		}
		d, tod := zone.Localize(a.ScheduledAt)
		if d != date {
			continue
		}
		occupied[tod.String()] = struct{}{}
	}
	return occupied
}

// ResolveConflicts marks each candidate busy when a non-canceled appointment
// on date sits at the same time-of-day.
func ResolveConflicts(candidates []string, date civil.Date, appts []model.Appointment, zone civil.Zone) []model.Slot {
	occupied := OccupiedTimes(date, appts, zone)
	out := make([]model.Slot, 0, len(candidates))
	for _, c := range candidates {
		_, busy := occupied[c]
		out = append(out, model.Slot{Time: c, Label: civil.Label(c), Available: !busy})
	}
	return out
}
