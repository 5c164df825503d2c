package availability

import (
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/slots"
)

// WeekdayInRange is the inclusive open <= weekday <= close test. Ranges that
// wrap the week boundary (e.g. Fri-Mon) are not expressible and match no day.
func WeekdayInRange(d civil.Date, open, close int) bool {
	wd := d.Weekday()
	return open <= wd && wd <= close
}

// WithinHours keeps the candidates in [open, close], comparing fixed-width
// "HH:MM:SS" strings.
func WithinHours(candidates []string, open, close string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if open <= c && c <= close {
			out = append(out, c)
		}
	}
	return out
}

// Window returns the candidate slot times for d, or an empty slice when d
// falls outside the practitioner's weekdays.
func Window(d civil.Date, hours model.WorkingHours, step slots.Step) []string {
	if !WeekdayInRange(d, hours.WeekdayOpen, hours.WeekdayClose) {
		return []string{}
	}
	return WithinHours(slots.Generate(step), hours.TimeOpen, hours.TimeClose)
}
