package slots

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
)

// Step is the slot granularity. A deployment uses exactly one.
type Step time.Duration

const (
	HalfHour Step = Step(30 * time.Minute)
	Hour     Step = Step(60 * time.Minute)
)

func ParseStep(minutes int) (Step, error) {
	switch minutes {
	case 30:
		return HalfHour, nil
	case 60:
		return Hour, nil
	default:
		return 0, fmt.Errorf("slot step must be 30 or 60 minutes (got %d)", minutes)
	}
}

func (s Step) Minutes() int {
	return int(time.Duration(s) / time.Minute)
}

// Generate returns every slot start of one day as "HH:MM:SS", ascending from
// 00:00:00. The result has 24*60/step entries.
func Generate(step Step) []string {
	mins := step.Minutes()
	if mins <= 0 {
		return nil
	}
	out := make([]string, 0, 24*60/mins)
	for m := 0; m < 24*60; m += mins {
		out = append(out, civil.Time{Hour: m / 60, Minute: m % 60}.String())
	}
	return out
}
