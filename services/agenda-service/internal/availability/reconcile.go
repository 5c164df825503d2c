package availability

import (
	"sort"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

// ReconcileEdited makes the slot at tod available in a copy of in. When the
// slot is missing (the booking sits outside the current working window) it is
// added and the result re-sorted.
func ReconcileEdited(in []model.Slot, tod string) []model.Slot {
	out := make([]model.Slot, len(in), len(in)+1)
	copy(out, in)
	for i := range out {
		if out[i].Time == tod {
			out[i].Available = true
			return out
		}
	}
	out = append(out, model.Slot{Time: tod, Label: civil.Label(tod), Available: true})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
