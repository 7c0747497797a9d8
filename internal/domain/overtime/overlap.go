package overtime

import (
	"time"

	"opsportal/internal/domain/timeslot"
)

// Slot is an overtime window on a single calendar day.
type Slot struct {
	Date   time.Time
	Window timeslot.Window
	Status string
}

// Conflicts reports whether the candidate slot intersects any active
// (pending or approved) slot on the same date. Touching windows do not
// conflict.
func Conflicts(candidate Slot, existing []Slot) bool {
	for _, slot := range existing {
		if slot.Status != StatusPending && slot.Status != StatusApproved {
			continue
		}
		if !slot.Date.Equal(candidate.Date) {
			continue
		}
		if candidate.Window.Overlaps(slot.Window) {
			return true
		}
	}
	return false
}
