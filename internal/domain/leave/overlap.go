package leave

import (
	"time"

	"opsportal/internal/domain/timeslot"
)

// Span is the date/time footprint of a leave request as seen by the overlap
// detector. End may be zero for single-day requests.
type Span struct {
	Start  time.Time
	End    time.Time
	Unit   string
	Window timeslot.Window
	Status string
}

func (s Span) effectiveEnd() time.Time {
	if s.End.IsZero() {
		return s.Start
	}
	return s.End
}

func (s Span) blocks() bool {
	return s.Status == StatusPending || s.Status == StatusApproved
}

// Conflicts reports whether the candidate overlaps any active (pending or
// approved) span. Date ranges intersect inclusively; a full-day side blocks
// the whole day, and two half-days on the same day conflict only when their
// time windows intersect.
func Conflicts(candidate Span, existing []Span) bool {
	candEnd := candidate.effectiveEnd()
	for _, span := range existing {
		if !span.blocks() {
			continue
		}
		spanEnd := span.effectiveEnd()
		if candidate.Start.After(spanEnd) || candEnd.Before(span.Start) {
			continue
		}
		if candidate.Unit == UnitFullDay || span.Unit == UnitFullDay {
			return true
		}
		// Both half-day. Half-day requests are single-day, so matching
		// start dates means the same calendar day.
		if candidate.Start.Equal(span.Start) && candidate.Window.Overlaps(span.Window) {
			return true
		}
	}
	return false
}
