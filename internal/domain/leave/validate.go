package leave

import (
	"time"

	"opsportal/internal/domain/timeslot"
)

const dateLayout = "2006-01-02"

// RequestInput is the raw request shape before validation.
type RequestInput struct {
	Type      string
	Unit      string
	StartDate string
	EndDate   string
	StartTime string
	EndTime   string
}

// Validated is the normalized result of a successful validation. End is
// always set (single-day requests get End == Start) and Window is only
// meaningful for half-day requests.
type Validated struct {
	Start  time.Time
	End    time.Time
	Window timeslot.Window
	Days   float64
}

// ValidateRequest checks the date/time shape of a leave request against the
// given reference date. Annual leave must not be backdated; sick leave may be
// reported after the fact.
func ValidateRequest(in RequestInput, today time.Time) (Validated, error) {
	start, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return Validated{}, invalid(CodeInvalidDate, "start date must be a valid date in YYYY-MM-DD format")
	}

	end := start
	if in.EndDate != "" {
		end, err = time.Parse(dateLayout, in.EndDate)
		if err != nil {
			return Validated{}, invalid(CodeInvalidRange, "end date must be a valid date in YYYY-MM-DD format")
		}
		if end.Before(start) {
			return Validated{}, invalid(CodeInvalidRange, "end date must be on or after start date")
		}
	}

	if in.Type != TypeSickCertified && in.Type != TypeSickUncertified {
		if start.Before(dateOnly(today)) {
			return Validated{}, invalid(CodeInvalidDate, "leave cannot start in the past")
		}
	}

	out := Validated{Start: start, End: end}
	if in.Unit == UnitHalfDay {
		if !end.Equal(start) {
			return Validated{}, invalid(CodeInvalidRange, "half-day leave must be a single day")
		}
		if in.StartTime == "" || in.EndTime == "" {
			return Validated{}, invalid(CodeMissingTime, "half-day leave requires a start and end time")
		}
		window, err := timeslot.ParseWindow(in.StartTime, in.EndTime)
		if err != nil {
			return Validated{}, invalid(CodeInvalidTime, "half-day leave times are invalid: "+err.Error())
		}
		out.Window = window
		out.Days = 0.5
		return out, nil
	}

	out.Days = end.Sub(start).Hours()/24 + 1
	return out, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
