package timeslot

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")
	ErrInvalidWindow     = errors.New("end time must be after start time")
)

const minutesPerDay = 24 * 60

// ParseClock converts an "HH:MM" string to minutes since midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, ErrInvalidTimeFormat
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, ErrInvalidTimeFormat
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, ErrInvalidTimeFormat
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, ErrInvalidTimeFormat
	}
	return hours*60 + minutes, nil
}

// Window is a same-day time slot in minutes since midnight, half-open [Start, End).
type Window struct {
	Start int
	End   int
}

// ParseWindow parses a start/end clock pair and requires positive duration.
func ParseWindow(start, end string) (Window, error) {
	startMin, err := ParseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("start time: %w", err)
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("end time: %w", err)
	}
	if endMin <= startMin {
		return Window{}, ErrInvalidWindow
	}
	return Window{Start: startMin, End: endMin}, nil
}

// Overlaps reports whether two half-open windows intersect. Touching
// boundaries (a.End == b.Start) do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start < other.End && w.End > other.Start
}

// Hours returns the window duration in hours rounded to two decimals,
// matching the precision used on payslips.
func (w Window) Hours() float64 {
	return math.Round(float64(w.End-w.Start)/60*100) / 100
}

func (w Window) Valid() bool {
	return w.Start >= 0 && w.End <= minutesPerDay && w.End > w.Start
}
