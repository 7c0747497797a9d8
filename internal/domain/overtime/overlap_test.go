package overtime

import (
	"testing"
	"time"

	"opsportal/internal/domain/timeslot"
)

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestConflictsTouchingWindows(t *testing.T) {
	existing := []Slot{{
		Date:   day("2024-03-10"),
		Window: timeslot.Window{Start: 540, End: 720}, // 09:00-12:00
		Status: StatusPending,
	}}
	candidate := Slot{
		Date:   day("2024-03-10"),
		Window: timeslot.Window{Start: 720, End: 900}, // 12:00-15:00
	}
	if Conflicts(candidate, existing) {
		t.Fatal("touching overtime windows must not conflict")
	}
}

func TestConflictsIntersectingWindows(t *testing.T) {
	existing := []Slot{{
		Date:   day("2024-03-10"),
		Window: timeslot.Window{Start: 540, End: 720},
		Status: StatusApproved,
	}}
	candidate := Slot{
		Date:   day("2024-03-10"),
		Window: timeslot.Window{Start: 600, End: 780},
	}
	if !Conflicts(candidate, existing) {
		t.Fatal("intersecting overtime windows must conflict")
	}
}

func TestConflictsDifferentDates(t *testing.T) {
	existing := []Slot{{
		Date:   day("2024-03-10"),
		Window: timeslot.Window{Start: 540, End: 720},
		Status: StatusApproved,
	}}
	candidate := Slot{
		Date:   day("2024-03-11"),
		Window: timeslot.Window{Start: 540, End: 720},
	}
	if Conflicts(candidate, existing) {
		t.Fatal("different dates must not conflict")
	}
}

func TestConflictsIgnoresInactive(t *testing.T) {
	for _, status := range []string{StatusRejected, StatusCancelled} {
		existing := []Slot{{
			Date:   day("2024-03-10"),
			Window: timeslot.Window{Start: 540, End: 720},
			Status: status,
		}}
		candidate := Slot{
			Date:   day("2024-03-10"),
			Window: timeslot.Window{Start: 600, End: 660},
		}
		if Conflicts(candidate, existing) {
			t.Fatalf("%s overtime must never block", status)
		}
	}
}
