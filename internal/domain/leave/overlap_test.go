package leave

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

func TestConflictsSharedBoundaryDay(t *testing.T) {
	existing := []Span{{
		Start:  day("2024-03-10"),
		End:    day("2024-03-12"),
		Unit:   UnitFullDay,
		Status: StatusApproved,
	}}
	candidate := Span{
		Start: day("2024-03-12"),
		End:   day("2024-03-14"),
		Unit:  UnitFullDay,
	}
	if !Conflicts(candidate, existing) {
		t.Fatal("ranges sharing a day must conflict")
	}
}

func TestConflictsFullDayBlocksHalfDay(t *testing.T) {
	existing := []Span{{
		Start:  day("2024-03-10"),
		Unit:   UnitFullDay,
		Status: StatusPending,
	}}
	candidate := Span{
		Start:  day("2024-03-10"),
		Unit:   UnitHalfDay,
		Window: timeslot.Window{Start: 540, End: 720},
	}
	if !Conflicts(candidate, existing) {
		t.Fatal("full-day leave must block a half-day on the same date")
	}

	// And the other way around.
	if !Conflicts(existing[0], []Span{{
		Start:  candidate.Start,
		Unit:   candidate.Unit,
		Window: candidate.Window,
		Status: StatusPending,
	}}) {
		t.Fatal("half-day leave must block a full-day on the same date")
	}
}

func TestConflictsHalfDayTouchingWindows(t *testing.T) {
	existing := []Span{{
		Start:  day("2024-03-10"),
		Unit:   UnitHalfDay,
		Window: timeslot.Window{Start: 540, End: 720}, // 09:00-12:00
		Status: StatusApproved,
	}}
	candidate := Span{
		Start:  day("2024-03-10"),
		Unit:   UnitHalfDay,
		Window: timeslot.Window{Start: 720, End: 900}, // 12:00-15:00
	}
	if Conflicts(candidate, existing) {
		t.Fatal("touching half-day windows must not conflict")
	}

	candidate.Window = timeslot.Window{Start: 660, End: 780} // 11:00-13:00
	if !Conflicts(candidate, existing) {
		t.Fatal("intersecting half-day windows must conflict")
	}
}

func TestConflictsIgnoresInactiveStatuses(t *testing.T) {
	for _, status := range []string{StatusRejected, StatusCancelled} {
		existing := []Span{{
			Start:  day("2024-03-10"),
			End:    day("2024-03-20"),
			Unit:   UnitFullDay,
			Status: status,
		}}
		candidate := Span{
			Start: day("2024-03-12"),
			Unit:  UnitFullDay,
		}
		if Conflicts(candidate, existing) {
			t.Fatalf("%s leave must never block", status)
		}
	}
}

func TestConflictsDisjointRanges(t *testing.T) {
	existing := []Span{{
		Start:  day("2024-03-10"),
		End:    day("2024-03-12"),
		Unit:   UnitFullDay,
		Status: StatusApproved,
	}}
	candidate := Span{
		Start: day("2024-03-13"),
		End:   day("2024-03-14"),
		Unit:  UnitFullDay,
	}
	if Conflicts(candidate, existing) {
		t.Fatal("disjoint ranges must not conflict")
	}
}
