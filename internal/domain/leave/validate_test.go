package leave

import (
	"errors"
	"testing"
	"time"
)

var today = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func validationCode(t *testing.T, err error) string {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return verr.Code
}

func TestValidateRequestFullDay(t *testing.T) {
	out, err := ValidateRequest(RequestInput{
		Type:      TypeAnnual,
		Unit:      UnitFullDay,
		StartDate: "2024-03-20",
		EndDate:   "2024-03-22",
	}, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Days != 3 {
		t.Fatalf("expected 3 days, got %v", out.Days)
	}
}

func TestValidateRequestMissingStart(t *testing.T) {
	_, err := ValidateRequest(RequestInput{Type: TypeAnnual, Unit: UnitFullDay}, today)
	if code := validationCode(t, err); code != CodeInvalidDate {
		t.Fatalf("expected %s, got %s", CodeInvalidDate, code)
	}
}

func TestValidateRequestReversedRange(t *testing.T) {
	_, err := ValidateRequest(RequestInput{
		Type:      TypeAnnual,
		Unit:      UnitFullDay,
		StartDate: "2024-03-22",
		EndDate:   "2024-03-20",
	}, today)
	if code := validationCode(t, err); code != CodeInvalidRange {
		t.Fatalf("expected %s, got %s", CodeInvalidRange, code)
	}
}

func TestValidateRequestBackdatedAnnualRejected(t *testing.T) {
	_, err := ValidateRequest(RequestInput{
		Type:      TypeAnnual,
		Unit:      UnitFullDay,
		StartDate: "2024-03-10",
	}, today)
	if code := validationCode(t, err); code != CodeInvalidDate {
		t.Fatalf("expected %s, got %s", CodeInvalidDate, code)
	}
}

func TestValidateRequestBackdatedSickAllowed(t *testing.T) {
	for _, leaveType := range []string{TypeSickCertified, TypeSickUncertified} {
		out, err := ValidateRequest(RequestInput{
			Type:      leaveType,
			Unit:      UnitFullDay,
			StartDate: "2024-03-10",
		}, today)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", leaveType, err)
		}
		if out.Days != 1 {
			t.Fatalf("%s: expected 1 day, got %v", leaveType, out.Days)
		}
	}
}

func TestValidateRequestStartsTodayAllowed(t *testing.T) {
	if _, err := ValidateRequest(RequestInput{
		Type:      TypeAnnual,
		Unit:      UnitFullDay,
		StartDate: "2024-03-15",
	}, today); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRequestHalfDay(t *testing.T) {
	out, err := ValidateRequest(RequestInput{
		Type:      TypeAnnual,
		Unit:      UnitHalfDay,
		StartDate: "2024-03-20",
		StartTime: "09:00",
		EndTime:   "13:00",
	}, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Days != 0.5 {
		t.Fatalf("expected 0.5 days, got %v", out.Days)
	}
	if out.Window.Start != 540 || out.Window.End != 780 {
		t.Fatalf("unexpected window %v", out.Window)
	}
}

func TestValidateRequestHalfDayMissingTimes(t *testing.T) {
	_, err := ValidateRequest(RequestInput{
		Type:      TypeAnnual,
		Unit:      UnitHalfDay,
		StartDate: "2024-03-20",
		StartTime: "09:00",
	}, today)
	if code := validationCode(t, err); code != CodeMissingTime {
		t.Fatalf("expected %s, got %s", CodeMissingTime, code)
	}
}

func TestValidateRequestHalfDayEqualTimes(t *testing.T) {
	_, err := ValidateRequest(RequestInput{
		Type:      TypeAnnual,
		Unit:      UnitHalfDay,
		StartDate: "2024-03-20",
		StartTime: "09:00",
		EndTime:   "09:00",
	}, today)
	if code := validationCode(t, err); code != CodeInvalidTime {
		t.Fatalf("expected %s, got %s", CodeInvalidTime, code)
	}
}

func TestValidateRequestHalfDayMultiDayRejected(t *testing.T) {
	_, err := ValidateRequest(RequestInput{
		Type:      TypeAnnual,
		Unit:      UnitHalfDay,
		StartDate: "2024-03-20",
		EndDate:   "2024-03-21",
		StartTime: "09:00",
		EndTime:   "13:00",
	}, today)
	if code := validationCode(t, err); code != CodeInvalidRange {
		t.Fatalf("expected %s, got %s", CodeInvalidRange, code)
	}
}
