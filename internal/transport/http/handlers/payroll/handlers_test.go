package payrollhandler

import (
	"encoding/json"
	"testing"
)

func TestAmountsPayloadCarriesNotesAndDate(t *testing.T) {
	raw := `{"baseSalary":5000,"allowances":500,"deductions":200,"notes":"march correction","payrollDate":"2024-03-25"}`

	var payload amountsPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	amounts, err := payload.toAmounts()
	if err != nil {
		t.Fatalf("toAmounts: %v", err)
	}

	if amounts.BaseSalary != 5000 || amounts.Allowances != 500 || amounts.Deductions != 200 {
		t.Errorf("monetary fields = %v/%v/%v, want 5000/500/200", amounts.BaseSalary, amounts.Allowances, amounts.Deductions)
	}
	if amounts.Notes != "march correction" {
		t.Errorf("notes = %q, want %q", amounts.Notes, "march correction")
	}
	if amounts.PayrollDate == nil {
		t.Fatal("payrollDate dropped")
	}
	if got := amounts.PayrollDate.Format("2006-01-02"); got != "2024-03-25" {
		t.Errorf("payrollDate = %s, want 2024-03-25", got)
	}
}

func TestAmountsPayloadWithoutDate(t *testing.T) {
	var payload amountsPayload
	if err := json.Unmarshal([]byte(`{"baseSalary":5000}`), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	amounts, err := payload.toAmounts()
	if err != nil {
		t.Fatalf("toAmounts: %v", err)
	}
	if amounts.PayrollDate != nil {
		t.Fatalf("expected nil payrollDate, got %v", amounts.PayrollDate)
	}
}

func TestAmountsPayloadRejectsBadDate(t *testing.T) {
	payload := amountsPayload{BaseSalary: 5000, PayrollDate: "25-03-2024"}
	if _, err := payload.toAmounts(); err == nil {
		t.Fatal("expected error for malformed payrollDate")
	}
}
