package advances

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	if err := Validate(1500, 3); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
	if err := Validate(0, 3); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: got %v, want ErrInvalidAmount", err)
	}
	if err := Validate(-50, 3); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative amount: got %v, want ErrInvalidAmount", err)
	}
	if err := Validate(1500, 0); !errors.Is(err, ErrInvalidTerm) {
		t.Fatalf("zero months: got %v, want ErrInvalidTerm", err)
	}
	if err := Validate(1500, 13); !errors.Is(err, ErrInvalidTerm) {
		t.Fatalf("13 months: got %v, want ErrInvalidTerm", err)
	}
}

func TestMonthlyInstallment(t *testing.T) {
	tests := []struct {
		amount float64
		months int
		want   float64
	}{
		{1200, 3, 400},
		{1000, 3, 333.33},
		{99.99, 2, 49.99},
	}
	for _, tt := range tests {
		if got := MonthlyInstallment(tt.amount, tt.months); got != tt.want {
			t.Errorf("MonthlyInstallment(%v, %d) = %v, want %v", tt.amount, tt.months, got, tt.want)
		}
	}
}
