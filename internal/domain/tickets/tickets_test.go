package tickets

import (
	"errors"
	"testing"
)

func TestTransitions(t *testing.T) {
	allowed := []struct{ from, to string }{
		{StatusOpen, StatusPending},
		{StatusOpen, StatusResolved},
		{StatusPending, StatusOpen},
		{StatusPending, StatusResolved},
		{StatusResolved, StatusOpen}, // reopen
		{StatusResolved, StatusClosed},
		{StatusOpen, StatusClosed},
	}
	for _, tt := range allowed {
		if err := Transition(tt.from, tt.to); err != nil {
			t.Errorf("Transition(%s, %s) = %v, want nil", tt.from, tt.to, err)
		}
	}

	forbidden := []struct{ from, to string }{
		{StatusClosed, StatusOpen},
		{StatusClosed, StatusPending},
		{StatusClosed, StatusResolved},
	}
	for _, tt := range forbidden {
		err := Transition(tt.from, tt.to)
		var invalid *InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Errorf("Transition(%s, %s) = %v, want InvalidTransitionError", tt.from, tt.to, err)
		}
	}
}

func TestValidPriority(t *testing.T) {
	for _, p := range []string{PriorityLow, PriorityNormal, PriorityHigh} {
		if !ValidPriority(p) {
			t.Errorf("priority %s rejected", p)
		}
	}
	if ValidPriority("urgent") {
		t.Error("unknown priority accepted")
	}
}
