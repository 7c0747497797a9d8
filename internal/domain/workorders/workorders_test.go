package workorders

import (
	"errors"
	"testing"
)

func TestTransitions(t *testing.T) {
	allowed := []struct{ from, to string }{
		{StatusOpen, StatusInProgress},
		{StatusOpen, StatusCancelled},
		{StatusInProgress, StatusDone},
		{StatusInProgress, StatusCancelled},
	}
	for _, tt := range allowed {
		if err := Transition(tt.from, tt.to); err != nil {
			t.Errorf("Transition(%s, %s) = %v, want nil", tt.from, tt.to, err)
		}
	}

	forbidden := []struct{ from, to string }{
		{StatusOpen, StatusDone},
		{StatusDone, StatusInProgress},
		{StatusDone, StatusOpen},
		{StatusCancelled, StatusInProgress},
		{StatusCancelled, StatusDone},
	}
	for _, tt := range forbidden {
		err := Transition(tt.from, tt.to)
		if err == nil {
			t.Errorf("Transition(%s, %s) succeeded, want error", tt.from, tt.to)
			continue
		}
		var invalid *InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Errorf("Transition(%s, %s) error type %T", tt.from, tt.to, err)
			continue
		}
		if invalid.From != tt.from || invalid.To != tt.to {
			t.Errorf("error names %s -> %s, want %s -> %s", invalid.From, invalid.To, tt.from, tt.to)
		}
	}
}
