package payroll

import (
	"errors"
	"testing"
)

func TestTransitionTable(t *testing.T) {
	allowed := []struct{ from, to string }{
		{StatusGenerated, StatusPendingSignature},
		{StatusPendingSignature, StatusSigned},
		{StatusPendingSignature, StatusRejected},
		{StatusRejected, StatusPendingSignature},
		{StatusRejected, StatusGenerated},
		{StatusSigned, StatusCompleted},
		{StatusCompleted, StatusCompleted},
	}
	for _, tc := range allowed {
		if err := Transition(tc.from, tc.to); err != nil {
			t.Fatalf("%s -> %s: unexpected error: %v", tc.from, tc.to, err)
		}
	}

	forbidden := []struct{ from, to string }{
		{StatusGenerated, StatusCompleted},
		{StatusGenerated, StatusSigned},
		{StatusGenerated, StatusRejected},
		{StatusPendingSignature, StatusCompleted},
		{StatusPendingSignature, StatusGenerated},
		{StatusSigned, StatusRejected},
		{StatusSigned, StatusPendingSignature},
		{StatusSigned, StatusGenerated},
		{StatusCompleted, StatusRejected},
		{StatusCompleted, StatusSigned},
		{StatusCompleted, StatusPendingSignature},
		{StatusCompleted, StatusGenerated},
		{StatusRejected, StatusSigned},
		{StatusRejected, StatusCompleted},
	}
	for _, tc := range forbidden {
		err := Transition(tc.from, tc.to)
		if err == nil {
			t.Fatalf("%s -> %s: expected error", tc.from, tc.to)
		}
		var terr *InvalidTransitionError
		if !errors.As(err, &terr) {
			t.Fatalf("%s -> %s: expected InvalidTransitionError, got %v", tc.from, tc.to, err)
		}
		if terr.From != tc.from || terr.To != tc.to {
			t.Fatalf("error must name both statuses, got %+v", terr)
		}
	}
}

func TestGeneratedToCompletedDirectFails(t *testing.T) {
	if err := Transition(StatusGenerated, StatusCompleted); err == nil {
		t.Fatal("generated -> completed must be rejected")
	}
}
