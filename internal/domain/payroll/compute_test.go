package payroll

import (
	"errors"
	"testing"
)

func TestComputePay(t *testing.T) {
	gross, net, err := ComputePay(5000, 200, 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gross != 5200 {
		t.Fatalf("expected gross 5200, got %v", gross)
	}
	if net != 4900 {
		t.Fatalf("expected net 4900, got %v", net)
	}
}

func TestComputePayNegativeNetRejected(t *testing.T) {
	_, _, err := ComputePay(5000, 200, 5300)
	if !errors.Is(err, ErrNegativeNetPay) {
		t.Fatalf("expected ErrNegativeNetPay, got %v", err)
	}
}

func TestComputePayZeroNetAllowed(t *testing.T) {
	_, net, err := ComputePay(5000, 0, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if net != 0 {
		t.Fatalf("expected net 0, got %v", net)
	}
}
