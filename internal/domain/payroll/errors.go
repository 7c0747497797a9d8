package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("payroll record not found")
	ErrNegativeNetPay = errors.New("net pay must not be negative")
	ErrDuplicate      = errors.New("payroll record already exists for this period")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidPeriod  = errors.New("period must be in YYYY-MM format")
)

// InvalidTransitionError names both the current and the requested status.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move payroll record from %s to %s", e.From, e.To)
}
