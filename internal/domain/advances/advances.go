package advances

import (
	"errors"
	"time"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

var (
	ErrNotFound      = errors.New("advance request not found")
	ErrInvalidState  = errors.New("advance request is not in a state that allows this action")
	ErrForbidden     = errors.New("not allowed to act on this advance request")
	ErrInvalidAmount = errors.New("advance amount must be greater than zero")
	ErrInvalidTerm   = errors.New("repayment term must be between 1 and 12 months")
)

type Request struct {
	ID              string     `json:"id"`
	UnitID          string     `json:"unitId"`
	EmployeeID      string     `json:"employeeId"`
	Amount          float64    `json:"amount"`
	RepaymentMonths int        `json:"repaymentMonths"`
	Reason          string     `json:"reason,omitempty"`
	Status          string     `json:"status"`
	DecidedBy       string     `json:"decidedBy,omitempty"`
	DecidedAt       *time.Time `json:"decidedAt,omitempty"`
	DecisionNote    string     `json:"decisionNote,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Validate checks the request fields that do not need storage access.
func Validate(amount float64, repaymentMonths int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if repaymentMonths < 1 || repaymentMonths > 12 {
		return ErrInvalidTerm
	}
	return nil
}

// MonthlyInstallment splits the amount evenly across the repayment term,
// rounded to cents.
func MonthlyInstallment(amount float64, repaymentMonths int) float64 {
	if repaymentMonths <= 0 {
		return 0
	}
	cents := int64(amount*100 + 0.5)
	per := cents / int64(repaymentMonths)
	return float64(per) / 100
}
