package overtime

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
	ErrNotFound     = errors.New("overtime request not found")
	ErrInvalidState = errors.New("overtime request is not pending")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidDate  = errors.New("date must be a valid date in YYYY-MM-DD format")
)

type Request struct {
	ID           string     `json:"id"`
	UnitID       string     `json:"unitId"`
	EmployeeID   string     `json:"employeeId"`
	Date         time.Time  `json:"date"`
	StartTime    string     `json:"startTime"`
	EndTime      string     `json:"endTime"`
	Hours        float64    `json:"hours"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	ApprovedBy   string     `json:"approvedBy,omitempty"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty"`
	RejectedBy   string     `json:"rejectedBy,omitempty"`
	RejectedAt   *time.Time `json:"rejectedAt,omitempty"`
	RejectReason string     `json:"rejectReason,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
