package notifications

import (
	"context"
	"time"
)

const (
	TypeLeaveSubmitted    = "leave_submitted"
	TypeLeaveApproved     = "leave_approved"
	TypeLeaveRejected     = "leave_rejected"
	TypeLeaveCancelled    = "leave_cancelled"
	TypeOvertimeSubmitted = "overtime_submitted"
	TypeOvertimeApproved  = "overtime_approved"
	TypeOvertimeRejected  = "overtime_rejected"
	TypePayrollIssued     = "payroll_issued"
	TypePayrollSigned     = "payroll_signed"
	TypePayrollRejected   = "payroll_rejected"
	TypeAdvanceSubmitted  = "advance_submitted"
	TypeAdvanceDecided    = "advance_decided"
	TypeWorkOrderAssigned = "workorder_assigned"
	TypeTicketReply       = "ticket_reply"
	TypeAssetDateReminder = "asset_date_reminder"
)

type Notification struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// StoreAPI is the persistence seam; tests substitute an in-memory store.
type StoreAPI interface {
	CreateNotification(ctx context.Context, unitID, userID, ntype, title, body string) error
	UserEmail(ctx context.Context, unitID, userID string) (string, error)
	ListNotifications(ctx context.Context, unitID, userID string, limit, offset int) ([]Notification, error)
	CountNotifications(ctx context.Context, unitID, userID string, unreadOnly bool) (int, error)
	MarkRead(ctx context.Context, unitID, userID, notificationID string) error
	MarkAllRead(ctx context.Context, unitID, userID string) error
	EmailSettings(ctx context.Context, unitID string) (bool, string, error)
	UpdateSettings(ctx context.Context, unitID string, enabled bool, from string) error
}
