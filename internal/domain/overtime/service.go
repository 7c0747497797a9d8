package overtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"opsportal/internal/domain/timeslot"
)

const (
	msgSubmitConflict   = "This overtime slot overlaps one of your existing requests."
	msgApprovalConflict = "This overtime slot now conflicts with another pending or approved request."
)

// OverlapError is a rejected-input failure surfaced verbatim to the requester.
type OverlapError struct {
	Message string
}

func (e *OverlapError) Error() string {
	return e.Message
}

type Service struct {
	DB *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

// CreateRequest parses the slot, checks it against the employee's active
// overtime on the same day and persists it in pending status. Hours are
// derived from the same parsed window used by the overlap check.
func (s *Service) CreateRequest(ctx context.Context, unitID, employeeID, date, startTime, endTime, reason string) (Request, error) {
	requestDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return Request{}, ErrInvalidDate
	}
	window, err := timeslot.ParseWindow(startTime, endTime)
	if err != nil {
		return Request{}, err
	}

	slots, err := s.activeSlots(ctx, unitID, employeeID, requestDate, "")
	if err != nil {
		return Request{}, err
	}
	if Conflicts(Slot{Date: requestDate, Window: window}, slots) {
		return Request{}, &OverlapError{Message: msgSubmitConflict}
	}

	req := Request{
		UnitID:     unitID,
		EmployeeID: employeeID,
		Date:       requestDate,
		StartTime:  startTime,
		EndTime:    endTime,
		Hours:      window.Hours(),
		Reason:     reason,
		Status:     StatusPending,
	}
	err = s.DB.QueryRow(ctx, `
    INSERT INTO overtime_requests (unit_id, employee_id, date, start_time, end_time, hours, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id, created_at
  `, unitID, employeeID, requestDate, startTime, endTime, req.Hours, reason, StatusPending).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

// Approve moves a pending request to approved, re-checking overlap since
// other requests may have been approved after submission.
func (s *Service) Approve(ctx context.Context, unitID, requestID, approverID string, now time.Time) (Request, error) {
	req, err := s.GetRequest(ctx, unitID, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrInvalidState
	}

	window, err := timeslot.ParseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return Request{}, err
	}
	slots, err := s.activeSlots(ctx, unitID, req.EmployeeID, req.Date, req.ID)
	if err != nil {
		return Request{}, err
	}
	if Conflicts(Slot{Date: req.Date, Window: window}, slots) {
		return Request{}, &OverlapError{Message: msgApprovalConflict}
	}

	if _, err := s.DB.Exec(ctx, `
    UPDATE overtime_requests
    SET status = $1, approved_by = $2, approved_at = $3,
        rejected_by = '', rejected_at = NULL, reject_reason = ''
    WHERE unit_id = $4 AND id = $5
  `, StatusApproved, approverID, now, unitID, requestID); err != nil {
		return Request{}, err
	}
	req.Status = StatusApproved
	req.ApprovedBy = approverID
	req.ApprovedAt = &now
	req.RejectedBy = ""
	req.RejectedAt = nil
	req.RejectReason = ""
	return req, nil
}

func (s *Service) Reject(ctx context.Context, unitID, requestID, approverID, reason string, now time.Time) (Request, error) {
	req, err := s.GetRequest(ctx, unitID, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrInvalidState
	}

	if _, err := s.DB.Exec(ctx, `
    UPDATE overtime_requests
    SET status = $1, rejected_by = $2, rejected_at = $3, reject_reason = $4,
        approved_by = '', approved_at = NULL
    WHERE unit_id = $5 AND id = $6
  `, StatusRejected, approverID, now, reason, unitID, requestID); err != nil {
		return Request{}, err
	}
	req.Status = StatusRejected
	req.RejectedBy = approverID
	req.RejectedAt = &now
	req.RejectReason = reason
	req.ApprovedBy = ""
	req.ApprovedAt = nil
	return req, nil
}

func (s *Service) Cancel(ctx context.Context, unitID, requestID, employeeID string) (Request, error) {
	req, err := s.GetRequest(ctx, unitID, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.EmployeeID != employeeID {
		return Request{}, ErrForbidden
	}
	if req.Status != StatusPending {
		return Request{}, ErrInvalidState
	}

	if _, err := s.DB.Exec(ctx, `
    UPDATE overtime_requests SET status = $1 WHERE unit_id = $2 AND id = $3
  `, StatusCancelled, unitID, requestID); err != nil {
		return Request{}, err
	}
	req.Status = StatusCancelled
	return req, nil
}

func (s *Service) GetRequest(ctx context.Context, unitID, requestID string) (Request, error) {
	var req Request
	err := s.DB.QueryRow(ctx, `
    SELECT id, unit_id, employee_id, date, start_time, end_time, hours, reason, status,
           COALESCE(approved_by,''), approved_at,
           COALESCE(rejected_by,''), rejected_at, COALESCE(reject_reason,''),
           created_at
    FROM overtime_requests
    WHERE unit_id = $1 AND id = $2
  `, unitID, requestID).Scan(
		&req.ID, &req.UnitID, &req.EmployeeID, &req.Date, &req.StartTime, &req.EndTime,
		&req.Hours, &req.Reason, &req.Status,
		&req.ApprovedBy, &req.ApprovedAt,
		&req.RejectedBy, &req.RejectedAt, &req.RejectReason,
		&req.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

type ListResult struct {
	Requests []Request
	Total    int
}

func (s *Service) ListRequests(ctx context.Context, unitID, employeeID string, limit, offset int) (ListResult, error) {
	query := `
    SELECT id, unit_id, employee_id, date, start_time, end_time, hours, reason, status,
           COALESCE(approved_by,''), approved_at,
           COALESCE(rejected_by,''), rejected_at, COALESCE(reject_reason,''),
           created_at
    FROM overtime_requests
    WHERE unit_id = $1
  `
	countQuery := "SELECT COUNT(1) FROM overtime_requests WHERE unit_id = $1"
	args := []any{unitID}
	if employeeID != "" {
		query += " AND employee_id = $2"
		countQuery += " AND employee_id = $2"
		args = append(args, employeeID)
	}

	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	query += fmt.Sprintf(" ORDER BY date DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		var req Request
		if err := rows.Scan(
			&req.ID, &req.UnitID, &req.EmployeeID, &req.Date, &req.StartTime, &req.EndTime,
			&req.Hours, &req.Reason, &req.Status,
			&req.ApprovedBy, &req.ApprovedAt,
			&req.RejectedBy, &req.RejectedAt, &req.RejectReason,
			&req.CreatedAt,
		); err != nil {
			return ListResult{}, err
		}
		requests = append(requests, req)
	}
	return ListResult{Requests: requests, Total: total}, nil
}

func (s *Service) activeSlots(ctx context.Context, unitID, employeeID string, date time.Time, excludeID string) ([]Slot, error) {
	query := `
    SELECT date, start_time, end_time, status
    FROM overtime_requests
    WHERE unit_id = $1 AND employee_id = $2 AND date = $3 AND status IN ($4,$5)
  `
	args := []any{unitID, employeeID, date, StatusPending, StatusApproved}
	if excludeID != "" {
		query += " AND id != $6"
		args = append(args, excludeID)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var slot Slot
		var startTime, endTime string
		if err := rows.Scan(&slot.Date, &startTime, &endTime, &slot.Status); err != nil {
			return nil, err
		}
		if window, err := timeslot.ParseWindow(startTime, endTime); err == nil {
			slot.Window = window
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}
