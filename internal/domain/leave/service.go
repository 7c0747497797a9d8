package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"opsportal/internal/domain/timeslot"
)

const (
	msgSubmitConflict   = "This request overlaps one of your existing leave requests."
	msgApprovalConflict = "This request now conflicts with another pending or approved leave request."
)

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

// CreateRequest validates the payload, checks it against the employee's
// active requests and persists it in pending status.
func (s *Service) CreateRequest(ctx context.Context, unitID, employeeID string, in RequestInput, reason string, now time.Time) (Request, error) {
	validated, err := ValidateRequest(in, now)
	if err != nil {
		return Request{}, err
	}

	spans, err := s.activeSpans(ctx, unitID, employeeID, "")
	if err != nil {
		return Request{}, err
	}
	candidate := Span{Start: validated.Start, End: validated.End, Unit: in.Unit, Window: validated.Window}
	if Conflicts(candidate, spans) {
		return Request{}, invalid(CodeOverlap, msgSubmitConflict)
	}

	req := Request{
		UnitID:     unitID,
		EmployeeID: employeeID,
		Type:       in.Type,
		Unit:       in.Unit,
		StartDate:  validated.Start,
		EndDate:    validated.End,
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
		Days:       validated.Days,
		Reason:     reason,
		Status:     StatusPending,
	}
	err = s.Store.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (unit_id, employee_id, type, unit, start_date, end_date, start_time, end_time, days, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    RETURNING id, created_at
  `, unitID, employeeID, in.Type, in.Unit, validated.Start, validated.End, in.StartTime, in.EndTime, validated.Days, reason, StatusPending).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

// Approve moves a pending request to approved. Overlap is re-checked here
// because other requests may have been approved since submission.
func (s *Service) Approve(ctx context.Context, unitID, requestID, approverID string, now time.Time) (Request, error) {
	req, err := s.GetRequest(ctx, unitID, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrInvalidState
	}

	spans, err := s.activeSpans(ctx, unitID, req.EmployeeID, req.ID)
	if err != nil {
		return Request{}, err
	}
	if Conflicts(spanOf(req), spans) {
		return Request{}, invalid(CodeOverlap, msgApprovalConflict)
	}

	if _, err := s.Store.DB.Exec(ctx, `
    UPDATE leave_requests
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

// Reject moves a pending request to rejected with a reason.
func (s *Service) Reject(ctx context.Context, unitID, requestID, approverID, reason string, now time.Time) (Request, error) {
	req, err := s.GetRequest(ctx, unitID, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrInvalidState
	}

	if _, err := s.Store.DB.Exec(ctx, `
    UPDATE leave_requests
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

// Cancel lets the owning employee withdraw a pending request.
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

	if _, err := s.Store.DB.Exec(ctx, `
    UPDATE leave_requests SET status = $1 WHERE unit_id = $2 AND id = $3
  `, StatusCancelled, unitID, requestID); err != nil {
		return Request{}, err
	}
	req.Status = StatusCancelled
	return req, nil
}

func (s *Service) GetRequest(ctx context.Context, unitID, requestID string) (Request, error) {
	req, err := scanRequest(s.Store.DB.QueryRow(ctx, `
    SELECT id, unit_id, employee_id, type, unit, start_date, end_date,
           COALESCE(start_time,''), COALESCE(end_time,''), days, reason, status,
           COALESCE(approved_by,''), approved_at,
           COALESCE(rejected_by,''), rejected_at, COALESCE(reject_reason,''),
           created_at
    FROM leave_requests
    WHERE unit_id = $1 AND id = $2
  `, unitID, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return req, err
}

type ListResult struct {
	Requests []Request
	Total    int
}

// ListRequests returns unit-scoped requests, optionally narrowed to one
// employee (for employee-role callers).
func (s *Service) ListRequests(ctx context.Context, unitID, employeeID string, limit, offset int) (ListResult, error) {
	query := `
    SELECT id, unit_id, employee_id, type, unit, start_date, end_date,
           COALESCE(start_time,''), COALESCE(end_time,''), days, reason, status,
           COALESCE(approved_by,''), approved_at,
           COALESCE(rejected_by,''), rejected_at, COALESCE(reject_reason,''),
           created_at
    FROM leave_requests
    WHERE unit_id = $1
  `
	countQuery := "SELECT COUNT(1) FROM leave_requests WHERE unit_id = $1"
	args := []any{unitID}
	if employeeID != "" {
		query += " AND employee_id = $2"
		countQuery += " AND employee_id = $2"
		args = append(args, employeeID)
	}

	var total int
	if err := s.Store.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Store.DB.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return ListResult{}, err
		}
		requests = append(requests, req)
	}
	return ListResult{Requests: requests, Total: total}, nil
}

// CreateDocument attaches a supporting document; allowed in any status so
// certificates can arrive after approval.
func (s *Service) CreateDocument(ctx context.Context, unitID, requestID string, upload DocumentUpload, uploadedBy string) (Document, error) {
	doc := Document{
		RequestID:   requestID,
		FileName:    upload.FileName,
		ContentType: upload.ContentType,
		FileSize:    upload.FileSize,
		UploadedBy:  uploadedBy,
	}
	err := s.Store.DB.QueryRow(ctx, `
    INSERT INTO leave_documents (unit_id, request_id, file_name, content_type, file_size, data, uploaded_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id, created_at
  `, unitID, requestID, upload.FileName, upload.ContentType, upload.FileSize, upload.Data, uploadedBy).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *Service) DocumentData(ctx context.Context, unitID, requestID, documentID string) (Document, []byte, error) {
	var doc Document
	var data []byte
	err := s.Store.DB.QueryRow(ctx, `
    SELECT id, request_id, file_name, content_type, file_size, data, COALESCE(uploaded_by,''), created_at
    FROM leave_documents
    WHERE unit_id = $1 AND request_id = $2 AND id = $3
  `, unitID, requestID, documentID).Scan(&doc.ID, &doc.RequestID, &doc.FileName, &doc.ContentType, &doc.FileSize, &data, &doc.UploadedBy, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, nil, ErrNotFound
	}
	if err != nil {
		return Document{}, nil, err
	}
	return doc, data, nil
}

// activeSpans loads the employee's pending/approved requests, excluding the
// given request when re-validating at approval time.
func (s *Service) activeSpans(ctx context.Context, unitID, employeeID, excludeID string) ([]Span, error) {
	query := `
    SELECT start_date, end_date, unit, COALESCE(start_time,''), COALESCE(end_time,''), status
    FROM leave_requests
    WHERE unit_id = $1 AND employee_id = $2 AND status IN ($3,$4)
  `
	args := []any{unitID, employeeID, StatusPending, StatusApproved}
	if excludeID != "" {
		query += " AND id != $5"
		args = append(args, excludeID)
	}

	rows, err := s.Store.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spans []Span
	for rows.Next() {
		var span Span
		var startTime, endTime string
		if err := rows.Scan(&span.Start, &span.End, &span.Unit, &startTime, &endTime, &span.Status); err != nil {
			return nil, err
		}
		if span.Unit == UnitHalfDay && startTime != "" && endTime != "" {
			if window, err := timeslot.ParseWindow(startTime, endTime); err == nil {
				span.Window = window
			}
		}
		spans = append(spans, span)
	}
	return spans, rows.Err()
}

func spanOf(req Request) Span {
	span := Span{Start: req.StartDate, End: req.EndDate, Unit: req.Unit}
	if req.Unit == UnitHalfDay && req.StartTime != "" && req.EndTime != "" {
		if window, err := timeslot.ParseWindow(req.StartTime, req.EndTime); err == nil {
			span.Window = window
		}
	}
	return span
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (Request, error) {
	var req Request
	err := row.Scan(
		&req.ID, &req.UnitID, &req.EmployeeID, &req.Type, &req.Unit,
		&req.StartDate, &req.EndDate, &req.StartTime, &req.EndTime,
		&req.Days, &req.Reason, &req.Status,
		&req.ApprovedBy, &req.ApprovedAt,
		&req.RejectedBy, &req.RejectedAt, &req.RejectReason,
		&req.CreatedAt,
	)
	return req, err
}
