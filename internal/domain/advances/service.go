package advances

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Service struct {
	DB *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) CreateRequest(ctx context.Context, unitID, employeeID string, amount float64, repaymentMonths int, reason string) (Request, error) {
	if err := Validate(amount, repaymentMonths); err != nil {
		return Request{}, err
	}

	req := Request{
		UnitID:          unitID,
		EmployeeID:      employeeID,
		Amount:          amount,
		RepaymentMonths: repaymentMonths,
		Reason:          reason,
		Status:          StatusPending,
	}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO advance_requests (unit_id, employee_id, amount, repayment_months, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id, created_at
  `, unitID, employeeID, amount, repaymentMonths, reason, StatusPending).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

func (s *Service) Approve(ctx context.Context, unitID, requestID, approverID, note string) (Request, error) {
	return s.decide(ctx, unitID, requestID, approverID, note, StatusApproved)
}

func (s *Service) Reject(ctx context.Context, unitID, requestID, approverID, note string) (Request, error) {
	return s.decide(ctx, unitID, requestID, approverID, note, StatusRejected)
}

func (s *Service) decide(ctx context.Context, unitID, requestID, approverID, note, status string) (Request, error) {
	req, err := s.GetRequest(ctx, unitID, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrInvalidState
	}

	now := time.Now()
	_, err = s.DB.Exec(ctx, `
    UPDATE advance_requests
    SET status = $1, decided_by = $2, decided_at = $3, decision_note = $4
    WHERE unit_id = $5 AND id = $6
  `, status, approverID, now, note, unitID, requestID)
	if err != nil {
		return Request{}, err
	}

	req.Status = status
	req.DecidedBy = approverID
	req.DecidedAt = &now
	req.DecisionNote = note
	return req, nil
}

// Cancel lets the owner withdraw a request that has not been decided.
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

	_, err = s.DB.Exec(ctx, `
    UPDATE advance_requests SET status = $1 WHERE unit_id = $2 AND id = $3
  `, StatusCancelled, unitID, requestID)
	if err != nil {
		return Request{}, err
	}
	req.Status = StatusCancelled
	return req, nil
}

func (s *Service) GetRequest(ctx context.Context, unitID, requestID string) (Request, error) {
	var req Request
	err := s.DB.QueryRow(ctx, `
    SELECT id, unit_id, employee_id, amount, repayment_months, COALESCE(reason,''), status,
           COALESCE(decided_by::text,''), decided_at, COALESCE(decision_note,''), created_at
    FROM advance_requests
    WHERE unit_id = $1 AND id = $2
  `, unitID, requestID).Scan(
		&req.ID, &req.UnitID, &req.EmployeeID, &req.Amount, &req.RepaymentMonths, &req.Reason, &req.Status,
		&req.DecidedBy, &req.DecidedAt, &req.DecisionNote, &req.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

func (s *Service) ListRequests(ctx context.Context, unitID, employeeID, status string, limit, offset int) ([]Request, int, error) {
	countQuery := "SELECT COUNT(1) FROM advance_requests WHERE unit_id = $1"
	listQuery := `
    SELECT id, unit_id, employee_id, amount, repayment_months, COALESCE(reason,''), status,
           COALESCE(decided_by::text,''), decided_at, COALESCE(decision_note,''), created_at
    FROM advance_requests
    WHERE unit_id = $1
  `
	args := []any{unitID}
	if employeeID != "" {
		countQuery += fmt.Sprintf(" AND employee_id = $%d", len(args)+1)
		listQuery += fmt.Sprintf(" AND employee_id = $%d", len(args)+1)
		args = append(args, employeeID)
	}
	if status != "" {
		countQuery += fmt.Sprintf(" AND status = $%d", len(args)+1)
		listQuery += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, status)
	}

	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		var req Request
		if err := rows.Scan(
			&req.ID, &req.UnitID, &req.EmployeeID, &req.Amount, &req.RepaymentMonths, &req.Reason, &req.Status,
			&req.DecidedBy, &req.DecidedAt, &req.DecisionNote, &req.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}
