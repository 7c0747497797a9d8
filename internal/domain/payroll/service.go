package payroll

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type Service struct {
	DB *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

// CreateRecord inserts a generated record for (employee, period), computing
// gross/net up front.
func (s *Service) CreateRecord(ctx context.Context, unitID, employeeID, period string, amounts Amounts) (Record, error) {
	if !periodPattern.MatchString(period) {
		return Record{}, ErrInvalidPeriod
	}
	gross, net, err := ComputePay(amounts.BaseSalary, amounts.Allowances, amounts.Deductions)
	if err != nil {
		return Record{}, err
	}

	var exists bool
	if err := s.DB.QueryRow(ctx, `
    SELECT EXISTS(SELECT 1 FROM payroll_records WHERE unit_id = $1 AND employee_id = $2 AND period = $3)
  `, unitID, employeeID, period).Scan(&exists); err != nil {
		return Record{}, err
	}
	if exists {
		return Record{}, ErrDuplicate
	}

	rec := Record{
		UnitID:      unitID,
		EmployeeID:  employeeID,
		Period:      period,
		BaseSalary:  amounts.BaseSalary,
		Allowances:  amounts.Allowances,
		Deductions:  amounts.Deductions,
		GrossPay:    gross,
		NetPay:      net,
		Notes:       amounts.Notes,
		PayrollDate: amounts.PayrollDate,
		Status:      StatusGenerated,
	}
	err = s.DB.QueryRow(ctx, `
    INSERT INTO payroll_records (unit_id, employee_id, period, base_salary, allowances, deductions, gross_pay, net_pay, notes, payroll_date, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    RETURNING id, created_at, updated_at
  `, unitID, employeeID, period, amounts.BaseSalary, amounts.Allowances, amounts.Deductions, gross, net, amounts.Notes, amounts.PayrollDate, StatusGenerated).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// UpdateAmounts edits the monetary fields. Allowed in any status, including
// completed, so corrections stay possible; the whole update is rejected when
// the recomputed net pay would be negative.
func (s *Service) UpdateAmounts(ctx context.Context, unitID, recordID string, amounts Amounts) (Record, error) {
	rec, err := s.GetRecord(ctx, unitID, recordID)
	if err != nil {
		return Record{}, err
	}

	gross, net, err := ComputePay(amounts.BaseSalary, amounts.Allowances, amounts.Deductions)
	if err != nil {
		return Record{}, err
	}

	if _, err := s.DB.Exec(ctx, `
    UPDATE payroll_records
    SET base_salary = $1, allowances = $2, deductions = $3, gross_pay = $4, net_pay = $5,
        notes = $6, payroll_date = $7, updated_at = now()
    WHERE unit_id = $8 AND id = $9
  `, amounts.BaseSalary, amounts.Allowances, amounts.Deductions, gross, net, amounts.Notes, amounts.PayrollDate, unitID, recordID); err != nil {
		return Record{}, err
	}

	rec.BaseSalary = amounts.BaseSalary
	rec.Allowances = amounts.Allowances
	rec.Deductions = amounts.Deductions
	rec.GrossPay = gross
	rec.NetPay = net
	rec.Notes = amounts.Notes
	rec.PayrollDate = amounts.PayrollDate
	return rec, nil
}

// SendForSignature moves a record to pending_signature (from generated or a
// prior rejection).
func (s *Service) SendForSignature(ctx context.Context, unitID, recordID string) (Record, error) {
	return s.move(ctx, unitID, recordID, StatusPendingSignature, "")
}

// Reissue moves a rejected record back to generated for rework.
func (s *Service) Reissue(ctx context.Context, unitID, recordID string) (Record, error) {
	return s.move(ctx, unitID, recordID, StatusGenerated, "")
}

// Sign records the employee's signature. Only the owning employee may sign,
// and only from pending_signature.
func (s *Service) Sign(ctx context.Context, unitID, recordID, employeeID string, now time.Time) (Record, error) {
	rec, err := s.GetRecord(ctx, unitID, recordID)
	if err != nil {
		return Record{}, err
	}
	if rec.EmployeeID != employeeID {
		return Record{}, ErrForbidden
	}
	if err := Transition(rec.Status, StatusSigned); err != nil {
		return Record{}, err
	}

	if _, err := s.DB.Exec(ctx, `
    UPDATE payroll_records
    SET status = $1, signed_at = $2, reject_reason = '', updated_at = now()
    WHERE unit_id = $3 AND id = $4
  `, StatusSigned, now, unitID, recordID); err != nil {
		return Record{}, err
	}
	rec.Status = StatusSigned
	rec.SignedAt = &now
	rec.RejectReason = ""
	return rec, nil
}

// RejectByEmployee records the employee's refusal with a reason. A signed or
// completed record can never be rejected this way.
func (s *Service) RejectByEmployee(ctx context.Context, unitID, recordID, employeeID, reason string) (Record, error) {
	rec, err := s.GetRecord(ctx, unitID, recordID)
	if err != nil {
		return Record{}, err
	}
	if rec.EmployeeID != employeeID {
		return Record{}, ErrForbidden
	}
	return s.move(ctx, unitID, recordID, StatusRejected, reason)
}

// Complete marks a signed record completed. Completing an already completed
// record is an idempotent no-op.
func (s *Service) Complete(ctx context.Context, unitID, recordID string, now time.Time) (Record, error) {
	rec, err := s.GetRecord(ctx, unitID, recordID)
	if err != nil {
		return Record{}, err
	}
	if rec.Status == StatusCompleted {
		return rec, nil
	}
	if err := Transition(rec.Status, StatusCompleted); err != nil {
		return Record{}, err
	}

	if _, err := s.DB.Exec(ctx, `
    UPDATE payroll_records
    SET status = $1, completed_at = $2, updated_at = now()
    WHERE unit_id = $3 AND id = $4
  `, StatusCompleted, now, unitID, recordID); err != nil {
		return Record{}, err
	}
	rec.Status = StatusCompleted
	rec.CompletedAt = &now
	return rec, nil
}

func (s *Service) move(ctx context.Context, unitID, recordID, to, rejectReason string) (Record, error) {
	rec, err := s.GetRecord(ctx, unitID, recordID)
	if err != nil {
		return Record{}, err
	}
	if err := Transition(rec.Status, to); err != nil {
		return Record{}, err
	}

	if _, err := s.DB.Exec(ctx, `
    UPDATE payroll_records
    SET status = $1, reject_reason = $2, updated_at = now()
    WHERE unit_id = $3 AND id = $4
  `, to, rejectReason, unitID, recordID); err != nil {
		return Record{}, err
	}
	rec.Status = to
	rec.RejectReason = rejectReason
	return rec, nil
}

func (s *Service) GetRecord(ctx context.Context, unitID, recordID string) (Record, error) {
	var rec Record
	err := s.DB.QueryRow(ctx, `
    SELECT id, unit_id, employee_id, period, base_salary, allowances, deductions,
           gross_pay, net_pay, COALESCE(notes,''), payroll_date, status,
           COALESCE(reject_reason,''), signed_at, completed_at, created_at, updated_at
    FROM payroll_records
    WHERE unit_id = $1 AND id = $2
  `, unitID, recordID).Scan(
		&rec.ID, &rec.UnitID, &rec.EmployeeID, &rec.Period,
		&rec.BaseSalary, &rec.Allowances, &rec.Deductions,
		&rec.GrossPay, &rec.NetPay, &rec.Notes, &rec.PayrollDate, &rec.Status,
		&rec.RejectReason, &rec.SignedAt, &rec.CompletedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

type ListResult struct {
	Records []Record
	Total   int
}

func (s *Service) ListRecords(ctx context.Context, unitID, employeeID, period string, limit, offset int) (ListResult, error) {
	query := `
    SELECT id, unit_id, employee_id, period, base_salary, allowances, deductions,
           gross_pay, net_pay, COALESCE(notes,''), payroll_date, status,
           COALESCE(reject_reason,''), signed_at, completed_at, created_at, updated_at
    FROM payroll_records
    WHERE unit_id = $1
  `
	countQuery := "SELECT COUNT(1) FROM payroll_records WHERE unit_id = $1"
	args := []any{unitID}
	if employeeID != "" {
		clause := fmt.Sprintf(" AND employee_id = $%d", len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, employeeID)
	}
	if period != "" {
		clause := fmt.Sprintf(" AND period = $%d", len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, period)
	}

	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	query += fmt.Sprintf(" ORDER BY period DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.UnitID, &rec.EmployeeID, &rec.Period,
			&rec.BaseSalary, &rec.Allowances, &rec.Deductions,
			&rec.GrossPay, &rec.NetPay, &rec.Notes, &rec.PayrollDate, &rec.Status,
			&rec.RejectReason, &rec.SignedAt, &rec.CompletedAt, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return ListResult{}, err
		}
		records = append(records, rec)
	}
	return ListResult{Records: records, Total: total}, nil
}
