package workorders

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

func (s *Service) Create(ctx context.Context, unitID, createdBy, title, description, location string) (WorkOrder, error) {
	if title == "" {
		return WorkOrder{}, ErrMissingTitle
	}

	order := WorkOrder{UnitID: unitID, CreatedBy: createdBy, Title: title, Description: description, Location: location, Status: StatusOpen}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO work_orders (unit_id, created_by, title, description, location, status)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id, created_at
  `, unitID, createdBy, title, description, location, StatusOpen).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return WorkOrder{}, err
	}
	return order, nil
}

func (s *Service) Assign(ctx context.Context, unitID, orderID, employeeID string) (WorkOrder, error) {
	order, err := s.Get(ctx, unitID, orderID)
	if err != nil {
		return WorkOrder{}, err
	}
	if order.Status == StatusDone || order.Status == StatusCancelled {
		return WorkOrder{}, &InvalidTransitionError{From: order.Status, To: order.Status}
	}

	_, err = s.DB.Exec(ctx, `
    UPDATE work_orders SET assigned_to = $1 WHERE unit_id = $2 AND id = $3
  `, employeeID, unitID, orderID)
	if err != nil {
		return WorkOrder{}, err
	}
	order.AssignedTo = employeeID
	return order, nil
}

// Move advances the work order through its lifecycle. Timestamps are stamped
// on entering in_progress and on reaching a terminal state.
func (s *Service) Move(ctx context.Context, unitID, orderID, status string) (WorkOrder, error) {
	order, err := s.Get(ctx, unitID, orderID)
	if err != nil {
		return WorkOrder{}, err
	}
	if err := Transition(order.Status, status); err != nil {
		return WorkOrder{}, err
	}

	now := time.Now()
	switch status {
	case StatusInProgress:
		_, err = s.DB.Exec(ctx, `
      UPDATE work_orders SET status = $1, started_at = $2 WHERE unit_id = $3 AND id = $4
    `, status, now, unitID, orderID)
		order.StartedAt = &now
	case StatusDone, StatusCancelled:
		_, err = s.DB.Exec(ctx, `
      UPDATE work_orders SET status = $1, closed_at = $2 WHERE unit_id = $3 AND id = $4
    `, status, now, unitID, orderID)
		order.ClosedAt = &now
	}
	if err != nil {
		return WorkOrder{}, err
	}
	order.Status = status
	return order, nil
}

func (s *Service) Get(ctx context.Context, unitID, orderID string) (WorkOrder, error) {
	var order WorkOrder
	err := s.DB.QueryRow(ctx, `
    SELECT id, unit_id, created_by, COALESCE(assigned_to::text,''), title, COALESCE(description,''),
           COALESCE(location,''), status, started_at, closed_at, created_at
    FROM work_orders
    WHERE unit_id = $1 AND id = $2
  `, unitID, orderID).Scan(
		&order.ID, &order.UnitID, &order.CreatedBy, &order.AssignedTo, &order.Title, &order.Description,
		&order.Location, &order.Status, &order.StartedAt, &order.ClosedAt, &order.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return WorkOrder{}, ErrNotFound
	}
	if err != nil {
		return WorkOrder{}, err
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, unitID, status, assignedTo string, limit, offset int) ([]WorkOrder, int, error) {
	countQuery := "SELECT COUNT(1) FROM work_orders WHERE unit_id = $1"
	listQuery := `
    SELECT id, unit_id, created_by, COALESCE(assigned_to::text,''), title, COALESCE(description,''),
           COALESCE(location,''), status, started_at, closed_at, created_at
    FROM work_orders
    WHERE unit_id = $1
  `
	args := []any{unitID}
	if status != "" {
		countQuery += fmt.Sprintf(" AND status = $%d", len(args)+1)
		listQuery += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, status)
	}
	if assignedTo != "" {
		countQuery += fmt.Sprintf(" AND assigned_to = $%d", len(args)+1)
		listQuery += fmt.Sprintf(" AND assigned_to = $%d", len(args)+1)
		args = append(args, assignedTo)
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

	var out []WorkOrder
	for rows.Next() {
		var order WorkOrder
		if err := rows.Scan(
			&order.ID, &order.UnitID, &order.CreatedBy, &order.AssignedTo, &order.Title, &order.Description,
			&order.Location, &order.Status, &order.StartedAt, &order.ClosedAt, &order.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, order)
	}
	return out, total, rows.Err()
}
