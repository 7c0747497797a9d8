package tickets

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

func (s *Service) Create(ctx context.Context, unitID, createdBy, subject, body, priority string) (Ticket, error) {
	if subject == "" {
		return Ticket{}, ErrMissingSubject
	}
	if priority == "" {
		priority = PriorityNormal
	}
	if !ValidPriority(priority) {
		return Ticket{}, fmt.Errorf("%w: %q", ErrUnknownPriority, priority)
	}

	ticket := Ticket{UnitID: unitID, CreatedBy: createdBy, Subject: subject, Body: body, Priority: priority, Status: StatusOpen}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO tickets (unit_id, created_by, subject, body, priority, status)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id, created_at
  `, unitID, createdBy, subject, body, priority, StatusOpen).Scan(&ticket.ID, &ticket.CreatedAt)
	if err != nil {
		return Ticket{}, err
	}
	return ticket, nil
}

func (s *Service) Assign(ctx context.Context, unitID, ticketID, userID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE tickets SET assigned_to = $1 WHERE unit_id = $2 AND id = $3 AND status != $4
  `, userID, unitID, ticketID, StatusClosed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Move(ctx context.Context, unitID, ticketID, status string) (Ticket, error) {
	ticket, err := s.Get(ctx, unitID, ticketID)
	if err != nil {
		return Ticket{}, err
	}
	if err := Transition(ticket.Status, status); err != nil {
		return Ticket{}, err
	}

	now := time.Now()
	query := "UPDATE tickets SET status = $1"
	switch status {
	case StatusResolved:
		query += ", resolved_at = $4"
		ticket.ResolvedAt = &now
	case StatusClosed:
		query += ", closed_at = $4"
		ticket.ClosedAt = &now
	}
	query += " WHERE unit_id = $2 AND id = $3"

	args := []any{status, unitID, ticketID}
	if status == StatusResolved || status == StatusClosed {
		args = append(args, now)
	}
	if _, err := s.DB.Exec(ctx, query, args...); err != nil {
		return Ticket{}, err
	}
	ticket.Status = status
	return ticket, nil
}

// AddComment posts a reply and flips an open ticket to pending so staff can
// see it needs attention. Closed tickets do not accept comments.
func (s *Service) AddComment(ctx context.Context, unitID, ticketID, authorID, body string) (Comment, error) {
	if body == "" {
		return Comment{}, ErrMissingBody
	}
	ticket, err := s.Get(ctx, unitID, ticketID)
	if err != nil {
		return Comment{}, err
	}
	if ticket.Status == StatusClosed {
		return Comment{}, &InvalidTransitionError{From: StatusClosed, To: StatusPending}
	}

	comment := Comment{TicketID: ticketID, AuthorID: authorID, Body: body}
	err = s.DB.QueryRow(ctx, `
    INSERT INTO ticket_comments (ticket_id, author_id, body)
    VALUES ($1,$2,$3)
    RETURNING id, created_at
  `, ticketID, authorID, body).Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		return Comment{}, err
	}

	if ticket.Status == StatusOpen {
		if _, err := s.DB.Exec(ctx, `
      UPDATE tickets SET status = $1 WHERE unit_id = $2 AND id = $3
    `, StatusPending, unitID, ticketID); err != nil {
			return Comment{}, err
		}
	}
	return comment, nil
}

func (s *Service) Comments(ctx context.Context, unitID, ticketID string) ([]Comment, error) {
	if _, err := s.Get(ctx, unitID, ticketID); err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT id, ticket_id, author_id, body, created_at
    FROM ticket_comments
    WHERE ticket_id = $1
    ORDER BY created_at
  `, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var comment Comment
		if err := rows.Scan(&comment.ID, &comment.TicketID, &comment.AuthorID, &comment.Body, &comment.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, comment)
	}
	return out, rows.Err()
}

func (s *Service) Get(ctx context.Context, unitID, ticketID string) (Ticket, error) {
	var ticket Ticket
	err := s.DB.QueryRow(ctx, `
    SELECT id, unit_id, created_by, COALESCE(assigned_to::text,''), subject, COALESCE(body,''),
           priority, status, resolved_at, closed_at, created_at
    FROM tickets
    WHERE unit_id = $1 AND id = $2
  `, unitID, ticketID).Scan(
		&ticket.ID, &ticket.UnitID, &ticket.CreatedBy, &ticket.AssignedTo, &ticket.Subject, &ticket.Body,
		&ticket.Priority, &ticket.Status, &ticket.ResolvedAt, &ticket.ClosedAt, &ticket.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Ticket{}, ErrNotFound
	}
	if err != nil {
		return Ticket{}, err
	}
	return ticket, nil
}

func (s *Service) List(ctx context.Context, unitID, status, createdBy string, limit, offset int) ([]Ticket, int, error) {
	countQuery := "SELECT COUNT(1) FROM tickets WHERE unit_id = $1"
	listQuery := `
    SELECT id, unit_id, created_by, COALESCE(assigned_to::text,''), subject, COALESCE(body,''),
           priority, status, resolved_at, closed_at, created_at
    FROM tickets
    WHERE unit_id = $1
  `
	args := []any{unitID}
	if status != "" {
		countQuery += fmt.Sprintf(" AND status = $%d", len(args)+1)
		listQuery += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, status)
	}
	if createdBy != "" {
		countQuery += fmt.Sprintf(" AND created_by = $%d", len(args)+1)
		listQuery += fmt.Sprintf(" AND created_by = $%d", len(args)+1)
		args = append(args, createdBy)
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

	var out []Ticket
	for rows.Next() {
		var ticket Ticket
		if err := rows.Scan(
			&ticket.ID, &ticket.UnitID, &ticket.CreatedBy, &ticket.AssignedTo, &ticket.Subject, &ticket.Body,
			&ticket.Priority, &ticket.Status, &ticket.ResolvedAt, &ticket.ClosedAt, &ticket.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, ticket)
	}
	return out, total, rows.Err()
}
