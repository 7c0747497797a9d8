package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateUnit(ctx context.Context, name, slug string) (Unit, error) {
	unit := Unit{Name: name, Slug: slug}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO units (name, slug) VALUES ($1,$2)
    RETURNING id, created_at
  `, name, slug).Scan(&unit.ID, &unit.CreatedAt)
	if err != nil {
		return Unit{}, err
	}
	return unit, nil
}

// ListUnitIDs feeds the per-unit background job loops.
func (s *Store) ListUnitIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM units ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, unitID, email, passwordHash, role string) (User, error) {
	user := User{UnitID: unitID, Email: email, Role: role, Status: "active"}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (unit_id, email, password_hash, role, status)
    VALUES ($1,$2,$3,$4,'active')
    RETURNING id, created_at
  `, unitID, email, passwordHash, role).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, unitID, userID string) (User, error) {
	var user User
	err := s.DB.QueryRow(ctx, `
    SELECT id, unit_id, email, role, status, last_login, created_at
    FROM users
    WHERE unit_id = $1 AND id = $2
  `, unitID, userID).Scan(&user.ID, &user.UnitID, &user.Email, &user.Role, &user.Status, &user.LastLogin, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Store) SetUserStatus(ctx context.Context, unitID, userID, status string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users SET status = $1 WHERE unit_id = $2 AND id = $3
  `, status, unitID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateEmployee(ctx context.Context, emp Employee) (Employee, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (unit_id, user_id, employee_number, first_name, last_name, email, phone, position, base_salary, start_date, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'active')
    RETURNING id, status, created_at
  `, emp.UnitID, nullIfEmpty(emp.UserID), emp.EmployeeNumber, emp.FirstName, emp.LastName, emp.Email,
		emp.Phone, emp.Position, emp.BaseSalary, emp.StartDate).Scan(&emp.ID, &emp.Status, &emp.CreatedAt)
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Store) GetEmployee(ctx context.Context, unitID, employeeID string) (Employee, error) {
	var emp Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, unit_id, COALESCE(user_id::text,''), employee_number, first_name, last_name, email,
           COALESCE(phone,''), COALESCE(position,''), base_salary, start_date, end_date, status, created_at
    FROM employees
    WHERE unit_id = $1 AND id = $2
  `, unitID, employeeID).Scan(
		&emp.ID, &emp.UnitID, &emp.UserID, &emp.EmployeeNumber, &emp.FirstName, &emp.LastName, &emp.Email,
		&emp.Phone, &emp.Position, &emp.BaseSalary, &emp.StartDate, &emp.EndDate, &emp.Status, &emp.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Store) ListEmployees(ctx context.Context, unitID, status string, limit, offset int) ([]Employee, int, error) {
	countQuery := "SELECT COUNT(1) FROM employees WHERE unit_id = $1"
	listQuery := `
    SELECT id, unit_id, COALESCE(user_id::text,''), employee_number, first_name, last_name, email,
           COALESCE(phone,''), COALESCE(position,''), base_salary, start_date, end_date, status, created_at
    FROM employees
    WHERE unit_id = $1
  `
	args := []any{unitID}
	if status != "" {
		countQuery += " AND status = $2"
		listQuery += " AND status = $2"
		args = append(args, status)
	}

	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery += fmt.Sprintf(" ORDER BY last_name, first_name LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var emp Employee
		if err := rows.Scan(
			&emp.ID, &emp.UnitID, &emp.UserID, &emp.EmployeeNumber, &emp.FirstName, &emp.LastName, &emp.Email,
			&emp.Phone, &emp.Position, &emp.BaseSalary, &emp.StartDate, &emp.EndDate, &emp.Status, &emp.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, emp)
	}
	return out, total, rows.Err()
}

// EmployeeIDByUserID resolves the employee record behind a logged-in user.
func (s *Store) EmployeeIDByUserID(ctx context.Context, unitID, userID string) (string, error) {
	var employeeID string
	err := s.DB.QueryRow(ctx, `
    SELECT id FROM employees WHERE unit_id = $1 AND user_id = $2
  `, unitID, userID).Scan(&employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return employeeID, nil
}

// UserIDByEmployeeID is the reverse lookup, used when notifying an employee.
func (s *Store) UserIDByEmployeeID(ctx context.Context, unitID, employeeID string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(user_id::text,'') FROM employees WHERE unit_id = $1 AND id = $2
  `, unitID, employeeID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
