package db

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"opsportal/internal/domain/auth"
	"opsportal/internal/platform/config"
)

// Seed creates the first business unit and its admin user on an empty
// database. Running it against a populated database is a no-op.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	var units int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM units").Scan(&units); err != nil {
		return err
	}
	if units > 0 {
		return nil
	}
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		slog.Warn("seed skipped: SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are not set")
		return nil
	}

	slug := strings.ToLower(strings.ReplaceAll(cfg.SeedUnitName, " ", "-"))
	var unitID string
	if err := pool.QueryRow(ctx, `
    INSERT INTO units (name, slug) VALUES ($1,$2) RETURNING id
  `, cfg.SeedUnitName, slug).Scan(&unitID); err != nil {
		return err
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `
    INSERT INTO users (unit_id, email, password_hash, role, status)
    VALUES ($1,$2,$3,$4,'active')
  `, unitID, strings.ToLower(cfg.SeedAdminEmail), hash, auth.RoleAdmin); err != nil {
		return err
	}

	slog.Info("seeded initial unit and admin user", "unit", cfg.SeedUnitName, "email", cfg.SeedAdminEmail)
	return nil
}
