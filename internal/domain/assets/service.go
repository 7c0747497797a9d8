package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReminderLog interface {
	// InsertIfAbsent atomically records a reminder for the
	// (assetDateID, offsetDays) key and reports whether this call won the
	// insert. Concurrent runs therefore cannot double-send.
	InsertIfAbsent(ctx context.Context, unitID, assetDateID string, offsetDays int, escalation bool, sentTo string, sentAt time.Time) (bool, error)
}

type Notifier interface {
	Create(ctx context.Context, unitID, userID, ntype, title, body string) error
}

type Directory interface {
	AdminUserIDs(ctx context.Context, unitID string) ([]string, error)
}

const NotificationTypeAssetReminder = "asset_date_reminder"

type RunSummary struct {
	Scanned int `json:"scanned"`
	Fired   int `json:"fired"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Runner orchestrates one reminder pass over a batch of asset dates.
type Runner struct {
	Log       ReminderLog
	Notify    Notifier
	Directory Directory
}

// Run fires due reminders for one business unit. Each reminder is
// independent: a send failure is logged and skipped so one bad recipient
// cannot block other records, and unrecorded reminders retry on the next run.
// The log row is written before sending, so delivery is at-most-once per
// (assetDateID, offsetDays): a reminder whose sends all fail counts as failed,
// not fired, and is not retried.
func (r *Runner) Run(ctx context.Context, unitID string, dates []Date, policies PolicySet, today time.Time) (RunSummary, error) {
	summary := RunSummary{Scanned: len(dates)}

	due := DueReminders(dates, policies, today)
	if len(due) == 0 {
		return summary, nil
	}

	admins, err := r.Directory.AdminUserIDs(ctx, unitID)
	if err != nil {
		return summary, err
	}
	if len(admins) == 0 {
		// No one to notify; not an error.
		return summary, nil
	}

	byID := make(map[string]Date, len(dates))
	for _, date := range dates {
		byID[date.ID] = date
	}

	for _, reminder := range due {
		inserted, err := r.Log.InsertIfAbsent(ctx, unitID, reminder.AssetDateID, reminder.OffsetDays, reminder.IsOverdueEscalation, strings.Join(admins, ","), today)
		if err != nil {
			slog.Warn("asset reminder record failed", "assetDateId", reminder.AssetDateID, "offsetDays", reminder.OffsetDays, "err", err)
			summary.Failed++
			continue
		}
		if !inserted {
			summary.Skipped++
			continue
		}

		title, body := reminderMessage(byID[reminder.AssetDateID], reminder)
		delivered := 0
		for _, admin := range admins {
			if err := r.Notify.Create(ctx, unitID, admin, NotificationTypeAssetReminder, title, body); err != nil {
				slog.Warn("asset reminder notification failed", "assetDateId", reminder.AssetDateID, "userId", admin, "err", err)
				summary.Failed++
				continue
			}
			delivered++
		}
		if delivered > 0 {
			summary.Fired++
		}
	}
	return summary, nil
}

func reminderMessage(date Date, reminder Reminder) (title, body string) {
	label := strings.ReplaceAll(date.DateType, "_", " ")
	if reminder.IsOverdueEscalation {
		title = fmt.Sprintf("Overdue: %s", label)
		body = fmt.Sprintf("The %s for a %s asset is %d days overdue (%s).", label, date.Category, -reminder.OffsetDays, date.DateValue.Format("2006-01-02"))
		return title, body
	}
	title = fmt.Sprintf("Upcoming: %s", label)
	body = fmt.Sprintf("The %s for a %s asset is due in %d days (%s).", label, date.Category, reminder.OffsetDays, date.DateValue.Format("2006-01-02"))
	return title, body
}

type Service struct {
	DB *pgxpool.Pool
	Runner
}

func NewService(db *pgxpool.Pool, notify Notifier) *Service {
	s := &Service{DB: db}
	s.Runner = Runner{Log: s, Notify: notify, Directory: s}
	return s
}

func (s *Service) CreateAsset(ctx context.Context, unitID, category, name, identifier, assignedTo string) (Asset, error) {
	asset := Asset{UnitID: unitID, Category: category, Name: name, Identifier: identifier, AssignedTo: assignedTo}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO assets (unit_id, category, name, identifier, assigned_to)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id, created_at
  `, unitID, category, name, identifier, assignedTo).Scan(&asset.ID, &asset.CreatedAt)
	if err != nil {
		return Asset{}, err
	}
	return asset, nil
}

func (s *Service) ListAssets(ctx context.Context, unitID, category string) ([]Asset, error) {
	query := `
    SELECT id, unit_id, category, name, COALESCE(identifier,''), COALESCE(assigned_to,''), created_at
    FROM assets
    WHERE unit_id = $1
  `
	args := []any{unitID}
	if category != "" {
		query += " AND category = $2"
		args = append(args, category)
	}
	query += " ORDER BY name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var asset Asset
		if err := rows.Scan(&asset.ID, &asset.UnitID, &asset.Category, &asset.Name, &asset.Identifier, &asset.AssignedTo, &asset.CreatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func (s *Service) GetAsset(ctx context.Context, unitID, assetID string) (Asset, error) {
	var asset Asset
	err := s.DB.QueryRow(ctx, `
    SELECT id, unit_id, category, name, COALESCE(identifier,''), COALESCE(assigned_to,''), created_at
    FROM assets
    WHERE unit_id = $1 AND id = $2
  `, unitID, assetID).Scan(&asset.ID, &asset.UnitID, &asset.Category, &asset.Name, &asset.Identifier, &asset.AssignedTo, &asset.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Asset{}, ErrNotFound
	}
	if err != nil {
		return Asset{}, err
	}
	return asset, nil
}

// UpsertDate sets or replaces one tracked date on an asset and resets its
// status to upcoming; the nightly sync will flip it to overdue when passed.
func (s *Service) UpsertDate(ctx context.Context, unitID, assetID, dateType string, dateValue time.Time) (Date, error) {
	asset, err := s.GetAsset(ctx, unitID, assetID)
	if err != nil {
		return Date{}, err
	}

	date := Date{UnitID: unitID, AssetID: assetID, Category: asset.Category, DateType: dateType, DateValue: dateValue, Status: DateStatusUpcoming}
	err = s.DB.QueryRow(ctx, `
    INSERT INTO asset_dates (unit_id, asset_id, category, date_type, date_value, status)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (asset_id, date_type)
    DO UPDATE SET date_value = EXCLUDED.date_value, status = EXCLUDED.status
    RETURNING id
  `, unitID, assetID, asset.Category, dateType, dateValue, DateStatusUpcoming).Scan(&date.ID)
	if err != nil {
		return Date{}, err
	}
	return date, nil
}

func (s *Service) ResolveDate(ctx context.Context, unitID, dateID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE asset_dates SET status = $1 WHERE unit_id = $2 AND id = $3
  `, DateStatusResolved, unitID, dateID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ListDates(ctx context.Context, unitID string) ([]Date, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, unit_id, asset_id, category, date_type, date_value, status
    FROM asset_dates
    WHERE unit_id = $1
    ORDER BY date_value
  `, unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDates(rows)
}

// SyncDates flips upcoming dates whose value has passed to overdue.
func (s *Service) SyncDates(ctx context.Context, unitID string, today time.Time) (int, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE asset_dates
    SET status = $1
    WHERE unit_id = $2 AND status = $3 AND date_value < $4
  `, DateStatusOverdue, unitID, DateStatusUpcoming, dateOnly(today))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// RunReminders loads the unit's active dates and fires due reminders.
func (s *Service) RunReminders(ctx context.Context, unitID string, policies PolicySet, today time.Time) (RunSummary, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, unit_id, asset_id, category, date_type, date_value, status
    FROM asset_dates
    WHERE unit_id = $1 AND status IN ($2,$3)
  `, unitID, DateStatusUpcoming, DateStatusOverdue)
	if err != nil {
		return RunSummary{}, err
	}
	dates, err := collectDates(rows)
	rows.Close()
	if err != nil {
		return RunSummary{}, err
	}
	return s.Runner.Run(ctx, unitID, dates, policies, today)
}

func (s *Service) InsertIfAbsent(ctx context.Context, unitID, assetDateID string, offsetDays int, escalation bool, sentTo string, sentAt time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO asset_reminders (unit_id, asset_date_id, reminder_offset_days, is_overdue_escalation, sent_to, sent_at)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (asset_date_id, reminder_offset_days) DO NOTHING
  `, unitID, assetDateID, offsetDays, escalation, sentTo, sentAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Service) AdminUserIDs(ctx context.Context, unitID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id FROM users WHERE unit_id = $1 AND role = 'admin'
  `, unitID)
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

func collectDates(rows pgx.Rows) ([]Date, error) {
	var dates []Date
	for rows.Next() {
		var date Date
		if err := rows.Scan(&date.ID, &date.UnitID, &date.AssetID, &date.Category, &date.DateType, &date.DateValue, &date.Status); err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}
