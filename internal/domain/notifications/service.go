package notifications

import (
	"context"
	"log/slog"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer) *Service {
	return &Service{store: store, Mailer: mailer, DefaultFrom: "no-reply@opsportal.local"}
}

// Create persists an in-app notification and, when the unit has email
// delivery enabled, mirrors it as an email. Email delivery is best effort:
// the notification row is the source of truth.
func (s *Service) Create(ctx context.Context, unitID, userID, ntype, title, body string) error {
	if err := s.store.CreateNotification(ctx, unitID, userID, ntype, title, body); err != nil {
		return err
	}

	if s.Mailer == nil {
		return nil
	}
	enabled, from, err := s.store.EmailSettings(ctx, unitID)
	if err != nil || !enabled {
		return nil
	}
	if from == "" {
		from = s.DefaultFrom
	}

	email, err := s.store.UserEmail(ctx, unitID, userID)
	if err != nil {
		slog.Warn("notification email lookup failed", "userId", userID, "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, from, email, title, body); err != nil {
		slog.Warn("notification email send failed", "userId", userID, "err", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, unitID, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, unitID, userID, limit, offset)
}

func (s *Service) Count(ctx context.Context, unitID, userID string, unreadOnly bool) (int, error) {
	return s.store.CountNotifications(ctx, unitID, userID, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, unitID, userID, notificationID string) error {
	return s.store.MarkRead(ctx, unitID, userID, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, unitID, userID string) error {
	return s.store.MarkAllRead(ctx, unitID, userID)
}

func (s *Service) GetSettings(ctx context.Context, unitID string) (bool, string, error) {
	return s.store.EmailSettings(ctx, unitID)
}

func (s *Service) UpdateSettings(ctx context.Context, unitID string, enabled bool, from string) error {
	return s.store.UpdateSettings(ctx, unitID, enabled, from)
}
