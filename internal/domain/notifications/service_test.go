package notifications

import (
	"context"
	"errors"
	"testing"
)

type memStore struct {
	created      []Notification
	emailEnabled bool
	emailFrom    string
	userEmail    string
}

func (m *memStore) CreateNotification(_ context.Context, _, _, ntype, title, body string) error {
	m.created = append(m.created, Notification{Type: ntype, Title: title, Body: body})
	return nil
}

func (m *memStore) UserEmail(context.Context, string, string) (string, error) {
	return m.userEmail, nil
}

func (m *memStore) ListNotifications(context.Context, string, string, int, int) ([]Notification, error) {
	return m.created, nil
}

func (m *memStore) CountNotifications(context.Context, string, string, bool) (int, error) {
	return len(m.created), nil
}

func (m *memStore) MarkRead(context.Context, string, string, string) error { return nil }

func (m *memStore) MarkAllRead(context.Context, string, string) error { return nil }

func (m *memStore) EmailSettings(context.Context, string) (bool, string, error) {
	return m.emailEnabled, m.emailFrom, nil
}

func (m *memStore) UpdateSettings(context.Context, string, bool, string) error { return nil }

type recordingMailer struct {
	sent []string
	err  error
}

func (r *recordingMailer) Send(_ context.Context, _, to, _, _ string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, to)
	return nil
}

func TestCreateSkipsEmailWhenDisabled(t *testing.T) {
	store := &memStore{userEmail: "worker@example.com"}
	mailer := &recordingMailer{}
	svc := New(store, mailer)

	if err := svc.Create(context.Background(), "unit-1", "user-1", TypeLeaveApproved, "Approved", "Your leave was approved."); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("notifications stored = %d, want 1", len(store.created))
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("email sent while unit settings disabled")
	}
}

func TestCreateSendsEmailWhenEnabled(t *testing.T) {
	store := &memStore{emailEnabled: true, emailFrom: "ops@example.com", userEmail: "worker@example.com"}
	mailer := &recordingMailer{}
	svc := New(store, mailer)

	if err := svc.Create(context.Background(), "unit-1", "user-1", TypePayrollIssued, "Payslip ready", "Your payslip is ready to sign."); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "worker@example.com" {
		t.Fatalf("email not delivered to user, sent = %v", mailer.sent)
	}
}

func TestCreateSurvivesMailerFailure(t *testing.T) {
	store := &memStore{emailEnabled: true, userEmail: "worker@example.com"}
	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc := New(store, mailer)

	if err := svc.Create(context.Background(), "unit-1", "user-1", TypeTicketReply, "Reply", "A reply was posted."); err != nil {
		t.Fatalf("mailer failure must not fail the notification: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("notification row missing after mailer failure")
	}
}
