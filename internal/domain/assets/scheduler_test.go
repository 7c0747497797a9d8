package assets

import (
	"context"
	"errors"
	"testing"
	"time"
)

var testPolicies = PolicySet{
	{CategoryVehicles, "registration_expiry"}: {Offsets: []int{60, 30, 7, 2}, EscalationEveryDays: 3},
	{CategoryITEquipment, "warranty_expiry"}:  {Offsets: []int{30, 7}},
}

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDueRemindersExactOffset(t *testing.T) {
	dates := []Date{
		{ID: "d1", Category: CategoryVehicles, DateType: "registration_expiry", DateValue: day("2024-05-08"), Status: DateStatusUpcoming},
	}

	tests := []struct {
		today      string
		wantOffset int
		wantFire   bool
	}{
		{"2024-05-01", 7, true},
		{"2024-05-06", 2, true},
		{"2024-05-02", 0, false}, // 6 days out, not on the schedule
		{"2024-05-08", 0, false}, // due day itself: 0 is not on the schedule
	}

	for _, tt := range tests {
		due := DueReminders(dates, testPolicies, day(tt.today))
		if tt.wantFire {
			if len(due) != 1 {
				t.Fatalf("today %s: expected one reminder, got %d", tt.today, len(due))
			}
			if due[0].OffsetDays != tt.wantOffset {
				t.Errorf("today %s: offset = %d, want %d", tt.today, due[0].OffsetDays, tt.wantOffset)
			}
			if due[0].IsOverdueEscalation {
				t.Errorf("today %s: upcoming reminder flagged as escalation", tt.today)
			}
		} else if len(due) != 0 {
			t.Errorf("today %s: expected no reminders, got %d", tt.today, len(due))
		}
	}
}

func TestDueRemindersBeyondHorizon(t *testing.T) {
	dates := []Date{
		{ID: "d1", Category: CategoryVehicles, DateType: "registration_expiry", DateValue: day("2024-12-01"), Status: DateStatusUpcoming},
	}
	if due := DueReminders(dates, testPolicies, day("2024-05-01")); len(due) != 0 {
		t.Fatalf("date far beyond max offset should not remind, got %d", len(due))
	}
}

func TestDueRemindersOverdueEscalation(t *testing.T) {
	dates := []Date{
		{ID: "d1", Category: CategoryVehicles, DateType: "registration_expiry", DateValue: day("2024-05-01"), Status: DateStatusOverdue},
	}

	tests := []struct {
		today      string
		wantOffset int
		wantFire   bool
	}{
		{"2024-05-01", 0, false}, // due day itself, zero days overdue
		{"2024-05-02", 0, false},
		{"2024-05-04", -3, true},
		{"2024-05-05", 0, false},
		{"2024-05-07", -6, true},
	}
	for _, tt := range tests {
		due := DueReminders(dates, testPolicies, day(tt.today))
		if tt.wantFire {
			if len(due) != 1 {
				t.Fatalf("today %s: expected one escalation, got %d", tt.today, len(due))
			}
			if due[0].OffsetDays != tt.wantOffset || !due[0].IsOverdueEscalation {
				t.Errorf("today %s: got %+v, want offset %d escalation", tt.today, due[0], tt.wantOffset)
			}
		} else if len(due) != 0 {
			t.Errorf("today %s: expected no escalation, got %d", tt.today, len(due))
		}
	}
}

func TestDueRemindersNoEscalationInterval(t *testing.T) {
	dates := []Date{
		{ID: "d1", Category: CategoryITEquipment, DateType: "warranty_expiry", DateValue: day("2024-05-01"), Status: DateStatusOverdue},
	}
	if due := DueReminders(dates, testPolicies, day("2024-05-04")); len(due) != 0 {
		t.Fatalf("category without escalation interval should stay quiet, got %d", len(due))
	}
}

func TestDueRemindersUnconfiguredPair(t *testing.T) {
	dates := []Date{
		{ID: "d1", Category: CategoryRentalMachines, DateType: "rental_end", DateValue: day("2024-05-08"), Status: DateStatusUpcoming},
	}
	if due := DueReminders(dates, testPolicies, day("2024-05-01")); len(due) != 0 {
		t.Fatalf("unconfigured (category, dateType) should be skipped, got %d", len(due))
	}
}

type sentKey struct {
	assetDateID string
	offsetDays  int
}

type fakeLog struct {
	seen    map[sentKey]bool
	failFor string
}

func newFakeLog() *fakeLog { return &fakeLog{seen: map[sentKey]bool{}} }

func (f *fakeLog) InsertIfAbsent(_ context.Context, _, assetDateID string, offsetDays int, _ bool, _ string, _ time.Time) (bool, error) {
	if assetDateID == f.failFor {
		return false, errors.New("insert failed")
	}
	key := sentKey{assetDateID, offsetDays}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

type fakeNotifier struct {
	sent    []string
	failFor string
}

func (f *fakeNotifier) Create(_ context.Context, _, userID, _, _, _ string) error {
	if userID == f.failFor {
		return errors.New("send failed")
	}
	f.sent = append(f.sent, userID)
	return nil
}

type fakeDirectory struct{ admins []string }

func (f *fakeDirectory) AdminUserIDs(context.Context, string) ([]string, error) {
	return f.admins, nil
}

func TestRunnerSendsOncePerOffset(t *testing.T) {
	log := newFakeLog()
	notify := &fakeNotifier{}
	runner := Runner{Log: log, Notify: notify, Directory: &fakeDirectory{admins: []string{"admin-1", "admin-2"}}}

	dates := []Date{
		{ID: "d1", Category: CategoryVehicles, DateType: "registration_expiry", DateValue: day("2024-05-08"), Status: DateStatusUpcoming},
	}
	today := day("2024-05-01")

	summary, err := runner.Run(context.Background(), "unit-1", dates, testPolicies, today)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Fired != 1 {
		t.Fatalf("fired = %d, want 1", summary.Fired)
	}
	if len(notify.sent) != 2 {
		t.Fatalf("notifications = %d, want one per admin", len(notify.sent))
	}

	// Same day again: the storage dedup must swallow the repeat.
	summary, err = runner.Run(context.Background(), "unit-1", dates, testPolicies, today)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Fired != 0 || summary.Skipped != 1 {
		t.Fatalf("second run fired=%d skipped=%d, want 0/1", summary.Fired, summary.Skipped)
	}
	if len(notify.sent) != 2 {
		t.Fatalf("second run sent more notifications: %d", len(notify.sent))
	}
}

func TestRunnerNoAdmins(t *testing.T) {
	log := newFakeLog()
	runner := Runner{Log: log, Notify: &fakeNotifier{}, Directory: &fakeDirectory{}}

	dates := []Date{
		{ID: "d1", Category: CategoryVehicles, DateType: "registration_expiry", DateValue: day("2024-05-08"), Status: DateStatusUpcoming},
	}
	summary, err := runner.Run(context.Background(), "unit-1", dates, testPolicies, day("2024-05-01"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Fired != 0 {
		t.Fatalf("fired = %d, want 0 with no admins", summary.Fired)
	}
	if len(log.seen) != 0 {
		t.Fatalf("reminder recorded despite no recipients")
	}
}

func TestRunnerAllSendsFailNotFired(t *testing.T) {
	log := newFakeLog()
	notify := &fakeNotifier{failFor: "admin-1"}
	runner := Runner{Log: log, Notify: notify, Directory: &fakeDirectory{admins: []string{"admin-1"}}}

	dates := []Date{
		{ID: "d1", Category: CategoryVehicles, DateType: "registration_expiry", DateValue: day("2024-05-08"), Status: DateStatusUpcoming},
	}
	summary, err := runner.Run(context.Background(), "unit-1", dates, testPolicies, day("2024-05-01"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Fired != 0 {
		t.Errorf("fired = %d, want 0 when no admin received it", summary.Fired)
	}
	if summary.Failed != 1 {
		t.Errorf("failed = %d, want 1", summary.Failed)
	}
}

func TestRunnerFailureIsolation(t *testing.T) {
	log := newFakeLog()
	log.failFor = "d1"
	notify := &fakeNotifier{}
	runner := Runner{Log: log, Notify: notify, Directory: &fakeDirectory{admins: []string{"admin-1"}}}

	dates := []Date{
		{ID: "d1", Category: CategoryVehicles, DateType: "registration_expiry", DateValue: day("2024-05-08"), Status: DateStatusUpcoming},
		{ID: "d2", Category: CategoryVehicles, DateType: "registration_expiry", DateValue: day("2024-05-08"), Status: DateStatusUpcoming},
	}
	summary, err := runner.Run(context.Background(), "unit-1", dates, testPolicies, day("2024-05-01"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Failed != 1 {
		t.Errorf("failed = %d, want 1", summary.Failed)
	}
	if summary.Fired != 1 {
		t.Errorf("fired = %d, want the healthy record to go out", summary.Fired)
	}
	if len(notify.sent) != 1 {
		t.Errorf("notifications = %d, want 1", len(notify.sent))
	}
}
