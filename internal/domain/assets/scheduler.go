package assets

import "time"

// DueReminders computes which reminders should fire on the given day.
// Upcoming dates remind only when the exact day-offset matches the policy
// schedule; overdue dates remind every Nth day overdue when an escalation
// interval is configured. De-duplication against already-sent reminders
// happens at the storage layer.
func DueReminders(dates []Date, policies PolicySet, today time.Time) []Reminder {
	ref := dateOnly(today)

	var due []Reminder
	for _, date := range dates {
		policy, ok := policies[PolicyKey{Category: date.Category, DateType: date.DateType}]
		if !ok {
			continue
		}

		days := daysBetween(ref, dateOnly(date.DateValue))
		switch date.Status {
		case DateStatusUpcoming:
			if days < 0 || days > policy.maxOffset() {
				continue
			}
			if policy.hasOffset(days) {
				due = append(due, Reminder{AssetDateID: date.ID, OffsetDays: days})
			}
		case DateStatusOverdue:
			if policy.EscalationEveryDays <= 0 {
				continue
			}
			overdue := -days
			if overdue > 0 && overdue%policy.EscalationEveryDays == 0 {
				due = append(due, Reminder{AssetDateID: date.ID, OffsetDays: -overdue, IsOverdueEscalation: true})
			}
		}
	}
	return due
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
