package assets

// Policy configures when reminders fire for one (category, dateType) pair:
// a sparse schedule of days-before-due offsets plus an optional repeating
// overdue escalation interval.
type Policy struct {
	Offsets             []int
	EscalationEveryDays int
}

type PolicyKey struct {
	Category string
	DateType string
}

// PolicySet is immutable configuration injected into the scheduler so tests
// can supply synthetic policies.
type PolicySet map[PolicyKey]Policy

// DefaultPolicies covers the stock asset categories.
func DefaultPolicies() PolicySet {
	return PolicySet{
		{CategoryVehicles, "registration_expiry"}:      {Offsets: []int{60, 30, 7, 2}, EscalationEveryDays: 3},
		{CategoryVehicles, "insurance_expiry"}:         {Offsets: []int{30, 14, 7, 1}, EscalationEveryDays: 1},
		{CategoryRegistrations, "registration_expiry"}: {Offsets: []int{60, 30, 7, 2}, EscalationEveryDays: 3},
		{CategoryRentalMachines, "rental_end"}:         {Offsets: []int{30, 14, 7, 2}},
		{CategoryITEquipment, "warranty_expiry"}:       {Offsets: []int{30, 7}},
	}
}

func (p Policy) maxOffset() int {
	max := 0
	for _, offset := range p.Offsets {
		if offset > max {
			max = offset
		}
	}
	return max
}

func (p Policy) hasOffset(days int) bool {
	for _, offset := range p.Offsets {
		if offset == days {
			return true
		}
	}
	return false
}
