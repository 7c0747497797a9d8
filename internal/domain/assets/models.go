package assets

import (
	"errors"
	"time"
)

const (
	CategoryVehicles       = "vehicles"
	CategoryRegistrations  = "registrations"
	CategoryRentalMachines = "rental_machines"
	CategoryITEquipment    = "it_equipment"

	DateStatusUpcoming = "upcoming"
	DateStatusOverdue  = "overdue"
	DateStatusResolved = "resolved"
)

var ErrNotFound = errors.New("asset not found")

type Asset struct {
	ID         string    `json:"id"`
	UnitID     string    `json:"unitId"`
	Category   string    `json:"category"`
	Name       string    `json:"name"`
	Identifier string    `json:"identifier,omitempty"`
	AssignedTo string    `json:"assignedTo,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Date is a tracked expiry/renewal date derived from the owning asset.
type Date struct {
	ID        string    `json:"id"`
	UnitID    string    `json:"unitId"`
	AssetID   string    `json:"assetId"`
	Category  string    `json:"category"`
	DateType  string    `json:"dateType"`
	DateValue time.Time `json:"dateValue"`
	Status    string    `json:"status"`
}

// Reminder is an append-only log entry. OffsetDays is positive for
// days-before-due reminders and negative for overdue escalations.
type Reminder struct {
	AssetDateID         string
	OffsetDays          int
	IsOverdueEscalation bool
}
