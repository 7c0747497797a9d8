package payroll

import "time"

type Record struct {
	ID           string     `json:"id"`
	UnitID       string     `json:"unitId"`
	EmployeeID   string     `json:"employeeId"`
	Period       string     `json:"period"`
	BaseSalary   float64    `json:"baseSalary"`
	Allowances   float64    `json:"allowances"`
	Deductions   float64    `json:"deductions"`
	GrossPay     float64    `json:"grossPay"`
	NetPay       float64    `json:"netPay"`
	Notes        string     `json:"notes,omitempty"`
	PayrollDate  *time.Time `json:"payrollDate,omitempty"`
	Status       string     `json:"status"`
	RejectReason string     `json:"rejectReason,omitempty"`
	SignedAt     *time.Time `json:"signedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Amounts is the editable monetary portion of a record.
type Amounts struct {
	BaseSalary  float64
	Allowances  float64
	Deductions  float64
	Notes       string
	PayrollDate *time.Time
}
