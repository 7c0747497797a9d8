package leave

import "time"

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"

	TypeAnnual          = "annual"
	TypeSickCertified   = "sick_certified"
	TypeSickUncertified = "sick_uncertified"

	UnitFullDay = "full_day"
	UnitHalfDay = "half_day"
)

type Request struct {
	ID           string     `json:"id"`
	UnitID       string     `json:"unitId"`
	EmployeeID   string     `json:"employeeId"`
	Type         string     `json:"type"`
	Unit         string     `json:"unit"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      time.Time  `json:"endDate"`
	StartTime    string     `json:"startTime,omitempty"`
	EndTime      string     `json:"endTime,omitempty"`
	Days         float64    `json:"days"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	ApprovedBy   string     `json:"approvedBy,omitempty"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty"`
	RejectedBy   string     `json:"rejectedBy,omitempty"`
	RejectedAt   *time.Time `json:"rejectedAt,omitempty"`
	RejectReason string     `json:"rejectReason,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type Document struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"requestId,omitempty"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	FileSize    int64     `json:"fileSize"`
	UploadedBy  string    `json:"uploadedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type DocumentUpload struct {
	FileName    string
	ContentType string
	FileSize    int64
	Data        []byte
}
