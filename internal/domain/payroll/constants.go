package payroll

const (
	StatusGenerated        = "generated"
	StatusPendingSignature = "pending_signature"
	StatusRejected         = "rejected"
	StatusSigned           = "signed"
	StatusCompleted        = "completed"
)
