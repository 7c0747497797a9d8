package payroll

// transitions is the full status graph. Completed allows only the
// same-state no-op so completion retries stay idempotent.
var transitions = map[string][]string{
	StatusGenerated:        {StatusPendingSignature},
	StatusPendingSignature: {StatusSigned, StatusRejected},
	StatusRejected:         {StatusPendingSignature, StatusGenerated},
	StatusSigned:           {StatusCompleted},
	StatusCompleted:        {StatusCompleted},
}

// CanTransition reports whether a record may move from one status to another.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition validates a status change, returning InvalidTransitionError
// when the graph forbids it.
func Transition(from, to string) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}
