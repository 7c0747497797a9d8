package leave

import "errors"

var (
	ErrNotFound     = errors.New("leave request not found")
	ErrInvalidState = errors.New("leave request is not pending")
	ErrForbidden    = errors.New("forbidden")
)

const (
	CodeInvalidDate  = "invalid_date"
	CodeInvalidRange = "invalid_range"
	CodeMissingTime  = "missing_time"
	CodeInvalidTime  = "invalid_time"
	CodeOverlap      = "overlap_conflict"
)

// ValidationError is a rejected-input failure whose message is surfaced
// verbatim to the requester.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}
