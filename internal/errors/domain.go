// Package errors defines the typed error taxonomy shared across the
// payout engine. Services wrap these with %w so callers can match with
// errors.Is / errors.As.
package errors

import "fmt"

// DomainError is a coded error surfaced to API clients and audit records.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// WithDetail returns a copy of the error with extra human-readable context
// appended to the message. The code is preserved so errors.As matching on
// the original still works through %w chains.
func (e *DomainError) WithDetail(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", e, fmt.Sprintf(format, args...))
}
