package treasury

import (
	"errors"
	"fmt"
)

// TransientError is a retryable gateway failure (timeouts, 5xx, rate
// limits). The queue retries it up to the request's attempt cap.
type TransientError struct {
	Reason string
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient gateway error: %s", e.Reason)
}

// PermanentError is a terminal gateway rejection (bad address, compliance
// block). It needs human remediation, never a retry.
type PermanentError struct {
	Reason string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent gateway error: %s", e.Reason)
}

// HaltedError signals the gateway's emergency halt. It is not a failure:
// the request holds at PENDING with its attempt counter untouched.
type HaltedError struct {
	Reason string
}

func (e *HaltedError) Error() string {
	return fmt.Sprintf("treasury halted: %s", e.Reason)
}

func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

func IsHalted(err error) bool {
	var h *HaltedError
	return errors.As(err, &h)
}
