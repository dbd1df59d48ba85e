package errors

var (
	ErrValidation = &DomainError{
		Code:    "VALIDATION_FAILED",
		Message: "malformed payout candidate",
	}
	ErrRiskDataUnavailable = &DomainError{
		Code:    "RISK_DATA_UNAVAILABLE",
		Message: "risk signal sources unavailable",
	}
	ErrLimitExceeded = &DomainError{
		Code:    "LIMIT_EXCEEDED",
		Message: "spending limit exceeded for window",
	}
	ErrIdempotencyConflict = &DomainError{
		Code:    "IDEMPOTENCY_CONFLICT",
		Message: "request already reached a terminal state",
	}
	ErrIllegalTransition = &DomainError{
		Code:    "ILLEGAL_TRANSITION",
		Message: "payout status transition not permitted",
	}
	ErrRequestNotFound = &DomainError{
		Code:    "REQUEST_NOT_FOUND",
		Message: "payout request not found",
	}
	ErrNotReviewable = &DomainError{
		Code:    "NOT_REVIEWABLE",
		Message: "request is not pending manual review",
	}
	ErrEmergencyHalt = &DomainError{
		Code:    "EMERGENCY_HALT",
		Message: "payout processing is halted platform-wide",
	}
)
