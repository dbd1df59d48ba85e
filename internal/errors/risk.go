package errors

var ErrRiskScoreNotFound = &DomainError{
	Code:    "RISK_SCORE_NOT_FOUND",
	Message: "no risk score for merchant",
}
