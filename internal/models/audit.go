package models

import "time"

// Audit event types
const (
	AuditEventRequestAdmitted   = "PAYOUT_REQUEST_ADMITTED"
	AuditEventRequestRejected   = "PAYOUT_REQUEST_REJECTED"
	AuditEventRequestHeld       = "PAYOUT_REQUEST_HELD"
	AuditEventRequestExecuted   = "PAYOUT_REQUEST_EXECUTED"
	AuditEventRequestRetried    = "PAYOUT_REQUEST_RETRIED"
	AuditEventRequestFailed     = "PAYOUT_REQUEST_FAILED"
	AuditEventManualOverride    = "PAYOUT_MANUAL_OVERRIDE"
	AuditEventRiskScoreCreated  = "RISK_SCORE_CREATED"
	AuditEventRiskScoreUpdated  = "RISK_SCORE_UPDATED"
	AuditEventRiskScoreOverride = "RISK_SCORE_OVERRIDE"
	AuditEventEmergencyHalt     = "EMERGENCY_HALT"
	AuditEventHaltCleared       = "EMERGENCY_HALT_CLEARED"
)

// Audit entity types
const (
	AuditEntityPayoutRequest = "payout_request"
	AuditEntityRiskScore     = "risk_score"
	AuditEntityPlatform      = "platform"
)

// AuditEntry is one append-only record of a decision or mutation. Entries
// are never updated or deleted; the repository exposes no such methods.
type AuditEntry struct {
	ID          uint   `gorm:"primarykey"`
	EventType   string `gorm:"index;not null"`
	PerformedBy string `gorm:"index;not null"`
	EntityType  string `gorm:"index"`
	EntityID    string `gorm:"index"`
	Details     JSON   `gorm:"type:jsonb"`
	CreatedAt   time.Time `gorm:"index"`
}
