package models

import (
	"time"

	"github.com/lib/pq"
)

// Payout request statuses
const (
	PayoutStatusPending    = "PENDING"
	PayoutStatusProcessing = "PROCESSING"
	PayoutStatusExecuted   = "EXECUTED"
	PayoutStatusFailed     = "FAILED"
	PayoutStatusRejected   = "REJECTED"
)

// Automation decisions
const (
	DecisionAutoApprove  = "AUTO_APPROVE"
	DecisionAutoReject   = "AUTO_REJECT"
	DecisionManualReview = "MANUAL_REVIEW"
)

// Schedule types
const (
	ScheduleTypeScheduled          = "SCHEDULED"
	ScheduleTypeThresholdTriggered = "THRESHOLD_TRIGGERED"
	ScheduleTypeRealTime           = "REAL_TIME"
	ScheduleTypeManualOverride     = "MANUAL_OVERRIDE"
)

// AutomatedPayoutRequest is a merchant disbursement candidate travelling
// through the decision engine and the payout state machine. Rows are
// retained indefinitely for audit; the state machine is the only legal
// mutator apart from an authorized manual override.
type AutomatedPayoutRequest struct {
	ID                    string  `gorm:"primaryKey;type:uuid"`
	MerchantID            uint    `gorm:"index;not null"`
	Amount                float64 `gorm:"not null"`
	Currency              string  `gorm:"not null;default:'USDC'"`
	DestinationWallet     string  `gorm:"not null"`
	DestinationNetwork    string  `gorm:"not null"`
	ScheduleType          string  `gorm:"not null;default:'REAL_TIME'"`
	ScheduledFor          *time.Time
	Priority              int            `gorm:"default:0;index"`
	Status                string         `gorm:"not null;default:'PENDING';index"`
	RiskScoreAtDecision   int            // snapshot taken at evaluation time
	AutomationDecision    string         `gorm:"index"`
	DecisionReasons       pq.StringArray `gorm:"type:text[]"`
	ProcessingAttempts    int            `gorm:"default:0"`
	MaxAttempts           int            `gorm:"default:3"`
	LastAttemptAt         *time.Time
	NextAttemptAt         *time.Time `gorm:"index"`
	ExecutedAt            *time.Time
	TransactionHash       string
	FailureReason         string
	TreasuryTransactionID string
	IdempotencyKey        string `gorm:"uniqueIndex;not null"`
	OverrideApproved      bool   `gorm:"default:false"`
	OverriddenBy          string
	OriginalRequestID     string `gorm:"index"` // reference supplied by the candidate source
	Metadata              JSON   `gorm:"type:jsonb"`
	CreatedAt             time.Time `gorm:"index"`
	UpdatedAt             time.Time
}

// Terminal reports whether the request has reached a final state.
func (r *AutomatedPayoutRequest) Terminal() bool {
	switch r.Status {
	case PayoutStatusExecuted, PayoutStatusFailed, PayoutStatusRejected:
		return true
	}
	return false
}

// Dispatchable reports whether a queue worker may claim the request.
// Manual-review requests only become dispatchable once an operator has
// approved them.
func (r *AutomatedPayoutRequest) Dispatchable() bool {
	if r.Status != PayoutStatusPending {
		return false
	}
	return r.AutomationDecision == DecisionAutoApprove || r.OverrideApproved
}
