package payout

import "time"

// CandidateInput is what the payout candidate source (or the manual entry
// point) supplies.
type CandidateInput struct {
	MerchantID         uint                   `json:"merchant_id"`
	Amount             float64                `json:"amount"`
	Currency           string                 `json:"currency"`
	DestinationWallet  string                 `json:"destination_wallet"`
	DestinationNetwork string                 `json:"destination_network"`
	ScheduleType       string                 `json:"schedule_type"`
	ScheduledFor       *time.Time             `json:"scheduled_for"`
	Priority           int                    `json:"priority"`
	OriginalRequestID  string                 `json:"original_request_id"`
	Metadata           map[string]interface{} `json:"metadata"`
}

// OverrideInput resolves a manual-review request.
type OverrideInput struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}
