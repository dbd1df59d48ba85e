// Package validation rejects malformed payout candidates before they are
// admitted. Anything failing here is never queued.
package validation

import (
	"strings"

	domainerrors "payguard/internal/errors"
)

// Candidate is the minimal shape validated at admission.
type Candidate struct {
	MerchantID         uint
	Amount             float64
	Currency           string
	DestinationWallet  string
	DestinationNetwork string
	ScheduleType       string
	Priority           int
}

var scheduleTypes = map[string]bool{
	"SCHEDULED":           true,
	"THRESHOLD_TRIGGERED": true,
	"REAL_TIME":           true,
	"MANUAL_OVERRIDE":     true,
}

// ValidateCandidate returns a ValidationError describing the first problem
// found, or nil when the candidate is admissible.
func ValidateCandidate(c Candidate) error {
	if c.MerchantID == 0 {
		return domainerrors.ErrValidation.WithDetail("merchant id is required")
	}
	if c.Amount < MinPayoutAmount {
		return domainerrors.ErrValidation.WithDetail("amount must be positive")
	}
	if !SupportedCurrencies[strings.ToUpper(c.Currency)] {
		return domainerrors.ErrValidation.WithDetail("unsupported currency %q", c.Currency)
	}
	if strings.TrimSpace(c.DestinationWallet) == "" {
		return domainerrors.ErrValidation.WithDetail("destination wallet is required")
	}
	network := strings.ToLower(c.DestinationNetwork)
	if !SupportedNetworks[network] {
		return domainerrors.ErrValidation.WithDetail("unknown destination network %q", c.DestinationNetwork)
	}
	if network == "ethereum" || network == "polygon" || network == "base" {
		if !strings.HasPrefix(c.DestinationWallet, "0x") || len(c.DestinationWallet) != 42 {
			return domainerrors.ErrValidation.WithDetail("destination wallet is not a valid %s address", network)
		}
	}
	if c.ScheduleType != "" && !scheduleTypes[c.ScheduleType] {
		return domainerrors.ErrValidation.WithDetail("unknown schedule type %q", c.ScheduleType)
	}
	if c.Priority < 0 || c.Priority > MaxPriority {
		return domainerrors.ErrValidation.WithDetail("priority must be between 0 and %d", MaxPriority)
	}
	return nil
}
