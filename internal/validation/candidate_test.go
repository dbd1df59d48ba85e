package validation

import (
	"testing"

	domainerrors "payguard/internal/errors"

	"github.com/stretchr/testify/assert"
)

func validCandidate() Candidate {
	return Candidate{
		MerchantID:         1,
		Amount:             100,
		Currency:           "USDC",
		DestinationWallet:  "0x1111111111111111111111111111111111111111",
		DestinationNetwork: "ethereum",
		ScheduleType:       "REAL_TIME",
		Priority:           5,
	}
}

func TestValidateCandidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Candidate)
		wantErr string
	}{
		{name: "valid candidate passes", mutate: func(c *Candidate) {}},
		{
			name:    "missing merchant",
			mutate:  func(c *Candidate) { c.MerchantID = 0 },
			wantErr: "merchant id",
		},
		{
			name:    "zero amount",
			mutate:  func(c *Candidate) { c.Amount = 0 },
			wantErr: "amount",
		},
		{
			name:    "negative amount",
			mutate:  func(c *Candidate) { c.Amount = -5 },
			wantErr: "amount",
		},
		{
			name:    "unsupported currency",
			mutate:  func(c *Candidate) { c.Currency = "DOGE" },
			wantErr: "currency",
		},
		{
			name:    "missing wallet",
			mutate:  func(c *Candidate) { c.DestinationWallet = "  " },
			wantErr: "wallet",
		},
		{
			name:    "unknown network",
			mutate:  func(c *Candidate) { c.DestinationNetwork = "dogechain" },
			wantErr: "network",
		},
		{
			name:    "malformed evm address",
			mutate:  func(c *Candidate) { c.DestinationWallet = "0xshort" },
			wantErr: "address",
		},
		{
			name: "solana address skips the evm check",
			mutate: func(c *Candidate) {
				c.DestinationNetwork = "solana"
				c.DestinationWallet = "5eykt4UsFv8P8NJdTREpY1vzqKqZKvdpKuc147dw2N9d"
			},
		},
		{
			name: "fiat network allows an external account reference",
			mutate: func(c *Candidate) {
				c.DestinationNetwork = "ach"
				c.DestinationWallet = "ba_1Nv0r22eZvKYlo2C"
				c.Currency = "USD"
			},
		},
		{
			name:    "unknown schedule type",
			mutate:  func(c *Candidate) { c.ScheduleType = "WHENEVER" },
			wantErr: "schedule",
		},
		{
			name:   "empty schedule type is allowed",
			mutate: func(c *Candidate) { c.ScheduleType = "" },
		},
		{
			name:    "priority above cap",
			mutate:  func(c *Candidate) { c.Priority = MaxPriority + 1 },
			wantErr: "priority",
		},
		{
			name:    "negative priority",
			mutate:  func(c *Candidate) { c.Priority = -1 },
			wantErr: "priority",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandidate()
			tt.mutate(&c)
			err := ValidateCandidate(c)

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domainerrors.ErrValidation)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateCandidate_CurrencyCaseInsensitive(t *testing.T) {
	c := validCandidate()
	c.Currency = "usdc"
	assert.NoError(t, ValidateCandidate(c))
}
