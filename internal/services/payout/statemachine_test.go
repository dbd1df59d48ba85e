package payout

import (
	"testing"

	"payguard/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	legal := []struct{ from, to string }{
		{models.PayoutStatusPending, models.PayoutStatusProcessing},
		{models.PayoutStatusPending, models.PayoutStatusRejected},
		{models.PayoutStatusProcessing, models.PayoutStatusExecuted},
		{models.PayoutStatusProcessing, models.PayoutStatusPending},
		{models.PayoutStatusProcessing, models.PayoutStatusFailed},
	}
	for _, tr := range legal {
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s should be legal", tr.from, tr.to)
	}

	illegal := []struct{ from, to string }{
		{models.PayoutStatusPending, models.PayoutStatusExecuted}, // no execution without a claim
		{models.PayoutStatusPending, models.PayoutStatusFailed},
		{models.PayoutStatusProcessing, models.PayoutStatusRejected},
		{models.PayoutStatusExecuted, models.PayoutStatusPending}, // terminal states never move
		{models.PayoutStatusExecuted, models.PayoutStatusProcessing},
		{models.PayoutStatusFailed, models.PayoutStatusPending},
		{models.PayoutStatusRejected, models.PayoutStatusProcessing},
	}
	for _, tr := range illegal {
		assert.False(t, CanTransition(tr.from, tr.to), "%s -> %s should be illegal", tr.from, tr.to)
	}
}

func TestTerminalAndDispatchable(t *testing.T) {
	executed := &models.AutomatedPayoutRequest{Status: models.PayoutStatusExecuted}
	failed := &models.AutomatedPayoutRequest{Status: models.PayoutStatusFailed}
	rejected := &models.AutomatedPayoutRequest{Status: models.PayoutStatusRejected}
	assert.True(t, executed.Terminal())
	assert.True(t, failed.Terminal())
	assert.True(t, rejected.Terminal())

	approved := &models.AutomatedPayoutRequest{
		Status:             models.PayoutStatusPending,
		AutomationDecision: models.DecisionAutoApprove,
	}
	assert.False(t, approved.Terminal())
	assert.True(t, approved.Dispatchable())

	awaitingReview := &models.AutomatedPayoutRequest{
		Status:             models.PayoutStatusPending,
		AutomationDecision: models.DecisionManualReview,
	}
	assert.False(t, awaitingReview.Dispatchable(), "unreviewed requests never dispatch")

	overridden := &models.AutomatedPayoutRequest{
		Status:             models.PayoutStatusPending,
		AutomationDecision: models.DecisionManualReview,
		OverrideApproved:   true,
	}
	assert.True(t, overridden.Dispatchable(), "operator approval makes it dispatchable")
}
