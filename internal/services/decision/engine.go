// Package decision classifies payout candidates. Decide is pure and
// deterministic: identical (candidate, risk snapshot, ledger snapshot)
// inputs always produce the identical outcome.
package decision

import (
	"fmt"

	"payguard/internal/models"
)

// Config tunes the engine. PartialApproveFraction is the share of the
// single-transaction limit a PARTIAL merchant may auto-approve.
type Config struct {
	PartialApproveFraction float64
}

type Engine struct {
	config   Config
	denylist Denylist
}

func NewEngine(config Config, denylist Denylist) *Engine {
	if config.PartialApproveFraction <= 0 || config.PartialApproveFraction > 1 {
		config.PartialApproveFraction = 0.5
	}
	if denylist == nil {
		denylist = StaticDenylist{}
	}
	return &Engine{config: config, denylist: denylist}
}

// Decide evaluates the ordered rule set; the first matching rule wins.
// AUTO_REJECT is reserved for explicit compliance signals and is never a
// default outcome of risk scoring alone.
func (e *Engine) Decide(candidate Candidate, score *models.MerchantRiskScore, ledger LedgerView) Outcome {
	// Compliance signals: denylisted destination or an emergency-halted
	// merchant reject outright.
	if e.denylist.Blocked(candidate.DestinationWallet, candidate.DestinationNetwork) {
		return Outcome{
			Decision: AutoReject,
			Reasons:  []string{"destination wallet is denylisted"},
		}
	}
	if !score.IsActive {
		return Outcome{
			Decision: AutoReject,
			Reasons:  []string{"merchant is emergency-halted"},
		}
	}

	// Rule 1: manual-review merchants never bypass a human.
	if score.AutomationLevel == models.AutomationLevelManualReview {
		return Outcome{
			Decision: ManualReview,
			Reasons:  []string{"merchant automation level requires manual review"},
		}
	}

	// Rule 2: single-transaction ceiling.
	if candidate.Amount > score.SingleTransactionLimit {
		return Outcome{
			Decision: ManualReview,
			Reasons:  []string{fmt.Sprintf("exceeds single transaction limit of %.2f", score.SingleTransactionLimit)},
		}
	}

	// Rule 3: explicit approval threshold.
	if score.RequiresApprovalAbove > 0 && candidate.Amount > score.RequiresApprovalAbove {
		return Outcome{
			Decision: ManualReview,
			Reasons:  []string{fmt.Sprintf("exceeds approval threshold of %.2f", score.RequiresApprovalAbove)},
		}
	}

	// Rule 4: window limits route to review, never to rejection.
	if reason, exceeded := e.windowExceeded(candidate.Amount, score, ledger); exceeded {
		return Outcome{
			Decision: ManualReview,
			Reasons:  []string{reason},
		}
	}

	// Rules 5-6: level-specific approval.
	switch score.AutomationLevel {
	case models.AutomationLevelFull:
		return Outcome{
			Decision: AutoApprove,
			Reasons:  []string{"full automation, all limits satisfied"},
		}
	case models.AutomationLevelPartial:
		threshold := score.SingleTransactionLimit * e.config.PartialApproveFraction
		if candidate.Amount <= threshold {
			return Outcome{
				Decision: AutoApprove,
				Reasons:  []string{fmt.Sprintf("partial automation, amount within %.2f", threshold)},
			}
		}
		return Outcome{
			Decision: ManualReview,
			Reasons:  []string{fmt.Sprintf("partial automation, amount above %.2f", threshold)},
		}
	}

	// Unknown level: treat like an unscored merchant.
	return Outcome{
		Decision: ManualReview,
		Reasons:  []string{"unrecognized automation level"},
	}
}

func (e *Engine) windowExceeded(amount float64, score *models.MerchantRiskScore, ledger LedgerView) (string, bool) {
	if score.DailyLimit > 0 && ledger.DailyConsumed+amount > score.DailyLimit {
		return fmt.Sprintf("would exceed daily limit of %.2f", score.DailyLimit), true
	}
	if score.WeeklyLimit > 0 && ledger.WeeklyConsumed+amount > score.WeeklyLimit {
		return fmt.Sprintf("would exceed weekly limit of %.2f", score.WeeklyLimit), true
	}
	if score.MonthlyLimit > 0 && ledger.MonthlyConsumed+amount > score.MonthlyLimit {
		return fmt.Sprintf("would exceed monthly limit of %.2f", score.MonthlyLimit), true
	}
	return "", false
}
