package payout

import "payguard/internal/models"

// legalTransitions is the single source of truth for the request
// lifecycle. Anything not listed is illegal.
var legalTransitions = map[string][]string{
	models.PayoutStatusPending: {
		models.PayoutStatusProcessing,
		models.PayoutStatusRejected, // manual-review rejection
	},
	models.PayoutStatusProcessing: {
		models.PayoutStatusExecuted,
		models.PayoutStatusPending, // transient failure, retry
		models.PayoutStatusFailed,  // attempts exhausted or permanent rejection
	},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to string) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
