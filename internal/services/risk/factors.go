package risk

import "payguard/internal/models"

// Each sub-factor is a monotonic mapping from a raw signal onto its point
// ceiling. Higher is always safer.

// scoreTransactionHistory rewards processed order count and volume,
// plateauing at the ceiling.
func scoreTransactionHistory(count int, volume float64) int {
	score := 0
	switch {
	case count >= 1000:
		score = 15
	case count >= 250:
		score = 12
	case count >= 50:
		score = 8
	case count >= 10:
		score = 4
	}
	switch {
	case volume >= 500000:
		score += 10
	case volume >= 100000:
		score += 8
	case volume >= 10000:
		score += 5
	case volume >= 1000:
		score += 2
	}
	return capScore(score, models.CeilingTransactionHistory)
}

// scoreChargebackRate falls as the dispute rate rises. A clean record earns
// the full ceiling.
func scoreChargebackRate(rate float64) int {
	switch {
	case rate <= 0.001:
		return models.CeilingChargebackRate
	case rate <= 0.005:
		return 20
	case rate <= 0.01:
		return 15
	case rate <= 0.02:
		return 8
	case rate <= 0.05:
		return 3
	}
	return 0
}

// scoreAccountAge rises with age and plateaus at the ceiling after two years.
func scoreAccountAge(days int) int {
	switch {
	case days >= 730:
		return models.CeilingAccountAge
	case days >= 365:
		return 12
	case days >= 180:
		return 9
	case days >= 90:
		return 6
	case days >= 30:
		return 3
	}
	return 0
}

// scoreVerification maps the KYC tier onto its ceiling.
func scoreVerification(tier int) int {
	switch {
	case tier >= 3:
		return models.CeilingVerificationLevel
	case tier == 2:
		return 10
	case tier == 1:
		return 5
	}
	return 0
}

// scoreRecentActivity rewards a live trailing-30-day business. Dormant
// merchants score zero here, pulling them toward manual review.
func scoreRecentActivity(orders int, volume float64) int {
	score := 0
	switch {
	case orders >= 100:
		score = 12
	case orders >= 20:
		score = 9
	case orders >= 5:
		score = 5
	case orders >= 1:
		score = 2
	}
	if volume >= 10000 {
		score += 8
	} else if volume >= 1000 {
		score += 4
	}
	return capScore(score, models.CeilingRecentActivity)
}

func capScore(score, ceiling int) int {
	if score > ceiling {
		return ceiling
	}
	if score < 0 {
		return 0
	}
	return score
}
