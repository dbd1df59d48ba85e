package models

import (
	"time"
)

// Automation levels derived from the overall risk score.
const (
	AutomationLevelFull         = "FULL"
	AutomationLevelPartial      = "PARTIAL"
	AutomationLevelManualReview = "MANUAL_REVIEW"
)

// Sub-factor point ceilings. They sum to 100 so the overall score is a
// 0-100 composite.
const (
	CeilingTransactionHistory = 25
	CeilingChargebackRate     = 25
	CeilingAccountAge         = 15
	CeilingVerificationLevel  = 15
	CeilingRecentActivity     = 20
)

// MerchantRiskScore holds the weighted risk composite for a merchant and the
// automation level and spending limits derived from it. Scores are never
// hard-deleted; IsActive is cleared instead.
type MerchantRiskScore struct {
	ID                      uint `gorm:"primarykey"`
	MerchantID              uint `gorm:"uniqueIndex;not null"`
	TransactionHistoryScore int  `gorm:"not null;default:0"`
	ChargebackRateScore     int  `gorm:"not null;default:0"`
	AccountAgeScore         int  `gorm:"not null;default:0"`
	VerificationLevelScore  int  `gorm:"not null;default:0"`
	RecentActivityScore     int  `gorm:"not null;default:0"`
	OverallScore            int  `gorm:"not null;default:0;index"`
	AutomationLevel         string `gorm:"not null;default:'MANUAL_REVIEW';index"`
	DailyLimit              float64
	WeeklyLimit             float64
	MonthlyLimit            float64
	SingleTransactionLimit  float64
	RequiresApprovalAbove   float64
	LastUpdated             time.Time
	IsActive                bool `gorm:"default:true"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// SumFactors returns the sum of the five sub-factor scores. The overall
// score must always equal this value.
func (s *MerchantRiskScore) SumFactors() int {
	return s.TransactionHistoryScore +
		s.ChargebackRateScore +
		s.AccountAgeScore +
		s.VerificationLevelScore +
		s.RecentActivityScore
}
