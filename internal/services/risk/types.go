package risk

import (
	"context"

	"payguard/internal/models"
	"payguard/internal/repositories"
	"payguard/internal/utils/pagination"
)

// MerchantSignals are the raw inputs to risk scoring, supplied by the
// merchant/order history provider.
type MerchantSignals struct {
	OrderCount        int
	OrderVolume       float64
	DisputeRate       float64 // disputes / orders, 0..1
	AccountAgeDays    int
	VerificationTier  int // 0 unverified .. 3 enhanced
	RecentOrderCount  int // trailing 30 days
	RecentOrderVolume float64
}

// SignalProvider supplies raw scoring signals. An error from the provider
// fails closed: the merchant is scored at the most conservative level.
type SignalProvider interface {
	Signals(ctx context.Context, merchantID uint) (*MerchantSignals, error)
}

// Config holds automation thresholds and the limit schedule per level.
type Config struct {
	FullThreshold    int
	PartialThreshold int
	Limits           map[string]LimitTier
}

// LimitTier is the spending limit schedule attached to an automation level.
type LimitTier struct {
	Daily             float64
	Weekly            float64
	Monthly           float64
	SingleTransaction float64
	ApprovalAbove     float64
}

// DefaultLimits returns the limit schedule used when none is configured.
// Limits are monotonic with automation level.
func DefaultLimits() map[string]LimitTier {
	return map[string]LimitTier{
		models.AutomationLevelFull: {
			Daily:             50000,
			Weekly:            200000,
			Monthly:           500000,
			SingleTransaction: 10000,
			ApprovalAbove:     25000,
		},
		models.AutomationLevelPartial: {
			Daily:             10000,
			Weekly:            40000,
			Monthly:           100000,
			SingleTransaction: 2500,
			ApprovalAbove:     5000,
		},
		models.AutomationLevelManualReview: {
			Daily:             1000,
			Weekly:            4000,
			Monthly:           10000,
			SingleTransaction: 500,
			ApprovalAbove:     0,
		},
	}
}

// OverrideInput is a manual risk score adjustment from the admin surface.
// Nil fields are left untouched.
type OverrideInput struct {
	OverallScore           *int     `json:"overall_score"`
	AutomationLevel        *string  `json:"automation_level"`
	DailyLimit             *float64 `json:"daily_limit"`
	WeeklyLimit            *float64 `json:"weekly_limit"`
	MonthlyLimit           *float64 `json:"monthly_limit"`
	SingleTransactionLimit *float64 `json:"single_transaction_limit"`
	RequiresApprovalAbove  *float64 `json:"requires_approval_above"`
	IsActive               *bool    `json:"is_active"`
	Reason                 string   `json:"reason"`
}

// BulkOverrideInput applies one override to many merchants.
type BulkOverrideInput struct {
	MerchantIDs []uint        `json:"merchant_ids"`
	Override    OverrideInput `json:"override"`
}

// Service maintains merchant risk scores and their derived automation
// levels and limits.
type Service interface {
	GetScore(ctx context.Context, merchantID uint) (*models.MerchantRiskScore, error)
	Refresh(ctx context.Context, merchantID uint, performedBy string) (*models.MerchantRiskScore, error)
	RefreshAll(ctx context.Context, performedBy string) (int, error)
	Override(ctx context.Context, merchantID uint, input OverrideInput, performedBy string) (*models.MerchantRiskScore, error)
	BulkOverride(ctx context.Context, input BulkOverrideInput, performedBy string) (int, error)
	List(ctx context.Context, filter repositories.RiskScoreFilter, p *pagination.Pagination) ([]models.MerchantRiskScore, error)
	Stats(ctx context.Context) (*repositories.RiskScoreStats, error)
}
