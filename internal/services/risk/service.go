package risk

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"time"

	domainerrors "payguard/internal/errors"
	"payguard/internal/models"
	"payguard/internal/repositories"
	auditsvc "payguard/internal/services/audit"
	"payguard/internal/utils/pagination"
)

// Score a brand-new merchant starts with: PARTIAL automation with the
// conservative limit tier.
const newMerchantScore = 50

type service struct {
	repo    repositories.RiskScoreRepository
	cache   Cache
	signals SignalProvider
	auditor auditsvc.Recorder
	config  Config
}

// Cache is the subset of the cache service the scorer needs.
type Cache interface {
	GetRiskScore(ctx context.Context, merchantID uint) (*models.MerchantRiskScore, error)
	CacheRiskScore(ctx context.Context, score *models.MerchantRiskScore) error
	InvalidateRiskScore(ctx context.Context, merchantID uint) error
}

// NewService creates the risk scoring service.
func NewService(
	repo repositories.RiskScoreRepository,
	cache Cache,
	signals SignalProvider,
	auditor auditsvc.Recorder,
	config Config,
) Service {
	if repo == nil {
		panic("risk score repository is required")
	}
	if signals == nil {
		panic("signal provider is required")
	}
	if auditor == nil {
		panic("audit recorder is required")
	}
	if config.FullThreshold == 0 {
		config.FullThreshold = 75
	}
	if config.PartialThreshold == 0 {
		config.PartialThreshold = 50
	}
	if config.Limits == nil {
		config.Limits = DefaultLimits()
	}

	return &service{
		repo:    repo,
		cache:   cache,
		signals: signals,
		auditor: auditor,
		config:  config,
	}
}

// GetScore returns the current score for a merchant, creating the
// conservative default on first sight.
func (s *service) GetScore(ctx context.Context, merchantID uint) (*models.MerchantRiskScore, error) {
	if s.cache != nil {
		if score, err := s.cache.GetRiskScore(ctx, merchantID); err == nil && score != nil {
			return score, nil
		}
	}

	score, err := s.repo.GetByMerchantID(ctx, merchantID)
	if err != nil {
		if stderrors.Is(err, domainerrors.ErrRiskScoreNotFound) {
			return s.createDefault(ctx, merchantID)
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.CacheRiskScore(ctx, score); err != nil {
			log.Printf("failed to cache risk score for merchant %d: %v", merchantID, err)
		}
	}
	return score, nil
}

// Refresh recomputes a merchant's score from source signals. An
// unavailable signal source fails closed: the merchant drops to
// MANUAL_REVIEW rather than keeping a stale permissive level.
func (s *service) Refresh(ctx context.Context, merchantID uint, performedBy string) (*models.MerchantRiskScore, error) {
	score, err := s.GetScore(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	signals, sigErr := s.signals.Signals(ctx, merchantID)
	if sigErr != nil {
		log.Printf("risk signals unavailable for merchant %d, failing closed: %v", merchantID, sigErr)
		s.applyConservative(score)
	} else {
		s.applySignals(score, signals)
	}

	score.LastUpdated = time.Now().UTC()
	if err := s.repo.Update(ctx, score); err != nil {
		return nil, fmt.Errorf("failed to persist risk score: %w", err)
	}
	s.invalidate(ctx, merchantID)

	details := models.NewJSON(map[string]interface{}{
		"overall_score":    score.OverallScore,
		"automation_level": score.AutomationLevel,
	})
	if sigErr != nil {
		details["failed_closed"] = true
	}
	if err := s.auditor.Record(ctx, models.AuditEventRiskScoreUpdated, performedBy,
		models.AuditEntityRiskScore, fmt.Sprint(merchantID), details); err != nil {
		return nil, err
	}

	if sigErr != nil {
		return score, domainerrors.ErrRiskDataUnavailable
	}
	return score, nil
}

// RefreshAll sweeps every active merchant. Individual failures are logged
// and counted but do not abort the sweep.
func (s *service) RefreshAll(ctx context.Context, performedBy string) (int, error) {
	ids, err := s.repo.ListMerchantIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list merchants: %w", err)
	}

	refreshed := 0
	for _, id := range ids {
		if _, err := s.Refresh(ctx, id, performedBy); err != nil &&
			!stderrors.Is(err, domainerrors.ErrRiskDataUnavailable) {
			log.Printf("refresh failed for merchant %d: %v", id, err)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

func (s *service) Override(ctx context.Context, merchantID uint, input OverrideInput, performedBy string) (*models.MerchantRiskScore, error) {
	score, err := s.GetScore(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	if input.OverallScore != nil {
		score.OverallScore = capScore(*input.OverallScore, 100)
		s.redistributeFactors(score)
		score.AutomationLevel = s.levelFor(score.OverallScore)
		s.applyLimitTier(score)
	}
	if input.AutomationLevel != nil {
		score.AutomationLevel = *input.AutomationLevel
		s.applyLimitTier(score)
	}
	if input.DailyLimit != nil {
		score.DailyLimit = *input.DailyLimit
	}
	if input.WeeklyLimit != nil {
		score.WeeklyLimit = *input.WeeklyLimit
	}
	if input.MonthlyLimit != nil {
		score.MonthlyLimit = *input.MonthlyLimit
	}
	if input.SingleTransactionLimit != nil {
		score.SingleTransactionLimit = *input.SingleTransactionLimit
	}
	if input.RequiresApprovalAbove != nil {
		score.RequiresApprovalAbove = *input.RequiresApprovalAbove
	}
	if input.IsActive != nil {
		score.IsActive = *input.IsActive
	}

	score.LastUpdated = time.Now().UTC()
	if err := s.repo.Update(ctx, score); err != nil {
		return nil, fmt.Errorf("failed to persist risk score override: %w", err)
	}
	s.invalidate(ctx, merchantID)

	if err := s.auditor.Record(ctx, models.AuditEventRiskScoreOverride, performedBy,
		models.AuditEntityRiskScore, fmt.Sprint(merchantID), models.NewJSON(map[string]interface{}{
			"overall_score":    score.OverallScore,
			"automation_level": score.AutomationLevel,
			"reason":           input.Reason,
		})); err != nil {
		return nil, err
	}
	return score, nil
}

func (s *service) BulkOverride(ctx context.Context, input BulkOverrideInput, performedBy string) (int, error) {
	updated := 0
	for _, id := range input.MerchantIDs {
		if _, err := s.Override(ctx, id, input.Override, performedBy); err != nil {
			log.Printf("bulk override failed for merchant %d: %v", id, err)
			continue
		}
		updated++
	}
	return updated, nil
}

func (s *service) List(ctx context.Context, filter repositories.RiskScoreFilter, p *pagination.Pagination) ([]models.MerchantRiskScore, error) {
	return s.repo.List(ctx, filter, p)
}

func (s *service) Stats(ctx context.Context) (*repositories.RiskScoreStats, error) {
	return s.repo.Stats(ctx)
}

// Helpers

func (s *service) createDefault(ctx context.Context, merchantID uint) (*models.MerchantRiskScore, error) {
	score := &models.MerchantRiskScore{
		MerchantID:      merchantID,
		OverallScore:    newMerchantScore,
		AutomationLevel: models.AutomationLevelPartial,
		LastUpdated:     time.Now().UTC(),
		IsActive:        true,
	}
	s.redistributeFactors(score)
	s.applyLimitTier(score)

	if err := s.repo.Create(ctx, score); err != nil {
		return nil, fmt.Errorf("failed to create default risk score: %w", err)
	}
	if err := s.auditor.Record(ctx, models.AuditEventRiskScoreCreated, "system",
		models.AuditEntityRiskScore, fmt.Sprint(merchantID), models.NewJSON(map[string]interface{}{
			"overall_score":    score.OverallScore,
			"automation_level": score.AutomationLevel,
		})); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.CacheRiskScore(ctx, score); err != nil {
			log.Printf("failed to cache risk score for merchant %d: %v", merchantID, err)
		}
	}
	return score, nil
}

func (s *service) applySignals(score *models.MerchantRiskScore, signals *MerchantSignals) {
	score.TransactionHistoryScore = scoreTransactionHistory(signals.OrderCount, signals.OrderVolume)
	score.ChargebackRateScore = scoreChargebackRate(signals.DisputeRate)
	score.AccountAgeScore = scoreAccountAge(signals.AccountAgeDays)
	score.VerificationLevelScore = scoreVerification(signals.VerificationTier)
	score.RecentActivityScore = scoreRecentActivity(signals.RecentOrderCount, signals.RecentOrderVolume)
	score.OverallScore = score.SumFactors()
	score.AutomationLevel = s.levelFor(score.OverallScore)
	s.applyLimitTier(score)
}

// applyConservative drops the merchant to the most conservative level
// without inventing factor scores we could not observe.
func (s *service) applyConservative(score *models.MerchantRiskScore) {
	score.AutomationLevel = models.AutomationLevelManualReview
	s.applyLimitTier(score)
}

func (s *service) levelFor(overall int) string {
	switch {
	case overall >= s.config.FullThreshold:
		return models.AutomationLevelFull
	case overall >= s.config.PartialThreshold:
		return models.AutomationLevelPartial
	default:
		return models.AutomationLevelManualReview
	}
}

func (s *service) applyLimitTier(score *models.MerchantRiskScore) {
	tier, ok := s.config.Limits[score.AutomationLevel]
	if !ok {
		tier = s.config.Limits[models.AutomationLevelManualReview]
	}
	score.DailyLimit = tier.Daily
	score.WeeklyLimit = tier.Weekly
	score.MonthlyLimit = tier.Monthly
	score.SingleTransactionLimit = tier.SingleTransaction
	score.RequiresApprovalAbove = tier.ApprovalAbove
}

// redistributeFactors spreads an externally supplied overall score across
// the sub-factors proportionally to their ceilings, keeping both the sum
// invariant and every per-factor ceiling intact.
func (s *service) redistributeFactors(score *models.MerchantRiskScore) {
	overall := score.OverallScore
	factors := []struct {
		dest    *int
		ceiling int
	}{
		{&score.TransactionHistoryScore, models.CeilingTransactionHistory},
		{&score.ChargebackRateScore, models.CeilingChargebackRate},
		{&score.AccountAgeScore, models.CeilingAccountAge},
		{&score.VerificationLevelScore, models.CeilingVerificationLevel},
		{&score.RecentActivityScore, models.CeilingRecentActivity},
	}

	remaining := overall
	for _, f := range factors {
		*f.dest = overall * f.ceiling / 100
		remaining -= *f.dest
	}

	// Integer flooring leaves a few points unassigned. The ceilings sum
	// to 100 and overall is capped at 100, so there is always headroom
	// somewhere to absorb them.
	for remaining > 0 {
		for _, f := range factors {
			if remaining == 0 {
				break
			}
			if *f.dest < f.ceiling {
				*f.dest++
				remaining--
			}
		}
	}
}

func (s *service) invalidate(ctx context.Context, merchantID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateRiskScore(ctx, merchantID); err != nil {
		log.Printf("failed to invalidate risk score cache for merchant %d: %v", merchantID, err)
	}
}
