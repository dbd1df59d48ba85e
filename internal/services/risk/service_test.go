package risk

import (
	"context"
	"errors"
	"testing"

	domainerrors "payguard/internal/errors"
	"payguard/internal/models"
	"payguard/internal/repositories"
	auditsvc "payguard/internal/services/audit"
	"payguard/internal/utils/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type MockRiskScoreRepo struct {
	mock.Mock
}

func (m *MockRiskScoreRepo) GetByMerchantID(ctx context.Context, merchantID uint) (*models.MerchantRiskScore, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MerchantRiskScore), args.Error(1)
}

func (m *MockRiskScoreRepo) Create(ctx context.Context, score *models.MerchantRiskScore) error {
	return m.Called(ctx, score).Error(0)
}

func (m *MockRiskScoreRepo) Update(ctx context.Context, score *models.MerchantRiskScore) error {
	return m.Called(ctx, score).Error(0)
}

func (m *MockRiskScoreRepo) List(ctx context.Context, filter repositories.RiskScoreFilter, p *pagination.Pagination) ([]models.MerchantRiskScore, error) {
	args := m.Called(ctx, filter, p)
	return args.Get(0).([]models.MerchantRiskScore), args.Error(1)
}

func (m *MockRiskScoreRepo) ListMerchantIDs(ctx context.Context) ([]uint, error) {
	args := m.Called(ctx)
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockRiskScoreRepo) Stats(ctx context.Context) (*repositories.RiskScoreStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(*repositories.RiskScoreStats), args.Error(1)
}

type MockSignalProvider struct {
	mock.Mock
}

func (m *MockSignalProvider) Signals(ctx context.Context, merchantID uint) (*MerchantSignals, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MerchantSignals), args.Error(1)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, eventType, performedBy, entityType, entityID string, details models.JSON) error {
	return m.Called(ctx, eventType, performedBy, entityType, entityID, details).Error(0)
}

func (m *MockRecorder) WithTx(tx *gorm.DB) auditsvc.Recorder {
	return m
}

func newTestService(repo *MockRiskScoreRepo, signals *MockSignalProvider, auditor *MockRecorder) Service {
	return NewService(repo, nil, signals, auditor, Config{
		FullThreshold:    75,
		PartialThreshold: 50,
	})
}

func TestService_GetScore_CreatesDefaultOnFirstSight(t *testing.T) {
	repo := new(MockRiskScoreRepo)
	signals := new(MockSignalProvider)
	auditor := new(MockRecorder)
	svc := newTestService(repo, signals, auditor)

	repo.On("GetByMerchantID", mock.Anything, uint(42)).Return(nil, domainerrors.ErrRiskScoreNotFound)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	auditor.On("Record", mock.Anything, models.AuditEventRiskScoreCreated, "system",
		models.AuditEntityRiskScore, "42", mock.Anything).Return(nil)

	score, err := svc.GetScore(context.Background(), 42)

	assert.NoError(t, err)
	assert.Equal(t, newMerchantScore, score.OverallScore)
	assert.Equal(t, models.AutomationLevelPartial, score.AutomationLevel)
	assert.True(t, score.IsActive)
	assert.Equal(t, score.OverallScore, score.SumFactors(), "factor sum invariant")
	assert.Equal(t, DefaultLimits()[models.AutomationLevelPartial].Daily, score.DailyLimit)
	repo.AssertExpectations(t)
	auditor.AssertExpectations(t)
}

func TestService_Refresh_FailsClosedWhenSignalsUnavailable(t *testing.T) {
	repo := new(MockRiskScoreRepo)
	signals := new(MockSignalProvider)
	auditor := new(MockRecorder)
	svc := newTestService(repo, signals, auditor)

	existing := &models.MerchantRiskScore{
		MerchantID:      7,
		OverallScore:    85,
		AutomationLevel: models.AutomationLevelFull,
		DailyLimit:      50000,
		IsActive:        true,
	}
	repo.On("GetByMerchantID", mock.Anything, uint(7)).Return(existing, nil)
	signals.On("Signals", mock.Anything, uint(7)).Return(nil, errors.New("connection refused"))
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	auditor.On("Record", mock.Anything, models.AuditEventRiskScoreUpdated, "ops@example.com",
		models.AuditEntityRiskScore, "7", mock.Anything).Return(nil)

	score, err := svc.Refresh(context.Background(), 7, "ops@example.com")

	assert.ErrorIs(t, err, domainerrors.ErrRiskDataUnavailable)
	assert.NotNil(t, score, "degraded score is still returned")
	assert.Equal(t, models.AutomationLevelManualReview, score.AutomationLevel)
	assert.Equal(t, DefaultLimits()[models.AutomationLevelManualReview].Daily, score.DailyLimit)
	repo.AssertExpectations(t)
}

func TestService_Refresh_AppliesSignals(t *testing.T) {
	repo := new(MockRiskScoreRepo)
	signals := new(MockSignalProvider)
	auditor := new(MockRecorder)
	svc := newTestService(repo, signals, auditor)

	existing := &models.MerchantRiskScore{
		MerchantID:      8,
		OverallScore:    50,
		AutomationLevel: models.AutomationLevelPartial,
		IsActive:        true,
	}
	repo.On("GetByMerchantID", mock.Anything, uint(8)).Return(existing, nil)
	signals.On("Signals", mock.Anything, uint(8)).Return(&MerchantSignals{
		OrderCount:        2000,
		OrderVolume:       600000,
		DisputeRate:       0.0005,
		AccountAgeDays:    800,
		VerificationTier:  3,
		RecentOrderCount:  150,
		RecentOrderVolume: 20000,
	}, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	auditor.On("Record", mock.Anything, models.AuditEventRiskScoreUpdated, "ops@example.com",
		models.AuditEntityRiskScore, "8", mock.Anything).Return(nil)

	score, err := svc.Refresh(context.Background(), 8, "ops@example.com")

	assert.NoError(t, err)
	assert.Equal(t, 100, score.OverallScore, "perfect signals hit every ceiling")
	assert.Equal(t, models.AutomationLevelFull, score.AutomationLevel)
	assert.Equal(t, score.OverallScore, score.SumFactors())
	assert.Equal(t, DefaultLimits()[models.AutomationLevelFull].SingleTransaction, score.SingleTransactionLimit)
}

func TestService_Override_RecomputesLevelAndTier(t *testing.T) {
	repo := new(MockRiskScoreRepo)
	signals := new(MockSignalProvider)
	auditor := new(MockRecorder)
	svc := newTestService(repo, signals, auditor)

	existing := &models.MerchantRiskScore{
		MerchantID:      9,
		OverallScore:    85,
		AutomationLevel: models.AutomationLevelFull,
		IsActive:        true,
	}
	repo.On("GetByMerchantID", mock.Anything, uint(9)).Return(existing, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	auditor.On("Record", mock.Anything, models.AuditEventRiskScoreOverride, "ops@example.com",
		models.AuditEntityRiskScore, "9", mock.Anything).Return(nil)

	newScore := 30
	score, err := svc.Override(context.Background(), 9, OverrideInput{
		OverallScore: &newScore,
		Reason:       "chargeback spike under investigation",
	}, "ops@example.com")

	assert.NoError(t, err)
	assert.Equal(t, 30, score.OverallScore)
	assert.Equal(t, models.AutomationLevelManualReview, score.AutomationLevel)
	assert.Equal(t, score.OverallScore, score.SumFactors(), "redistribution keeps the sum invariant")
	assert.Equal(t, DefaultLimits()[models.AutomationLevelManualReview].Daily, score.DailyLimit)
}

func TestService_Override_RedistributionRespectsFactorCeilings(t *testing.T) {
	repo := new(MockRiskScoreRepo)
	signals := new(MockSignalProvider)
	auditor := new(MockRecorder)
	svc := newTestService(repo, signals, auditor)

	existing := &models.MerchantRiskScore{MerchantID: 11, OverallScore: 50, AutomationLevel: models.AutomationLevelPartial, IsActive: true}
	repo.On("GetByMerchantID", mock.Anything, uint(11)).Return(existing, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	auditor.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// Overall scores whose proportional split floors leave a large
	// remainder; none may push a factor past its ceiling.
	for _, overall := range []int{99, 97, 93, 51, 1} {
		target := overall
		score, err := svc.Override(context.Background(), 11, OverrideInput{OverallScore: &target, Reason: "test"}, "ops@example.com")

		assert.NoError(t, err)
		assert.Equal(t, overall, score.SumFactors(), "sum invariant for overall=%d", overall)
		assert.LessOrEqual(t, score.TransactionHistoryScore, models.CeilingTransactionHistory)
		assert.LessOrEqual(t, score.ChargebackRateScore, models.CeilingChargebackRate)
		assert.LessOrEqual(t, score.AccountAgeScore, models.CeilingAccountAge)
		assert.LessOrEqual(t, score.VerificationLevelScore, models.CeilingVerificationLevel)
		assert.LessOrEqual(t, score.RecentActivityScore, models.CeilingRecentActivity, "overall=%d", overall)
		assert.GreaterOrEqual(t, score.TransactionHistoryScore, 0)
		assert.GreaterOrEqual(t, score.RecentActivityScore, 0)
	}
}

func TestService_Override_CapsScoreAtHundred(t *testing.T) {
	repo := new(MockRiskScoreRepo)
	signals := new(MockSignalProvider)
	auditor := new(MockRecorder)
	svc := newTestService(repo, signals, auditor)

	existing := &models.MerchantRiskScore{MerchantID: 10, OverallScore: 50, AutomationLevel: models.AutomationLevelPartial, IsActive: true}
	repo.On("GetByMerchantID", mock.Anything, uint(10)).Return(existing, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	auditor.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	over := 140
	score, err := svc.Override(context.Background(), 10, OverrideInput{OverallScore: &over, Reason: "test"}, "ops@example.com")

	assert.NoError(t, err)
	assert.Equal(t, 100, score.OverallScore)
	assert.Equal(t, models.AutomationLevelFull, score.AutomationLevel)
}
