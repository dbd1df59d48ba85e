package repositories

import (
	"context"
	stderrors "errors"
	"fmt"

	domainerrors "payguard/internal/errors"
	"payguard/internal/models"
	"payguard/internal/utils/pagination"

	"gorm.io/gorm"
)

// RiskScoreFilter narrows risk score listings.
type RiskScoreFilter struct {
	AutomationLevel string
	MinScore        *int
	MaxScore        *int
	ActiveOnly      bool
}

// RiskScoreStats aggregates platform-wide scoring statistics for the admin
// tooling surface.
type RiskScoreStats struct {
	TotalMerchants int64            `json:"total_merchants"`
	AverageScore   float64          `json:"average_score"`
	ByLevel        map[string]int64 `json:"by_level"`
}

// RiskScoreRepository persists merchant risk scores. "Not found" is an
// explicit sentinel, not a raised-and-caught gorm error at call sites.
type RiskScoreRepository interface {
	GetByMerchantID(ctx context.Context, merchantID uint) (*models.MerchantRiskScore, error)
	Create(ctx context.Context, score *models.MerchantRiskScore) error
	Update(ctx context.Context, score *models.MerchantRiskScore) error
	List(ctx context.Context, filter RiskScoreFilter, p *pagination.Pagination) ([]models.MerchantRiskScore, error)
	ListMerchantIDs(ctx context.Context) ([]uint, error)
	Stats(ctx context.Context) (*RiskScoreStats, error)
}

type riskScoreRepository struct {
	db *gorm.DB
}

func NewRiskScoreRepository(db *gorm.DB) RiskScoreRepository {
	return &riskScoreRepository{db: db}
}

func (r *riskScoreRepository) GetByMerchantID(ctx context.Context, merchantID uint) (*models.MerchantRiskScore, error) {
	var score models.MerchantRiskScore
	err := r.db.WithContext(ctx).Where("merchant_id = ?", merchantID).First(&score).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrRiskScoreNotFound
		}
		return nil, fmt.Errorf("failed to get risk score: %w", err)
	}
	return &score, nil
}

func (r *riskScoreRepository) Create(ctx context.Context, score *models.MerchantRiskScore) error {
	return r.db.WithContext(ctx).Create(score).Error
}

func (r *riskScoreRepository) Update(ctx context.Context, score *models.MerchantRiskScore) error {
	return r.db.WithContext(ctx).Save(score).Error
}

func (r *riskScoreRepository) List(ctx context.Context, filter RiskScoreFilter, p *pagination.Pagination) ([]models.MerchantRiskScore, error) {
	query := r.db.WithContext(ctx).Model(&models.MerchantRiskScore{})

	if filter.AutomationLevel != "" {
		query = query.Where("automation_level = ?", filter.AutomationLevel)
	}
	if filter.MinScore != nil {
		query = query.Where("overall_score >= ?", *filter.MinScore)
	}
	if filter.MaxScore != nil {
		query = query.Where("overall_score <= ?", *filter.MaxScore)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&p.Total).Error; err != nil {
		return nil, err
	}

	var scores []models.MerchantRiskScore
	err := query.Order("overall_score DESC").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&scores).Error
	return scores, err
}

func (r *riskScoreRepository) ListMerchantIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.MerchantRiskScore{}).
		Where("is_active = ?", true).
		Pluck("merchant_id", &ids).Error
	return ids, err
}

func (r *riskScoreRepository) Stats(ctx context.Context) (*RiskScoreStats, error) {
	stats := &RiskScoreStats{ByLevel: make(map[string]int64)}

	err := r.db.WithContext(ctx).Model(&models.MerchantRiskScore{}).
		Where("is_active = ?", true).
		Select("COUNT(*) as total, COALESCE(AVG(overall_score), 0) as avg").
		Row().Scan(&stats.TotalMerchants, &stats.AverageScore)
	if err != nil {
		return nil, err
	}

	type levelCount struct {
		AutomationLevel string
		Count           int64
	}
	var counts []levelCount
	err = r.db.WithContext(ctx).Model(&models.MerchantRiskScore{}).
		Where("is_active = ?", true).
		Select("automation_level, COUNT(*) as count").
		Group("automation_level").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		stats.ByLevel[c.AutomationLevel] = c.Count
	}
	return stats, nil
}
