package repositories

import (
	"context"
	"time"

	"payguard/internal/models"
	"payguard/internal/utils/pagination"

	"gorm.io/gorm"
)

// AuditFilter narrows audit trail queries.
type AuditFilter struct {
	EventType   string
	PerformedBy string
	EntityType  string
	EntityID    string
	From        *time.Time
	To          *time.Time
}

// AuditRepository is append-only: entries are created and queried, never
// updated or deleted.
type AuditRepository interface {
	WithTx(tx *gorm.DB) AuditRepository
	Create(ctx context.Context, entry *models.AuditEntry) error
	Query(ctx context.Context, filter AuditFilter, p *pagination.Pagination) ([]models.AuditEntry, error)
	Export(ctx context.Context, filter AuditFilter) ([]models.AuditEntry, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) WithTx(tx *gorm.DB) AuditRepository {
	return &auditRepository{db: tx}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) applyFilter(ctx context.Context, filter AuditFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.AuditEntry{})

	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.PerformedBy != "" {
		query = query.Where("performed_by = ?", filter.PerformedBy)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	return query
}

func (r *auditRepository) Query(ctx context.Context, filter AuditFilter, p *pagination.Pagination) ([]models.AuditEntry, error) {
	query := r.applyFilter(ctx, filter)

	if err := query.Count(&p.Total).Error; err != nil {
		return nil, err
	}

	var entries []models.AuditEntry
	err := query.Order("created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&entries).Error
	return entries, err
}

// Export returns every matching entry in chronological order for
// compliance extracts.
func (r *auditRepository) Export(ctx context.Context, filter AuditFilter) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := r.applyFilter(ctx, filter).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}
