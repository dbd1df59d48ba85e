// Package audit records every decision and mutation in the engine's
// append-only trail. A record is durable before the state transition it
// describes is considered complete: callers inside a database transaction
// use WithTx so the entry commits or rolls back with the mutation.
package audit

import (
	"context"
	"time"

	"payguard/internal/models"
	"payguard/internal/repositories"
	"payguard/internal/utils/pagination"

	"gorm.io/gorm"
)

// Recorder is the write-side interface consumed by the other services.
type Recorder interface {
	Record(ctx context.Context, eventType, performedBy, entityType, entityID string, details models.JSON) error
	WithTx(tx *gorm.DB) Recorder
}

// Service adds the query side used by the compliance API.
type Service interface {
	Recorder
	Query(ctx context.Context, filter repositories.AuditFilter, p *pagination.Pagination) ([]models.AuditEntry, error)
	Export(ctx context.Context, filter repositories.AuditFilter) ([]models.AuditEntry, error)
}

type service struct {
	repo repositories.AuditRepository
}

func NewService(repo repositories.AuditRepository) Service {
	if repo == nil {
		panic("audit repository is required")
	}
	return &service{repo: repo}
}

func (s *service) Record(ctx context.Context, eventType, performedBy, entityType, entityID string, details models.JSON) error {
	entry := &models.AuditEntry{
		EventType:   eventType,
		PerformedBy: performedBy,
		EntityType:  entityType,
		EntityID:    entityID,
		Details:     details,
		CreatedAt:   time.Now().UTC(),
	}
	return s.repo.Create(ctx, entry)
}

// WithTx binds the recorder to an open transaction so the audit entry
// shares the caller's unit of work.
func (s *service) WithTx(tx *gorm.DB) Recorder {
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Query(ctx context.Context, filter repositories.AuditFilter, p *pagination.Pagination) ([]models.AuditEntry, error) {
	return s.repo.Query(ctx, filter, p)
}

func (s *service) Export(ctx context.Context, filter repositories.AuditFilter) ([]models.AuditEntry, error) {
	return s.repo.Export(ctx, filter)
}
