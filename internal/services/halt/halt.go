// Package halt owns the platform-wide emergency stop. The flag lives in
// Redis so every instance sees it; a local fallback keeps the last known
// state if Redis is briefly unreachable, biased toward halting.
package halt

import (
	"context"
	"log"
	"sync"

	"payguard/internal/models"
	auditsvc "payguard/internal/services/audit"
)

// Store is the cache-service subset the switch needs.
type Store interface {
	SetHalt(ctx context.Context, reason string) error
	ClearHalt(ctx context.Context) error
	GetHalt(ctx context.Context) (bool, string, error)
}

// Switch is checked at both admission and dispatch time.
type Switch interface {
	Halt(ctx context.Context, reason, performedBy string) error
	Clear(ctx context.Context, performedBy string) error
	Active(ctx context.Context) bool
	Status(ctx context.Context) (bool, string)
}

type service struct {
	store   Store
	auditor auditsvc.Recorder

	mu         sync.RWMutex
	lastKnown  bool
	lastReason string
}

func NewSwitch(store Store, auditor auditsvc.Recorder) Switch {
	if store == nil {
		panic("halt store is required")
	}
	if auditor == nil {
		panic("audit recorder is required")
	}
	return &service{store: store, auditor: auditor}
}

func (s *service) Halt(ctx context.Context, reason, performedBy string) error {
	if err := s.store.SetHalt(ctx, reason); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastKnown = true
	s.lastReason = reason
	s.mu.Unlock()

	return s.auditor.Record(ctx, models.AuditEventEmergencyHalt, performedBy,
		models.AuditEntityPlatform, "", models.NewJSON(map[string]interface{}{
			"reason": reason,
		}))
}

func (s *service) Clear(ctx context.Context, performedBy string) error {
	if err := s.store.ClearHalt(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastKnown = false
	s.lastReason = ""
	s.mu.Unlock()

	return s.auditor.Record(ctx, models.AuditEventHaltCleared, performedBy,
		models.AuditEntityPlatform, "", nil)
}

func (s *service) Active(ctx context.Context) bool {
	active, _ := s.Status(ctx)
	return active
}

func (s *service) Status(ctx context.Context) (bool, string) {
	active, reason, err := s.store.GetHalt(ctx)
	if err != nil {
		// Fall back to the last known state; if we were halted, stay
		// halted until Redis answers again.
		log.Printf("halt flag unreadable, using last known state: %v", err)
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.lastKnown, s.lastReason
	}

	s.mu.Lock()
	s.lastKnown = active
	s.lastReason = reason
	s.mu.Unlock()
	return active, reason
}
