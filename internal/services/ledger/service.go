// Package ledger accounts for rolling per-merchant payout consumption
// across calendar-aligned daily, weekly and monthly windows. Consumption
// sums EXECUTED and in-flight amounts so concurrent admissions cannot
// double-spend a window.
package ledger

import (
	"context"
	"fmt"
	"time"

	domainerrors "payguard/internal/errors"
	"payguard/internal/models"
	"payguard/internal/services/decision"
)

// ConsumptionStore is the slice of the payout request repository the
// ledger reads. Binding it to an open transaction makes a reservation
// atomic with request creation.
type ConsumptionStore interface {
	ConsumedInWindow(ctx context.Context, merchantID uint, from, to time.Time) (float64, error)
}

// Service exposes window snapshots and admission-time reservation checks.
type Service interface {
	Snapshot(ctx context.Context, merchantID uint, now time.Time) (decision.LedgerView, error)
	Reserve(ctx context.Context, merchantID uint, amount float64, score *models.MerchantRiskScore, now time.Time) error
}

type service struct {
	store ConsumptionStore
}

func NewService(store ConsumptionStore) Service {
	if store == nil {
		panic("consumption store is required")
	}
	return &service{store: store}
}

// WithStore returns a ledger bound to a different store, typically one
// scoped to an open transaction.
func WithStore(store ConsumptionStore) Service {
	return NewService(store)
}

// Snapshot reads current consumption across all three windows.
func (s *service) Snapshot(ctx context.Context, merchantID uint, now time.Time) (decision.LedgerView, error) {
	var view decision.LedgerView

	for _, w := range []struct {
		window Window
		dest   *float64
	}{
		{WindowDay, &view.DailyConsumed},
		{WindowWeek, &view.WeeklyConsumed},
		{WindowMonth, &view.MonthlyConsumed},
	} {
		from, to := w.window.Bounds(now)
		consumed, err := s.store.ConsumedInWindow(ctx, merchantID, from, to)
		if err != nil {
			return view, fmt.Errorf("failed to read %s window: %w", w.window, err)
		}
		*w.dest = consumed
	}
	return view, nil
}

// Reserve verifies that admitting amount keeps every window under the
// limit active right now. The caller holds the admission transaction, so
// the subsequent request insert makes the reservation visible to
// concurrent admissions.
func (s *service) Reserve(ctx context.Context, merchantID uint, amount float64, score *models.MerchantRiskScore, now time.Time) error {
	checks := []struct {
		window Window
		limit  float64
	}{
		{WindowDay, score.DailyLimit},
		{WindowWeek, score.WeeklyLimit},
		{WindowMonth, score.MonthlyLimit},
	}

	for _, check := range checks {
		if check.limit <= 0 {
			continue
		}
		from, to := check.window.Bounds(now)
		consumed, err := s.store.ConsumedInWindow(ctx, merchantID, from, to)
		if err != nil {
			return fmt.Errorf("failed to read %s window: %w", check.window, err)
		}
		if consumed+amount > check.limit {
			return domainerrors.ErrLimitExceeded.WithDetail(
				"%s window: %.2f consumed + %.2f requested > %.2f limit",
				check.window, consumed, amount, check.limit)
		}
	}
	return nil
}
