package halt

import (
	"context"
	"errors"
	"testing"

	"payguard/internal/models"
	auditsvc "payguard/internal/services/audit"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeStore struct {
	active bool
	reason string
	err    error
}

func (f *fakeStore) SetHalt(ctx context.Context, reason string) error {
	if f.err != nil {
		return f.err
	}
	f.active, f.reason = true, reason
	return nil
}

func (f *fakeStore) ClearHalt(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.active, f.reason = false, ""
	return nil
}

func (f *fakeStore) GetHalt(ctx context.Context) (bool, string, error) {
	if f.err != nil {
		return false, "", f.err
	}
	return f.active, f.reason, nil
}

type nopRecorder struct {
	events []string
}

func (r *nopRecorder) Record(ctx context.Context, eventType, performedBy, entityType, entityID string, details models.JSON) error {
	r.events = append(r.events, eventType)
	return nil
}

func (r *nopRecorder) WithTx(tx *gorm.DB) auditsvc.Recorder { return r }

func TestSwitch_HaltAndClear(t *testing.T) {
	store := &fakeStore{}
	recorder := &nopRecorder{}
	sw := NewSwitch(store, recorder)
	ctx := context.Background()

	assert.False(t, sw.Active(ctx))

	assert.NoError(t, sw.Halt(ctx, "compliance incident", "ops@example.com"))
	active, reason := sw.Status(ctx)
	assert.True(t, active)
	assert.Equal(t, "compliance incident", reason)

	assert.NoError(t, sw.Clear(ctx, "ops@example.com"))
	assert.False(t, sw.Active(ctx))

	assert.Equal(t, []string{models.AuditEventEmergencyHalt, models.AuditEventHaltCleared}, recorder.events)
}

func TestSwitch_FallsBackToLastKnownState(t *testing.T) {
	store := &fakeStore{}
	sw := NewSwitch(store, &nopRecorder{})
	ctx := context.Background()

	assert.NoError(t, sw.Halt(ctx, "incident", "ops@example.com"))
	assert.True(t, sw.Active(ctx))

	// Redis goes away: the switch stays halted on the last known state.
	store.err = errors.New("connection refused")
	active, reason := sw.Status(ctx)
	assert.True(t, active, "a halt must survive a flag-store outage")
	assert.Equal(t, "incident", reason)
}

func TestSwitch_StoreErrorBeforeAnyReadDefaultsToNotHalted(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	sw := NewSwitch(store, &nopRecorder{})

	assert.False(t, sw.Active(context.Background()))
}
