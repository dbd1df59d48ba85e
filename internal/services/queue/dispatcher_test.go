package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"payguard/internal/models"
	"payguard/internal/repositories"
	"payguard/internal/services/payout"
	"payguard/internal/services/treasury"
	"payguard/internal/utils/pagination"

	"github.com/stretchr/testify/assert"
)

// fakePayoutService records the lifecycle calls the dispatcher makes.
type fakePayoutService struct {
	mu        sync.Mutex
	queue     []*models.AutomatedPayoutRequest
	claims    int
	completed []*models.AutomatedPayoutRequest
	failed    []error
	held      []error
}

func (f *fakePayoutService) ClaimNext(ctx context.Context) (*models.AutomatedPayoutRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims++
	if len(f.queue) == 0 {
		return nil, nil
	}
	req := f.queue[0]
	f.queue = f.queue[1:]
	return req, nil
}

func (f *fakePayoutService) CompleteExecution(ctx context.Context, req *models.AutomatedPayoutRequest, receipt *treasury.TransferReceipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, req)
	return nil
}

func (f *fakePayoutService) FailAttempt(ctx context.Context, req *models.AutomatedPayoutRequest, cause error, nextAttemptAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, cause)
	return nil
}

func (f *fakePayoutService) HoldForHalt(ctx context.Context, req *models.AutomatedPayoutRequest, cause error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held = append(f.held, cause)
	return nil
}

func (f *fakePayoutService) Admit(ctx context.Context, input payout.CandidateInput, performedBy string) (*models.AutomatedPayoutRequest, error) {
	return nil, nil
}
func (f *fakePayoutService) Get(ctx context.Context, id string) (*models.AutomatedPayoutRequest, error) {
	return nil, nil
}
func (f *fakePayoutService) List(ctx context.Context, filter repositories.PayoutRequestFilter, p *pagination.Pagination) ([]models.AutomatedPayoutRequest, error) {
	return nil, nil
}
func (f *fakePayoutService) Stats(ctx context.Context) (*repositories.PayoutStats, error) {
	return nil, nil
}
func (f *fakePayoutService) QueueStatus(ctx context.Context) (*repositories.QueueStatus, error) {
	return nil, nil
}
func (f *fakePayoutService) Override(ctx context.Context, id string, input payout.OverrideInput, performedBy string) (*models.AutomatedPayoutRequest, error) {
	return nil, nil
}
func (f *fakePayoutService) Cancel(ctx context.Context, id, reason, performedBy string) (*models.AutomatedPayoutRequest, error) {
	return nil, nil
}
func (f *fakePayoutService) Reprocess(ctx context.Context, id, performedBy string) (*models.AutomatedPayoutRequest, error) {
	return nil, nil
}

type stubGateway struct {
	err error
}

func (g *stubGateway) Execute(ctx context.Context, instruction treasury.TransferInstruction) (*treasury.TransferReceipt, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &treasury.TransferReceipt{TreasuryTransactionID: "tt", TransactionHash: "0x1"}, nil
}

type stubHalt struct {
	mu     sync.Mutex
	active bool
}

func (h *stubHalt) Halt(ctx context.Context, reason, performedBy string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = true
	return nil
}
func (h *stubHalt) Clear(ctx context.Context, performedBy string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = false
	return nil
}
func (h *stubHalt) Active(ctx context.Context) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}
func (h *stubHalt) Status(ctx context.Context) (bool, string) { return h.Active(ctx), "" }

func pendingRequest(id string) *models.AutomatedPayoutRequest {
	return &models.AutomatedPayoutRequest{
		ID:                 id,
		MerchantID:         1,
		Amount:             100,
		Currency:           "USDC",
		Status:             models.PayoutStatusProcessing,
		AutomationDecision: models.DecisionAutoApprove,
		ProcessingAttempts: 1,
		MaxAttempts:        3,
		IdempotencyKey:     "idem-" + id,
	}
}

func newTestDispatcher(svc *fakePayoutService, gw treasury.Gateway, halts *stubHalt) *Dispatcher {
	return NewDispatcher(Config{
		Workers:        1,
		PollInterval:   5 * time.Millisecond,
		AttemptTimeout: time.Second,
		Backoff:        DefaultBackoff(),
	}, svc, gw, halts)
}

func TestDispatcher_ExecutesClaimedRequest(t *testing.T) {
	svc := &fakePayoutService{queue: []*models.AutomatedPayoutRequest{pendingRequest("a")}}
	d := newTestDispatcher(svc, &stubGateway{}, &stubHalt{})

	claimed, err := d.dispatchOne(context.Background())

	assert.NoError(t, err)
	assert.True(t, claimed)
	assert.Len(t, svc.completed, 1)
	assert.Empty(t, svc.failed)
}

func TestDispatcher_EmptyQueue(t *testing.T) {
	svc := &fakePayoutService{}
	d := newTestDispatcher(svc, &stubGateway{}, &stubHalt{})

	claimed, err := d.dispatchOne(context.Background())

	assert.NoError(t, err)
	assert.False(t, claimed)
}

func TestDispatcher_TransientFailureRecordsAttempt(t *testing.T) {
	svc := &fakePayoutService{queue: []*models.AutomatedPayoutRequest{pendingRequest("a")}}
	gw := &stubGateway{err: &treasury.TransientError{Reason: "timeout"}}
	d := newTestDispatcher(svc, gw, &stubHalt{})

	_, err := d.dispatchOne(context.Background())

	assert.NoError(t, err)
	assert.Len(t, svc.failed, 1)
	assert.True(t, treasury.IsTransient(svc.failed[0]))
	assert.Empty(t, svc.completed)
}

func TestDispatcher_GatewayHaltHoldsRequest(t *testing.T) {
	svc := &fakePayoutService{queue: []*models.AutomatedPayoutRequest{pendingRequest("a")}}
	gw := &stubGateway{err: &treasury.HaltedError{Reason: "treasury halted"}}
	d := newTestDispatcher(svc, gw, &stubHalt{})

	_, err := d.dispatchOne(context.Background())

	assert.NoError(t, err)
	assert.Len(t, svc.held, 1, "a halt holds the request instead of failing it")
	assert.Empty(t, svc.failed)
	assert.Empty(t, svc.completed)
}

// While the platform halt is active no worker claims anything, so no
// PENDING request can move to PROCESSING or burn an attempt.
func TestDispatcher_PlatformHaltStopsClaims(t *testing.T) {
	svc := &fakePayoutService{queue: []*models.AutomatedPayoutRequest{pendingRequest("a")}}
	halts := &stubHalt{active: true}
	d := newTestDispatcher(svc, &stubGateway{}, halts)

	d.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	d.Stop()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Zero(t, svc.claims, "halted dispatcher must not claim")
	assert.Len(t, svc.queue, 1, "request stays queued")
}

func TestDispatcher_ResumesAfterHaltCleared(t *testing.T) {
	svc := &fakePayoutService{queue: []*models.AutomatedPayoutRequest{pendingRequest("a")}}
	halts := &stubHalt{active: true}
	d := newTestDispatcher(svc, &stubGateway{}, halts)

	d.Start(context.Background())
	time.Sleep(25 * time.Millisecond)
	halts.Clear(context.Background(), "ops@example.com")
	time.Sleep(50 * time.Millisecond)
	d.Stop()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Len(t, svc.completed, 1, "dispatch resumes once the halt clears")
}
