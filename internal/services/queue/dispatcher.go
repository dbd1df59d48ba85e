// Package queue runs the dispatch workers that drain dispatchable payout
// requests into the treasury gateway.
package queue

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"payguard/internal/models"
	"payguard/internal/services/halt"
	"payguard/internal/services/payout"
	"payguard/internal/services/treasury"
)

var errMerchantBusy = errors.New("merchant has an attempt in flight in this process")

// Config tunes the dispatcher.
type Config struct {
	Workers        int
	PollInterval   time.Duration
	AttemptTimeout time.Duration
	Backoff        Backoff
}

func DefaultConfig() Config {
	return Config{
		Workers:        4,
		PollInterval:   2 * time.Second,
		AttemptTimeout: 30 * time.Second,
		Backoff:        DefaultBackoff(),
	}
}

// Dispatcher claims dispatchable requests and executes them against the
// gateway. Per-merchant exclusivity is enforced by the claim query; the
// in-process lease covers the window between a worker's state transition
// committing and the next claim observing it.
type Dispatcher struct {
	cfg     Config
	payouts payout.Service
	gateway treasury.Gateway
	halts   halt.Switch
	lease   *merchantLease

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewDispatcher(cfg Config, payouts payout.Service, gateway treasury.Gateway, halts halt.Switch) *Dispatcher {
	if payouts == nil {
		panic("payout service is required")
	}
	if gateway == nil {
		panic("treasury gateway is required")
	}
	if halts == nil {
		panic("halt switch is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultConfig().AttemptTimeout
	}
	if cfg.Backoff.Base == 0 {
		cfg.Backoff = DefaultBackoff()
	}

	return &Dispatcher{
		cfg:     cfg,
		payouts: payouts,
		gateway: gateway,
		halts:   halts,
		lease:   newMerchantLease(),
	}
}

// Start launches the worker pool. Workers run until Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
	log.Printf("dispatcher started with %d workers", d.cfg.Workers)
}

// Stop signals the workers and waits for in-flight attempts to finish.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	log.Println("dispatcher stopped")
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// The halt check happens before any claim so halted requests
		// never transition to PROCESSING and never consume an attempt.
		if d.halts.Active(ctx) {
			continue
		}

		// Drain until the queue is empty, then fall back to polling.
		for {
			if ctx.Err() != nil || d.halts.Active(ctx) {
				break
			}
			claimed, err := d.dispatchOne(ctx)
			if err != nil {
				log.Printf("worker %d: dispatch error: %v", id, err)
				break
			}
			if !claimed {
				break
			}
		}
	}
}

// dispatchOne claims and executes a single request. It reports whether a
// request was claimed so the caller knows when the queue is drained.
func (d *Dispatcher) dispatchOne(ctx context.Context) (bool, error) {
	req, err := d.payouts.ClaimNext(ctx)
	if err != nil {
		return false, err
	}
	if req == nil {
		return false, nil
	}

	if !d.lease.Acquire(req.MerchantID) {
		// Another worker in this process is mid-transition for the same
		// merchant. Give the attempt back and let the next poll retry.
		return true, d.payouts.HoldForHalt(ctx, req, errMerchantBusy)
	}
	defer d.lease.Release(req.MerchantID)

	d.execute(ctx, req)
	return true, nil
}

func (d *Dispatcher) execute(ctx context.Context, req *models.AutomatedPayoutRequest) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.AttemptTimeout)
	defer cancel()

	receipt, err := d.gateway.Execute(attemptCtx, treasury.TransferInstruction{
		MerchantID:         req.MerchantID,
		Amount:             req.Amount,
		Currency:           req.Currency,
		DestinationWallet:  req.DestinationWallet,
		DestinationNetwork: req.DestinationNetwork,
		IdempotencyKey:     req.IdempotencyKey,
	})

	// State transitions below use the background context: an attempt
	// outcome must be recorded even if the worker is shutting down.
	recordCtx := context.Background()

	switch {
	case err == nil:
		if recordErr := d.payouts.CompleteExecution(recordCtx, req, receipt); recordErr != nil {
			log.Printf("failed to record execution of request %s: %v", req.ID, recordErr)
		}
	case treasury.IsHalted(err):
		log.Printf("treasury halted, holding request %s: %v", req.ID, err)
		if recordErr := d.payouts.HoldForHalt(recordCtx, req, err); recordErr != nil {
			log.Printf("failed to hold request %s: %v", req.ID, recordErr)
		}
	default:
		nextAttemptAt := d.cfg.Backoff.NextAttemptAt(time.Now().UTC(), req.ProcessingAttempts)
		if recordErr := d.payouts.FailAttempt(recordCtx, req, err, nextAttemptAt); recordErr != nil {
			log.Printf("failed to record attempt failure for request %s: %v", req.ID, recordErr)
		}
	}
}
