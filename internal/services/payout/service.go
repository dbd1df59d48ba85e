// Package payout owns the request lifecycle: admission through the
// decision engine, the state machine, manual overrides and the accounting
// the queue workers report back into.
package payout

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	domainerrors "payguard/internal/errors"
	"payguard/internal/models"
	"payguard/internal/repositories"
	auditsvc "payguard/internal/services/audit"
	"payguard/internal/services/decision"
	"payguard/internal/services/halt"
	"payguard/internal/services/ledger"
	"payguard/internal/services/risk"
	"payguard/internal/services/treasury"
	"payguard/internal/utils/pagination"
	"payguard/internal/validation"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Service is the payout engine's front door.
type Service interface {
	Admit(ctx context.Context, input CandidateInput, performedBy string) (*models.AutomatedPayoutRequest, error)
	Get(ctx context.Context, id string) (*models.AutomatedPayoutRequest, error)
	List(ctx context.Context, filter repositories.PayoutRequestFilter, p *pagination.Pagination) ([]models.AutomatedPayoutRequest, error)
	Stats(ctx context.Context) (*repositories.PayoutStats, error)
	QueueStatus(ctx context.Context) (*repositories.QueueStatus, error)
	Override(ctx context.Context, id string, input OverrideInput, performedBy string) (*models.AutomatedPayoutRequest, error)
	Cancel(ctx context.Context, id, reason, performedBy string) (*models.AutomatedPayoutRequest, error)
	Reprocess(ctx context.Context, id, performedBy string) (*models.AutomatedPayoutRequest, error)

	// Queue-facing lifecycle operations.
	ClaimNext(ctx context.Context) (*models.AutomatedPayoutRequest, error)
	CompleteExecution(ctx context.Context, req *models.AutomatedPayoutRequest, receipt *treasury.TransferReceipt) error
	FailAttempt(ctx context.Context, req *models.AutomatedPayoutRequest, cause error, nextAttemptAt time.Time) error
	HoldForHalt(ctx context.Context, req *models.AutomatedPayoutRequest, cause error) error
}

// Transactor runs a function inside a database transaction. *gorm.DB
// satisfies it.
type Transactor interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

type service struct {
	db          Transactor
	repo        repositories.PayoutRequestRepository
	riskService risk.Service
	engine      *decision.Engine
	auditor     auditsvc.Recorder
	haltSwitch  halt.Switch
	maxAttempts int
}

// Config wires the payout service dependencies.
type Config struct {
	DB          Transactor
	Repo        repositories.PayoutRequestRepository
	RiskService risk.Service
	Engine      *decision.Engine
	Auditor     auditsvc.Recorder
	HaltSwitch  halt.Switch
	MaxAttempts int
}

func NewService(cfg Config) Service {
	if cfg.DB == nil {
		panic("db is required")
	}
	if cfg.Repo == nil {
		panic("payout request repository is required")
	}
	if cfg.RiskService == nil {
		panic("risk service is required")
	}
	if cfg.Engine == nil {
		panic("decision engine is required")
	}
	if cfg.Auditor == nil {
		panic("audit recorder is required")
	}
	if cfg.HaltSwitch == nil {
		panic("halt switch is required")
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}

	return &service{
		db:          cfg.DB,
		repo:        cfg.Repo,
		riskService: cfg.RiskService,
		engine:      cfg.Engine,
		auditor:     cfg.Auditor,
		haltSwitch:  cfg.HaltSwitch,
		maxAttempts: cfg.MaxAttempts,
	}
}

// Admit validates a candidate, snapshots the merchant's risk score,
// classifies the payout and persists the resulting request. Ledger
// reservation, request creation and the audit entry share one database
// transaction.
func (s *service) Admit(ctx context.Context, input CandidateInput, performedBy string) (*models.AutomatedPayoutRequest, error) {
	if err := validation.ValidateCandidate(validation.Candidate{
		MerchantID:         input.MerchantID,
		Amount:             input.Amount,
		Currency:           input.Currency,
		DestinationWallet:  input.DestinationWallet,
		DestinationNetwork: input.DestinationNetwork,
		ScheduleType:       input.ScheduleType,
		Priority:           input.Priority,
	}); err != nil {
		return nil, err
	}

	// Idempotent admission: a candidate resubmitted with the same
	// source reference returns the existing request, even during a halt.
	if input.OriginalRequestID != "" {
		existing, err := s.repo.GetByOriginalRequestID(ctx, input.OriginalRequestID)
		if err == nil {
			return existing, nil
		}
		if !stderrors.Is(err, domainerrors.ErrRequestNotFound) {
			return nil, err
		}
	}

	if s.haltSwitch.Active(ctx) {
		return nil, domainerrors.ErrEmergencyHalt
	}

	score, err := s.riskService.GetScore(ctx, input.MerchantID)
	if err != nil {
		return nil, err
	}

	scheduleType := input.ScheduleType
	if scheduleType == "" {
		scheduleType = models.ScheduleTypeRealTime
	}

	req := &models.AutomatedPayoutRequest{
		ID:                  uuid.NewString(),
		MerchantID:          input.MerchantID,
		Amount:              input.Amount,
		Currency:            input.Currency,
		DestinationWallet:   input.DestinationWallet,
		DestinationNetwork:  input.DestinationNetwork,
		ScheduleType:        scheduleType,
		ScheduledFor:        input.ScheduledFor,
		Priority:            input.Priority,
		Status:              models.PayoutStatusPending,
		RiskScoreAtDecision: score.OverallScore,
		MaxAttempts:         s.maxAttempts,
		IdempotencyKey:      uuid.NewString(),
		OriginalRequestID:   input.OriginalRequestID,
		Metadata:            models.NewJSON(input.Metadata),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txLedger := ledger.WithStore(txRepo)
		txAuditor := s.auditor.WithTx(tx)

		// Serialize admissions per merchant for the rest of the
		// transaction. Without the lock two concurrent admissions would
		// each sum window consumption before either insert commits, and
		// both could reserve the same headroom.
		if err := txRepo.LockMerchant(ctx, input.MerchantID); err != nil {
			return fmt.Errorf("failed to lock merchant admissions: %w", err)
		}

		now := time.Now().UTC()
		view, err := txLedger.Snapshot(ctx, input.MerchantID, now)
		if err != nil {
			return err
		}

		outcome := s.engine.Decide(decision.Candidate{
			MerchantID:         input.MerchantID,
			Amount:             input.Amount,
			Currency:           input.Currency,
			DestinationWallet:  input.DestinationWallet,
			DestinationNetwork: input.DestinationNetwork,
		}, score, view)

		req.AutomationDecision = string(outcome.Decision)
		req.DecisionReasons = pq.StringArray(outcome.Reasons)

		auditEvent := models.AuditEventRequestAdmitted
		switch outcome.Decision {
		case decision.AutoApprove:
			// Re-check under the merchant lock: the snapshot the engine
			// saw may be stale by now.
			if err := txLedger.Reserve(ctx, input.MerchantID, input.Amount, score, now); err != nil {
				if stderrors.Is(err, domainerrors.ErrLimitExceeded) {
					req.AutomationDecision = models.DecisionManualReview
					req.DecisionReasons = append(req.DecisionReasons, err.Error())
				} else {
					return err
				}
			}
		case decision.ManualReview:
			// Sits PENDING until an operator resolves it; no reservation.
		case decision.AutoReject:
			req.Status = models.PayoutStatusRejected
			req.FailureReason = outcome.Reasons[0]
			auditEvent = models.AuditEventRequestRejected
		}

		if err := txRepo.Create(ctx, req); err != nil {
			return fmt.Errorf("failed to create payout request: %w", err)
		}

		return txAuditor.Record(ctx, auditEvent, performedBy,
			models.AuditEntityPayoutRequest, req.ID, models.NewJSON(map[string]interface{}{
				"merchant_id":      req.MerchantID,
				"amount":           req.Amount,
				"currency":         req.Currency,
				"decision":         req.AutomationDecision,
				"reasons":          []string(req.DecisionReasons),
				"risk_score":       req.RiskScoreAtDecision,
				"schedule_type":    req.ScheduleType,
				"idempotency_key":  req.IdempotencyKey,
				"original_request": req.OriginalRequestID,
			}))
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.AutomatedPayoutRequest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter repositories.PayoutRequestFilter, p *pagination.Pagination) ([]models.AutomatedPayoutRequest, error) {
	return s.repo.List(ctx, filter, p)
}

func (s *service) Stats(ctx context.Context) (*repositories.PayoutStats, error) {
	return s.repo.Stats(ctx)
}

func (s *service) QueueStatus(ctx context.Context) (*repositories.QueueStatus, error) {
	return s.repo.QueueStatus(ctx, time.Now().UTC())
}

// Override resolves a manual-review request. Approval makes the request
// dispatchable and reserves its amount against the merchant's windows;
// rejection is terminal.
func (s *service) Override(ctx context.Context, id string, input OverrideInput, performedBy string) (*models.AutomatedPayoutRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Terminal() {
		return req, domainerrors.ErrIdempotencyConflict
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txAuditor := s.auditor.WithTx(tx)

		if input.Approve {
			if err := txRepo.ApproveReview(ctx, id, performedBy); err != nil {
				return err
			}
		} else {
			if err := txRepo.RejectReview(ctx, id, performedBy, input.Reason); err != nil {
				return err
			}
		}

		return txAuditor.Record(ctx, models.AuditEventManualOverride, performedBy,
			models.AuditEntityPayoutRequest, id, models.NewJSON(map[string]interface{}{
				"approved": input.Approve,
				"reason":   input.Reason,
			}))
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Cancel withdraws a request that has not been handed to the gateway.
// Cancellation of a PROCESSING request is illegal: there is no mid-transfer
// cancellation.
func (s *service) Cancel(ctx context.Context, id, reason, performedBy string) (*models.AutomatedPayoutRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Terminal() {
		return req, domainerrors.ErrIdempotencyConflict
	}
	if !CanTransition(req.Status, models.PayoutStatusRejected) {
		return req, domainerrors.ErrIllegalTransition.WithDetail(
			"cannot cancel a %s request", req.Status)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.CancelPending(ctx, id, performedBy, reason); err != nil {
			return err
		}
		return s.auditor.WithTx(tx).Record(ctx, models.AuditEventManualOverride, performedBy,
			models.AuditEntityPayoutRequest, id, models.NewJSON(map[string]interface{}{
				"cancelled": true,
				"reason":    reason,
			}))
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Reprocess re-submits a request for execution. Terminal requests return
// an idempotency conflict carrying the original result; no gateway call
// is made.
func (s *service) Reprocess(ctx context.Context, id, performedBy string) (*models.AutomatedPayoutRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Terminal() {
		return req, domainerrors.ErrIdempotencyConflict
	}
	if req.Status == models.PayoutStatusProcessing {
		return req, nil // a worker already owns it
	}
	// Clear any backoff so the next dispatch cycle picks it up.
	if err := s.repo.ClearBackoff(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// ClaimNext hands the next dispatchable request to a worker.
func (s *service) ClaimNext(ctx context.Context) (*models.AutomatedPayoutRequest, error) {
	return s.repo.ClaimNext(ctx, time.Now().UTC())
}

// CompleteExecution records a confirmed transfer. The audit entry commits
// with the status change.
func (s *service) CompleteExecution(ctx context.Context, req *models.AutomatedPayoutRequest, receipt *treasury.TransferReceipt) error {
	executedAt := time.Now().UTC()
	return s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.MarkExecuted(ctx, req.ID, receipt.TreasuryTransactionID, receipt.TransactionHash, executedAt); err != nil {
			return err
		}
		return s.auditor.WithTx(tx).Record(ctx, models.AuditEventRequestExecuted, "system",
			models.AuditEntityPayoutRequest, req.ID, models.NewJSON(map[string]interface{}{
				"treasury_transaction_id": receipt.TreasuryTransactionID,
				"transaction_hash":        receipt.TransactionHash,
				"attempts":                req.ProcessingAttempts,
			}))
	})
}

// FailAttempt records a gateway failure: transient failures requeue with
// backoff until the attempt cap, everything else is terminal.
func (s *service) FailAttempt(ctx context.Context, req *models.AutomatedPayoutRequest, cause error, nextAttemptAt time.Time) error {
	retryable := treasury.IsTransient(cause) && req.ProcessingAttempts < req.MaxAttempts

	return s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txAuditor := s.auditor.WithTx(tx)

		if retryable {
			if err := txRepo.Requeue(ctx, req.ID, cause.Error(), nextAttemptAt); err != nil {
				return err
			}
			return txAuditor.Record(ctx, models.AuditEventRequestRetried, "system",
				models.AuditEntityPayoutRequest, req.ID, models.NewJSON(map[string]interface{}{
					"attempt":         req.ProcessingAttempts,
					"max_attempts":    req.MaxAttempts,
					"failure_reason":  cause.Error(),
					"next_attempt_at": nextAttemptAt,
				}))
		}

		reason := cause.Error()
		if treasury.IsTransient(cause) {
			reason = fmt.Sprintf("attempts exhausted (%d/%d): %s", req.ProcessingAttempts, req.MaxAttempts, cause.Error())
		}
		if err := txRepo.MarkFailed(ctx, req.ID, reason); err != nil {
			return err
		}
		return txAuditor.Record(ctx, models.AuditEventRequestFailed, "system",
			models.AuditEntityPayoutRequest, req.ID, models.NewJSON(map[string]interface{}{
				"attempt":        req.ProcessingAttempts,
				"failure_reason": reason,
			}))
	})
}

// HoldForHalt returns a claimed request to PENDING without consuming an
// attempt; a treasury halt is not a failure.
func (s *service) HoldForHalt(ctx context.Context, req *models.AutomatedPayoutRequest, cause error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ReleaseClaim(ctx, req.ID); err != nil {
			return err
		}
		return s.auditor.WithTx(tx).Record(ctx, models.AuditEventRequestHeld, "system",
			models.AuditEntityPayoutRequest, req.ID, models.NewJSON(map[string]interface{}{
				"reason": cause.Error(),
			}))
	})
}
