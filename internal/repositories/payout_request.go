package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	domainerrors "payguard/internal/errors"
	"payguard/internal/models"
	"payguard/internal/utils/pagination"

	"gorm.io/gorm"
)

// PayoutRequestFilter narrows payout request listings.
type PayoutRequestFilter struct {
	Status     string
	MerchantID uint
	Decision   string
	Priority   *int
}

// PayoutStats aggregates request counts for the admin tooling surface.
type PayoutStats struct {
	ByStatus   map[string]int64 `json:"by_status"`
	ByDecision map[string]int64 `json:"by_decision"`
}

// QueueStatus describes the dispatch queue at a point in time.
type QueueStatus struct {
	Dispatchable   int64 `json:"dispatchable"`
	AwaitingReview int64 `json:"awaiting_review"`
	Processing     int64 `json:"processing"`
	BackedOff      int64 `json:"backed_off"`
}

// PayoutRequestRepository persists payout requests and owns the atomic
// queue-claim query. WithTx returns a repository bound to an open gorm
// transaction so admission, ledger reservation and audit share one unit of
// work.
type PayoutRequestRepository interface {
	WithTx(tx *gorm.DB) PayoutRequestRepository
	LockMerchant(ctx context.Context, merchantID uint) error
	Create(ctx context.Context, req *models.AutomatedPayoutRequest) error
	GetByID(ctx context.Context, id string) (*models.AutomatedPayoutRequest, error)
	GetByOriginalRequestID(ctx context.Context, originalID string) (*models.AutomatedPayoutRequest, error)
	ClaimNext(ctx context.Context, now time.Time) (*models.AutomatedPayoutRequest, error)
	MarkExecuted(ctx context.Context, id, treasuryTxID, txHash string, executedAt time.Time) error
	Requeue(ctx context.Context, id, failureReason string, nextAttemptAt time.Time) error
	MarkFailed(ctx context.Context, id, failureReason string) error
	ReleaseClaim(ctx context.Context, id string) error
	ClearBackoff(ctx context.Context, id string) error
	ApproveReview(ctx context.Context, id, operator string) error
	RejectReview(ctx context.Context, id, operator, reason string) error
	CancelPending(ctx context.Context, id, operator, reason string) error
	List(ctx context.Context, filter PayoutRequestFilter, p *pagination.Pagination) ([]models.AutomatedPayoutRequest, error)
	Stats(ctx context.Context) (*PayoutStats, error)
	QueueStatus(ctx context.Context, now time.Time) (*QueueStatus, error)
	ConsumedInWindow(ctx context.Context, merchantID uint, from, to time.Time) (float64, error)
}

type payoutRequestRepository struct {
	db *gorm.DB
}

func NewPayoutRequestRepository(db *gorm.DB) PayoutRequestRepository {
	return &payoutRequestRepository{db: db}
}

func (r *payoutRequestRepository) WithTx(tx *gorm.DB) PayoutRequestRepository {
	return &payoutRequestRepository{db: tx}
}

// LockMerchant serializes admissions for one merchant. It must be called
// inside a transaction: the advisory lock is held until commit, so two
// concurrent admissions cannot both read window consumption before either
// insert is visible. Plain MVCC reads under READ COMMITTED would let both
// pass the reservation check.
func (r *payoutRequestRepository) LockMerchant(ctx context.Context, merchantID uint) error {
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", int64(merchantID)).Error
}

func (r *payoutRequestRepository) Create(ctx context.Context, req *models.AutomatedPayoutRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *payoutRequestRepository) GetByID(ctx context.Context, id string) (*models.AutomatedPayoutRequest, error) {
	var req models.AutomatedPayoutRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get payout request: %w", err)
	}
	return &req, nil
}

func (r *payoutRequestRepository) GetByOriginalRequestID(ctx context.Context, originalID string) (*models.AutomatedPayoutRequest, error) {
	var req models.AutomatedPayoutRequest
	err := r.db.WithContext(ctx).Where("original_request_id = ?", originalID).First(&req).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get payout request: %w", err)
	}
	return &req, nil
}

// ClaimNext atomically moves the next dispatchable PENDING request to
// PROCESSING and increments its attempt counter. The subselect takes a row
// lock with SKIP LOCKED so exactly one worker wins a given request, and
// merchants with an in-flight PROCESSING request are excluded so ledger
// checks see at most one reservation per merchant at a time.
func (r *payoutRequestRepository) ClaimNext(ctx context.Context, now time.Time) (*models.AutomatedPayoutRequest, error) {
	var req models.AutomatedPayoutRequest
	err := r.db.WithContext(ctx).Raw(`
		UPDATE automated_payout_requests
		SET status = ?, processing_attempts = processing_attempts + 1,
		    last_attempt_at = ?, updated_at = ?
		WHERE id = (
			SELECT id FROM automated_payout_requests
			WHERE status = ?
			  AND (automation_decision = ? OR override_approved)
			  AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
			  AND (scheduled_for IS NULL OR scheduled_for <= ?)
			  AND merchant_id NOT IN (
				SELECT merchant_id FROM automated_payout_requests WHERE status = ?
			  )
			ORDER BY priority DESC, created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`,
		models.PayoutStatusProcessing, now, now,
		models.PayoutStatusPending, models.DecisionAutoApprove, now, now,
		models.PayoutStatusProcessing,
	).Scan(&req).Error
	if err != nil {
		return nil, fmt.Errorf("failed to claim payout request: %w", err)
	}
	if req.ID == "" {
		return nil, nil // queue empty
	}
	return &req, nil
}

func (r *payoutRequestRepository) transitionFromProcessing(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.AutomatedPayoutRequest{}).
		Where("id = ? AND status = ?", id, models.PayoutStatusProcessing).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrIllegalTransition
	}
	return nil
}

func (r *payoutRequestRepository) MarkExecuted(ctx context.Context, id, treasuryTxID, txHash string, executedAt time.Time) error {
	return r.transitionFromProcessing(ctx, id, map[string]interface{}{
		"status":                  models.PayoutStatusExecuted,
		"treasury_transaction_id": treasuryTxID,
		"transaction_hash":        txHash,
		"executed_at":             executedAt,
		"failure_reason":          "",
	})
}

func (r *payoutRequestRepository) Requeue(ctx context.Context, id, failureReason string, nextAttemptAt time.Time) error {
	return r.transitionFromProcessing(ctx, id, map[string]interface{}{
		"status":          models.PayoutStatusPending,
		"failure_reason":  failureReason,
		"next_attempt_at": nextAttemptAt,
	})
}

func (r *payoutRequestRepository) MarkFailed(ctx context.Context, id, failureReason string) error {
	return r.transitionFromProcessing(ctx, id, map[string]interface{}{
		"status":         models.PayoutStatusFailed,
		"failure_reason": failureReason,
	})
}

// ReleaseClaim returns a claimed request to PENDING and gives the attempt
// back. Used when the platform halts mid-attempt: a halt is not a failure.
func (r *payoutRequestRepository) ReleaseClaim(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&models.AutomatedPayoutRequest{}).
		Where("id = ? AND status = ?", id, models.PayoutStatusProcessing).
		Updates(map[string]interface{}{
			"status":              models.PayoutStatusPending,
			"processing_attempts": gorm.Expr("processing_attempts - 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrIllegalTransition
	}
	return nil
}

// ClearBackoff wipes a PENDING request's backoff so the next dispatch
// cycle picks it up immediately.
func (r *payoutRequestRepository) ClearBackoff(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.AutomatedPayoutRequest{}).
		Where("id = ? AND status = ?", id, models.PayoutStatusPending).
		Update("next_attempt_at", nil).Error
}

// ApproveReview marks a manual-review PENDING request dispatchable. The
// conditional WHERE keeps the override legal only for requests still
// awaiting review.
func (r *payoutRequestRepository) ApproveReview(ctx context.Context, id, operator string) error {
	result := r.db.WithContext(ctx).Model(&models.AutomatedPayoutRequest{}).
		Where("id = ? AND status = ? AND automation_decision = ? AND NOT override_approved",
			id, models.PayoutStatusPending, models.DecisionManualReview).
		Updates(map[string]interface{}{
			"override_approved": true,
			"overridden_by":     operator,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotReviewable
	}
	return nil
}

func (r *payoutRequestRepository) RejectReview(ctx context.Context, id, operator, reason string) error {
	result := r.db.WithContext(ctx).Model(&models.AutomatedPayoutRequest{}).
		Where("id = ? AND status = ? AND automation_decision = ? AND NOT override_approved",
			id, models.PayoutStatusPending, models.DecisionManualReview).
		Updates(map[string]interface{}{
			"status":         models.PayoutStatusRejected,
			"overridden_by":  operator,
			"failure_reason": reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotReviewable
	}
	return nil
}

// CancelPending withdraws a request the gateway has never been invoked
// for. PROCESSING requests cannot be cancelled mid-transfer.
func (r *payoutRequestRepository) CancelPending(ctx context.Context, id, operator, reason string) error {
	result := r.db.WithContext(ctx).Model(&models.AutomatedPayoutRequest{}).
		Where("id = ? AND status = ?", id, models.PayoutStatusPending).
		Updates(map[string]interface{}{
			"status":         models.PayoutStatusRejected,
			"overridden_by":  operator,
			"failure_reason": reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrIllegalTransition
	}
	return nil
}

func (r *payoutRequestRepository) List(ctx context.Context, filter PayoutRequestFilter, p *pagination.Pagination) ([]models.AutomatedPayoutRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.AutomatedPayoutRequest{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.Decision != "" {
		query = query.Where("automation_decision = ?", filter.Decision)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}

	if err := query.Count(&p.Total).Error; err != nil {
		return nil, err
	}

	var requests []models.AutomatedPayoutRequest
	err := query.Order("created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&requests).Error
	return requests, err
}

func (r *payoutRequestRepository) Stats(ctx context.Context) (*PayoutStats, error) {
	stats := &PayoutStats{
		ByStatus:   make(map[string]int64),
		ByDecision: make(map[string]int64),
	}

	type group struct {
		Key   string
		Count int64
	}

	var byStatus []group
	err := r.db.WithContext(ctx).Model(&models.AutomatedPayoutRequest{}).
		Select("status as key, COUNT(*) as count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, err
	}
	for _, g := range byStatus {
		stats.ByStatus[g.Key] = g.Count
	}

	var byDecision []group
	err = r.db.WithContext(ctx).Model(&models.AutomatedPayoutRequest{}).
		Select("automation_decision as key, COUNT(*) as count").
		Group("automation_decision").
		Scan(&byDecision).Error
	if err != nil {
		return nil, err
	}
	for _, g := range byDecision {
		stats.ByDecision[g.Key] = g.Count
	}

	return stats, nil
}

func (r *payoutRequestRepository) QueueStatus(ctx context.Context, now time.Time) (*QueueStatus, error) {
	status := &QueueStatus{}
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.AutomatedPayoutRequest{})
	}

	err := base().Where("status = ? AND (automation_decision = ? OR override_approved) AND (next_attempt_at IS NULL OR next_attempt_at <= ?)",
		models.PayoutStatusPending, models.DecisionAutoApprove, now).
		Count(&status.Dispatchable).Error
	if err != nil {
		return nil, err
	}

	err = base().Where("status = ? AND automation_decision = ? AND NOT override_approved",
		models.PayoutStatusPending, models.DecisionManualReview).
		Count(&status.AwaitingReview).Error
	if err != nil {
		return nil, err
	}

	err = base().Where("status = ?", models.PayoutStatusProcessing).
		Count(&status.Processing).Error
	if err != nil {
		return nil, err
	}

	err = base().Where("status = ? AND next_attempt_at > ?", models.PayoutStatusPending, now).
		Count(&status.BackedOff).Error
	if err != nil {
		return nil, err
	}

	return status, nil
}

// ConsumedInWindow sums amounts admitted in the window that count against
// spending limits: executed payouts plus in-flight ones (PROCESSING, and
// dispatchable PENDING whose reservation is still live). Windowing is by
// admission time, matching the invariant that consumption never exceeds
// the limit active at admission.
func (r *payoutRequestRepository) ConsumedInWindow(ctx context.Context, merchantID uint, from, to time.Time) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.AutomatedPayoutRequest{}).
		Where("merchant_id = ? AND created_at >= ? AND created_at < ?", merchantID, from, to).
		Where("status IN (?, ?) OR (status = ? AND (automation_decision = ? OR override_approved))",
			models.PayoutStatusExecuted, models.PayoutStatusProcessing,
			models.PayoutStatusPending, models.DecisionAutoApprove).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum window consumption: %w", err)
	}
	return total, nil
}
