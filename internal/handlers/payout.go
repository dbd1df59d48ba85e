package handlers

import (
	"strconv"

	"payguard/internal/middleware"
	"payguard/internal/repositories"
	"payguard/internal/services/payout"
	"payguard/internal/utils/pagination"
	"payguard/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type PayoutHandler struct {
	payoutService payout.Service
}

func NewPayoutHandler(payoutService payout.Service) *PayoutHandler {
	return &PayoutHandler{payoutService: payoutService}
}

// Admit accepts a payout candidate, runs it through the decision engine
// and returns the persisted request with its decision and reasons.
func (h *PayoutHandler) Admit(c *fiber.Ctx) error {
	var input payout.CandidateInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req, err := h.payoutService.Admit(c.Context(), input, middleware.OperatorEmail(c))
	if err != nil {
		return response.DomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payout request admitted",
		"data":    req,
	})
}

// Get returns a single payout request.
func (h *PayoutHandler) Get(c *fiber.Ctx) error {
	req, err := h.payoutService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Payout request retrieved", req)
}

// List returns requests filtered by status, merchant, decision and priority.
func (h *PayoutHandler) List(c *fiber.Ctx) error {
	p := pagination.ParseFromRequest(c)

	filter := repositories.PayoutRequestFilter{
		Status:   c.Query("status"),
		Decision: c.Query("decision"),
	}
	if v := c.Query("merchant_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			filter.MerchantID = uint(n)
		}
	}
	if v := c.Query("priority"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Priority = &n
		}
	}

	requests, err := h.payoutService.List(c.Context(), filter, &p)
	if err != nil {
		return response.DomainError(c, err)
	}
	return c.JSON(pagination.Response(p, requests))
}

// Override resolves a manual-review request: approve makes it
// dispatchable, reject is terminal.
func (h *PayoutHandler) Override(c *fiber.Ctx) error {
	var input payout.OverrideInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if !input.Approve && input.Reason == "" {
		return response.BadRequest(c, "Rejection reason is required")
	}

	req, err := h.payoutService.Override(c.Context(), c.Params("id"), input, middleware.OperatorEmail(c))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Payout request resolved", req)
}

// Cancel withdraws a PENDING request before dispatch.
func (h *PayoutHandler) Cancel(c *fiber.Ctx) error {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if input.Reason == "" {
		return response.BadRequest(c, "Cancellation reason is required")
	}

	req, err := h.payoutService.Cancel(c.Context(), c.Params("id"), input.Reason, middleware.OperatorEmail(c))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Payout request cancelled", req)
}

// Reprocess re-submits a request for dispatch. Terminal requests return a
// conflict carrying the original result.
func (h *PayoutHandler) Reprocess(c *fiber.Ctx) error {
	req, err := h.payoutService.Reprocess(c.Context(), c.Params("id"), middleware.OperatorEmail(c))
	if err != nil {
		if req != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
				"data":  req,
			})
		}
		return response.DomainError(c, err)
	}
	return response.Success(c, "Payout request queued for reprocessing", req)
}

// Stats returns request counts by status and decision.
func (h *PayoutHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.payoutService.Stats(c.Context())
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Payout statistics", stats)
}

// QueueStatus describes the dispatch queue.
func (h *PayoutHandler) QueueStatus(c *fiber.Ctx) error {
	status, err := h.payoutService.QueueStatus(c.Context())
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Queue status", status)
}
