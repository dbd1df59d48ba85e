package handlers

import (
	"strconv"

	"payguard/internal/middleware"
	"payguard/internal/repositories"
	"payguard/internal/services/risk"
	"payguard/internal/utils/pagination"
	"payguard/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type RiskHandler struct {
	riskService risk.Service
}

func NewRiskHandler(riskService risk.Service) *RiskHandler {
	return &RiskHandler{riskService: riskService}
}

func (h *RiskHandler) parseMerchantID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("merchantId"), 10, 32)
	if err != nil {
		return 0, response.BadRequest(c, "Invalid merchant ID")
	}
	return uint(id), nil
}

// GetScore returns the merchant's current risk score, creating the
// default score for merchants seen for the first time.
func (h *RiskHandler) GetScore(c *fiber.Ctx) error {
	merchantID, err := h.parseMerchantID(c)
	if err != nil {
		return err
	}

	score, err := h.riskService.GetScore(c.Context(), merchantID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Risk score retrieved", score)
}

// Refresh recomputes the merchant's score from fresh signals. When the
// signal provider is unavailable the merchant is rescored conservatively
// and the degraded result is still returned.
func (h *RiskHandler) Refresh(c *fiber.Ctx) error {
	merchantID, err := h.parseMerchantID(c)
	if err != nil {
		return err
	}

	score, err := h.riskService.Refresh(c.Context(), merchantID, middleware.OperatorEmail(c))
	if err != nil {
		if score != nil {
			// Fail-closed rescore: report the degraded score with the cause.
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"message": "Risk data unavailable, merchant scored conservatively",
				"data":    score,
			})
		}
		return response.DomainError(c, err)
	}
	return response.Success(c, "Risk score refreshed", score)
}

// RefreshAll sweeps every scored merchant.
func (h *RiskHandler) RefreshAll(c *fiber.Ctx) error {
	updated, err := h.riskService.RefreshAll(c.Context(), middleware.OperatorEmail(c))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Risk scores refreshed", fiber.Map{
		"updated": updated,
	})
}

// Override applies a manual adjustment to a merchant's score or limits.
func (h *RiskHandler) Override(c *fiber.Ctx) error {
	merchantID, err := h.parseMerchantID(c)
	if err != nil {
		return err
	}

	var input risk.OverrideInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if input.Reason == "" {
		return response.BadRequest(c, "Override reason is required")
	}

	score, err := h.riskService.Override(c.Context(), merchantID, input, middleware.OperatorEmail(c))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Risk score overridden", score)
}

// BulkOverride applies one adjustment to many merchants.
func (h *RiskHandler) BulkOverride(c *fiber.Ctx) error {
	var input risk.BulkOverrideInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if len(input.MerchantIDs) == 0 {
		return response.BadRequest(c, "At least one merchant ID is required")
	}
	if input.Override.Reason == "" {
		return response.BadRequest(c, "Override reason is required")
	}

	updated, err := h.riskService.BulkOverride(c.Context(), input, middleware.OperatorEmail(c))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Risk scores overridden", fiber.Map{
		"updated": updated,
	})
}

// List returns scores filtered by level and score range.
func (h *RiskHandler) List(c *fiber.Ctx) error {
	p := pagination.ParseFromRequest(c)

	filter := repositories.RiskScoreFilter{
		AutomationLevel: c.Query("automation_level"),
		ActiveOnly:      c.QueryBool("active_only"),
	}
	if v := c.Query("min_score"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.MinScore = &n
		}
	}
	if v := c.Query("max_score"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.MaxScore = &n
		}
	}

	scores, err := h.riskService.List(c.Context(), filter, &p)
	if err != nil {
		return response.DomainError(c, err)
	}
	return c.JSON(pagination.Response(p, scores))
}

// Stats returns platform-wide scoring statistics.
func (h *RiskHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.riskService.Stats(c.Context())
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Risk score statistics", stats)
}
