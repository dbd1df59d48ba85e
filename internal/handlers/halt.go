package handlers

import (
	"payguard/internal/middleware"
	"payguard/internal/services/halt"
	"payguard/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type HaltHandler struct {
	haltSwitch halt.Switch
}

func NewHaltHandler(haltSwitch halt.Switch) *HaltHandler {
	return &HaltHandler{haltSwitch: haltSwitch}
}

// Activate raises the platform-wide emergency halt. Dispatch stops and
// admission refuses new candidates until cleared.
func (h *HaltHandler) Activate(c *fiber.Ctx) error {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if input.Reason == "" {
		return response.BadRequest(c, "Halt reason is required")
	}

	if err := h.haltSwitch.Halt(c.Context(), input.Reason, middleware.OperatorEmail(c)); err != nil {
		return response.ServerError(c, "Failed to activate emergency halt")
	}
	return response.Success(c, "Emergency halt activated", fiber.Map{
		"reason": input.Reason,
	})
}

// Clear lifts the halt; held requests become dispatchable again.
func (h *HaltHandler) Clear(c *fiber.Ctx) error {
	if err := h.haltSwitch.Clear(c.Context(), middleware.OperatorEmail(c)); err != nil {
		return response.ServerError(c, "Failed to clear emergency halt")
	}
	return response.Success(c, "Emergency halt cleared", nil)
}

// Status reports whether the halt is active.
func (h *HaltHandler) Status(c *fiber.Ctx) error {
	active, reason := h.haltSwitch.Status(c.Context())
	return response.Success(c, "Halt status", fiber.Map{
		"active": active,
		"reason": reason,
	})
}
