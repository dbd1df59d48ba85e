package handlers

import (
	"time"

	"payguard/internal/repositories"
	auditsvc "payguard/internal/services/audit"
	"payguard/internal/utils/pagination"
	"payguard/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AuditHandler struct {
	auditService auditsvc.Service
}

func NewAuditHandler(auditService auditsvc.Service) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func parseAuditFilter(c *fiber.Ctx) repositories.AuditFilter {
	filter := repositories.AuditFilter{
		EventType:   c.Query("event_type"),
		PerformedBy: c.Query("performed_by"),
		EntityType:  c.Query("entity_type"),
		EntityID:    c.Query("entity_id"),
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = &t
		}
	}
	return filter
}

// Query returns a filtered page of the audit trail, newest first.
func (h *AuditHandler) Query(c *fiber.Ctx) error {
	p := pagination.ParseFromRequest(c)

	entries, err := h.auditService.Query(c.Context(), parseAuditFilter(c), &p)
	if err != nil {
		return response.DomainError(c, err)
	}
	return c.JSON(pagination.Response(p, entries))
}

// Export returns the full matching trail in chronological order for
// compliance handoff.
func (h *AuditHandler) Export(c *fiber.Ctx) error {
	entries, err := h.auditService.Export(c.Context(), parseAuditFilter(c))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Audit trail exported", fiber.Map{
		"count":   len(entries),
		"entries": entries,
	})
}
