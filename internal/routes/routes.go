// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and permission requirements.
package routes

import (
	"payguard/internal/handlers"
	"payguard/internal/middleware"
	"payguard/internal/models"
	authsvc "payguard/internal/services/auth"
	auditsvc "payguard/internal/services/audit"
	"payguard/internal/services/halt"
	"payguard/internal/services/payout"
	"payguard/internal/services/risk"

	"github.com/gofiber/fiber/v2"
)

// Services carries the engine's wired services into the HTTP layer. The
// entry point builds them once and shares the payout service with the
// dispatcher.
type Services struct {
	Auth   authsvc.Service
	Risk   risk.Service
	Payout payout.Service
	Audit  auditsvc.Service
	Halt   halt.Switch
}

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, svcs Services) {
	authHandler := handlers.NewAuthHandler(svcs.Auth)
	riskHandler := handlers.NewRiskHandler(svcs.Risk)
	payoutHandler := handlers.NewPayoutHandler(svcs.Payout)
	auditHandler := handlers.NewAuditHandler(svcs.Audit)
	haltHandler := handlers.NewHaltHandler(svcs.Halt)

	authMiddleware := middleware.NewAuthMiddleware(svcs.Auth)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Payguard API",
			"version": "1.0.0",
			"docs":    "/api",
		})
	})
	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")

	// Public endpoints (no auth required)
	api.Post("/login", authHandler.Login)
	api.Post("/refresh", authHandler.Refresh)

	// Everything below requires an authenticated operator.
	protected := api.Use(authMiddleware.Handler)
	protected.Post("/logout", authHandler.Logout)

	// Risk scoring
	riskGroup := protected.Group("/risk")
	riskGroup.Get("/scores", middleware.HasPermission(models.PermissionRiskRead), riskHandler.List)
	riskGroup.Get("/scores/stats", middleware.HasPermission(models.PermissionRiskRead), riskHandler.Stats)
	riskGroup.Get("/scores/:merchantId", middleware.HasPermission(models.PermissionRiskRead), riskHandler.GetScore)
	riskGroup.Post("/scores/:merchantId/refresh", middleware.HasPermission(models.PermissionRiskWrite), riskHandler.Refresh)
	riskGroup.Post("/scores/refresh-all", middleware.HasPermission(models.PermissionRiskWrite), riskHandler.RefreshAll)
	riskGroup.Put("/scores/:merchantId/override", middleware.HasPermission(models.PermissionRiskWrite), riskHandler.Override)
	riskGroup.Put("/scores/bulk-override", middleware.HasPermission(models.PermissionRiskWrite), riskHandler.BulkOverride)

	// Payout lifecycle
	payoutGroup := protected.Group("/payouts")
	payoutGroup.Post("/", middleware.HasPermission(models.PermissionPayoutWrite), payoutHandler.Admit)
	payoutGroup.Get("/", middleware.HasPermission(models.PermissionPayoutRead), payoutHandler.List)
	payoutGroup.Get("/stats", middleware.HasPermission(models.PermissionPayoutRead), payoutHandler.Stats)
	payoutGroup.Get("/queue", middleware.HasPermission(models.PermissionPayoutRead), payoutHandler.QueueStatus)
	payoutGroup.Get("/:id", middleware.HasPermission(models.PermissionPayoutRead), payoutHandler.Get)
	payoutGroup.Post("/:id/override", middleware.HasPermission(models.PermissionPayoutOverride), payoutHandler.Override)
	payoutGroup.Post("/:id/cancel", middleware.HasPermission(models.PermissionPayoutWrite), payoutHandler.Cancel)
	payoutGroup.Post("/:id/reprocess", middleware.HasPermission(models.PermissionPayoutWrite), payoutHandler.Reprocess)

	// Audit trail
	auditGroup := protected.Group("/audit")
	auditGroup.Get("/", middleware.HasPermission(models.PermissionAuditRead), auditHandler.Query)
	auditGroup.Get("/export", middleware.HasPermission(models.PermissionAuditExport), auditHandler.Export)

	// Emergency halt
	haltGroup := protected.Group("/halt")
	haltGroup.Get("/", haltHandler.Status)
	haltGroup.Post("/", middleware.HasPermission(models.PermissionHaltWrite), haltHandler.Activate)
	haltGroup.Delete("/", middleware.HasPermission(models.PermissionHaltWrite), haltHandler.Clear)
}
