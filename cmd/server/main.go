// Package main is the entry point for the payout automation engine.
// It initializes all dependencies, starts the dispatch workers,
// and serves the HTTP API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payguard/internal/config"
	"payguard/internal/repositories"
	"payguard/internal/routes"
	auditsvc "payguard/internal/services/audit"
	authsvc "payguard/internal/services/auth"
	"payguard/internal/services/decision"
	"payguard/internal/services/halt"
	"payguard/internal/services/payout"
	"payguard/internal/services/queue"
	"payguard/internal/services/risk"
	"payguard/internal/services/treasury"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	// Load environment variables
	config.LoadEnv()

	// Missing treasury credentials or inconsistent thresholds refuse to
	// start rather than run with silently defaulted values.
	treasuryCfg, err := config.LoadTreasury()
	if err != nil {
		log.Fatal(err)
	}
	decisionCfg, err := config.LoadDecision()
	if err != nil {
		log.Fatal(err)
	}

	// Initialize databases (PostgreSQL + Redis)
	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	sqlDB, err := repositories.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("✅ Successfully connected to database")

	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Printf("⚠️ Failed to close database connection: %v", err)
		}
		if repositories.CacheService != nil {
			if err := repositories.CacheService.Close(); err != nil {
				log.Printf("⚠️ Failed to close Redis connection: %v", err)
			}
		}
	}()

	// Repositories
	operatorRepo := repositories.NewOperatorRepository(repositories.DB)
	riskRepo := repositories.NewRiskScoreRepository(repositories.DB)
	payoutRepo := repositories.NewPayoutRequestRepository(repositories.DB)
	auditRepo := repositories.NewAuditRepository(repositories.DB)

	// Services
	auditService := auditsvc.NewService(auditRepo)
	authService := authsvc.NewService(operatorRepo)

	signalProvider := risk.NewHTTPSignalProvider(
		config.GetEnv("SIGNALS_BASE_URL", "http://localhost:8081"),
		config.GetEnv("SIGNALS_API_KEY", ""),
		config.GetDurationEnv("SIGNALS_TIMEOUT", 10*time.Second),
	)
	riskService := risk.NewService(riskRepo, repositories.CacheService, signalProvider, auditService, risk.Config{
		FullThreshold:    decisionCfg.FullThreshold,
		PartialThreshold: decisionCfg.PartialThreshold,
	})

	engine := decision.NewEngine(
		decision.Config{PartialApproveFraction: decisionCfg.PartialApproveFraction},
		decision.NewStaticDenylist(decisionCfg.DenylistedWallets),
	)

	haltSwitch := halt.NewSwitch(repositories.CacheService, auditService)

	payoutService := payout.NewService(payout.Config{
		DB:          repositories.DB,
		Repo:        payoutRepo,
		RiskService: riskService,
		Engine:      engine,
		Auditor:     auditService,
		HaltSwitch:  haltSwitch,
		MaxAttempts: config.GetIntEnv("PAYOUT_MAX_ATTEMPTS", 3),
	})

	// Treasury gateways: crypto over HTTP, fiat through Stripe when enabled.
	cryptoGateway := treasury.NewHTTPGateway(treasuryCfg)
	var fiatGateway treasury.Gateway
	if treasuryCfg.FiatEnabled {
		fiatGateway = treasury.NewStripeGateway(treasuryCfg.StripeKey)
	}
	gateway := treasury.NewNetworkRouter(cryptoGateway, fiatGateway)

	// Dispatch workers
	dispatcher := queue.NewDispatcher(queue.Config{
		Workers:        config.GetIntEnv("DISPATCH_WORKERS", 4),
		PollInterval:   config.GetDurationEnv("DISPATCH_POLL_INTERVAL", 2*time.Second),
		AttemptTimeout: treasuryCfg.RequestTimeout,
		Backoff:        queue.DefaultBackoff(),
	}, payoutService, gateway, haltSwitch)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	// HTTP API
	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use("/api/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, routes.Services{
		Auth:   authService,
		Risk:   riskService,
		Payout: payoutService,
		Audit:  auditService,
		Halt:   haltSwitch,
	})

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ Server shutdown error: %v", err)
		}
	}()

	if err := app.Listen(":" + config.GetEnv("PORT", "3000")); err != nil {
		log.Fatal(err)
	}
}
