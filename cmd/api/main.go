package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/ai"
	"github.com/auditpulse/backend/internal/api/handlers"
	"github.com/auditpulse/backend/internal/cache/redis"
	"github.com/auditpulse/backend/internal/export"
	"github.com/auditpulse/backend/internal/metering"
	"github.com/auditpulse/backend/internal/metrics"
	"github.com/auditpulse/backend/internal/middleware/ratelimit"
	"github.com/auditpulse/backend/internal/middleware/security"
	"github.com/auditpulse/backend/internal/middleware/validation"
	"github.com/auditpulse/backend/internal/remote"
	"github.com/auditpulse/backend/internal/rubric"
	"github.com/auditpulse/backend/internal/storage/models"
	"github.com/auditpulse/backend/internal/storage/sqlite"
	"github.com/auditpulse/backend/internal/syncer"
	"github.com/auditpulse/backend/pkg/config"
	appLogger "github.com/auditpulse/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting AuditPulse API Server")

	metrics.Init()

	store, err := sqlite.New(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to open local store", zap.Error(err))
	}
	defer store.Close()

	err = store.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	catalog := rubric.NewCatalog(store)
	if err := catalog.EnsureSeeded(); err != nil {
		appLogger.Warn("Failed to seed rubric catalog", zap.Error(err))
	}

	if err := bootstrapAdmin(store, cfg.Workspace.DefaultPIN); err != nil {
		appLogger.Warn("Failed to bootstrap admin user", zap.Error(err))
	}

	remoteClient := remote.NewClient(cfg.Remote.Endpoint, cfg.Remote.APIKey, cfg.Workspace.ID)
	sync := syncer.New(store, remoteClient, cfg.Workspace.ID)
	if sync.Enabled() {
		appLogger.Info("Remote sync enabled", zap.String("workspace", cfg.Workspace.ID))
	} else {
		appLogger.Info("Running in local-only mode")
	}

	meter, err := metering.New(store, cfg.Workspace.CompanyName)
	if err != nil {
		appLogger.Fatal("Failed to initialize usage meter", zap.Error(err))
	}

	aiClient := ai.New(cfg.AI, meter)

	var cache *redis.Client
	if cfg.Redis.Enabled {
		cache, err = redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without cache", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	exportService := export.NewService(store, cfg.Workspace.CompanyName)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 120,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	app.Use(validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	auditHandler := handlers.NewAuditHandler(store, sync, catalog, cache)
	catalogHandler := handlers.NewCatalogHandler(catalog)
	directoryHandler := handlers.NewDirectoryHandler(store, sync)
	scorecardHandler := handlers.NewScorecardHandler(store, cache)
	syncHandler := handlers.NewSyncHandler(sync, cache)
	exportHandler := handlers.NewExportHandler(exportService, store, cache)
	aiHandler := handlers.NewAIHandler(aiClient, store, catalog)
	chatHandler := handlers.NewChatHandler(aiClient, store)
	settingsHandler := handlers.NewSettingsHandler(store, meter, cfg.Workspace.CompanyName)

	api := app.Group("/api/v1")

	api.Get("/audits", auditHandler.List)
	api.Post("/audits", auditHandler.Save)
	api.Get("/audits/:id", auditHandler.Get)
	api.Put("/audits/:id", auditHandler.Save)
	api.Delete("/audits/:id", auditHandler.Delete)

	api.Get("/rubric", catalogHandler.List)
	api.Post("/rubric", catalogHandler.Upsert)
	api.Post("/rubric/:id/toggle", catalogHandler.ToggleActive)
	api.Delete("/rubric/:id", catalogHandler.Remove)

	api.Get("/agents", directoryHandler.ListAgents)
	api.Post("/agents", directoryHandler.SaveAgent)
	api.Delete("/agents/:id", directoryHandler.DeleteAgent)

	api.Get("/projects", directoryHandler.ListProjects)
	api.Post("/projects", directoryHandler.SaveProject)
	api.Delete("/projects/:id", directoryHandler.DeleteProject)

	api.Get("/users", directoryHandler.ListUsers)
	api.Post("/users", directoryHandler.SaveUser)
	api.Delete("/users/:id", directoryHandler.DeleteUser)

	api.Get("/scorecards/agents/:name", scorecardHandler.AgentScorecard)
	api.Get("/scorecards/projects/:name", scorecardHandler.ProjectScorecard)
	api.Get("/dashboard", scorecardHandler.Dashboard)

	api.Post("/sync/pull", syncHandler.Pull)
	api.Get("/sync/status", syncHandler.Status)

	api.Get("/export", exportHandler.Bundle)
	api.Post("/import", exportHandler.Import)
	api.Get("/export/audits.csv", exportHandler.AuditsCSV)
	api.Get("/export/audits/:id.json", exportHandler.AuditJSON)
	api.Get("/export/scorecard.xlsx", exportHandler.ScorecardXLSX)

	api.Post("/ai/score", aiHandler.Score)
	api.Post("/ai/coaching-plans", aiHandler.CreateCoachingPlan)
	api.Get("/ai/coaching-plans", aiHandler.ListCoachingPlans)

	api.Get("/chat/sessions", chatHandler.ListSessions)
	api.Delete("/chat/sessions/:id", chatHandler.DeleteSession)

	api.Get("/settings", settingsHandler.Get)
	api.Put("/settings", settingsHandler.Save)
	api.Get("/usage", settingsHandler.Usage)
	api.Post("/usage/reset", settingsHandler.ResetUsage)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(chatHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

// bootstrapAdmin seeds the first admin account so a fresh install is usable
// immediately. Does nothing once any user exists.
func bootstrapAdmin(store *sqlite.Store, defaultPIN string) error {
	users, err := store.ListUsers()
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	admin := &models.User{
		ID:   uuid.NewString(),
		Name: "Admin",
		Role: models.RoleAdmin,
		PIN:  defaultPIN,
	}
	if err := store.UpsertUser(admin); err != nil {
		return err
	}

	appLogger.Info("Seeded default admin user")
	return nil
}
