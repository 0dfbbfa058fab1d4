package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/cache/redis"
	"github.com/auditpulse/backend/internal/syncer"
	"github.com/auditpulse/backend/pkg/logger"
)

type SyncHandler struct {
	syncer *syncer.Syncer
	cache  *redis.Client
}

func NewSyncHandler(sync *syncer.Syncer, cache *redis.Client) *SyncHandler {
	return &SyncHandler{syncer: sync, cache: cache}
}

// Pull runs a full reconciliation from the remote backend. The pull replaces
// local collections wholesale, so every cached scorecard is dropped after.
func (h *SyncHandler) Pull(c *fiber.Ctx) error {
	if !h.syncer.Enabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Remote sync is not configured",
		})
	}

	results := h.syncer.FullPull(c.Context())

	h.cache.Invalidate(c.Context())

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	logger.Info("Full pull completed",
		zap.Int("entities", len(results)),
		zap.Int("failed", failed),
	)

	return c.JSON(fiber.Map{
		"results": results,
		"ok":      failed == 0,
	})
}

func (h *SyncHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"enabled": h.syncer.Enabled(),
	})
}
