package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/aggregation"
	"github.com/auditpulse/backend/internal/cache/redis"
	"github.com/auditpulse/backend/internal/metrics"
	"github.com/auditpulse/backend/internal/storage/sqlite"
	"github.com/auditpulse/backend/pkg/logger"
	"github.com/auditpulse/backend/pkg/utils"
)

type ScorecardHandler struct {
	store *sqlite.Store
	cache *redis.Client
}

func NewScorecardHandler(store *sqlite.Store, cache *redis.Client) *ScorecardHandler {
	return &ScorecardHandler{store: store, cache: cache}
}

// snapshot loads the full local state the aggregation engine works from.
// Scorecards are always computed against one consistent read, never against
// a mix of queries taken at different times.
func (h *ScorecardHandler) snapshot(from, to string) (aggregation.Snapshot, error) {
	audits, err := h.store.ListAllAudits()
	if err != nil {
		return aggregation.Snapshot{}, err
	}
	rubric, err := h.store.ListRubricItems()
	if err != nil {
		return aggregation.Snapshot{}, err
	}
	projects, err := h.store.ListProjects()
	if err != nil {
		return aggregation.Snapshot{}, err
	}

	if from != "" || to != "" {
		audits = aggregation.ByDateRange(audits, from, to)
	}

	return aggregation.Snapshot{
		Audits:   audits,
		Rubric:   rubric,
		Projects: projects,
	}, nil
}

func (h *ScorecardHandler) AgentScorecard(c *fiber.Ctx) error {
	agentName := c.Params("name")
	from, to := c.Query("from"), c.Query("to")

	cacheKey := utils.HashKey("agent", agentName, from, to)

	var cached aggregation.AgentScorecard
	if h.cache.GetScorecard(c.Context(), cacheKey, &cached) {
		return c.JSON(cached)
	}

	start := time.Now()
	snap, err := h.snapshot(from, to)
	if err != nil {
		logger.Error("Failed to load snapshot", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute scorecard",
		})
	}

	card := aggregation.BuildAgentScorecard(snap, agentName)
	metrics.ScorecardDuration.WithLabelValues("agent").Observe(time.Since(start).Seconds())

	h.cache.SetScorecard(c.Context(), cacheKey, card)

	return c.JSON(card)
}

func (h *ScorecardHandler) ProjectScorecard(c *fiber.Ctx) error {
	projectName := c.Params("name")
	from, to := c.Query("from"), c.Query("to")

	cacheKey := utils.HashKey("project", projectName, from, to)

	var cached aggregation.ProjectScorecard
	if h.cache.GetScorecard(c.Context(), cacheKey, &cached) {
		return c.JSON(cached)
	}

	start := time.Now()
	snap, err := h.snapshot(from, to)
	if err != nil {
		logger.Error("Failed to load snapshot", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute scorecard",
		})
	}

	card := aggregation.BuildProjectScorecard(snap, projectName)
	metrics.ScorecardDuration.WithLabelValues("project").Observe(time.Since(start).Seconds())

	h.cache.SetScorecard(c.Context(), cacheKey, card)

	return c.JSON(card)
}

func (h *ScorecardHandler) Dashboard(c *fiber.Ctx) error {
	from, to := c.Query("from"), c.Query("to")

	cacheKey := utils.HashKey("dashboard", from, to)

	var cached aggregation.Dashboard
	if h.cache.GetScorecard(c.Context(), cacheKey, &cached) {
		return c.JSON(cached)
	}

	start := time.Now()
	snap, err := h.snapshot(from, to)
	if err != nil {
		logger.Error("Failed to load snapshot", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute dashboard",
		})
	}

	dashboard := aggregation.BuildDashboard(snap)
	metrics.ScorecardDuration.WithLabelValues("dashboard").Observe(time.Since(start).Seconds())

	h.cache.SetScorecard(c.Context(), cacheKey, dashboard)

	return c.JSON(dashboard)
}
