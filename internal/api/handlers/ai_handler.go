package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/ai"
	"github.com/auditpulse/backend/internal/rubric"
	"github.com/auditpulse/backend/internal/storage/models"
	"github.com/auditpulse/backend/internal/storage/sqlite"
	"github.com/auditpulse/backend/pkg/logger"
)

type AIHandler struct {
	client  *ai.Client
	store   *sqlite.Store
	catalog *rubric.Catalog
}

func NewAIHandler(client *ai.Client, store *sqlite.Store, catalog *rubric.Catalog) *AIHandler {
	return &AIHandler{client: client, store: store, catalog: catalog}
}

type scoreRequest struct {
	Transcript string         `json:"transcript"`
	Type       models.Channel `json:"type"`
	ProjectID  string         `json:"projectId"`
	Language   string         `json:"language"`
}

// Score evaluates a raw transcript against the currently applicable rubric.
// The result is a draft: nothing is persisted until the reviewer saves the
// audit through the normal write path.
func (h *AIHandler) Score(c *fiber.Ctx) error {
	var req scoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Type == "" {
		req.Type = models.ChannelVoice
	}
	if req.Language == "" {
		req.Language = "English"
	}

	subset, err := h.catalog.List(rubric.Filter{
		ActiveOnly: true,
		Channel:    req.Type,
		ProjectID:  req.ProjectID,
	})
	if err != nil {
		logger.Error("Failed to resolve rubric for AI scoring", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to score transcript",
		})
	}

	result, err := h.client.ScoreTranscript(c.Context(), subset, req.Transcript, req.Language)
	if err != nil {
		return h.aiError(c, "Failed to score transcript", err)
	}

	return c.JSON(result)
}

type coachingPlanRequest struct {
	AgentID string `json:"agentId"`
}

// CreateCoachingPlan generates and persists a coaching plan from the agent's
// recent audit history.
func (h *AIHandler) CreateCoachingPlan(c *fiber.Ctx) error {
	var req coachingPlanRequest
	if err := c.BodyParser(&req); err != nil || req.AgentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "agentId is required",
		})
	}

	agents, err := h.store.ListAgents()
	if err != nil {
		logger.Error("Failed to list agents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate coaching plan",
		})
	}

	var agent *models.Agent
	for i := range agents {
		if agents[i].ID == req.AgentID {
			agent = &agents[i]
			break
		}
	}
	if agent == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Agent not found",
		})
	}

	audits, err := h.store.ListAudits(sqlite.AuditFilter{AgentName: agent.Name})
	if err != nil {
		logger.Error("Failed to list audits", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate coaching plan",
		})
	}
	if len(audits) > 10 {
		audits = audits[:10]
	}

	plan, err := h.client.GenerateCoachingPlan(c.Context(), *agent, audits)
	if err != nil {
		return h.aiError(c, "Failed to generate coaching plan", err)
	}

	plan.ID = uuid.NewString()
	if err := h.store.UpsertCoachingPlan(plan); err != nil {
		logger.Error("Failed to save coaching plan", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save coaching plan",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(plan)
}

func (h *AIHandler) ListCoachingPlans(c *fiber.Ctx) error {
	plans, err := h.store.ListCoachingPlans(c.Query("agentId"))
	if err != nil {
		logger.Error("Failed to list coaching plans", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list coaching plans",
		})
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// aiError maps collaborator failures onto HTTP statuses. A missing API key is
// a 503, not a server bug.
func (h *AIHandler) aiError(c *fiber.Ctx, msg string, err error) error {
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "AI features are not configured",
		})
	case errors.Is(err, ai.ErrInsufficientData):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Not enough audit data",
		})
	default:
		logger.Error(msg, zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": msg,
		})
	}
}
