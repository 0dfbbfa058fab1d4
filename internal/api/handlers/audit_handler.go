package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/cache/redis"
	"github.com/auditpulse/backend/internal/rubric"
	"github.com/auditpulse/backend/internal/scoring"
	"github.com/auditpulse/backend/internal/storage/models"
	"github.com/auditpulse/backend/internal/storage/sqlite"
	"github.com/auditpulse/backend/internal/syncer"
	"github.com/auditpulse/backend/pkg/logger"
)

type AuditHandler struct {
	store   *sqlite.Store
	syncer  *syncer.Syncer
	catalog *rubric.Catalog
	cache   *redis.Client
}

func NewAuditHandler(store *sqlite.Store, sync *syncer.Syncer, catalog *rubric.Catalog, cache *redis.Client) *AuditHandler {
	return &AuditHandler{
		store:   store,
		syncer:  sync,
		catalog: catalog,
		cache:   cache,
	}
}

// Save handles both create and update. The server owns the derived fields:
// the quality score is computed from CustomData against the rubric items
// applicable right now and frozen into the record.
func (h *AuditHandler) Save(c *fiber.Ctx) error {
	var audit models.Audit
	if err := c.BodyParser(&audit); err != nil {
		logger.Error("Failed to parse audit body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if id := c.Params("id"); id != "" {
		audit.ID = id
	}

	now := time.Now()
	isNew := audit.ID == ""
	if isNew {
		audit.ID = uuid.NewString()
		audit.CreatedAt = now
	} else {
		if existing, err := h.store.GetAudit(audit.ID); err == nil {
			audit.CreatedAt = existing.CreatedAt
			if audit.Status == "" {
				audit.Status = existing.Status
			}
		} else {
			audit.CreatedAt = now
		}
	}
	audit.UpdatedAt = now

	if audit.Status == "" {
		audit.Status = models.StatusPendingReview
	}
	if audit.Type == "" {
		audit.Type = models.ChannelVoice
	}
	if audit.Date == "" {
		audit.Date = now.Format("2006-01-02")
	}

	applicable, err := h.applicableIDs(audit.Type, audit.Project)
	if err != nil {
		logger.Error("Failed to resolve applicable rubric", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save audit",
		})
	}

	audit.QualityScore = scoring.ComputeScore(audit.CustomData, applicable)

	if audit.Type == models.ChannelVoice {
		if audit.Perception == "" {
			audit.Perception = scoring.DerivePerception(audit.QualityScore)
		}
		if audit.CSAT == 0 {
			audit.CSAT = scoring.DefaultCSAT(audit.Perception)
		}
	}

	if err := h.syncer.SaveAudit(&audit); err != nil {
		logger.Error("Failed to save audit", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save audit",
		})
	}

	h.cache.Invalidate(c.Context())

	status := fiber.StatusOK
	if isNew {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(audit)
}

// applicableIDs resolves the rubric ids an audit is evaluated against:
// active items matching the channel, within the project's restriction when
// the project (looked up by its denormalized name) declares one.
func (h *AuditHandler) applicableIDs(channel models.Channel, projectName string) ([]string, error) {
	items, err := h.store.ListRubricItems()
	if err != nil {
		return nil, err
	}

	var project *models.Project
	if projectName != "" {
		projects, err := h.store.ListProjects()
		if err != nil {
			return nil, err
		}
		for i := range projects {
			if projects[i].Name == projectName {
				project = &projects[i]
				break
			}
		}
	}

	return rubric.ApplicableIDs(items, channel, project), nil
}

func (h *AuditHandler) List(c *fiber.Ctx) error {
	filter := sqlite.AuditFilter{
		AgentName: c.Query("agent"),
		Project:   c.Query("project"),
		Status:    models.AuditStatus(c.Query("status")),
		From:      c.Query("from"),
		To:        c.Query("to"),
	}

	audits, err := h.store.ListAudits(filter)
	if err != nil {
		logger.Error("Failed to list audits", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list audits",
		})
	}

	return c.JSON(fiber.Map{
		"audits": audits,
		"count":  len(audits),
	})
}

func (h *AuditHandler) Get(c *fiber.Ctx) error {
	audit, err := h.store.GetAudit(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Audit not found",
		})
	}

	return c.JSON(audit)
}

func (h *AuditHandler) Delete(c *fiber.Ctx) error {
	if err := h.syncer.DeleteAudit(c.Params("id")); err != nil {
		logger.Error("Failed to delete audit", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete audit",
		})
	}

	h.cache.Invalidate(c.Context())

	return c.SendStatus(fiber.StatusNoContent)
}
