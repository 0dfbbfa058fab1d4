package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/aggregation"
	"github.com/auditpulse/backend/internal/cache/redis"
	"github.com/auditpulse/backend/internal/export"
	"github.com/auditpulse/backend/internal/storage/sqlite"
	"github.com/auditpulse/backend/pkg/logger"
)

type ExportHandler struct {
	service *export.Service
	store   *sqlite.Store
	cache   *redis.Client
}

func NewExportHandler(service *export.Service, store *sqlite.Store, cache *redis.Client) *ExportHandler {
	return &ExportHandler{service: service, store: store, cache: cache}
}

// Bundle returns the full JSON backup of every local collection.
func (h *ExportHandler) Bundle(c *fiber.Ctx) error {
	bundle, err := h.service.Export()
	if err != nil {
		logger.Error("Failed to export bundle", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export data",
		})
	}

	c.Set("Content-Disposition", `attachment; filename="auditpulse-backup.json"`)
	return c.JSON(bundle)
}

// Import restores a previously exported bundle. A malformed document mutates
// nothing and is reported as a 400.
func (h *ExportHandler) Import(c *fiber.Ctx) error {
	if !h.service.Import(c.Body()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid backup document",
		})
	}

	h.cache.Invalidate(c.Context())

	return c.JSON(fiber.Map{"imported": true})
}

func (h *ExportHandler) AuditsCSV(c *fiber.Ctx) error {
	audits, err := h.store.ListAudits(sqlite.AuditFilter{
		AgentName: c.Query("agent"),
		Project:   c.Query("project"),
		From:      c.Query("from"),
		To:        c.Query("to"),
	})
	if err != nil {
		logger.Error("Failed to load audits for CSV export", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export audits",
		})
	}

	data, err := export.AuditsCSV(audits)
	if err != nil {
		logger.Error("Failed to render audits CSV", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export audits",
		})
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", `attachment; filename="audits.csv"`)
	return c.Send(data)
}

func (h *ExportHandler) AuditJSON(c *fiber.Ctx) error {
	audit, err := h.store.GetAudit(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Audit not found",
		})
	}

	data, err := export.AuditJSON(audit)
	if err != nil {
		logger.Error("Failed to render audit JSON", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export audit",
		})
	}

	c.Set("Content-Type", "application/json")
	c.Set("Content-Disposition", `attachment; filename="audit-`+audit.ID+`.json"`)
	return c.Send(data)
}

// ScorecardXLSX renders the named project's scorecard as a workbook.
func (h *ExportHandler) ScorecardXLSX(c *fiber.Ctx) error {
	projectName := c.Query("project")
	if projectName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "project is required",
		})
	}

	audits, err := h.store.ListAllAudits()
	if err != nil {
		logger.Error("Failed to load audits for XLSX export", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export scorecard",
		})
	}
	rubric, err := h.store.ListRubricItems()
	if err != nil {
		logger.Error("Failed to load rubric for XLSX export", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export scorecard",
		})
	}
	projects, err := h.store.ListProjects()
	if err != nil {
		logger.Error("Failed to load projects for XLSX export", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export scorecard",
		})
	}

	card := aggregation.BuildProjectScorecard(aggregation.Snapshot{
		Audits:   audits,
		Rubric:   rubric,
		Projects: projects,
	}, projectName)

	data, err := export.ScorecardXLSX(card)
	if err != nil {
		logger.Error("Failed to render scorecard workbook", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export scorecard",
		})
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="scorecard.xlsx"`)
	return c.Send(data)
}
