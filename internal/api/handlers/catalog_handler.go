package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/rubric"
	"github.com/auditpulse/backend/internal/storage/models"
	"github.com/auditpulse/backend/pkg/logger"
)

type CatalogHandler struct {
	catalog *rubric.Catalog
}

func NewCatalogHandler(catalog *rubric.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) List(c *fiber.Ctx) error {
	filter := rubric.Filter{
		ActiveOnly: c.QueryBool("active"),
		Channel:    models.Channel(c.Query("channel")),
		ProjectID:  c.Query("projectId"),
	}

	items, err := h.catalog.List(filter)
	if err != nil {
		logger.Error("Failed to list rubric items", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list rubric items",
		})
	}

	return c.JSON(fiber.Map{
		"items": items,
		"count": len(items),
	})
}

func (h *CatalogHandler) Upsert(c *fiber.Ctx) error {
	var item models.RubricItem
	if err := c.BodyParser(&item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if item.ID == "" || item.Label == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id and label are required",
		})
	}
	if item.Type == "" {
		item.Type = models.ChannelBoth
	}

	if err := h.catalog.Upsert(&item); err != nil {
		logger.Error("Failed to upsert rubric item", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save rubric item",
		})
	}

	return c.JSON(item)
}

func (h *CatalogHandler) ToggleActive(c *fiber.Ctx) error {
	if err := h.catalog.ToggleActive(c.Params("id")); err != nil {
		logger.Error("Failed to toggle rubric item", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to toggle rubric item",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) Remove(c *fiber.Ctx) error {
	if err := h.catalog.Remove(c.Params("id")); err != nil {
		logger.Error("Failed to remove rubric item", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to remove rubric item",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
