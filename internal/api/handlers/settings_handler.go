package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/metering"
	"github.com/auditpulse/backend/internal/storage/models"
	"github.com/auditpulse/backend/internal/storage/sqlite"
	"github.com/auditpulse/backend/pkg/logger"
)

type SettingsHandler struct {
	store       *sqlite.Store
	meter       *metering.Meter
	companyName string
}

func NewSettingsHandler(store *sqlite.Store, meter *metering.Meter, companyName string) *SettingsHandler {
	return &SettingsHandler{store: store, meter: meter, companyName: companyName}
}

func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	settings, err := h.store.GetSettings(h.companyName)
	if err != nil {
		logger.Error("Failed to load settings", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load settings",
		})
	}

	settings.Usage = h.meter.Usage()
	return c.JSON(settings)
}

// Save updates the settings document. Usage counters are owned by the meter
// and cannot be overwritten through this endpoint.
func (h *SettingsHandler) Save(c *fiber.Ctx) error {
	var settings models.AppSettings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	settings.Usage = h.meter.Usage()

	if err := h.store.SaveSettings(&settings); err != nil {
		logger.Error("Failed to save settings", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save settings",
		})
	}

	return c.JSON(settings)
}

func (h *SettingsHandler) Usage(c *fiber.Ctx) error {
	return c.JSON(h.meter.Usage())
}

func (h *SettingsHandler) ResetUsage(c *fiber.Ctx) error {
	h.meter.Reset()
	logger.Info("AI usage counters reset")
	return c.JSON(h.meter.Usage())
}
