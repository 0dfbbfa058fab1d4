package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxTranscriptLength int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware enforces cheap request-shape checks before handlers run:
// content type, audit field ranges, and transcript size for AI scoring.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxTranscriptLength == 0 {
		cfg.MaxTranscriptLength = 100000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut {
			contentType := c.Get("Content-Type")
			if contentType != "" && !contentTypeAllowed(contentType, cfg.AllowedContentTypes) {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}
		}

		path := c.Path()

		if strings.Contains(path, "/api/v1/audits") && (c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut) {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			agentName, ok := req["agentName"].(string)
			if !ok || strings.TrimSpace(agentName) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "agentName is required",
				})
			}

			if csat, ok := req["csat"].(float64); ok && csat != 0 && (csat < 1 || csat > 5) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "csat must be between 1 and 5",
				})
			}

			if auditType, ok := req["type"].(string); ok && auditType != "" && auditType != "VOICE" && auditType != "CHAT" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "type must be VOICE or CHAT",
				})
			}
		}

		if strings.Contains(path, "/api/v1/ai/score") && c.Method() == fiber.MethodPost {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			transcript, ok := req["transcript"].(string)
			if !ok || transcript == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "transcript is required",
				})
			}

			if len(transcript) > cfg.MaxTranscriptLength {
				cfg.Logger.Warn("Oversized transcript rejected",
					zap.String("ip", c.IP()),
					zap.Int("length", len(transcript)),
				)
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Transcript exceeds maximum length",
				})
			}
		}

		return c.Next()
	}
}

func contentTypeAllowed(contentType string, allowed []string) bool {
	for _, a := range allowed {
		if strings.Contains(contentType, a) {
			return true
		}
	}
	return false
}
