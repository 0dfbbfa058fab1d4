package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/storage/models"
	"github.com/auditpulse/backend/internal/storage/sqlite"
	"github.com/auditpulse/backend/internal/syncer"
	"github.com/auditpulse/backend/pkg/logger"
)

// DirectoryHandler covers the roster entities: agents, projects and users.
type DirectoryHandler struct {
	store  *sqlite.Store
	syncer *syncer.Syncer
}

func NewDirectoryHandler(store *sqlite.Store, sync *syncer.Syncer) *DirectoryHandler {
	return &DirectoryHandler{store: store, syncer: sync}
}

// --- Agents ---

func (h *DirectoryHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.store.ListAgents()
	if err != nil {
		logger.Error("Failed to list agents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list agents",
		})
	}
	return c.JSON(fiber.Map{"agents": agents})
}

func (h *DirectoryHandler) SaveAgent(c *fiber.Ctx) error {
	var agent models.Agent
	if err := c.BodyParser(&agent); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if agent.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}
	if agent.ID == "" {
		agent.ID = uuid.NewString()
	}
	if agent.AuditChannel == "" {
		agent.AuditChannel = models.ChannelBoth
	}

	if err := h.syncer.SaveAgent(&agent); err != nil {
		logger.Error("Failed to save agent", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save agent",
		})
	}

	return c.JSON(agent)
}

func (h *DirectoryHandler) DeleteAgent(c *fiber.Ctx) error {
	if err := h.syncer.DeleteAgent(c.Params("id")); err != nil {
		logger.Error("Failed to delete agent", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete agent",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- Projects ---

func (h *DirectoryHandler) ListProjects(c *fiber.Ctx) error {
	projects, err := h.store.ListProjects()
	if err != nil {
		logger.Error("Failed to list projects", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list projects",
		})
	}
	return c.JSON(fiber.Map{"projects": projects})
}

func (h *DirectoryHandler) SaveProject(c *fiber.Ctx) error {
	var project models.Project
	if err := c.BodyParser(&project); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if project.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}

	if err := h.syncer.SaveProject(&project); err != nil {
		logger.Error("Failed to save project", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save project",
		})
	}

	return c.JSON(project)
}

// DeleteProject removes only the project. Audits carrying its name become
// orphans but stay valid.
func (h *DirectoryHandler) DeleteProject(c *fiber.Ctx) error {
	if err := h.syncer.DeleteProject(c.Params("id")); err != nil {
		logger.Error("Failed to delete project", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete project",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- Users ---

func (h *DirectoryHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.store.ListUsers()
	if err != nil {
		logger.Error("Failed to list users", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list users",
		})
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *DirectoryHandler) SaveUser(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if user.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleAuditor
	}

	if err := h.syncer.SaveUser(&user); err != nil {
		logger.Error("Failed to save user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save user",
		})
	}

	return c.JSON(user)
}

func (h *DirectoryHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.syncer.DeleteUser(c.Params("id")); err != nil {
		logger.Error("Failed to delete user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete user",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
