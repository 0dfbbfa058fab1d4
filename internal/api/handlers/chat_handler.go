package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/aggregation"
	"github.com/auditpulse/backend/internal/ai"
	"github.com/auditpulse/backend/internal/storage/models"
	"github.com/auditpulse/backend/internal/storage/sqlite"
	"github.com/auditpulse/backend/pkg/logger"
)

// ChatHandler runs the workspace chat assistant over a websocket and manages
// persisted chat sessions.
type ChatHandler struct {
	client *ai.Client
	store  *sqlite.Store
}

func NewChatHandler(client *ai.Client, store *sqlite.Store) *ChatHandler {
	return &ChatHandler{client: client, store: store}
}

func (h *ChatHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("Chat connection established")

	defer func() {
		c.Close()
		logger.Info("Chat connection closed")
	}()

	for {
		var msg struct {
			Type      string `json:"type"`
			Content   string `json:"content"`
			SessionID string `json:"sessionId"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("Failed to read chat message", zap.Error(err))
			break
		}

		if msg.Type != "message" || msg.Content == "" {
			continue
		}

		if err := h.streamReply(c, msg.SessionID, msg.Content); err != nil {
			logger.Error("Failed to answer chat message", zap.Error(err))
			h.sendError(c, "Failed to process message")
		}
	}
}

func (h *ChatHandler) streamReply(c *websocket.Conn, sessionID, content string) error {
	ctx := context.Background()

	session := h.loadOrCreateSession(sessionID, content)
	session.Messages = append(session.Messages, models.ChatMessage{Role: "user", Content: content})

	h.sendChunk(c, "status", "Thinking...")

	reply, err := h.client.ChatReply(ctx, session.Messages, h.dataContext())
	if err != nil {
		if err == ai.ErrNotConfigured {
			h.sendError(c, "AI features are not configured")
			return nil
		}
		return err
	}

	words := strings.Fields(reply)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}
		if err := h.sendChunk(c, "chunk", chunk); err != nil {
			return err
		}
	}

	session.Messages = append(session.Messages, models.ChatMessage{Role: "assistant", Content: reply})
	if err := h.store.UpsertChatSession(session); err != nil {
		logger.Warn("Failed to persist chat session", zap.Error(err))
	}

	return c.WriteJSON(map[string]interface{}{
		"type":      "complete",
		"sessionId": session.ID,
	})
}

func (h *ChatHandler) loadOrCreateSession(sessionID, firstMessage string) *models.ChatSession {
	if sessionID != "" {
		sessions, err := h.store.ListChatSessions()
		if err == nil {
			for i := range sessions {
				if sessions[i].ID == sessionID {
					return &sessions[i]
				}
			}
		}
	}

	title := firstMessage
	if len(title) > 60 {
		title = title[:60]
	}
	return &models.ChatSession{
		ID:    uuid.NewString(),
		Title: title,
		Date:  time.Now().Format("2006-01-02"),
	}
}

// dataContext summarizes the workspace for grounding the assistant. Kept to a
// few lines; the model gets aggregates, not raw records.
func (h *ChatHandler) dataContext() string {
	audits, err := h.store.ListAllAudits()
	if err != nil {
		return "No workspace data available."
	}
	rubric, _ := h.store.ListRubricItems()

	dashboard := aggregation.BuildDashboard(aggregation.Snapshot{
		Audits: audits,
		Rubric: rubric,
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Total audits: %d\n", dashboard.TotalAudits)
	fmt.Fprintf(&b, "Average quality score: %.1f\n", dashboard.AvgScore)
	fmt.Fprintf(&b, "Average CSAT: %.1f\n", dashboard.AvgCSAT)
	for _, split := range dashboard.Split {
		fmt.Fprintf(&b, "%s audits: %d (avg score %.1f)\n", split.Channel, split.Count, split.AvgScore)
	}
	if len(dashboard.TopAgents) > 0 {
		b.WriteString("Top agents:\n")
		for _, r := range dashboard.TopAgents {
			fmt.Fprintf(&b, "- %s: avg %.1f over %d audits\n", r.AgentName, r.AvgScore, r.Count)
		}
	}
	if len(dashboard.Weakest) > 0 {
		b.WriteString("Weakest indicators:\n")
		for _, row := range dashboard.Weakest {
			fmt.Fprintf(&b, "- %s: %d%% pass rate, %d failures\n", row.Item.Label, row.AvgPassRate, row.Failures)
		}
	}
	return b.String()
}

func (h *ChatHandler) sendChunk(c *websocket.Conn, msgType, content string) error {
	return c.WriteJSON(map[string]interface{}{
		"type":    msgType,
		"content": content,
	})
}

func (h *ChatHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}

// --- Session management over REST ---

func (h *ChatHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.store.ListChatSessions()
	if err != nil {
		logger.Error("Failed to list chat sessions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list chat sessions",
		})
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *ChatHandler) DeleteSession(c *fiber.Ctx) error {
	if err := h.store.DeleteChatSession(c.Params("id")); err != nil {
		logger.Error("Failed to delete chat session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete chat session",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
