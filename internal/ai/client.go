// Package ai wraps the LLM collaborator used for transcript scoring, coaching
// plans and the chat assistant. All calls are best-effort: transient failures
// are retried with backoff behind a circuit breaker, and a missing API key
// degrades to fast ErrNotConfigured failures so local-only features keep
// working untouched.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/metrics"
	"github.com/auditpulse/backend/internal/scoring"
	"github.com/auditpulse/backend/internal/storage/models"
	"github.com/auditpulse/backend/pkg/circuitbreaker"
	"github.com/auditpulse/backend/pkg/config"
	"github.com/auditpulse/backend/pkg/logger"
	"github.com/auditpulse/backend/pkg/retry"
)

var ErrNotConfigured = errors.New("ai client is not configured")

// ErrInsufficientData is returned when there is not enough audit history to
// generate a meaningful result.
var ErrInsufficientData = errors.New("not enough audit data")

type usageMeter interface {
	RecordAICall(tokens int, cost float64)
}

type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
	meter       usageMeter
}

// Rough blended cost per token, used only for the usage estimate shown to
// administrators.
const costPerToken = 0.0000015

func New(cfg config.AIConfig, meter usageMeter) *Client {
	c := &Client{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
		meter:       meter,
	}

	if cfg.APIKey == "" {
		logger.Info("AI client not configured, AI features disabled")
		return c
	}

	c.client = openai.NewClient(cfg.APIKey)

	c.cb = circuitbreaker.New("ai", circuitbreaker.Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
		Logger:           logger.GetLogger(),
	})

	c.retryConfig = retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		RetryIf:        isTransient,
		Logger:         logger.GetLogger(),
	}

	logger.Info("AI client initialized", zap.String("model", cfg.Model))
	return c
}

func (c *Client) Configured() bool {
	return c.client != nil
}

// isTransient retries rate limits and server-side errors only.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	return false
}

func (c *Client) complete(ctx context.Context, kind, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	var content string

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model: c.model,
					Messages: []openai.ChatCompletionMessage{
						{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
						{Role: openai.ChatMessageRoleUser, Content: userPrompt},
					},
					Temperature: c.temperature,
					MaxTokens:   maxTokens,
				},
			)
			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}

			content = resp.Choices[0].Message.Content

			metrics.AITokensUsed.Add(float64(resp.Usage.TotalTokens))
			metrics.AICost.Add(float64(resp.Usage.TotalTokens) * costPerToken)
			if c.meter != nil {
				c.meter.RecordAICall(resp.Usage.TotalTokens, float64(resp.Usage.TotalTokens)*costPerToken)
			}

			return nil
		})
	})

	if err != nil {
		metrics.AIRequests.WithLabelValues(kind, "error").Inc()
		return "", err
	}

	metrics.AIRequests.WithLabelValues(kind, "ok").Inc()
	return content, nil
}

// ScoredAudit is the structured result of AI transcript scoring.
type ScoredAudit struct {
	Score      int             `json:"score"`
	CSAT       int             `json:"csat"`
	CustomData map[string]bool `json:"customData"`
	Notes      string          `json:"notes"`
	Sentiment  string          `json:"sentiment,omitempty"`
}

// ScoreTranscript asks the model to evaluate a raw transcript against the
// given rubric subset. The model's answers are clamped to the applicable
// rubric ids and the score is recomputed locally from the clamped answers:
// an LLM is not a trusted input source.
func (c *Client) ScoreTranscript(ctx context.Context, rubricSubset []models.RubricItem, transcript, language string) (*ScoredAudit, error) {
	if len(rubricSubset) == 0 {
		return nil, ErrInsufficientData
	}

	var rubricLines strings.Builder
	applicable := make([]string, 0, len(rubricSubset))
	for _, item := range rubricSubset {
		applicable = append(applicable, item.ID)
		fmt.Fprintf(&rubricLines, "- %s: %s\n", item.ID, item.Label)
	}

	systemPrompt := `You are a contact-center quality analyst. Evaluate the interaction transcript against the rubric.

For each rubric item answer true (criterion met) or false (not met).
Also rate customer satisfaction 1-5 and overall sentiment (positive/neutral/negative).

Return JSON only:
{"customData": {"<item_id>": true, ...}, "csat": 4, "sentiment": "neutral", "notes": "short reviewer notes"}`

	userPrompt := fmt.Sprintf("Rubric items:\n%s\nAnswer notes in language: %s\n\nTranscript:\n%s", rubricLines.String(), language, transcript)

	content, err := c.complete(ctx, "score_transcript", systemPrompt, userPrompt, 1024)
	if err != nil {
		return nil, err
	}

	result, err := parseScoredAudit(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse AI scoring response: %w", err)
	}

	result.CustomData = clampAnswers(result.CustomData, applicable)
	result.Score = scoring.ComputeScore(result.CustomData, applicable)
	if result.CSAT < 1 {
		result.CSAT = 1
	}
	if result.CSAT > 5 {
		result.CSAT = 5
	}

	logger.Info("Transcript scored",
		zap.Int("score", result.Score),
		zap.Int("csat", result.CSAT),
	)

	return result, nil
}

// clampAnswers drops any answer key outside the applicable rubric set.
func clampAnswers(answers map[string]bool, applicable []string) map[string]bool {
	clamped := make(map[string]bool, len(applicable))
	for _, id := range applicable {
		if v, ok := answers[id]; ok {
			clamped[id] = v
		}
	}
	return clamped
}

// GenerateCoachingPlan builds a coaching plan from an agent's recent audits.
// Returns ErrInsufficientData when there are fewer than 3 audits to learn
// from.
func (c *Client) GenerateCoachingPlan(ctx context.Context, agent models.Agent, recentAudits []models.Audit) (*models.CoachingPlan, error) {
	if len(recentAudits) < 3 {
		return nil, ErrInsufficientData
	}

	var history strings.Builder
	for i := range recentAudits {
		a := &recentAudits[i]
		fmt.Fprintf(&history, "- %s: score %d, csat %d", a.Date, a.QualityScore, a.CSAT)
		if a.Notes != "" {
			fmt.Fprintf(&history, ", notes: %s", a.Notes)
		}
		history.WriteString("\n")
	}

	systemPrompt := `You are a contact-center team coach. Based on an agent's recent audit results, produce one focused coaching plan.

Return JSON only:
{"topic": "main area to improve", "tasks": ["task 1", "task 2", "task 3"]}`

	userPrompt := fmt.Sprintf("Agent: %s (channel %s)\n\nRecent audits:\n%s", agent.Name, agent.AuditChannel, history.String())

	content, err := c.complete(ctx, "coaching_plan", systemPrompt, userPrompt, 600)
	if err != nil {
		return nil, err
	}

	topic, tasks, err := parseCoachingPlan(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse coaching plan response: %w", err)
	}

	plan := &models.CoachingPlan{
		AgentID:   agent.ID,
		Topic:     topic,
		CreatedAt: time.Now(),
	}
	for _, t := range tasks {
		plan.Tasks = append(plan.Tasks, models.CoachingTask{Description: t})
	}

	return plan, nil
}

// ChatReply answers one assistant turn given the conversation history and a
// summary of workspace data for grounding.
func (c *Client) ChatReply(ctx context.Context, history []models.ChatMessage, dataContext string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	systemPrompt := fmt.Sprintf(`You are a quality-assurance assistant for a contact-center team. Answer questions about audit results, scores and trends using the workspace data below. Be concise. If the data does not cover the question, say so.

Workspace data:
%s`, dataContext)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var content string
	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model:       c.model,
				Messages:    messages,
				Temperature: c.temperature,
				MaxTokens:   c.maxTokens,
			})
			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}

			content = resp.Choices[0].Message.Content

			metrics.AITokensUsed.Add(float64(resp.Usage.TotalTokens))
			metrics.AICost.Add(float64(resp.Usage.TotalTokens) * costPerToken)
			if c.meter != nil {
				c.meter.RecordAICall(resp.Usage.TotalTokens, float64(resp.Usage.TotalTokens)*costPerToken)
			}
			return nil
		})
	})

	if err != nil {
		metrics.AIRequests.WithLabelValues("chat", "error").Inc()
		return "", err
	}

	metrics.AIRequests.WithLabelValues("chat", "ok").Inc()
	return content, nil
}
