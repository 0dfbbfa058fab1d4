package models

import "time"

type Channel string

const (
	ChannelVoice Channel = "VOICE"
	ChannelChat  Channel = "CHAT"
	ChannelBoth  Channel = "BOTH"
)

// Matches reports whether an item scoped to c applies to an audit channel.
func (c Channel) Matches(auditChannel Channel) bool {
	return c == ChannelBoth || c == auditChannel
}

type Category string

const (
	CategorySoft       Category = "soft"
	CategoryHard       Category = "hard"
	CategoryCompliance Category = "compliance"
)

var Categories = []Category{CategorySoft, CategoryHard, CategoryCompliance}

type AuditStatus string

const (
	StatusDraft         AuditStatus = "DRAFT"
	StatusPendingReview AuditStatus = "PENDING_REVIEW"
	StatusApproved      AuditStatus = "APPROVED"
	StatusRejected      AuditStatus = "REJECTED"
)

type Perception string

const (
	PerceptionOptimal    Perception = "Optimal"
	PerceptionAcceptable Perception = "Acceptable"
	PerceptionPoor       Perception = "Poor"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleAuditor Role = "AUDITOR"
)

// RubricItem is one boolean evaluation criterion (KPI). ID must stay stable
// once audits reference it in CustomData; deactivate instead of renaming.
// Position preserves catalog insertion order for stable display.
type RubricItem struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Category Category `json:"category"`
	IsActive bool     `json:"isActive"`
	Type     Channel  `json:"type"`
	Position int      `json:"-"`
}

// Project optionally restricts which rubric items apply via RubricIDs.
// An empty RubricIDs set means all channel-matched active items apply.
type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	TargetScore int      `json:"targetScore"`
	TargetCSAT  float64  `json:"targetCsat"`
	RubricIDs   []string `json:"rubricIds,omitempty"`
}

type Agent struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ProjectID    string  `json:"projectId,omitempty"`
	AuditChannel Channel `json:"auditChannel"`
}

// Audit is one structured evaluation of a single interaction. Voice and chat
// variants share the struct, discriminated by Type; channel-specific fields
// are zero for the other variant.
//
// QualityScore is a frozen snapshot computed at save time from CustomData and
// the rubric items applicable then. It is never recomputed when the catalog
// changes afterwards.
type Audit struct {
	ID            string          `json:"id"`
	ReadableID    string          `json:"readableId,omitempty"`
	AgentName     string          `json:"agentName"`
	Project       string          `json:"project,omitempty"`
	Date          string          `json:"date"`
	Type          Channel         `json:"type"`
	Status        AuditStatus     `json:"status"`
	CSAT          int             `json:"csat"`
	QualityScore  int             `json:"qualityScore"`
	Notes         string          `json:"notes,omitempty"`
	AINotes       string          `json:"aiNotes,omitempty"`
	CustomData    map[string]bool `json:"customData,omitempty"`
	Sentiment     string          `json:"sentiment,omitempty"`
	IsAIGenerated bool            `json:"isAiGenerated,omitempty"`

	// Voice fields.
	Duration   float64    `json:"duration,omitempty"`
	Perception Perception `json:"perception,omitempty"`

	// Chat fields.
	ChatTime            string `json:"chatTime,omitempty"`
	InitialResponseTime string `json:"initialResponseTime,omitempty"`
	ResolutionTime      string `json:"resolutionTime,omitempty"`
	ResponseUnder5Min   bool   `json:"responseUnder5Min,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
	PIN  string `json:"pin"`
}

type Usage struct {
	AIAuditsCount   int     `json:"aiAuditsCount"`
	EstimatedTokens int     `json:"estimatedTokens"`
	EstimatedCost   float64 `json:"estimatedCost"`
}

type AppSettings struct {
	CompanyName string `json:"companyName"`
	LogoData    string `json:"logoData,omitempty"`
	ChatbotName string `json:"chatbotName,omitempty"`
	Usage       Usage  `json:"usage"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatSession struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Date     string        `json:"date"`
	Messages []ChatMessage `json:"messages"`
}

type CoachingTask struct {
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

type CoachingPlan struct {
	ID        string         `json:"id"`
	AgentID   string         `json:"agentId"`
	Topic     string         `json:"topic"`
	Tasks     []CoachingTask `json:"tasks"`
	CreatedAt time.Time      `json:"createdAt"`
}
