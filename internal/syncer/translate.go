package syncer

import (
	"time"

	"github.com/auditpulse/backend/internal/storage/models"
)

// Remote record shapes. Only allow-listed fields cross the boundary, and
// every record carries the workspace identifier. Local bookkeeping fields
// (timestamps, AI annotations) stay local.

type auditRecord struct {
	Workspace    string          `json:"workspace"`
	ID           string          `json:"id"`
	ReadableID   string          `json:"readableId,omitempty"`
	AgentName    string          `json:"agentName"`
	Project      string          `json:"project,omitempty"`
	Date         string          `json:"date"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	CSAT         int             `json:"csat"`
	QualityScore int             `json:"qualityScore"`
	Notes        string          `json:"notes,omitempty"`
	CustomData   map[string]bool `json:"customData,omitempty"`
	Sentiment    string          `json:"sentiment,omitempty"`

	Duration   float64 `json:"duration,omitempty"`
	Perception string  `json:"perception,omitempty"`

	ChatTime            string `json:"chatTime,omitempty"`
	InitialResponseTime string `json:"initialResponseTime,omitempty"`
	ResolutionTime      string `json:"resolutionTime,omitempty"`
	ResponseUnder5Min   bool   `json:"responseUnder5Min,omitempty"`
}

func auditToRemote(a *models.Audit, workspace string) auditRecord {
	return auditRecord{
		Workspace:           workspace,
		ID:                  a.ID,
		ReadableID:          a.ReadableID,
		AgentName:           a.AgentName,
		Project:             a.Project,
		Date:                a.Date,
		Type:                string(a.Type),
		Status:              string(a.Status),
		CSAT:                a.CSAT,
		QualityScore:        a.QualityScore,
		Notes:               a.Notes,
		CustomData:          a.CustomData,
		Sentiment:           a.Sentiment,
		Duration:            a.Duration,
		Perception:          string(a.Perception),
		ChatTime:            a.ChatTime,
		InitialResponseTime: a.InitialResponseTime,
		ResolutionTime:      a.ResolutionTime,
		ResponseUnder5Min:   a.ResponseUnder5Min,
	}
}

func (r *auditRecord) toModel() models.Audit {
	now := time.Now()
	return models.Audit{
		ID:                  r.ID,
		ReadableID:          r.ReadableID,
		AgentName:           r.AgentName,
		Project:             r.Project,
		Date:                r.Date,
		Type:                models.Channel(r.Type),
		Status:              models.AuditStatus(r.Status),
		CSAT:                r.CSAT,
		QualityScore:        r.QualityScore,
		Notes:               r.Notes,
		CustomData:          r.CustomData,
		Sentiment:           r.Sentiment,
		Duration:            r.Duration,
		Perception:          models.Perception(r.Perception),
		ChatTime:            r.ChatTime,
		InitialResponseTime: r.InitialResponseTime,
		ResolutionTime:      r.ResolutionTime,
		ResponseUnder5Min:   r.ResponseUnder5Min,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

type agentRecord struct {
	Workspace    string `json:"workspace"`
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProjectID    string `json:"projectId,omitempty"`
	AuditChannel string `json:"auditChannel"`
}

func agentToRemote(a *models.Agent, workspace string) agentRecord {
	return agentRecord{
		Workspace:    workspace,
		ID:           a.ID,
		Name:         a.Name,
		ProjectID:    a.ProjectID,
		AuditChannel: string(a.AuditChannel),
	}
}

func (r *agentRecord) toModel() models.Agent {
	return models.Agent{
		ID:           r.ID,
		Name:         r.Name,
		ProjectID:    r.ProjectID,
		AuditChannel: models.Channel(r.AuditChannel),
	}
}

type projectRecord struct {
	Workspace   string   `json:"workspace"`
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	TargetScore int      `json:"targetScore"`
	TargetCSAT  float64  `json:"targetCsat"`
	RubricIDs   []string `json:"rubricIds,omitempty"`
}

func projectToRemote(p *models.Project, workspace string) projectRecord {
	return projectRecord{
		Workspace:   workspace,
		ID:          p.ID,
		Name:        p.Name,
		TargetScore: p.TargetScore,
		TargetCSAT:  p.TargetCSAT,
		RubricIDs:   p.RubricIDs,
	}
}

func (r *projectRecord) toModel() models.Project {
	return models.Project{
		ID:          r.ID,
		Name:        r.Name,
		TargetScore: r.TargetScore,
		TargetCSAT:  r.TargetCSAT,
		RubricIDs:   r.RubricIDs,
	}
}

type userRecord struct {
	Workspace string `json:"workspace"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	PIN       string `json:"pin"`
}

func userToRemote(u *models.User, workspace string) userRecord {
	return userRecord{
		Workspace: workspace,
		ID:        u.ID,
		Name:      u.Name,
		Role:      string(u.Role),
		PIN:       u.PIN,
	}
}

func (r *userRecord) toModel() models.User {
	return models.User{
		ID:   r.ID,
		Name: r.Name,
		Role: models.Role(r.Role),
		PIN:  r.PIN,
	}
}
