// Package syncer implements the offline-first write policy: every mutation
// lands in the local store synchronously, then is pushed to the remote store
// best-effort in the background. Remote failures are logged and counted but
// never surface to the caller of a local mutation.
package syncer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/metrics"
	"github.com/auditpulse/backend/internal/storage/models"
	"github.com/auditpulse/backend/pkg/logger"
)

const pushTimeout = 15 * time.Second

type localStore interface {
	UpsertAudit(*models.Audit) error
	DeleteAudit(id string) error
	ReplaceAudits([]models.Audit) error

	UpsertAgent(*models.Agent) error
	DeleteAgent(id string) error
	ReplaceAgents([]models.Agent) error
	ListAgents() ([]models.Agent, error)

	UpsertProject(*models.Project) error
	DeleteProject(id string) error
	ReplaceProjects([]models.Project) error

	UpsertUser(*models.User) error
	DeleteUser(id string) error
	ReplaceUsers([]models.User) error
}

type remoteStore interface {
	Configured() bool
	Push(ctx context.Context, table string, record interface{}) error
	Pull(ctx context.Context, table string, out interface{}) error
	Delete(ctx context.Context, table, id string) error
}

type Syncer struct {
	store     localStore
	remote    remoteStore
	workspace string
}

func New(store localStore, remote remoteStore, workspace string) *Syncer {
	return &Syncer{
		store:     store,
		remote:    remote,
		workspace: workspace,
	}
}

// --- Write path ---

// SaveAudit writes locally and fires a best-effort remote push. The local
// write is the only one that can fail the caller.
func (s *Syncer) SaveAudit(a *models.Audit) error {
	s.resolveAgentName(a)

	if err := s.store.UpsertAudit(a); err != nil {
		return err
	}

	metrics.AuditsSaved.WithLabelValues(string(a.Type)).Inc()
	metrics.QualityScore.Observe(float64(a.QualityScore))

	s.pushAsync("audits", auditToRemote(a, s.workspace))
	return nil
}

func (s *Syncer) DeleteAudit(id string) error {
	if err := s.store.DeleteAudit(id); err != nil {
		return err
	}

	metrics.AuditsDeleted.Inc()

	s.deleteAsync("audits", id)
	return nil
}

func (s *Syncer) SaveAgent(a *models.Agent) error {
	if err := s.store.UpsertAgent(a); err != nil {
		return err
	}
	s.pushAsync("agents", agentToRemote(a, s.workspace))
	return nil
}

func (s *Syncer) DeleteAgent(id string) error {
	if err := s.store.DeleteAgent(id); err != nil {
		return err
	}
	s.deleteAsync("agents", id)
	return nil
}

func (s *Syncer) SaveProject(p *models.Project) error {
	if err := s.store.UpsertProject(p); err != nil {
		return err
	}
	s.pushAsync("projects", projectToRemote(p, s.workspace))
	return nil
}

func (s *Syncer) DeleteProject(id string) error {
	if err := s.store.DeleteProject(id); err != nil {
		return err
	}
	s.deleteAsync("projects", id)
	return nil
}

func (s *Syncer) SaveUser(u *models.User) error {
	if err := s.store.UpsertUser(u); err != nil {
		return err
	}
	s.pushAsync("users", userToRemote(u, s.workspace))
	return nil
}

func (s *Syncer) DeleteUser(id string) error {
	if err := s.store.DeleteUser(id); err != nil {
		return err
	}
	s.deleteAsync("users", id)
	return nil
}

// resolveAgentName checks the denormalized agent name against the roster at
// write time. Unresolved names are logged, never rejected: audits for agents
// not yet registered are valid records.
func (s *Syncer) resolveAgentName(a *models.Audit) {
	agents, err := s.store.ListAgents()
	if err != nil {
		return
	}
	for i := range agents {
		if agents[i].Name == a.AgentName {
			return
		}
	}
	logger.Debug("Audit references unregistered agent name",
		zap.String("audit_id", a.ID),
		zap.String("agent_name", a.AgentName),
	)
}

func (s *Syncer) pushAsync(table string, record interface{}) {
	if !s.remote.Configured() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()

		if err := s.remote.Push(ctx, table, record); err != nil {
			metrics.SyncPushTotal.WithLabelValues(table, "error").Inc()
			logger.Warn("Remote push failed",
				zap.String("table", table),
				zap.Error(err),
			)
			return
		}
		metrics.SyncPushTotal.WithLabelValues(table, "ok").Inc()
	}()
}

func (s *Syncer) deleteAsync(table, id string) {
	if !s.remote.Configured() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()

		if err := s.remote.Delete(ctx, table, id); err != nil {
			metrics.SyncPushTotal.WithLabelValues(table, "error").Inc()
			logger.Warn("Remote delete failed",
				zap.String("table", table),
				zap.String("id", id),
				zap.Error(err),
			)
			return
		}
		metrics.SyncPushTotal.WithLabelValues(table, "ok").Inc()
	}()
}

// --- Reconciliation ---

type PullResult struct {
	Entity  string `json:"entity"`
	Pulled  int    `json:"pulled"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// FullPull fetches every remote collection and wholesale-replaces the local
// copy per entity type, but only when the remote result is non-empty. An
// empty pull is treated as "remote unavailable or uninitialized" and leaves
// local data untouched; wiping a populated local store because the remote
// answered with nothing would be unrecoverable data loss.
func (s *Syncer) FullPull(ctx context.Context) []PullResult {
	results := []PullResult{
		s.pullAudits(ctx),
		s.pullAgents(ctx),
		s.pullProjects(ctx),
		s.pullUsers(ctx),
	}

	for _, r := range results {
		status := "skipped"
		if r.Applied {
			status = "ok"
		}
		if r.Error != "" {
			status = "error"
		}
		metrics.SyncPullTotal.WithLabelValues(r.Entity, status).Inc()
	}

	return results
}

func (s *Syncer) pullAudits(ctx context.Context) PullResult {
	result := PullResult{Entity: "audits"}

	var records []auditRecord
	if err := s.remote.Pull(ctx, "audits", &records); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Pulled = len(records)
	if len(records) == 0 {
		return result
	}

	audits := make([]models.Audit, 0, len(records))
	for i := range records {
		audits = append(audits, records[i].toModel())
	}

	if err := s.store.ReplaceAudits(audits); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Applied = true
	return result
}

func (s *Syncer) pullAgents(ctx context.Context) PullResult {
	result := PullResult{Entity: "agents"}

	var records []agentRecord
	if err := s.remote.Pull(ctx, "agents", &records); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Pulled = len(records)
	if len(records) == 0 {
		return result
	}

	agents := make([]models.Agent, 0, len(records))
	for i := range records {
		agents = append(agents, records[i].toModel())
	}

	if err := s.store.ReplaceAgents(agents); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Applied = true
	return result
}

func (s *Syncer) pullProjects(ctx context.Context) PullResult {
	result := PullResult{Entity: "projects"}

	var records []projectRecord
	if err := s.remote.Pull(ctx, "projects", &records); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Pulled = len(records)
	if len(records) == 0 {
		return result
	}

	projects := make([]models.Project, 0, len(records))
	for i := range records {
		projects = append(projects, records[i].toModel())
	}

	if err := s.store.ReplaceProjects(projects); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Applied = true
	return result
}

func (s *Syncer) pullUsers(ctx context.Context) PullResult {
	result := PullResult{Entity: "users"}

	var records []userRecord
	if err := s.remote.Pull(ctx, "users", &records); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Pulled = len(records)
	if len(records) == 0 {
		return result
	}

	users := make([]models.User, 0, len(records))
	for i := range records {
		users = append(users, records[i].toModel())
	}

	if err := s.store.ReplaceUsers(users); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Applied = true
	return result
}

// Enabled reports whether remote sync is active.
func (s *Syncer) Enabled() bool {
	return s.remote.Configured()
}
