package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditpulse/backend/internal/storage/models"
)

type fakeLocal struct {
	audits   []models.Audit
	agents   []models.Agent
	projects []models.Project
	users    []models.User

	replacedAudits bool
}

func (f *fakeLocal) UpsertAudit(a *models.Audit) error {
	f.audits = append(f.audits, *a)
	return nil
}
func (f *fakeLocal) DeleteAudit(id string) error { return nil }
func (f *fakeLocal) ReplaceAudits(audits []models.Audit) error {
	f.audits = audits
	f.replacedAudits = true
	return nil
}

func (f *fakeLocal) UpsertAgent(a *models.Agent) error {
	f.agents = append(f.agents, *a)
	return nil
}
func (f *fakeLocal) DeleteAgent(id string) error                { return nil }
func (f *fakeLocal) ReplaceAgents(agents []models.Agent) error  { f.agents = agents; return nil }
func (f *fakeLocal) ListAgents() ([]models.Agent, error)        { return f.agents, nil }
func (f *fakeLocal) UpsertProject(p *models.Project) error      { return nil }
func (f *fakeLocal) DeleteProject(id string) error              { return nil }
func (f *fakeLocal) ReplaceProjects(p []models.Project) error   { f.projects = p; return nil }
func (f *fakeLocal) UpsertUser(u *models.User) error            { return nil }
func (f *fakeLocal) DeleteUser(id string) error                 { return nil }
func (f *fakeLocal) ReplaceUsers(users []models.User) error     { f.users = users; return nil }

type fakeRemote struct {
	mu         sync.Mutex
	configured bool
	pushErr    error
	pushed     []string
	deleted    []string
	pullData   map[string]interface{}
	pullErr    map[string]error
}

func (f *fakeRemote) Configured() bool { return f.configured }

func (f *fakeRemote) Push(ctx context.Context, table string, record interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, table)
	return nil
}

func (f *fakeRemote) Pull(ctx context.Context, table string, out interface{}) error {
	if err := f.pullErr[table]; err != nil {
		return err
	}
	data, ok := f.pullData[table]
	if !ok {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeRemote) Delete(ctx context.Context, table, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, table+":"+id)
	return nil
}

func (f *fakeRemote) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushed)
}

func TestSaveAuditWritesLocallyAndPushes(t *testing.T) {
	local := &fakeLocal{}
	remote := &fakeRemote{configured: true}
	s := New(local, remote, "ws1")

	require.NoError(t, s.SaveAudit(&models.Audit{ID: "a1", AgentName: "ana"}))

	assert.Len(t, local.audits, 1)
	assert.Eventually(t, func() bool { return remote.pushCount() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestSaveAuditSurvivesRemoteFailure(t *testing.T) {
	local := &fakeLocal{}
	remote := &fakeRemote{configured: true, pushErr: errors.New("remote down")}
	s := New(local, remote, "ws1")

	// The local write is the source of truth; a failing push never surfaces.
	require.NoError(t, s.SaveAudit(&models.Audit{ID: "a1", AgentName: "ana"}))
	assert.Len(t, local.audits, 1)
}

func TestSaveAuditLocalOnlySkipsPush(t *testing.T) {
	local := &fakeLocal{}
	remote := &fakeRemote{configured: false}
	s := New(local, remote, "ws1")

	require.NoError(t, s.SaveAudit(&models.Audit{ID: "a1", AgentName: "ana"}))

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, remote.pushCount())
}

func TestFullPullEmptyRemoteLeavesLocalUntouched(t *testing.T) {
	local := &fakeLocal{audits: []models.Audit{{ID: "keep"}}}
	remote := &fakeRemote{configured: true}
	s := New(local, remote, "ws1")

	results := s.FullPull(context.Background())

	require.Len(t, results, 4)
	for _, r := range results {
		assert.False(t, r.Applied, "empty pull for %s must not be applied", r.Entity)
		assert.Empty(t, r.Error)
	}
	assert.False(t, local.replacedAudits)
	assert.Len(t, local.audits, 1)
}

func TestFullPullReplacesOnNonEmptyResult(t *testing.T) {
	local := &fakeLocal{audits: []models.Audit{{ID: "stale"}}}
	remote := &fakeRemote{
		configured: true,
		pullData: map[string]interface{}{
			"audits": []auditRecord{
				{ID: "r1", AgentName: "ana", Type: "VOICE", QualityScore: 88},
				{ID: "r2", AgentName: "bob", Type: "CHAT", QualityScore: 70},
			},
			"agents": []agentRecord{
				{ID: "ag1", Name: "ana", AuditChannel: "BOTH"},
			},
		},
	}
	s := New(local, remote, "ws1")

	results := s.FullPull(context.Background())

	byEntity := map[string]PullResult{}
	for _, r := range results {
		byEntity[r.Entity] = r
	}

	assert.True(t, byEntity["audits"].Applied)
	assert.Equal(t, 2, byEntity["audits"].Pulled)
	assert.True(t, byEntity["agents"].Applied)
	assert.False(t, byEntity["projects"].Applied)
	assert.False(t, byEntity["users"].Applied)

	require.Len(t, local.audits, 2)
	assert.Equal(t, "r1", local.audits[0].ID)
	assert.Equal(t, models.ChannelVoice, local.audits[0].Type)
	assert.False(t, local.audits[0].CreatedAt.IsZero(), "pulled audits get fresh local timestamps")
}

func TestFullPullReportsPerEntityErrors(t *testing.T) {
	local := &fakeLocal{audits: []models.Audit{{ID: "keep"}}}
	remote := &fakeRemote{
		configured: true,
		pullErr:    map[string]error{"audits": errors.New("boom")},
	}
	s := New(local, remote, "ws1")

	results := s.FullPull(context.Background())

	byEntity := map[string]PullResult{}
	for _, r := range results {
		byEntity[r.Entity] = r
	}

	assert.Equal(t, "boom", byEntity["audits"].Error)
	assert.Len(t, local.audits, 1, "a failed pull must not clobber local data")
	assert.Empty(t, byEntity["agents"].Error, "other entities still pull")
}

func TestAuditRecordAllowList(t *testing.T) {
	a := &models.Audit{
		ID:            "a1",
		AgentName:     "ana",
		Type:          models.ChannelVoice,
		QualityScore:  90,
		Notes:         "fine",
		AINotes:       "model chatter",
		IsAIGenerated: true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	record := auditToRemote(a, "ws1")
	raw, err := json.Marshal(record)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.Equal(t, "ws1", fields["workspace"])
	assert.Equal(t, "a1", fields["id"])
	assert.NotContains(t, fields, "aiNotes")
	assert.NotContains(t, fields, "isAiGenerated")
	assert.NotContains(t, fields, "createdAt")
	assert.NotContains(t, fields, "updatedAt")
}

func TestEnabled(t *testing.T) {
	assert.True(t, New(&fakeLocal{}, &fakeRemote{configured: true}, "ws").Enabled())
	assert.False(t, New(&fakeLocal{}, &fakeRemote{}, "ws").Enabled())
}
