package export

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditpulse/backend/internal/storage/models"
)

type fakeStore struct {
	audits   []models.Audit
	agents   []models.Agent
	projects []models.Project
	rubric   []models.RubricItem
	users    []models.User
	settings models.AppSettings

	replaced map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{replaced: map[string]bool{}}
}

func (f *fakeStore) ListAllAudits() ([]models.Audit, error)        { return f.audits, nil }
func (f *fakeStore) ListAgents() ([]models.Agent, error)           { return f.agents, nil }
func (f *fakeStore) ListProjects() ([]models.Project, error)       { return f.projects, nil }
func (f *fakeStore) ListRubricItems() ([]models.RubricItem, error) { return f.rubric, nil }
func (f *fakeStore) ListUsers() ([]models.User, error)             { return f.users, nil }

func (f *fakeStore) GetSettings(defaultCompanyName string) (*models.AppSettings, error) {
	if f.settings.CompanyName == "" {
		f.settings.CompanyName = defaultCompanyName
	}
	settings := f.settings
	return &settings, nil
}

func (f *fakeStore) ReplaceAudits(audits []models.Audit) error {
	f.audits = audits
	f.replaced["audits"] = true
	return nil
}
func (f *fakeStore) ReplaceAgents(agents []models.Agent) error {
	f.agents = agents
	f.replaced["agents"] = true
	return nil
}
func (f *fakeStore) ReplaceProjects(projects []models.Project) error {
	f.projects = projects
	f.replaced["projects"] = true
	return nil
}
func (f *fakeStore) ReplaceRubricItems(items []models.RubricItem) error {
	f.rubric = items
	f.replaced["rubric"] = true
	return nil
}
func (f *fakeStore) ReplaceUsers(users []models.User) error {
	f.users = users
	f.replaced["users"] = true
	return nil
}
func (f *fakeStore) SaveSettings(settings *models.AppSettings) error {
	f.settings = *settings
	f.replaced["settings"] = true
	return nil
}

func TestExportImportRoundTrip(t *testing.T) {
	source := newFakeStore()
	source.audits = []models.Audit{{ID: "a1", AgentName: "ana", QualityScore: 90}}
	source.agents = []models.Agent{{ID: "ag1", Name: "ana"}}
	source.rubric = []models.RubricItem{{ID: "greeting", Label: "Greeting", IsActive: true}}
	source.settings = models.AppSettings{CompanyName: "Acme QA"}

	bundle, err := NewService(source, "Acme QA").Export()
	require.NoError(t, err)

	data, err := json.Marshal(bundle)
	require.NoError(t, err)

	target := newFakeStore()
	require.True(t, NewService(target, "Other").Import(data))

	assert.Equal(t, source.audits, target.audits)
	assert.Equal(t, source.agents, target.agents)
	assert.Equal(t, source.rubric, target.rubric)
	assert.Equal(t, "Acme QA", target.settings.CompanyName)
}

func TestImportMalformedMutatesNothing(t *testing.T) {
	store := newFakeStore()
	store.audits = []models.Audit{{ID: "keep"}}

	svc := NewService(store, "Acme")

	assert.False(t, svc.Import([]byte("{not json")))
	assert.False(t, svc.Import([]byte(`{"audits": "wrong type"}`)))

	assert.Empty(t, store.replaced)
	assert.Len(t, store.audits, 1)
}

func TestImportPartialBundleTouchesOnlyPresentCollections(t *testing.T) {
	store := newFakeStore()
	store.audits = []models.Audit{{ID: "keep"}}
	store.agents = []models.Agent{{ID: "keep"}}

	svc := NewService(store, "Acme")
	require.True(t, svc.Import([]byte(`{"agents": []}`)))

	assert.True(t, store.replaced["agents"])
	assert.Empty(t, store.agents, "present-but-empty collection replaces with empty")
	assert.False(t, store.replaced["audits"], "absent collection stays untouched")
	assert.Len(t, store.audits, 1)
}

func TestAuditsCSV(t *testing.T) {
	audits := []models.Audit{
		{
			ID:           "a1",
			Date:         "2026-03-01",
			AgentName:    "ana",
			Project:      "Acme",
			Status:       models.StatusApproved,
			CSAT:         5,
			QualityScore: 92,
		},
	}

	data, err := AuditsCSV(audits)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,id,agent,project,status,csat,score", lines[0])
	assert.Equal(t, "2026-03-01,a1,ana,Acme,APPROVED,5,92%", lines[1])
}

func TestAuditsCSVEmpty(t *testing.T) {
	data, err := AuditsCSV(nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 1, "header only")
}

func TestAuditJSON(t *testing.T) {
	data, err := AuditJSON(&models.Audit{ID: "a1", AgentName: "ana"})
	require.NoError(t, err)

	var decoded models.Audit
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "a1", decoded.ID)
	assert.Contains(t, string(data), "\n", "output is indented")
}
