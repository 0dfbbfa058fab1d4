package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditpulse/backend/internal/storage/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.InitSchema())
	return store
}

func TestUpsertAuditIdempotent(t *testing.T) {
	store := testStore(t)

	audit := &models.Audit{
		ID:           "a1",
		AgentName:    "ana",
		Date:         "2026-03-01",
		Type:         models.ChannelVoice,
		Status:       models.StatusPendingReview,
		CSAT:         4,
		QualityScore: 80,
		CustomData:   map[string]bool{"greeting": true, "empathy": false},
		Perception:   models.PerceptionAcceptable,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	require.NoError(t, store.UpsertAudit(audit))
	require.NoError(t, store.UpsertAudit(audit))

	audits, err := store.ListAllAudits()
	require.NoError(t, err)
	require.Len(t, audits, 1, "saving twice must not duplicate")

	audit.QualityScore = 95
	require.NoError(t, store.UpsertAudit(audit))

	got, err := store.GetAudit("a1")
	require.NoError(t, err)
	assert.Equal(t, 95, got.QualityScore)
	assert.Equal(t, map[string]bool{"greeting": true, "empathy": false}, got.CustomData)
	assert.Equal(t, models.PerceptionAcceptable, got.Perception)
}

func TestListAuditsFilters(t *testing.T) {
	store := testStore(t)
	now := time.Now()

	seed := []models.Audit{
		{ID: "1", AgentName: "ana", Project: "Acme", Date: "2026-01-10", Type: models.ChannelVoice, Status: models.StatusApproved, CreatedAt: now, UpdatedAt: now},
		{ID: "2", AgentName: "bob", Project: "Acme", Date: "2026-02-10", Type: models.ChannelChat, Status: models.StatusPendingReview, CreatedAt: now, UpdatedAt: now},
		{ID: "3", AgentName: "ana", Project: "Other", Date: "2026-03-10", Type: models.ChannelVoice, Status: models.StatusApproved, CreatedAt: now, UpdatedAt: now},
	}
	for i := range seed {
		require.NoError(t, store.UpsertAudit(&seed[i]))
	}

	t.Run("newest first", func(t *testing.T) {
		audits, err := store.ListAudits(AuditFilter{})
		require.NoError(t, err)
		require.Len(t, audits, 3)
		assert.Equal(t, "3", audits[0].ID)
		assert.Equal(t, "1", audits[2].ID)
	})

	t.Run("by agent", func(t *testing.T) {
		audits, err := store.ListAudits(AuditFilter{AgentName: "ana"})
		require.NoError(t, err)
		assert.Len(t, audits, 2)
	})

	t.Run("by project and status", func(t *testing.T) {
		audits, err := store.ListAudits(AuditFilter{Project: "Acme", Status: models.StatusApproved})
		require.NoError(t, err)
		require.Len(t, audits, 1)
		assert.Equal(t, "1", audits[0].ID)
	})

	t.Run("date window inclusive", func(t *testing.T) {
		audits, err := store.ListAudits(AuditFilter{From: "2026-02-10", To: "2026-03-10"})
		require.NoError(t, err)
		assert.Len(t, audits, 2)
	})
}

func TestReplaceAudits(t *testing.T) {
	store := testStore(t)
	now := time.Now()

	old := models.Audit{ID: "old", AgentName: "ana", Date: "2026-01-01", Type: models.ChannelVoice, Status: models.StatusDraft, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.UpsertAudit(&old))

	replacement := []models.Audit{
		{ID: "new1", AgentName: "bob", Date: "2026-02-01", Type: models.ChannelChat, Status: models.StatusApproved, CreatedAt: now, UpdatedAt: now},
		{ID: "new2", AgentName: "cleo", Date: "2026-02-02", Type: models.ChannelVoice, Status: models.StatusApproved, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, store.ReplaceAudits(replacement))

	audits, err := store.ListAllAudits()
	require.NoError(t, err)
	require.Len(t, audits, 2)
	for _, a := range audits {
		assert.NotEqual(t, "old", a.ID)
	}
}

func TestRubricItemPositions(t *testing.T) {
	store := testStore(t)

	items := []models.RubricItem{
		{ID: "first", Label: "First", Category: models.CategorySoft, IsActive: true, Type: models.ChannelBoth},
		{ID: "second", Label: "Second", Category: models.CategoryHard, IsActive: true, Type: models.ChannelBoth},
		{ID: "third", Label: "Third", Category: models.CategoryCompliance, IsActive: true, Type: models.ChannelChat},
	}
	for i := range items {
		require.NoError(t, store.UpsertRubricItem(&items[i]))
	}

	listed, err := store.ListRubricItems()
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "first", listed[0].ID)
	assert.Equal(t, "second", listed[1].ID)
	assert.Equal(t, "third", listed[2].ID)

	// Re-upserting an existing item keeps its slot.
	updated := models.RubricItem{ID: "first", Label: "First renamed", Category: models.CategorySoft, IsActive: false, Type: models.ChannelBoth}
	require.NoError(t, store.UpsertRubricItem(&updated))

	listed, err = store.ListRubricItems()
	require.NoError(t, err)
	assert.Equal(t, "first", listed[0].ID)
	assert.Equal(t, "First renamed", listed[0].Label)
	assert.False(t, listed[0].IsActive)

	// New items append at the end.
	fourth := models.RubricItem{ID: "fourth", Label: "Fourth", Category: models.CategorySoft, IsActive: true, Type: models.ChannelBoth}
	require.NoError(t, store.UpsertRubricItem(&fourth))

	listed, err = store.ListRubricItems()
	require.NoError(t, err)
	assert.Equal(t, "fourth", listed[3].ID)
}

func TestProjectRoundTrip(t *testing.T) {
	store := testStore(t)

	project := &models.Project{
		ID:          "p1",
		Name:        "Acme",
		TargetScore: 85,
		TargetCSAT:  4.5,
		RubricIDs:   []string{"greeting", "empathy"},
	}
	require.NoError(t, store.UpsertProject(project))

	projects, err := store.ListProjects()
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, []string{"greeting", "empathy"}, projects[0].RubricIDs)
	assert.Equal(t, 4.5, projects[0].TargetCSAT)
}

func TestGetSettingsInitializesOnFirstAccess(t *testing.T) {
	store := testStore(t)

	settings, err := store.GetSettings("Acme QA")
	require.NoError(t, err)
	assert.Equal(t, "Acme QA", settings.CompanyName)

	settings.ChatbotName = "Pulse"
	settings.Usage.AIAuditsCount = 3
	require.NoError(t, store.SaveSettings(settings))

	reloaded, err := store.GetSettings("ignored-after-init")
	require.NoError(t, err)
	assert.Equal(t, "Acme QA", reloaded.CompanyName)
	assert.Equal(t, "Pulse", reloaded.ChatbotName)
	assert.Equal(t, 3, reloaded.Usage.AIAuditsCount)
}

func TestChatSessionRoundTrip(t *testing.T) {
	store := testStore(t)

	session := &models.ChatSession{
		ID:    "s1",
		Title: "score questions",
		Date:  "2026-03-01",
		Messages: []models.ChatMessage{
			{Role: "user", Content: "how is ana doing"},
			{Role: "assistant", Content: "fine"},
		},
	}
	require.NoError(t, store.UpsertChatSession(session))

	sessions, err := store.ListChatSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Len(t, sessions[0].Messages, 2)

	require.NoError(t, store.DeleteChatSession("s1"))
	sessions, err = store.ListChatSessions()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestCoachingPlans(t *testing.T) {
	store := testStore(t)

	plan := &models.CoachingPlan{
		ID:      "cp1",
		AgentID: "ag1",
		Topic:   "empathy",
		Tasks: []models.CoachingTask{
			{Description: "shadow a senior agent"},
		},
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.UpsertCoachingPlan(plan))

	plans, err := store.ListCoachingPlans("ag1")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "empathy", plans[0].Topic)
	require.Len(t, plans[0].Tasks, 1)

	plans, err = store.ListCoachingPlans("other")
	require.NoError(t, err)
	assert.Empty(t, plans)
}
