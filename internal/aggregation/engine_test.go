package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditpulse/backend/internal/storage/models"
)

func audit(agent string, score int, csat int) models.Audit {
	return models.Audit{AgentName: agent, QualityScore: score, CSAT: csat}
}

func TestAverages(t *testing.T) {
	t.Run("empty subset averages to zero", func(t *testing.T) {
		assert.Equal(t, 0.0, AverageScore(nil))
		assert.Equal(t, 0.0, AverageCSAT(nil))
	})

	t.Run("mean over subset", func(t *testing.T) {
		audits := []models.Audit{
			audit("ana", 80, 4),
			audit("ana", 90, 5),
		}
		assert.Equal(t, 85.0, AverageScore(audits))
		assert.Equal(t, 4.5, AverageCSAT(audits))
	})
}

func TestByDateRange(t *testing.T) {
	audits := []models.Audit{
		{ID: "1", Date: "2026-01-10"},
		{ID: "2", Date: "2026-02-15"},
		{ID: "3", Date: "2026-03-20"},
	}

	tests := []struct {
		name     string
		from, to string
		wantIDs  []string
	}{
		{"open both sides", "", "", []string{"1", "2", "3"}},
		{"lower bound inclusive", "2026-02-15", "", []string{"2", "3"}},
		{"upper bound inclusive", "", "2026-02-15", []string{"1", "2"}},
		{"window", "2026-02-01", "2026-02-28", []string{"2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ByDateRange(audits, tt.from, tt.to)
			ids := make([]string, 0, len(got))
			for _, a := range got {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestRubricBreakdown(t *testing.T) {
	rubric := []models.RubricItem{
		{ID: "greeting", Label: "Greeting"},
		{ID: "empathy", Label: "Empathy"},
		{ID: "never_used", Label: "Never evaluated"},
	}
	audits := []models.Audit{
		{CustomData: map[string]bool{"greeting": true, "empathy": false}},
		{CustomData: map[string]bool{"greeting": true, "empathy": false}},
		{CustomData: map[string]bool{"greeting": false}},
	}

	rows := RubricBreakdown(audits, rubric)

	require.Len(t, rows, 2, "items never evaluated must be omitted")

	// Weakest first: empathy 0% before greeting 67%.
	assert.Equal(t, "empathy", rows[0].Item.ID)
	assert.Equal(t, 0, rows[0].AvgPassRate)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, 2, rows[0].Failures)

	assert.Equal(t, "greeting", rows[1].Item.ID)
	assert.Equal(t, 67, rows[1].AvgPassRate)
	assert.Equal(t, 3, rows[1].Count)
	assert.Equal(t, 1, rows[1].Failures)
}

func TestTopWeaknesses(t *testing.T) {
	rubric := []models.RubricItem{
		{ID: "a"}, {ID: "b"}, {ID: "c"},
	}
	audits := []models.Audit{
		{CustomData: map[string]bool{"a": false, "b": false, "c": true}},
		{CustomData: map[string]bool{"a": false, "b": true, "c": true}},
	}

	rows := TopWeaknesses(audits, rubric, 2)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].Item.ID)
	assert.Equal(t, 2, rows[0].Failures)
	assert.Equal(t, "b", rows[1].Item.ID)
	assert.Equal(t, 1, rows[1].Failures)
}

func TestCategoryRadarAlwaysHasAllAxes(t *testing.T) {
	rubric := []models.RubricItem{
		{ID: "soft1", Category: models.CategorySoft},
	}
	audits := []models.Audit{
		{CustomData: map[string]bool{"soft1": true}},
	}

	axes := CategoryRadar(audits, audits, rubric)

	require.Len(t, axes, len(models.Categories))
	byCategory := map[models.Category]RadarAxis{}
	for _, axis := range axes {
		byCategory[axis.Category] = axis
	}

	assert.Equal(t, 100, byCategory[models.CategorySoft].A)
	// Categories with no evaluations default to 0, not NaN or omission.
	assert.Equal(t, 0, byCategory[models.CategoryHard].A)
	assert.Equal(t, 0, byCategory[models.CategoryCompliance].A)
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   int
	}{
		{"run broken by dip", []int{95, 92, 60, 99}, 2},
		{"no qualifying audits", []int{50, 40}, 0},
		{"all qualify", []int{90, 95, 100}, 3},
		{"empty", nil, 0},
		{"threshold is inclusive", []int{90}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audits := make([]models.Audit, 0, len(tt.scores))
			for _, s := range tt.scores {
				audits = append(audits, models.Audit{QualityScore: s})
			}
			assert.Equal(t, tt.want, Streak(audits, DefaultStreakThreshold))
		})
	}
}

func TestBadges(t *testing.T) {
	t.Run("no badges for a fresh agent", func(t *testing.T) {
		assert.Empty(t, Badges(AgentStats{TotalAudits: 1, AvgScore: 70, AvgCSAT: 3}))
	})

	t.Run("all badges", func(t *testing.T) {
		badges := Badges(AgentStats{
			TotalAudits: 12,
			AvgScore:    96,
			AvgCSAT:     4.9,
			Streak:      4,
		})
		ids := make([]string, 0, len(badges))
		for _, b := range badges {
			ids = append(ids, b.ID)
		}
		assert.ElementsMatch(t, []string{"on_fire", "customer_favorite", "quality_star", "veteran"}, ids)
	})

	t.Run("boundaries", func(t *testing.T) {
		badges := Badges(AgentStats{TotalAudits: 10, AvgScore: 95, AvgCSAT: 4.8, Streak: 3})
		assert.Len(t, badges, 4)

		badges = Badges(AgentStats{TotalAudits: 9, AvgScore: 94.9, AvgCSAT: 4.79, Streak: 2})
		assert.Empty(t, badges)
	})
}

func TestTopAgentsByScore(t *testing.T) {
	audits := []models.Audit{
		audit("ana", 90, 5),
		audit("bob", 95, 4),
		audit("ana", 70, 3),
		audit("cleo", 80, 4),
	}

	rankings := TopAgentsByScore(audits, 2)
	require.Len(t, rankings, 2)
	assert.Equal(t, "bob", rankings[0].AgentName)
	assert.Equal(t, 95.0, rankings[0].AvgScore)
	assert.Equal(t, "ana", rankings[1].AgentName)
	assert.Equal(t, 80.0, rankings[1].AvgScore)
	assert.Equal(t, 2, rankings[1].Count)
}

func TestTopAgentsByScoreStableTies(t *testing.T) {
	audits := []models.Audit{
		audit("first", 80, 4),
		audit("second", 80, 4),
	}

	rankings := TopAgentsByScore(audits, 0)
	require.Len(t, rankings, 2)
	assert.Equal(t, "first", rankings[0].AgentName)
	assert.Equal(t, "second", rankings[1].AgentName)
}

func TestBuildAgentScorecard(t *testing.T) {
	snap := Snapshot{
		Audits: []models.Audit{
			{AgentName: "ana", QualityScore: 100, CSAT: 5, Type: models.ChannelVoice,
				CustomData: map[string]bool{"greeting": true}},
			{AgentName: "ana", QualityScore: 90, CSAT: 4, Type: models.ChannelChat,
				CustomData: map[string]bool{"greeting": true}},
			{AgentName: "bob", QualityScore: 50, CSAT: 2, Type: models.ChannelVoice,
				CustomData: map[string]bool{"greeting": false}},
		},
		Rubric: []models.RubricItem{
			{ID: "greeting", Category: models.CategorySoft},
		},
	}

	card := BuildAgentScorecard(snap, "ana")

	assert.Equal(t, "ana", card.Stats.AgentName)
	assert.Equal(t, 2, card.Stats.TotalAudits)
	assert.Equal(t, 95.0, card.Stats.AvgScore)
	assert.Equal(t, 2, card.Stats.Streak)
	assert.Len(t, card.Split, 2)

	require.Len(t, card.Breakdown, 1)
	assert.Equal(t, 100, card.Breakdown[0].AvgPassRate)

	// Radar B series compares against the whole workspace, bob included.
	require.Len(t, card.Radar, len(models.Categories))
	for _, axis := range card.Radar {
		if axis.Category == models.CategorySoft {
			assert.Equal(t, 100, axis.A)
			assert.Equal(t, 67, axis.B)
		}
	}
}

func TestBuildProjectScorecard(t *testing.T) {
	snap := Snapshot{
		Audits: []models.Audit{
			{AgentName: "ana", Project: "Acme", QualityScore: 90, CSAT: 5},
			{AgentName: "bob", Project: "Acme", QualityScore: 70, CSAT: 3},
			{AgentName: "cleo", Project: "Other", QualityScore: 10, CSAT: 1},
		},
		Projects: []models.Project{
			{ID: "p1", Name: "Acme", TargetScore: 85, TargetCSAT: 4.5},
		},
	}

	card := BuildProjectScorecard(snap, "Acme")

	assert.Equal(t, 2, card.TotalAudits)
	assert.Equal(t, 80.0, card.AvgScore)
	assert.Equal(t, 85, card.TargetScore)
	assert.Equal(t, 4.5, card.TargetCSAT)
	require.Len(t, card.TopAgents, 2)
	assert.Equal(t, "ana", card.TopAgents[0].AgentName)
}

func TestBuildDashboardEmpty(t *testing.T) {
	dashboard := BuildDashboard(Snapshot{})
	assert.Equal(t, 0, dashboard.TotalAudits)
	assert.Equal(t, 0.0, dashboard.AvgScore)
	assert.Empty(t, dashboard.Split)
	assert.Empty(t, dashboard.TopAgents)
}
