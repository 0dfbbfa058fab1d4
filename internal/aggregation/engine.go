// Package aggregation computes scorecard and dashboard statistics.
//
// Every function here is read-only and total: it operates on a snapshot taken
// at call time, never mutates it, and returns a defined result (zero value,
// empty slice) for empty input. Nothing in this package may panic or return
// NaN.
package aggregation

import (
	"math"
	"sort"

	"github.com/auditpulse/backend/internal/storage/models"
)

// Snapshot is an immutable view of the record store handed to the engine.
type Snapshot struct {
	Audits   []models.Audit
	Rubric   []models.RubricItem
	Projects []models.Project
}

// --- Subset filters ---

func ByAgent(audits []models.Audit, agentName string) []models.Audit {
	return filter(audits, func(a *models.Audit) bool { return a.AgentName == agentName })
}

func ByProject(audits []models.Audit, projectName string) []models.Audit {
	return filter(audits, func(a *models.Audit) bool { return a.Project == projectName })
}

func ByStatus(audits []models.Audit, status models.AuditStatus) []models.Audit {
	return filter(audits, func(a *models.Audit) bool { return a.Status == status })
}

func ByChannel(audits []models.Audit, channel models.Channel) []models.Audit {
	return filter(audits, func(a *models.Audit) bool { return a.Type == channel })
}

// ByDateRange keeps audits with from <= date <= to. Empty bounds are open.
func ByDateRange(audits []models.Audit, from, to string) []models.Audit {
	return filter(audits, func(a *models.Audit) bool {
		if from != "" && a.Date < from {
			return false
		}
		if to != "" && a.Date > to {
			return false
		}
		return true
	})
}

func filter(audits []models.Audit, keep func(*models.Audit) bool) []models.Audit {
	result := make([]models.Audit, 0, len(audits))
	for i := range audits {
		if keep(&audits[i]) {
			result = append(result, audits[i])
		}
	}
	return result
}

// --- Averages ---

// AverageScore is the mean quality score over the subset, 0 when empty.
func AverageScore(audits []models.Audit) float64 {
	if len(audits) == 0 {
		return 0
	}
	sum := 0
	for i := range audits {
		sum += audits[i].QualityScore
	}
	return float64(sum) / float64(len(audits))
}

// AverageCSAT is the mean CSAT over the subset, 0 when empty.
func AverageCSAT(audits []models.Audit) float64 {
	if len(audits) == 0 {
		return 0
	}
	sum := 0
	for i := range audits {
		sum += audits[i].CSAT
	}
	return float64(sum) / float64(len(audits))
}

// --- Channel split ---

type ChannelStats struct {
	Channel  models.Channel `json:"channel"`
	Count    int            `json:"count"`
	AvgScore float64        `json:"avgScore"`
}

// ChannelSplit partitions the subset by audit type. Channels with no audits
// are omitted.
func ChannelSplit(audits []models.Audit) []ChannelStats {
	result := make([]ChannelStats, 0, 2)
	for _, channel := range []models.Channel{models.ChannelVoice, models.ChannelChat} {
		subset := ByChannel(audits, channel)
		if len(subset) == 0 {
			continue
		}
		result = append(result, ChannelStats{
			Channel:  channel,
			Count:    len(subset),
			AvgScore: AverageScore(subset),
		})
	}
	return result
}

// --- Rubric breakdown ---

type BreakdownRow struct {
	Item        models.RubricItem `json:"item"`
	AvgPassRate int               `json:"avgPassRate"`
	Count       int               `json:"count"`
	Failures    int               `json:"failures"`
}

// RubricBreakdown accumulates pass/total per rubric item over the audits
// whose CustomData evaluated that item. Items never evaluated in the subset
// are omitted entirely; rows are sorted weakest-first (ascending pass rate,
// ties in catalog order).
func RubricBreakdown(audits []models.Audit, rubric []models.RubricItem) []BreakdownRow {
	rows := make([]BreakdownRow, 0, len(rubric))

	for _, item := range rubric {
		pass, total := 0, 0
		for i := range audits {
			answer, evaluated := audits[i].CustomData[item.ID]
			if !evaluated {
				continue
			}
			total++
			if answer {
				pass++
			}
		}
		if total == 0 {
			continue
		}
		rows = append(rows, BreakdownRow{
			Item:        item,
			AvgPassRate: int(math.Round(100 * float64(pass) / float64(total))),
			Count:       total,
			Failures:    total - pass,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AvgPassRate < rows[j].AvgPassRate
	})

	return rows
}

// TopWeaknesses returns the n indicators with the most recorded failures,
// descending, ties kept in catalog order.
func TopWeaknesses(audits []models.Audit, rubric []models.RubricItem, n int) []BreakdownRow {
	rows := RubricBreakdown(audits, rubric)

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Failures > rows[j].Failures
	})

	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// --- Category radar ---

type RadarAxis struct {
	Category models.Category `json:"category"`
	A        int             `json:"a"`
	B        int             `json:"b"`
}

// CategoryRadar computes per-category pass rates for a target subset (A) and
// a comparison subset (B). Every category appears on the radar even with no
// evaluations, so both series share consistent axes; the score then defaults
// to 0.
func CategoryRadar(subset, companion []models.Audit, rubric []models.RubricItem) []RadarAxis {
	axes := make([]RadarAxis, 0, len(models.Categories))
	for _, category := range models.Categories {
		axes = append(axes, RadarAxis{
			Category: category,
			A:        categoryPassRate(subset, rubric, category),
			B:        categoryPassRate(companion, rubric, category),
		})
	}
	return axes
}

func categoryPassRate(audits []models.Audit, rubric []models.RubricItem, category models.Category) int {
	pass, total := 0, 0
	for _, item := range rubric {
		if item.Category != category {
			continue
		}
		for i := range audits {
			answer, evaluated := audits[i].CustomData[item.ID]
			if !evaluated {
				continue
			}
			total++
			if answer {
				pass++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(pass) / float64(total)))
}

// --- Streaks and badges ---

const DefaultStreakThreshold = 90

// Streak counts the consecutive run of audits meeting the threshold, starting
// from the most recent. The first audit below the threshold ends the run; it
// is not a total count.
func Streak(mostRecentFirst []models.Audit, threshold int) int {
	streak := 0
	for i := range mostRecentFirst {
		if mostRecentFirst[i].QualityScore < threshold {
			break
		}
		streak++
	}
	return streak
}

type Badge struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type AgentStats struct {
	AgentName   string  `json:"agentName"`
	TotalAudits int     `json:"totalAudits"`
	AvgScore    float64 `json:"avgScore"`
	AvgCSAT     float64 `json:"avgCsat"`
	Streak      int     `json:"streak"`
	Badges      []Badge `json:"badges"`
}

// Badges evaluates the fixed achievement rules against aggregate stats. The
// set is recomputed fresh on every call, so a badge can come and go between
// views as underlying data changes.
func Badges(stats AgentStats) []Badge {
	badges := []Badge{}
	if stats.Streak >= 3 {
		badges = append(badges, Badge{ID: "on_fire", Label: "On Fire", Description: "3+ high-score audits in a row"})
	}
	if stats.AvgCSAT >= 4.8 {
		badges = append(badges, Badge{ID: "customer_favorite", Label: "Customer Favorite", Description: "Average CSAT of 4.8 or higher"})
	}
	if stats.AvgScore >= 95 {
		badges = append(badges, Badge{ID: "quality_star", Label: "Quality Star", Description: "Average quality score of 95 or higher"})
	}
	if stats.TotalAudits >= 10 {
		badges = append(badges, Badge{ID: "veteran", Label: "Veteran", Description: "10 or more audits completed"})
	}
	return badges
}

// ComputeAgentStats builds the full stat block for one agent from an already
// agent-filtered, most-recent-first subset.
func ComputeAgentStats(agentName string, mostRecentFirst []models.Audit) AgentStats {
	stats := AgentStats{
		AgentName:   agentName,
		TotalAudits: len(mostRecentFirst),
		AvgScore:    AverageScore(mostRecentFirst),
		AvgCSAT:     AverageCSAT(mostRecentFirst),
		Streak:      Streak(mostRecentFirst, DefaultStreakThreshold),
	}
	stats.Badges = Badges(stats)
	return stats
}

// --- Rankings ---

type AgentRanking struct {
	AgentName string  `json:"agentName"`
	AvgScore  float64 `json:"avgScore"`
	Count     int     `json:"count"`
}

// TopAgentsByScore groups the subset by agent name and returns the n highest
// average scores. Ties keep first-encountered order.
func TopAgentsByScore(audits []models.Audit, n int) []AgentRanking {
	var order []string
	totals := map[string]*AgentRanking{}

	for i := range audits {
		name := audits[i].AgentName
		r, seen := totals[name]
		if !seen {
			r = &AgentRanking{AgentName: name}
			totals[name] = r
			order = append(order, name)
		}
		r.AvgScore += float64(audits[i].QualityScore)
		r.Count++
	}

	rankings := make([]AgentRanking, 0, len(order))
	for _, name := range order {
		r := totals[name]
		r.AvgScore /= float64(r.Count)
		rankings = append(rankings, *r)
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].AvgScore > rankings[j].AvgScore
	})

	if n > 0 && len(rankings) > n {
		rankings = rankings[:n]
	}
	return rankings
}

// --- Scorecards ---

type AgentScorecard struct {
	Stats     AgentStats     `json:"stats"`
	Split     []ChannelStats `json:"channelSplit"`
	Breakdown []BreakdownRow `json:"breakdown"`
	Weakest   []BreakdownRow `json:"weaknesses"`
	Radar     []RadarAxis    `json:"radar"`
}

// BuildAgentScorecard assembles an agent view, comparing the agent's category
// radar against the whole workspace.
func BuildAgentScorecard(snap Snapshot, agentName string) AgentScorecard {
	subset := ByAgent(snap.Audits, agentName)
	return AgentScorecard{
		Stats:     ComputeAgentStats(agentName, subset),
		Split:     ChannelSplit(subset),
		Breakdown: RubricBreakdown(subset, snap.Rubric),
		Weakest:   TopWeaknesses(subset, snap.Rubric, 5),
		Radar:     CategoryRadar(subset, snap.Audits, snap.Rubric),
	}
}

type ProjectScorecard struct {
	ProjectName string         `json:"projectName"`
	TotalAudits int            `json:"totalAudits"`
	AvgScore    float64        `json:"avgScore"`
	AvgCSAT     float64        `json:"avgCsat"`
	TargetScore int            `json:"targetScore,omitempty"`
	TargetCSAT  float64        `json:"targetCsat,omitempty"`
	Split       []ChannelStats `json:"channelSplit"`
	Breakdown   []BreakdownRow `json:"breakdown"`
	Weakest     []BreakdownRow `json:"weaknesses"`
	Radar       []RadarAxis    `json:"radar"`
	TopAgents   []AgentRanking `json:"topAgents"`
}

func BuildProjectScorecard(snap Snapshot, projectName string) ProjectScorecard {
	subset := ByProject(snap.Audits, projectName)

	card := ProjectScorecard{
		ProjectName: projectName,
		TotalAudits: len(subset),
		AvgScore:    AverageScore(subset),
		AvgCSAT:     AverageCSAT(subset),
		Split:       ChannelSplit(subset),
		Breakdown:   RubricBreakdown(subset, snap.Rubric),
		Weakest:     TopWeaknesses(subset, snap.Rubric, 5),
		Radar:       CategoryRadar(subset, snap.Audits, snap.Rubric),
		TopAgents:   TopAgentsByScore(subset, 5),
	}

	for _, p := range snap.Projects {
		if p.Name == projectName {
			card.TargetScore = p.TargetScore
			card.TargetCSAT = p.TargetCSAT
			break
		}
	}

	return card
}

type Dashboard struct {
	TotalAudits int            `json:"totalAudits"`
	AvgScore    float64        `json:"avgScore"`
	AvgCSAT     float64        `json:"avgCsat"`
	Split       []ChannelStats `json:"channelSplit"`
	TopAgents   []AgentRanking `json:"topAgents"`
	Weakest     []BreakdownRow `json:"weaknesses"`
}

func BuildDashboard(snap Snapshot) Dashboard {
	return Dashboard{
		TotalAudits: len(snap.Audits),
		AvgScore:    AverageScore(snap.Audits),
		AvgCSAT:     AverageCSAT(snap.Audits),
		Split:       ChannelSplit(snap.Audits),
		TopAgents:   TopAgentsByScore(snap.Audits, 5),
		Weakest:     TopWeaknesses(snap.Audits, snap.Rubric, 5),
	}
}
