// Package scoring holds the pure quality-score rules. Everything here is
// deterministic and total: empty input maps to a defined result, never a panic.
package scoring

import (
	"math"

	"github.com/auditpulse/backend/internal/storage/models"
)

// ComputeScore returns the percentage of applicable rubric items answered
// true, rounded to the nearest integer.
//
// An empty applicable set scores 0: callers must treat a zero-item rubric as
// misconfiguration, not an error. Answer keys outside the applicable set are
// ignored.
func ComputeScore(answers map[string]bool, applicable []string) int {
	if len(applicable) == 0 {
		return 0
	}

	pass := 0
	for _, id := range applicable {
		if answers[id] {
			pass++
		}
	}

	return int(math.Round(100 * float64(pass) / float64(len(applicable))))
}

// DerivePerception maps a score to its discrete quality tier. Thresholds are
// fixed: only a perfect score is Optimal.
func DerivePerception(score int) models.Perception {
	switch {
	case score == 100:
		return models.PerceptionOptimal
	case score >= 75:
		return models.PerceptionAcceptable
	default:
		return models.PerceptionPoor
	}
}

// DefaultCSAT infers a CSAT rating from perception when no customer feedback
// exists. The mapping is a documented convention, not measured satisfaction.
func DefaultCSAT(p models.Perception) int {
	switch p {
	case models.PerceptionOptimal:
		return 5
	case models.PerceptionAcceptable:
		return 4
	default:
		return 2
	}
}
