package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON pulls the first top-level JSON object out of a model response,
// tolerating prose or markdown fences around it.
func extractJSON(content string) (string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return content[start : end+1], nil
}

func parseScoredAudit(content string) (*ScoredAudit, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}

	var result ScoredAudit
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("malformed scoring JSON: %w", err)
	}

	if result.CustomData == nil {
		result.CustomData = map[string]bool{}
	}

	return &result, nil
}

func parseCoachingPlan(content string) (topic string, tasks []string, err error) {
	raw, err := extractJSON(content)
	if err != nil {
		return "", nil, err
	}

	var parsed struct {
		Topic string   `json:"topic"`
		Tasks []string `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", nil, fmt.Errorf("malformed coaching plan JSON: %w", err)
	}

	if parsed.Topic == "" {
		return "", nil, fmt.Errorf("coaching plan has no topic")
	}

	return parsed.Topic, parsed.Tasks, nil
}
