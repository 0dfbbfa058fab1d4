// Package rubric manages the catalog of evaluation indicators (KPIs).
package rubric

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/storage/models"
	"github.com/auditpulse/backend/pkg/logger"
)

type store interface {
	ListRubricItems() ([]models.RubricItem, error)
	UpsertRubricItem(*models.RubricItem) error
	DeleteRubricItem(id string) error
	ListProjects() ([]models.Project, error)
}

type Catalog struct {
	store store
}

func NewCatalog(s store) *Catalog {
	return &Catalog{store: s}
}

type Filter struct {
	ActiveOnly bool
	Channel    models.Channel
	ProjectID  string
}

// List returns catalog items in insertion order, narrowed by the filter.
// A project restriction only applies when the project declares a non-empty
// RubricIDs set.
func (c *Catalog) List(filter Filter) ([]models.RubricItem, error) {
	items, err := c.store.ListRubricItems()
	if err != nil {
		return nil, err
	}

	var project *models.Project
	if filter.ProjectID != "" {
		projects, err := c.store.ListProjects()
		if err != nil {
			return nil, err
		}
		for i := range projects {
			if projects[i].ID == filter.ProjectID {
				project = &projects[i]
				break
			}
		}
	}

	return Apply(items, filter, project), nil
}

// Apply is the pure filtering core behind List. project may be nil.
func Apply(items []models.RubricItem, filter Filter, project *models.Project) []models.RubricItem {
	var restricted map[string]bool
	if project != nil && len(project.RubricIDs) > 0 {
		restricted = make(map[string]bool, len(project.RubricIDs))
		for _, id := range project.RubricIDs {
			restricted[id] = true
		}
	}

	result := make([]models.RubricItem, 0, len(items))
	for _, item := range items {
		if filter.ActiveOnly && !item.IsActive {
			continue
		}
		if filter.Channel != "" && !item.Type.Matches(filter.Channel) {
			continue
		}
		if restricted != nil && !restricted[item.ID] {
			continue
		}
		result = append(result, item)
	}

	return result
}

// ApplicableIDs returns the ids an audit on the given channel is evaluated
// against: active, channel-matched, and within the project restriction.
func ApplicableIDs(items []models.RubricItem, channel models.Channel, project *models.Project) []string {
	applicable := Apply(items, Filter{ActiveOnly: true, Channel: channel}, project)
	ids := make([]string, 0, len(applicable))
	for _, item := range applicable {
		ids = append(ids, item.ID)
	}
	return ids
}

func (c *Catalog) Upsert(item *models.RubricItem) error {
	if item.ID == "" {
		return fmt.Errorf("rubric item id is required")
	}
	return c.store.UpsertRubricItem(item)
}

// ToggleActive flips the active flag. An unknown id is a silent no-op.
func (c *Catalog) ToggleActive(id string) error {
	items, err := c.store.ListRubricItems()
	if err != nil {
		return err
	}

	for i := range items {
		if items[i].ID == id {
			items[i].IsActive = !items[i].IsActive
			return c.store.UpsertRubricItem(&items[i])
		}
	}

	logger.Debug("Toggle on unknown rubric item ignored", zap.String("id", id))
	return nil
}

// Remove hard-deletes the item. Historical audits keep the orphaned key in
// their CustomData; that is an accepted data-quality tradeoff.
func (c *Catalog) Remove(id string) error {
	return c.store.DeleteRubricItem(id)
}

// EnsureSeeded installs the default indicator set when the catalog is empty.
func (c *Catalog) EnsureSeeded() error {
	items, err := c.store.ListRubricItems()
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return nil
	}

	for i := range defaultItems {
		if err := c.store.UpsertRubricItem(&defaultItems[i]); err != nil {
			return fmt.Errorf("failed to seed rubric: %w", err)
		}
	}

	logger.Info("Rubric catalog seeded", zap.Int("items", len(defaultItems)))
	return nil
}

var defaultItems = []models.RubricItem{
	{ID: "greeting_opening", Label: "Proper greeting and opening", Category: models.CategorySoft, IsActive: true, Type: models.ChannelBoth},
	{ID: "active_listening", Label: "Active listening", Category: models.CategorySoft, IsActive: true, Type: models.ChannelVoice},
	{ID: "empathy", Label: "Shows empathy", Category: models.CategorySoft, IsActive: true, Type: models.ChannelBoth},
	{ID: "clear_communication", Label: "Clear communication", Category: models.CategorySoft, IsActive: true, Type: models.ChannelBoth},
	{ID: "accurate_information", Label: "Accurate information given", Category: models.CategoryHard, IsActive: true, Type: models.ChannelBoth},
	{ID: "correct_procedure", Label: "Correct procedure followed", Category: models.CategoryHard, IsActive: true, Type: models.ChannelBoth},
	{ID: "complete_documentation", Label: "Complete case documentation", Category: models.CategoryHard, IsActive: true, Type: models.ChannelBoth},
	{ID: "grammar_spelling", Label: "Grammar and spelling", Category: models.CategoryHard, IsActive: true, Type: models.ChannelChat},
	{ID: "identity_verification", Label: "Customer identity verified", Category: models.CategoryCompliance, IsActive: true, Type: models.ChannelBoth},
	{ID: "data_privacy", Label: "Data privacy respected", Category: models.CategoryCompliance, IsActive: true, Type: models.ChannelBoth},
}
