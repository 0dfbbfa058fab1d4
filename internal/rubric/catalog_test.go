package rubric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditpulse/backend/internal/storage/models"
)

type fakeStore struct {
	items    []models.RubricItem
	projects []models.Project
}

func (f *fakeStore) ListRubricItems() ([]models.RubricItem, error) {
	return append([]models.RubricItem(nil), f.items...), nil
}

func (f *fakeStore) UpsertRubricItem(item *models.RubricItem) error {
	for i := range f.items {
		if f.items[i].ID == item.ID {
			f.items[i] = *item
			return nil
		}
	}
	f.items = append(f.items, *item)
	return nil
}

func (f *fakeStore) DeleteRubricItem(id string) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) ListProjects() ([]models.Project, error) {
	return f.projects, nil
}

func item(id string, active bool, channel models.Channel) models.RubricItem {
	return models.RubricItem{ID: id, Label: id, IsActive: active, Type: channel}
}

func TestListFilters(t *testing.T) {
	store := &fakeStore{
		items: []models.RubricItem{
			item("a", true, models.ChannelBoth),
			item("b", true, models.ChannelVoice),
			item("c", false, models.ChannelBoth),
			item("d", true, models.ChannelChat),
		},
		projects: []models.Project{
			{ID: "p1", Name: "Acme", RubricIDs: []string{"a", "b"}},
			{ID: "p2", Name: "Open"},
		},
	}
	catalog := NewCatalog(store)

	tests := []struct {
		name    string
		filter  Filter
		wantIDs []string
	}{
		{"no filter returns everything in order", Filter{}, []string{"a", "b", "c", "d"}},
		{"active only", Filter{ActiveOnly: true}, []string{"a", "b", "d"}},
		{"voice channel includes BOTH items", Filter{Channel: models.ChannelVoice}, []string{"a", "b", "c"}},
		{"chat channel", Filter{Channel: models.ChannelChat}, []string{"a", "c", "d"}},
		{"project restriction clips the set", Filter{ProjectID: "p1"}, []string{"a", "b"}},
		{"project without restriction passes everything", Filter{ProjectID: "p2"}, []string{"a", "b", "c", "d"}},
		{"unknown project ignored", Filter{ProjectID: "ghost"}, []string{"a", "b", "c", "d"}},
		{
			"combined",
			Filter{ActiveOnly: true, Channel: models.ChannelVoice, ProjectID: "p1"},
			[]string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := catalog.List(tt.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, it := range got {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestApplicableIDs(t *testing.T) {
	items := []models.RubricItem{
		item("a", true, models.ChannelBoth),
		item("b", true, models.ChannelChat),
		item("c", false, models.ChannelBoth),
	}

	t.Run("voice skips chat-only and inactive", func(t *testing.T) {
		assert.Equal(t, []string{"a"}, ApplicableIDs(items, models.ChannelVoice, nil))
	})

	t.Run("project restriction applies", func(t *testing.T) {
		project := &models.Project{RubricIDs: []string{"b"}}
		assert.Equal(t, []string{"b"}, ApplicableIDs(items, models.ChannelChat, project))
	})
}

func TestToggleActive(t *testing.T) {
	store := &fakeStore{items: []models.RubricItem{item("a", true, models.ChannelBoth)}}
	catalog := NewCatalog(store)

	require.NoError(t, catalog.ToggleActive("a"))
	assert.False(t, store.items[0].IsActive)

	require.NoError(t, catalog.ToggleActive("a"))
	assert.True(t, store.items[0].IsActive)

	// Unknown id is a silent no-op, not an error.
	require.NoError(t, catalog.ToggleActive("ghost"))
	assert.Len(t, store.items, 1)
}

func TestUpsertRequiresID(t *testing.T) {
	catalog := NewCatalog(&fakeStore{})
	err := catalog.Upsert(&models.RubricItem{Label: "no id"})
	assert.Error(t, err)
}

func TestEnsureSeeded(t *testing.T) {
	t.Run("seeds empty catalog", func(t *testing.T) {
		store := &fakeStore{}
		catalog := NewCatalog(store)

		require.NoError(t, catalog.EnsureSeeded())
		assert.Len(t, store.items, len(defaultItems))
		for _, it := range store.items {
			assert.True(t, it.IsActive)
		}
	})

	t.Run("leaves populated catalog alone", func(t *testing.T) {
		store := &fakeStore{items: []models.RubricItem{item("custom", true, models.ChannelBoth)}}
		catalog := NewCatalog(store)

		require.NoError(t, catalog.EnsureSeeded())
		assert.Len(t, store.items, 1)
	})

	t.Run("idempotent", func(t *testing.T) {
		store := &fakeStore{}
		catalog := NewCatalog(store)

		require.NoError(t, catalog.EnsureSeeded())
		require.NoError(t, catalog.EnsureSeeded())
		assert.Len(t, store.items, len(defaultItems))
	})
}
