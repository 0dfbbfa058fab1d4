package metering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditpulse/backend/internal/storage/models"
)

type fakeStore struct {
	settings models.AppSettings
	saves    int
}

func (f *fakeStore) GetSettings(defaultCompanyName string) (*models.AppSettings, error) {
	if f.settings.CompanyName == "" {
		f.settings.CompanyName = defaultCompanyName
	}
	settings := f.settings
	return &settings, nil
}

func (f *fakeStore) SaveSettings(settings *models.AppSettings) error {
	f.settings = *settings
	f.saves++
	return nil
}

func TestMeterLoadsPersistedUsage(t *testing.T) {
	store := &fakeStore{settings: models.AppSettings{
		CompanyName: "Acme",
		Usage:       models.Usage{AIAuditsCount: 5, EstimatedTokens: 1000, EstimatedCost: 0.15},
	}}

	meter, err := New(store, "Acme")
	require.NoError(t, err)
	assert.Equal(t, 5, meter.Usage().AIAuditsCount)
}

func TestRecordAICallAccumulatesAndPersists(t *testing.T) {
	store := &fakeStore{}
	meter, err := New(store, "Acme")
	require.NoError(t, err)

	meter.RecordAICall(200, 0.01)
	meter.RecordAICall(300, 0.02)

	usage := meter.Usage()
	assert.Equal(t, 2, usage.AIAuditsCount)
	assert.Equal(t, 500, usage.EstimatedTokens)
	assert.InDelta(t, 0.03, usage.EstimatedCost, 1e-9)

	assert.Equal(t, 2, store.saves)
	assert.Equal(t, 500, store.settings.Usage.EstimatedTokens)
}

func TestReset(t *testing.T) {
	store := &fakeStore{}
	meter, err := New(store, "Acme")
	require.NoError(t, err)

	meter.RecordAICall(100, 0.01)
	meter.Reset()

	assert.Equal(t, models.Usage{}, meter.Usage())
	assert.Equal(t, models.Usage{}, store.settings.Usage)
}
