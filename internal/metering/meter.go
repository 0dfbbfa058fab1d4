// Package metering owns the AI usage counters. It is an injected service,
// not ambient global state: counters accumulate monotonically into the
// persisted app settings and are loaded on first access.
package metering

import (
	"sync"

	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/storage/models"
	"github.com/auditpulse/backend/pkg/logger"
)

type settingsStore interface {
	GetSettings(defaultCompanyName string) (*models.AppSettings, error)
	SaveSettings(*models.AppSettings) error
}

type Meter struct {
	store       settingsStore
	companyName string

	mu    sync.Mutex
	usage models.Usage
}

func New(store settingsStore, companyName string) (*Meter, error) {
	settings, err := store.GetSettings(companyName)
	if err != nil {
		return nil, err
	}

	return &Meter{
		store:       store,
		companyName: companyName,
		usage:       settings.Usage,
	}, nil
}

// RecordAICall accumulates one AI call into the usage counters and persists
// them. Persistence failures are logged, not propagated: losing a usage tick
// must never fail an AI feature.
func (m *Meter) RecordAICall(tokens int, cost float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.usage.AIAuditsCount++
	m.usage.EstimatedTokens += tokens
	m.usage.EstimatedCost += cost

	m.persistLocked()
}

func (m *Meter) Usage() models.Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage
}

func (m *Meter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.usage = models.Usage{}
	m.persistLocked()
}

func (m *Meter) persistLocked() {
	settings, err := m.store.GetSettings(m.companyName)
	if err != nil {
		logger.Warn("Failed to load settings for usage update", zap.Error(err))
		return
	}

	settings.Usage = m.usage
	if err := m.store.SaveSettings(settings); err != nil {
		logger.Warn("Failed to persist usage counters", zap.Error(err))
	}
}
