// Package export handles bulk data transfer: the full JSON backup bundle,
// per-record CSV/JSON exports, and XLSX scorecards.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/storage/models"
	"github.com/auditpulse/backend/pkg/logger"
)

// Bundle is the versionless full-backup document. Pointer fields distinguish
// "absent from the document" from "present but empty": on import, only
// present collections touch existing state.
type Bundle struct {
	Audits   *[]models.Audit      `json:"audits,omitempty"`
	Agents   *[]models.Agent      `json:"agents,omitempty"`
	Projects *[]models.Project    `json:"projects,omitempty"`
	Rubric   *[]models.RubricItem `json:"rubric,omitempty"`
	Users    *[]models.User       `json:"users,omitempty"`
	Settings *models.AppSettings  `json:"settings,omitempty"`
}

type store interface {
	ListAllAudits() ([]models.Audit, error)
	ListAgents() ([]models.Agent, error)
	ListProjects() ([]models.Project, error)
	ListRubricItems() ([]models.RubricItem, error)
	ListUsers() ([]models.User, error)
	GetSettings(defaultCompanyName string) (*models.AppSettings, error)

	ReplaceAudits([]models.Audit) error
	ReplaceAgents([]models.Agent) error
	ReplaceProjects([]models.Project) error
	ReplaceRubricItems([]models.RubricItem) error
	ReplaceUsers([]models.User) error
	SaveSettings(*models.AppSettings) error
}

type Service struct {
	store       store
	companyName string
}

func NewService(s store, companyName string) *Service {
	return &Service{store: s, companyName: companyName}
}

// Export assembles the full backup bundle from every local collection.
func (s *Service) Export() (*Bundle, error) {
	audits, err := s.store.ListAllAudits()
	if err != nil {
		return nil, fmt.Errorf("failed to export audits: %w", err)
	}
	agents, err := s.store.ListAgents()
	if err != nil {
		return nil, fmt.Errorf("failed to export agents: %w", err)
	}
	projects, err := s.store.ListProjects()
	if err != nil {
		return nil, fmt.Errorf("failed to export projects: %w", err)
	}
	rubric, err := s.store.ListRubricItems()
	if err != nil {
		return nil, fmt.Errorf("failed to export rubric: %w", err)
	}
	users, err := s.store.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	settings, err := s.store.GetSettings(s.companyName)
	if err != nil {
		return nil, fmt.Errorf("failed to export settings: %w", err)
	}

	return &Bundle{
		Audits:   &audits,
		Agents:   &agents,
		Projects: &projects,
		Rubric:   &rubric,
		Users:    &users,
		Settings: settings,
	}, nil
}

// Import restores a bundle. The document is parsed in full before anything
// is written, so a malformed payload mutates nothing; each present collection
// then wholesale-replaces its local counterpart. Returns false on any
// failure.
func (s *Service) Import(data []byte) bool {
	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		logger.Warn("Import rejected: malformed JSON", zap.Error(err))
		return false
	}

	if bundle.Audits != nil {
		if err := s.store.ReplaceAudits(*bundle.Audits); err != nil {
			logger.Error("Import failed on audits", zap.Error(err))
			return false
		}
	}
	if bundle.Agents != nil {
		if err := s.store.ReplaceAgents(*bundle.Agents); err != nil {
			logger.Error("Import failed on agents", zap.Error(err))
			return false
		}
	}
	if bundle.Projects != nil {
		if err := s.store.ReplaceProjects(*bundle.Projects); err != nil {
			logger.Error("Import failed on projects", zap.Error(err))
			return false
		}
	}
	if bundle.Rubric != nil {
		if err := s.store.ReplaceRubricItems(*bundle.Rubric); err != nil {
			logger.Error("Import failed on rubric", zap.Error(err))
			return false
		}
	}
	if bundle.Users != nil {
		if err := s.store.ReplaceUsers(*bundle.Users); err != nil {
			logger.Error("Import failed on users", zap.Error(err))
			return false
		}
	}
	if bundle.Settings != nil {
		if err := s.store.SaveSettings(bundle.Settings); err != nil {
			logger.Error("Import failed on settings", zap.Error(err))
			return false
		}
	}

	logger.Info("Import applied")
	return true
}

// csvColumns is the fixed audit CSV layout. Order is part of the contract.
var csvColumns = []string{"date", "id", "agent", "project", "status", "csat", "score"}

// AuditsCSV renders the subset with a header row and one audit per line.
func AuditsCSV(audits []models.Audit) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvColumns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range audits {
		a := &audits[i]
		record := []string{
			a.Date,
			a.ID,
			a.AgentName,
			a.Project,
			string(a.Status),
			fmt.Sprintf("%d", a.CSAT),
			fmt.Sprintf("%d%%", a.QualityScore),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.Bytes(), nil
}

// AuditJSON pretty-prints a single audit or a filtered set.
func AuditJSON(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit JSON: %w", err)
	}
	return data, nil
}
