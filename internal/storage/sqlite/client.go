package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/auditpulse/backend/internal/storage/models"
	"github.com/auditpulse/backend/pkg/logger"
)

// Store is the authoritative local collection. All reads in the system come
// from here; the remote store is only ever consulted on an explicit pull.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite store initialized", zap.String("path", dbPath))

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audits (
		id TEXT PRIMARY KEY,
		readable_id TEXT,
		agent_name TEXT NOT NULL,
		project TEXT,
		date TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		csat INTEGER,
		quality_score INTEGER,
		notes TEXT,
		ai_notes TEXT,
		custom_data TEXT,
		sentiment TEXT,
		is_ai_generated INTEGER DEFAULT 0,
		duration REAL,
		perception TEXT,
		chat_time TEXT,
		initial_response_time TEXT,
		resolution_time TEXT,
		response_under_5min INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audits_agent ON audits(agent_name);
	CREATE INDEX IF NOT EXISTS idx_audits_project ON audits(project);
	CREATE INDEX IF NOT EXISTS idx_audits_status ON audits(status);
	CREATE INDEX IF NOT EXISTS idx_audits_date ON audits(date);

	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		project_id TEXT,
		audit_channel TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_agents_name ON agents(name);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		target_score INTEGER,
		target_csat REAL,
		rubric_ids TEXT
	);

	CREATE TABLE IF NOT EXISTS rubric_items (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		category TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		type TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		pin TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS app_settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		company_name TEXT,
		logo_data TEXT,
		chatbot_name TEXT,
		ai_audits_count INTEGER DEFAULT 0,
		estimated_tokens INTEGER DEFAULT 0,
		estimated_cost REAL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS chat_sessions (
		id TEXT PRIMARY KEY,
		title TEXT,
		date TEXT,
		messages TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_sessions_created ON chat_sessions(created_at);

	CREATE TABLE IF NOT EXISTS coaching_plans (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		topic TEXT,
		tasks TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_coaching_agent ON coaching_plans(agent_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// --- Audits ---

const auditColumns = `id, readable_id, agent_name, project, date, type, status, csat,
	quality_score, notes, ai_notes, custom_data, sentiment, is_ai_generated,
	duration, perception, chat_time, initial_response_time, resolution_time,
	response_under_5min, created_at, updated_at`

// UpsertAudit inserts or fully replaces the audit with the same id. Saving
// twice never produces a duplicate.
func (s *Store) UpsertAudit(a *models.Audit) error {
	return upsertAuditTx(s.db, a)
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func upsertAuditTx(db execer, a *models.Audit) error {
	customData, err := json.Marshal(a.CustomData)
	if err != nil {
		return fmt.Errorf("failed to marshal custom data: %w", err)
	}

	query := `
		INSERT INTO audits (` + auditColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			readable_id = excluded.readable_id,
			agent_name = excluded.agent_name,
			project = excluded.project,
			date = excluded.date,
			type = excluded.type,
			status = excluded.status,
			csat = excluded.csat,
			quality_score = excluded.quality_score,
			notes = excluded.notes,
			ai_notes = excluded.ai_notes,
			custom_data = excluded.custom_data,
			sentiment = excluded.sentiment,
			is_ai_generated = excluded.is_ai_generated,
			duration = excluded.duration,
			perception = excluded.perception,
			chat_time = excluded.chat_time,
			initial_response_time = excluded.initial_response_time,
			resolution_time = excluded.resolution_time,
			response_under_5min = excluded.response_under_5min,
			updated_at = excluded.updated_at
	`

	_, err = db.Exec(
		query,
		a.ID,
		a.ReadableID,
		a.AgentName,
		a.Project,
		a.Date,
		string(a.Type),
		string(a.Status),
		a.CSAT,
		a.QualityScore,
		a.Notes,
		a.AINotes,
		string(customData),
		a.Sentiment,
		boolToInt(a.IsAIGenerated),
		a.Duration,
		string(a.Perception),
		a.ChatTime,
		a.InitialResponseTime,
		a.ResolutionTime,
		boolToInt(a.ResponseUnder5Min),
		a.CreatedAt.Unix(),
		a.UpdatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to upsert audit: %w", err)
	}

	return nil
}

func (s *Store) GetAudit(id string) (*models.Audit, error) {
	row := s.db.QueryRow(`SELECT `+auditColumns+` FROM audits WHERE id = ?`, id)

	a, err := scanAudit(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}

	return a, nil
}

type AuditFilter struct {
	AgentName string
	Project   string
	Status    models.AuditStatus
	From      string
	To        string
}

func (s *Store) ListAudits(filter AuditFilter) ([]models.Audit, error) {
	query := `SELECT ` + auditColumns + ` FROM audits WHERE 1=1`
	var args []interface{}

	if filter.AgentName != "" {
		query += ` AND agent_name = ?`
		args = append(args, filter.AgentName)
	}
	if filter.Project != "" {
		query += ` AND project = ?`
		args = append(args, filter.Project)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.From != "" {
		query += ` AND date >= ?`
		args = append(args, filter.From)
	}
	if filter.To != "" {
		query += ` AND date <= ?`
		args = append(args, filter.To)
	}

	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	defer rows.Close()

	var audits []models.Audit
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		audits = append(audits, *a)
	}

	return audits, rows.Err()
}

// ListAllAudits returns the whole collection, newest first.
func (s *Store) ListAllAudits() ([]models.Audit, error) {
	return s.ListAudits(AuditFilter{})
}

func (s *Store) DeleteAudit(id string) error {
	if _, err := s.db.Exec(`DELETE FROM audits WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete audit: %w", err)
	}
	return nil
}

// ReplaceAudits swaps the whole local collection in one transaction. Used by
// reconciliation only; callers must not pass an empty slice to mean "wipe".
func (s *Store) ReplaceAudits(audits []models.Audit) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM audits`); err != nil {
		return fmt.Errorf("failed to clear audits: %w", err)
	}

	for i := range audits {
		if err := upsertAuditTx(tx, &audits[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}

	logger.Info("Audits replaced from remote", zap.Int("count", len(audits)))
	return nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanAudit(row scannable) (*models.Audit, error) {
	var a models.Audit
	var customData, auditType, status, perception string
	var isAIGenerated, responseUnder5 int
	var createdAt, updatedAt int64

	err := row.Scan(
		&a.ID,
		&a.ReadableID,
		&a.AgentName,
		&a.Project,
		&a.Date,
		&auditType,
		&status,
		&a.CSAT,
		&a.QualityScore,
		&a.Notes,
		&a.AINotes,
		&customData,
		&a.Sentiment,
		&isAIGenerated,
		&a.Duration,
		&perception,
		&a.ChatTime,
		&a.InitialResponseTime,
		&a.ResolutionTime,
		&responseUnder5,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Type = models.Channel(auditType)
	a.Status = models.AuditStatus(status)
	a.Perception = models.Perception(perception)
	a.IsAIGenerated = isAIGenerated != 0
	a.ResponseUnder5Min = responseUnder5 != 0
	a.CreatedAt = time.Unix(createdAt, 0)
	a.UpdatedAt = time.Unix(updatedAt, 0)

	if customData != "" && customData != "null" {
		if err := json.Unmarshal([]byte(customData), &a.CustomData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal custom data: %w", err)
		}
	}

	return &a, nil
}

// --- Agents ---

func (s *Store) UpsertAgent(agent *models.Agent) error {
	query := `
		INSERT INTO agents (id, name, project_id, audit_channel)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			project_id = excluded.project_id,
			audit_channel = excluded.audit_channel
	`

	_, err := s.db.Exec(query, agent.ID, agent.Name, agent.ProjectID, string(agent.AuditChannel))
	if err != nil {
		return fmt.Errorf("failed to upsert agent: %w", err)
	}
	return nil
}

func (s *Store) ListAgents() ([]models.Agent, error) {
	rows, err := s.db.Query(`SELECT id, name, project_id, audit_channel FROM agents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []models.Agent
	for rows.Next() {
		var a models.Agent
		var channel string
		if err := rows.Scan(&a.ID, &a.Name, &a.ProjectID, &channel); err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		a.AuditChannel = models.Channel(channel)
		agents = append(agents, a)
	}

	return agents, rows.Err()
}

func (s *Store) DeleteAgent(id string) error {
	if _, err := s.db.Exec(`DELETE FROM agents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	return nil
}

func (s *Store) ReplaceAgents(agents []models.Agent) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM agents`); err != nil {
		return fmt.Errorf("failed to clear agents: %w", err)
	}

	for _, a := range agents {
		_, err := tx.Exec(
			`INSERT INTO agents (id, name, project_id, audit_channel) VALUES (?, ?, ?, ?)`,
			a.ID, a.Name, a.ProjectID, string(a.AuditChannel),
		)
		if err != nil {
			return fmt.Errorf("failed to insert agent: %w", err)
		}
	}

	return tx.Commit()
}

// --- Projects ---

func (s *Store) UpsertProject(p *models.Project) error {
	rubricIDs, err := json.Marshal(p.RubricIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal rubric ids: %w", err)
	}

	query := `
		INSERT INTO projects (id, name, target_score, target_csat, rubric_ids)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			target_score = excluded.target_score,
			target_csat = excluded.target_csat,
			rubric_ids = excluded.rubric_ids
	`

	_, err = s.db.Exec(query, p.ID, p.Name, p.TargetScore, p.TargetCSAT, string(rubricIDs))
	if err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}
	return nil
}

func (s *Store) ListProjects() ([]models.Project, error) {
	rows, err := s.db.Query(`SELECT id, name, target_score, target_csat, rubric_ids FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		var rubricIDs string
		if err := rows.Scan(&p.ID, &p.Name, &p.TargetScore, &p.TargetCSAT, &rubricIDs); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if rubricIDs != "" && rubricIDs != "null" {
			if err := json.Unmarshal([]byte(rubricIDs), &p.RubricIDs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal rubric ids: %w", err)
			}
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// DeleteProject removes the project only. Audits referencing its name stay
// behind as valid orphans.
func (s *Store) DeleteProject(id string) error {
	if _, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (s *Store) ReplaceProjects(projects []models.Project) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM projects`); err != nil {
		return fmt.Errorf("failed to clear projects: %w", err)
	}

	for _, p := range projects {
		rubricIDs, err := json.Marshal(p.RubricIDs)
		if err != nil {
			return fmt.Errorf("failed to marshal rubric ids: %w", err)
		}
		_, err = tx.Exec(
			`INSERT INTO projects (id, name, target_score, target_csat, rubric_ids) VALUES (?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.TargetScore, p.TargetCSAT, string(rubricIDs),
		)
		if err != nil {
			return fmt.Errorf("failed to insert project: %w", err)
		}
	}

	return tx.Commit()
}

// --- Rubric items ---

// UpsertRubricItem replaces an existing item in place, keeping its position.
// Unseen ids append after the current last position.
func (s *Store) UpsertRubricItem(item *models.RubricItem) error {
	query := `
		INSERT INTO rubric_items (id, label, category, is_active, type, position)
		VALUES (?, ?, ?, ?, ?,
			COALESCE((SELECT position FROM rubric_items WHERE id = ?),
				(SELECT COALESCE(MAX(position), -1) + 1 FROM rubric_items)))
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label,
			category = excluded.category,
			is_active = excluded.is_active,
			type = excluded.type
	`

	_, err := s.db.Exec(query,
		item.ID, item.Label, string(item.Category), boolToInt(item.IsActive), string(item.Type),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert rubric item: %w", err)
	}
	return nil
}

func (s *Store) ListRubricItems() ([]models.RubricItem, error) {
	rows, err := s.db.Query(`SELECT id, label, category, is_active, type, position FROM rubric_items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rubric items: %w", err)
	}
	defer rows.Close()

	var items []models.RubricItem
	for rows.Next() {
		var item models.RubricItem
		var category, itemType string
		var isActive int
		if err := rows.Scan(&item.ID, &item.Label, &category, &isActive, &itemType, &item.Position); err != nil {
			return nil, fmt.Errorf("failed to scan rubric item: %w", err)
		}
		item.Category = models.Category(category)
		item.IsActive = isActive != 0
		item.Type = models.Channel(itemType)
		items = append(items, item)
	}

	return items, rows.Err()
}

// DeleteRubricItem hard-deletes from the catalog. Historical audits keep
// their now-orphaned CustomData keys untouched.
func (s *Store) DeleteRubricItem(id string) error {
	if _, err := s.db.Exec(`DELETE FROM rubric_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete rubric item: %w", err)
	}
	return nil
}

func (s *Store) ReplaceRubricItems(items []models.RubricItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM rubric_items`); err != nil {
		return fmt.Errorf("failed to clear rubric items: %w", err)
	}

	for i, item := range items {
		_, err := tx.Exec(
			`INSERT INTO rubric_items (id, label, category, is_active, type, position) VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID, item.Label, string(item.Category), boolToInt(item.IsActive), string(item.Type), i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert rubric item: %w", err)
		}
	}

	return tx.Commit()
}

// --- Users ---

func (s *Store) UpsertUser(u *models.User) error {
	query := `
		INSERT INTO users (id, name, role, pin)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			pin = excluded.pin
	`

	_, err := s.db.Exec(query, u.ID, u.Name, string(u.Role), u.PIN)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (s *Store) ListUsers() ([]models.User, error) {
	rows, err := s.db.Query(`SELECT id, name, role, pin FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &role, &u.PIN); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Role = models.Role(role)
		users = append(users, u)
	}

	return users, rows.Err()
}

func (s *Store) DeleteUser(id string) error {
	if _, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *Store) ReplaceUsers(users []models.User) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM users`); err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}

	for _, u := range users {
		_, err := tx.Exec(
			`INSERT INTO users (id, name, role, pin) VALUES (?, ?, ?, ?)`,
			u.ID, u.Name, string(u.Role), u.PIN,
		)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
	}

	return tx.Commit()
}

// --- App settings ---

// GetSettings returns the single settings row, creating it with the given
// company name on first access.
func (s *Store) GetSettings(defaultCompanyName string) (*models.AppSettings, error) {
	row := s.db.QueryRow(`SELECT company_name, logo_data, chatbot_name, ai_audits_count, estimated_tokens, estimated_cost FROM app_settings WHERE id = 1`)

	var settings models.AppSettings
	err := row.Scan(
		&settings.CompanyName,
		&settings.LogoData,
		&settings.ChatbotName,
		&settings.Usage.AIAuditsCount,
		&settings.Usage.EstimatedTokens,
		&settings.Usage.EstimatedCost,
	)
	if err == sql.ErrNoRows {
		settings = models.AppSettings{CompanyName: defaultCompanyName}
		if err := s.SaveSettings(&settings); err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &settings, nil
}

func (s *Store) SaveSettings(settings *models.AppSettings) error {
	query := `
		INSERT INTO app_settings (id, company_name, logo_data, chatbot_name, ai_audits_count, estimated_tokens, estimated_cost)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_name = excluded.company_name,
			logo_data = excluded.logo_data,
			chatbot_name = excluded.chatbot_name,
			ai_audits_count = excluded.ai_audits_count,
			estimated_tokens = excluded.estimated_tokens,
			estimated_cost = excluded.estimated_cost
	`

	_, err := s.db.Exec(query,
		settings.CompanyName,
		settings.LogoData,
		settings.ChatbotName,
		settings.Usage.AIAuditsCount,
		settings.Usage.EstimatedTokens,
		settings.Usage.EstimatedCost,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// --- Chat sessions ---

func (s *Store) UpsertChatSession(session *models.ChatSession) error {
	messages, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	query := `
		INSERT INTO chat_sessions (id, title, date, messages, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			date = excluded.date,
			messages = excluded.messages
	`

	_, err = s.db.Exec(query, session.ID, session.Title, session.Date, string(messages), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert chat session: %w", err)
	}
	return nil
}

func (s *Store) ListChatSessions() ([]models.ChatSession, error) {
	rows, err := s.db.Query(`SELECT id, title, date, messages FROM chat_sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ChatSession
	for rows.Next() {
		var session models.ChatSession
		var messages string
		if err := rows.Scan(&session.ID, &session.Title, &session.Date, &messages); err != nil {
			return nil, fmt.Errorf("failed to scan chat session: %w", err)
		}
		if messages != "" && messages != "null" {
			if err := json.Unmarshal([]byte(messages), &session.Messages); err != nil {
				return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
			}
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

func (s *Store) DeleteChatSession(id string) error {
	if _, err := s.db.Exec(`DELETE FROM chat_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	return nil
}

// --- Coaching plans ---

func (s *Store) UpsertCoachingPlan(plan *models.CoachingPlan) error {
	tasks, err := json.Marshal(plan.Tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal tasks: %w", err)
	}

	query := `
		INSERT INTO coaching_plans (id, agent_id, topic, tasks, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			topic = excluded.topic,
			tasks = excluded.tasks
	`

	_, err = s.db.Exec(query, plan.ID, plan.AgentID, plan.Topic, string(tasks), plan.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert coaching plan: %w", err)
	}
	return nil
}

func (s *Store) ListCoachingPlans(agentID string) ([]models.CoachingPlan, error) {
	query := `SELECT id, agent_id, topic, tasks, created_at FROM coaching_plans`
	var args []interface{}
	if agentID != "" {
		query += ` WHERE agent_id = ?`
		args = append(args, agentID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list coaching plans: %w", err)
	}
	defer rows.Close()

	var plans []models.CoachingPlan
	for rows.Next() {
		var plan models.CoachingPlan
		var tasks string
		var createdAt int64
		if err := rows.Scan(&plan.ID, &plan.AgentID, &plan.Topic, &tasks, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan coaching plan: %w", err)
		}
		plan.CreatedAt = time.Unix(createdAt, 0)
		if tasks != "" && tasks != "null" {
			if err := json.Unmarshal([]byte(tasks), &plan.Tasks); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tasks: %w", err)
			}
		}
		plans = append(plans, plan)
	}

	return plans, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
