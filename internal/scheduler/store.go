package scheduler

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"coco/internal/cocoerr"
	"coco/internal/storage"
)

// Store persists Tasks, Executions, and outbox entries in the shared
// workspace database.
type Store struct {
	db *storage.DB
}

func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

// Create inserts a brand-new task, already resolved to a canonical cron
// expression and next_run_at.
func (s *Store) Create(t Task) (Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	cfgJSON, err := json.Marshal(t.Config)
	if err != nil {
		return Task{}, cocoerr.Wrap(cocoerr.Internal, "marshal task config", err)
	}
	_, err = s.db.Conn().Exec(
		`INSERT INTO scheduler_tasks
			(id, name, schedule_text, cron_expr, timezone, template_name, config_json, state, next_run_at, requires_approval, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.ScheduleText, t.CronExpr, t.Timezone, t.TemplateName, string(cfgJSON),
		string(t.State), t.NextRunAt, boolToInt(t.RequiresApproval), t.CreatedAt,
	)
	if err != nil {
		return Task{}, cocoerr.Wrap(cocoerr.ExternalFailure, "insert scheduler_tasks", err)
	}
	return t, nil
}

// Update persists a task's mutable state (state, next_run_at,
// requires_approval) after a transition.
func (s *Store) Update(t Task) error {
	_, err := s.db.Conn().Exec(
		`UPDATE scheduler_tasks SET state=?, next_run_at=?, requires_approval=? WHERE id=?`,
		string(t.State), t.NextRunAt, boolToInt(t.RequiresApproval), t.ID,
	)
	if err != nil {
		return cocoerr.Wrap(cocoerr.ExternalFailure, "update scheduler_tasks", err)
	}
	return nil
}

// Due returns every enabled task whose next_run_at has passed asOf.
func (s *Store) Due(asOf time.Time) ([]Task, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, name, schedule_text, cron_expr, timezone, template_name, config_json, state, next_run_at, requires_approval, created_at
		 FROM scheduler_tasks WHERE state = ? AND next_run_at <= ?`,
		string(StateEnabled), asOf,
	)
	if err != nil {
		return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "query due tasks", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// All returns every task regardless of state.
func (s *Store) All() ([]Task, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, name, schedule_text, cron_expr, timezone, template_name, config_json, state, next_run_at, requires_approval, created_at
		 FROM scheduler_tasks ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "query all tasks", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func scanTasks(rows *sql.Rows) ([]Task, error) {
	var out []Task
	for rows.Next() {
		var t Task
		var cfgJSON string
		var state string
		var requiresApproval int
		if err := rows.Scan(&t.ID, &t.Name, &t.ScheduleText, &t.CronExpr, &t.Timezone, &t.TemplateName,
			&cfgJSON, &state, &t.NextRunAt, &requiresApproval, &t.CreatedAt); err != nil {
			return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "scan scheduler_tasks", err)
		}
		t.State = State(state)
		t.RequiresApproval = requiresApproval != 0
		if cfgJSON != "" {
			_ = json.Unmarshal([]byte(cfgJSON), &t.Config)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RecordExecution inserts a completed Execution row.
func (s *Store) RecordExecution(e Execution) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.Conn().Exec(
		`INSERT INTO scheduler_executions (id, task_id, started_at, finished_at, status, output)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.TaskID, e.StartedAt, e.FinishedAt, string(e.Status), e.Output,
	)
	if err != nil {
		return cocoerr.Wrap(cocoerr.ExternalFailure, "insert scheduler_executions", err)
	}
	return nil
}

// ExecutionsForTask returns every recorded execution for taskID, oldest first.
func (s *Store) ExecutionsForTask(taskID string) ([]Execution, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, task_id, started_at, finished_at, status, output
		 FROM scheduler_executions WHERE task_id = ? ORDER BY started_at ASC`,
		taskID,
	)
	if err != nil {
		return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "query scheduler_executions", err)
	}
	defer rows.Close()

	var out []Execution
	for rows.Next() {
		var e Execution
		var finishedAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.TaskID, &e.StartedAt, &finishedAt, &e.Status, &e.Output); err != nil {
			return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "scan scheduler_executions", err)
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			e.FinishedAt = &t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// WriteOutbox queues an external action for manual approval instead of
// executing it directly.
func (s *Store) WriteOutbox(entry OutboxEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := s.db.Conn().Exec(
		`INSERT INTO outbox (id, task_id, kind, payload_json, created_at, approved)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.TaskID, entry.Kind, string(entry.PayloadRaw), entry.CreatedAt, boolToInt(entry.Approved),
	)
	if err != nil {
		return cocoerr.Wrap(cocoerr.ExternalFailure, "insert outbox", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
