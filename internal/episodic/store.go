package episodic

import (
	"database/sql"
	"encoding/json"
	"time"

	"coco/internal/cocoerr"
	"coco/internal/llm"
	"coco/internal/storage"
)

// Store persists exchanges to the shared workspace database. Buffer stays
// the in-memory working-set view; Store is the durable record of every
// saved exchange and of which ones have been marked summarized.
type Store struct {
	db *storage.DB
}

func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

// Save inserts ex into the exchanges table.
func (s *Store) Save(ex Exchange) error {
	s.db.Lock()
	defer s.db.Unlock()

	toolCallsJSON, err := json.Marshal(ex.ToolCalls)
	if err != nil {
		return cocoerr.Wrap(cocoerr.Internal, "marshal tool calls", err)
	}
	_, err = s.db.Conn().Exec(`
		INSERT INTO exchanges(id, session_id, user_text, assistant_text, tool_calls_json, autonomous, summarized, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.SessionID, ex.UserText, ex.AssistantText, string(toolCallsJSON),
		boolToInt(ex.Autonomous), boolToInt(ex.Summarized), ex.CreatedAt)
	if err != nil {
		return cocoerr.Wrap(cocoerr.Internal, "insert exchange", err)
	}
	return nil
}

// MarkSummarized flips the summarized flag for the given exchange ids.
func (s *Store) MarkSummarized(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.db.Lock()
	defer s.db.Unlock()

	tx, err := s.db.Conn().Begin()
	if err != nil {
		return cocoerr.Wrap(cocoerr.Internal, "begin tx", err)
	}
	for _, id := range ids {
		if _, err := tx.Exec(`UPDATE exchanges SET summarized = 1 WHERE id = ?`, id); err != nil {
			tx.Rollback()
			return cocoerr.Wrap(cocoerr.Internal, "mark exchange summarized", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return cocoerr.Wrap(cocoerr.Internal, "commit tx", err)
	}
	return nil
}

// RecentForSession loads the most recent exchanges for a session, oldest
// first.
func (s *Store) RecentForSession(sessionID string, limit int) ([]Exchange, error) {
	s.db.RLock()
	defer s.db.RUnlock()

	rows, err := s.db.Conn().Query(`
		SELECT id, session_id, user_text, assistant_text, tool_calls_json, autonomous, summarized, created_at
		FROM exchanges
		WHERE session_id = ? AND summarized = 0
		ORDER BY created_at DESC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, cocoerr.Wrap(cocoerr.Internal, "query exchanges", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var ex Exchange
		var toolCallsJSON sql.NullString
		var autonomous, summarized int
		var createdAt time.Time
		if err := rows.Scan(&ex.ID, &ex.SessionID, &ex.UserText, &ex.AssistantText,
			&toolCallsJSON, &autonomous, &summarized, &createdAt); err != nil {
			return nil, cocoerr.Wrap(cocoerr.Internal, "scan exchange", err)
		}
		ex.Autonomous = autonomous != 0
		ex.Summarized = summarized != 0
		ex.CreatedAt = createdAt
		if toolCallsJSON.Valid && toolCallsJSON.String != "" {
			var calls []llm.ToolCall
			if err := json.Unmarshal([]byte(toolCallsJSON.String), &calls); err == nil {
				ex.ToolCalls = calls
			}
		}
		out = append(out, ex)
	}
	// reverse to chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
