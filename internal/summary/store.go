package summary

import (
	"time"

	"coco/internal/cocoerr"
	"coco/internal/storage"
)

// Store persists summaries to the shared workspace database.
type Store struct {
	db *storage.DB
}

func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Save(sum Summary) error {
	s.db.Lock()
	defer s.db.Unlock()

	_, err := s.db.Conn().Exec(`
		INSERT INTO summaries(id, text, covers_from, covers_to, token_estimate, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sum.ID, sum.Text, sum.CoversFrom, sum.CoversTo, sum.TokenEstimate, sum.CreatedAt)
	if err != nil {
		return cocoerr.Wrap(cocoerr.Internal, "insert summary", err)
	}
	return nil
}

// LoadAll returns every persisted summary, oldest first, used to rehydrate
// the in-memory Buffer after a restart.
func (s *Store) LoadAll() ([]Summary, error) {
	s.db.RLock()
	defer s.db.RUnlock()

	rows, err := s.db.Conn().Query(`
		SELECT id, text, covers_from, covers_to, token_estimate, created_at
		FROM summaries ORDER BY created_at ASC`)
	if err != nil {
		return nil, cocoerr.Wrap(cocoerr.Internal, "query summaries", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var createdAt time.Time
		if err := rows.Scan(&sum.ID, &sum.Text, &sum.CoversFrom, &sum.CoversTo, &sum.TokenEstimate, &createdAt); err != nil {
			return nil, cocoerr.Wrap(cocoerr.Internal, "scan summary", err)
		}
		sum.CreatedAt = createdAt
		out = append(out, sum)
	}
	return out, rows.Err()
}
