package semantic

import (
	"encoding/binary"
	"math"
	"sort"
	"time"

	"coco/internal/cocoerr"
	"coco/internal/storage"

	"github.com/google/uuid"
)

// Entry is one stored semantic memory.
type Entry struct {
	ID         string
	Text       string
	Importance float64
	Embedding  []float32
	CreatedAt  time.Time
}

// Store persists semantic entries in the shared workspace database and
// retrieves them by brute-force cosine similarity scan. Sufficient at
// COCO's single-user, bounded-row scale; no vector index is wired.
type Store struct {
	db    *storage.DB
	embed func(string) []float32
}

func NewStore(db *storage.DB) *Store {
	return &Store{db: db, embed: HashBigramEmbed}
}

// Add stores text with the given importance (defaults to 1.0 semantics are
// the caller's responsibility; this store just persists whatever is given).
func (s *Store) Add(text string, importance float64) (Entry, error) {
	e := Entry{
		ID:         uuid.NewString(),
		Text:       text,
		Importance: importance,
		Embedding:  s.embed(text),
		CreatedAt:  time.Now(),
	}

	s.db.Lock()
	defer s.db.Unlock()
	_, err := s.db.Conn().Exec(`
		INSERT INTO semantic_entries(id, text, importance, embedding, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Text, e.Importance, encodeEmbedding(e.Embedding), e.CreatedAt)
	if err != nil {
		return Entry{}, cocoerr.Wrap(cocoerr.Internal, "insert semantic entry", err)
	}
	return e, nil
}

// Retrieve returns up to k entries' text, ranked by cosine similarity to
// query's embedding, ties broken by importance then recency. Deterministic
// given the same underlying rows and query.
func (s *Store) Retrieve(query string, k int) ([]string, error) {
	s.db.RLock()
	entries, err := s.loadAll()
	s.db.RUnlock()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	qVec := s.embed(query)
	type scored struct {
		entry Entry
		sim   float64
	}
	ranked := make([]scored, len(entries))
	for i, e := range entries {
		ranked[i] = scored{entry: e, sim: CosineSimilarity(qVec, e.Embedding)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].sim != ranked[j].sim {
			return ranked[i].sim > ranked[j].sim
		}
		if ranked[i].entry.Importance != ranked[j].entry.Importance {
			return ranked[i].entry.Importance > ranked[j].entry.Importance
		}
		return ranked[i].entry.CreatedAt.After(ranked[j].entry.CreatedAt)
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.entry.Text
	}
	return out, nil
}

// Count returns the number of stored entries.
func (s *Store) Count() (int, error) {
	s.db.RLock()
	defer s.db.RUnlock()
	var n int
	row := s.db.Conn().QueryRow(`SELECT COUNT(*) FROM semantic_entries`)
	if err := row.Scan(&n); err != nil {
		return 0, cocoerr.Wrap(cocoerr.Internal, "count semantic entries", err)
	}
	return n, nil
}

func (s *Store) loadAll() ([]Entry, error) {
	rows, err := s.db.Conn().Query(`SELECT id, text, importance, embedding, created_at FROM semantic_entries`)
	if err != nil {
		return nil, cocoerr.Wrap(cocoerr.Internal, "query semantic entries", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var blob []byte
		var createdAt time.Time
		if err := rows.Scan(&e.ID, &e.Text, &e.Importance, &blob, &createdAt); err != nil {
			return nil, cocoerr.Wrap(cocoerr.Internal, "scan semantic entry", err)
		}
		e.Embedding = decodeEmbedding(blob)
		e.CreatedAt = createdAt
		out = append(out, e)
	}
	return out, rows.Err()
}

func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
