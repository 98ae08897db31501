package facts

import (
	"database/sql"
	"math"
	"sort"
	"strings"
	"time"

	"coco/internal/cocoerr"
	"coco/internal/storage"

	"github.com/coregx/ahocorasick"
	"github.com/google/uuid"
	"github.com/orsinium-labs/stopwords"
)

const recencyHalfLifeDays = 30

// Store persists facts in the shared workspace database and ranks search
// results by a blend of keyword match, importance, access frequency, and
// recency.
type Store struct {
	db   *storage.DB
	stop *stopwords.Stopwords
}

func NewStore(db *storage.DB) *Store {
	return &Store{db: db, stop: stopwords.MustGet("en")}
}

// Add inserts a fact, computing its importance at insert time.
func (s *Store) Add(t Type, content, context, episodeID, sessionID string) (Fact, error) {
	f := Fact{
		ID:         uuid.NewString(),
		Type:       t,
		Content:    content,
		Context:    context,
		Importance: ComputeImportance(t, content),
		EpisodeID:  episodeID,
		SessionID:  sessionID,
		CreatedAt:  time.Now(),
	}

	s.db.Lock()
	defer s.db.Unlock()
	_, err := s.db.Conn().Exec(`
		INSERT INTO facts(id, fact_type, content, context, importance, access_count, episode_id, session_id, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		f.ID, string(f.Type), f.Content, f.Context, f.Importance, f.EpisodeID, f.SessionID, f.CreatedAt)
	if err != nil {
		return Fact{}, cocoerr.Wrap(cocoerr.Internal, "insert fact", err)
	}
	return f, nil
}

// ByType returns up to limit facts of the given type, most recent first.
func (s *Store) ByType(t Type, limit int) ([]Fact, error) {
	s.db.RLock()
	defer s.db.RUnlock()

	rows, err := s.db.Conn().Query(`
		SELECT id, fact_type, content, context, importance, access_count, episode_id, session_id, created_at, last_accessed
		FROM facts WHERE fact_type = ? ORDER BY created_at DESC LIMIT ?`, string(t), limit)
	if err != nil {
		return nil, cocoerr.Wrap(cocoerr.Internal, "query facts by type", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// Touch increments access_count and sets last_accessed to now.
func (s *Store) Touch(id string) error {
	s.db.Lock()
	defer s.db.Unlock()
	_, err := s.db.Conn().Exec(`
		UPDATE facts SET access_count = access_count + 1, last_accessed = ? WHERE id = ?`,
		time.Now(), id)
	if err != nil {
		return cocoerr.Wrap(cocoerr.Internal, "touch fact", err)
	}
	return nil
}

// Stats summarizes the store's current contents.
func (s *Store) Stats() (Stats, error) {
	s.db.RLock()
	defer s.db.RUnlock()

	out := Stats{ByType: map[Type]int{}}
	rows, err := s.db.Conn().Query(`SELECT fact_type, importance FROM facts`)
	if err != nil {
		return Stats{}, cocoerr.Wrap(cocoerr.Internal, "query fact stats", err)
	}
	defer rows.Close()

	var importanceSum float64
	for rows.Next() {
		var ft string
		var imp float64
		if err := rows.Scan(&ft, &imp); err != nil {
			return Stats{}, cocoerr.Wrap(cocoerr.Internal, "scan fact stats", err)
		}
		out.Total++
		out.ByType[Type(ft)]++
		importanceSum += imp
	}
	if out.Total > 0 {
		out.AvgImportance = importanceSum / float64(out.Total)
	}
	return out, rows.Err()
}

// Search ranks facts by keyword match against content+context (via an
// Aho-Corasick scan of the query's stopword-filtered tokens), blended with
// importance, log-scaled access_count, and a 30-day recency half-life.
// Ties break on importance then recency. An optional factTypes filter
// restricts the candidate set.
func (s *Store) Search(query string, limit int, factTypes []Type) ([]Fact, error) {
	s.db.RLock()
	candidates, err := s.loadCandidates(factTypes)
	s.db.RUnlock()
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	keywords := s.keywordsOf(query)
	matcher, err := buildMatcher(keywords)
	if err != nil {
		return nil, cocoerr.Wrap(cocoerr.Internal, "build keyword matcher", err)
	}

	now := time.Now()
	type scored struct {
		fact  Fact
		score float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, f := range candidates {
		keywordScore := 0.0
		if matcher != nil {
			keywordScore = float64(len(matcher.FindAllOverlapping([]byte(strings.ToLower(f.Content + " " + f.Context)))))
		}
		accessScore := math.Log1p(float64(f.AccessCount))
		ageDays := now.Sub(f.CreatedAt).Hours() / 24
		recencyScore := math.Exp(-math.Ln2 * ageDays / recencyHalfLifeDays)

		score := keywordScore*2 + f.Importance + accessScore*0.3 + recencyScore
		ranked = append(ranked, scored{fact: f, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].fact.Importance != ranked[j].fact.Importance {
			return ranked[i].fact.Importance > ranked[j].fact.Importance
		}
		return ranked[i].fact.CreatedAt.After(ranked[j].fact.CreatedAt)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]Fact, len(ranked))
	for i, r := range ranked {
		out[i] = r.fact
	}
	return out, nil
}

func (s *Store) keywordsOf(query string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?;:\"'()")
		if w == "" || (s.stop != nil && s.stop.Contains(w)) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func buildMatcher(keywords []string) (*ahocorasick.Automaton, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	return ahocorasick.NewBuilder().
		AddStrings(keywords).
		SetMatchKind(ahocorasick.LeftmostLongest).
		Build()
}

func (s *Store) loadCandidates(factTypes []Type) ([]Fact, error) {
	var rows *sql.Rows
	var err error
	if len(factTypes) == 0 {
		rows, err = s.db.Conn().Query(`
			SELECT id, fact_type, content, context, importance, access_count, episode_id, session_id, created_at, last_accessed
			FROM facts`)
	} else {
		placeholders := strings.Repeat("?,", len(factTypes))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]any, len(factTypes))
		for i, t := range factTypes {
			args[i] = string(t)
		}
		rows, err = s.db.Conn().Query(`
			SELECT id, fact_type, content, context, importance, access_count, episode_id, session_id, created_at, last_accessed
			FROM facts WHERE fact_type IN (`+placeholders+`)`, args...)
	}
	if err != nil {
		return nil, cocoerr.Wrap(cocoerr.Internal, "query facts", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

func scanFacts(rows *sql.Rows) ([]Fact, error) {
	var out []Fact
	for rows.Next() {
		var f Fact
		var ft string
		var createdAt time.Time
		var lastAccessed sql.NullTime
		if err := rows.Scan(&f.ID, &ft, &f.Content, &f.Context, &f.Importance,
			&f.AccessCount, &f.EpisodeID, &f.SessionID, &createdAt, &lastAccessed); err != nil {
			return nil, cocoerr.Wrap(cocoerr.Internal, "scan fact", err)
		}
		f.Type = Type(ft)
		f.CreatedAt = createdAt
		if lastAccessed.Valid {
			t := lastAccessed.Time
			f.LastAccessed = &t
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
