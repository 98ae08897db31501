// Package docs implements the Document Index: a minimal, deterministic
// stand-in for the external retrieval collaborator spec §6.4 treats as
// opaque. It chunks flat files under a documents directory on blank-line
// boundaries, ranks chunks against a query by cosine similarity over the
// same hash-bigram embedding the Semantic Store uses, and returns as many
// top chunks as fit a token budget.
package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"coco/internal/semantic"
	"coco/internal/tokens"
)

// Index reads documents from a directory on every RelevantChunks call, so
// files added or edited on disk are picked up without a restart.
type Index struct {
	dir   string
	embed func(string) []float32
}

// New returns an Index rooted at dir (typically <workspace>/documents).
func New(dir string) *Index {
	return &Index{dir: dir, embed: semantic.HashBigramEmbed}
}

type chunk struct {
	source string
	text   string
}

// RelevantChunks returns concatenated, source-headered chunks ranked by
// similarity to query, not exceeding budgetTokens. Deterministic: same
// corpus and query always produce the same ordering and output.
func (idx *Index) RelevantChunks(query string, budgetTokens int) (string, error) {
	chunks, err := idx.loadChunks()
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", nil
	}

	qv := idx.embed(query)
	type scored struct {
		chunk
		score float64
	}
	ranked := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		ranked = append(ranked, scored{chunk: c, score: semantic.CosineSimilarity(qv, idx.embed(c.text))})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].source != ranked[j].source {
			return ranked[i].source < ranked[j].source
		}
		return ranked[i].text < ranked[j].text
	})

	var b strings.Builder
	used := 0
	for _, r := range ranked {
		block := fmt.Sprintf("[source: %s]\n%s", r.source, r.text)
		cost := tokens.Estimate(block)
		if used > 0 {
			cost += tokens.Estimate("\n\n")
		}
		if used+cost > budgetTokens {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block)
		used += cost
	}
	return b.String(), nil
}

func (idx *Index) loadChunks() ([]chunk, error) {
	var out []chunk
	err := filepath.WalkDir(idx.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		b, readErr := os.ReadFile(p)
		if readErr != nil {
			return nil
		}
		rel, _ := filepath.Rel(idx.dir, p)
		for _, part := range strings.Split(string(b), "\n\n") {
			text := strings.TrimSpace(part)
			if text == "" {
				continue
			}
			out = append(out, chunk{source: rel, text: text})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
