// Package summary compresses aging episodic exchanges into short rolling
// summaries, so the engine can recall "what happened" far beyond what fits
// in the live Episodic Buffer.
package summary

import (
	"context"
	"strings"
	"sync"
	"time"

	"coco/internal/episodic"
	"coco/internal/llm"
	"coco/internal/logging"
	"coco/internal/tokens"

	"github.com/google/uuid"
)

const batchSize = 10

// Summary is a compressed, never-rewritten account of a contiguous run of
// exchanges.
type Summary struct {
	ID            string
	CoversFrom    string // oldest exchange id covered
	CoversTo      string // newest exchange id covered
	Text          string
	TokenEstimate int
	CreatedAt     time.Time
}

// Buffer holds the live set of summaries, oldest first.
type Buffer struct {
	mu       sync.Mutex
	llm      llm.Provider
	model    string
	summaries []Summary
}

func New(provider llm.Provider, model string) *Buffer {
	return &Buffer{llm: provider, model: model}
}

// Summarize groups exchanges into batches of ~10 and asks the LLM to
// compress each batch, preserving decisions, commitments, and user
// preferences. On LLM failure for a batch, that batch's exchanges are
// reported back as unsummarized (still live) rather than lost.
func (b *Buffer) Summarize(ctx context.Context, exchanges []episodic.Exchange) (produced []Summary, unsummarized []episodic.Exchange) {
	log := logging.For(ctx)
	for start := 0; start < len(exchanges); start += batchSize {
		end := start + batchSize
		if end > len(exchanges) {
			end = len(exchanges)
		}
		batch := exchanges[start:end]

		text, err := b.summarizeBatch(ctx, batch)
		if err != nil {
			log.Warn().Err(err).Int("batch_size", len(batch)).Msg("summarization_failed")
			unsummarized = append(unsummarized, batch...)
			continue
		}

		s := Summary{
			ID:            uuid.NewString(),
			CoversFrom:    batch[0].ID,
			CoversTo:      batch[len(batch)-1].ID,
			Text:          text,
			TokenEstimate: tokens.Estimate(text),
			CreatedAt:     time.Now(),
		}
		produced = append(produced, s)
	}
	return produced, unsummarized
}

func (b *Buffer) summarizeBatch(ctx context.Context, batch []episodic.Exchange) (string, error) {
	var in strings.Builder
	for _, ex := range batch {
		in.WriteString("User: ")
		in.WriteString(ex.UserText)
		in.WriteString("\nAssistant: ")
		in.WriteString(ex.AssistantText)
		in.WriteString("\n\n")
	}

	sys := "Summarize these exchanges preserving decisions, commitments, and user preferences. Be concise and factual. Return only the summary text."
	req := []llm.Message{
		{Role: "system", Content: sys},
		{Role: "user", Content: in.String()},
	}

	resp, err := b.llm.Chat(ctx, req, nil, b.model)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// Append adds a newly-produced summary to the live set.
func (b *Buffer) Append(s Summary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summaries = append(b.summaries, s)
}

// ContextText emits up to maxTokens (default 5000) of summary text, oldest
// summaries dropped first when the full set would exceed budget.
func (b *Buffer) ContextText(maxTokens int) string {
	if maxTokens <= 0 {
		maxTokens = 5000
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for _, s := range b.summaries {
		total += s.TokenEstimate
	}
	// Drop oldest until within budget, without mutating live state.
	start := 0
	for total > maxTokens && start < len(b.summaries) {
		total -= b.summaries[start].TokenEstimate
		start++
	}

	var out strings.Builder
	for _, s := range b.summaries[start:] {
		out.WriteString(s.Text)
		out.WriteString("\n")
	}
	return strings.TrimSpace(out.String())
}

// Prune permanently evicts the oldest summaries so the live set's total
// token estimate no longer exceeds maxTokens.
func (b *Buffer) Prune(maxTokens int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for _, s := range b.summaries {
		total += s.TokenEstimate
	}
	start := 0
	for total > maxTokens && start < len(b.summaries) {
		total -= b.summaries[start].TokenEstimate
		start++
	}
	b.summaries = b.summaries[start:]
}

// All returns a snapshot of the live summaries, oldest first.
func (b *Buffer) All() []Summary {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Summary, len(b.summaries))
	copy(out, b.summaries)
	return out
}
