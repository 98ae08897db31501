// Package episodic holds the live, bounded window of recent conversation
// turns that the Consciousness Engine assembles into working memory.
package episodic

import (
	"strings"
	"sync"
	"time"

	"coco/internal/llm"
	"coco/internal/tokens"

	"github.com/google/uuid"
)

// Exchange is one user+assistant turn, including any tool calls performed
// during that turn.
type Exchange struct {
	ID            string
	SessionID     string
	UserText      string
	AssistantText string
	ToolCalls     []llm.ToolCall
	Autonomous    bool
	Summarized    bool
	CreatedAt     time.Time
}

// NewExchange stamps a fresh Exchange with a generated ID and timestamp.
func NewExchange(sessionID, userText, assistantText string, calls []llm.ToolCall) Exchange {
	return Exchange{
		ID:            uuid.NewString(),
		SessionID:     sessionID,
		UserText:      userText,
		AssistantText: assistantText,
		ToolCalls:     calls,
		CreatedAt:     time.Now(),
	}
}

// Target returns the pressure-adaptive buffer length N for pressure P
// (used_tokens / context_limit).
func Target(p float64) int {
	switch {
	case p < 0.60:
		return 35
	case p < 0.75:
		return 25
	case p < 0.85:
		return 20
	default:
		return 15
	}
}

// Buffer is an ordered, bounded collection of live Exchange records.
type Buffer struct {
	mu                sync.Mutex
	exchanges         []Exchange
	rollingCheckpoint int // minimum most-recent exchanges always retained
}

// New creates a Buffer that always retains at least rollingCheckpoint
// most-recent exchanges regardless of the pressure-adjusted target.
func New(rollingCheckpoint int) *Buffer {
	if rollingCheckpoint <= 0 {
		rollingCheckpoint = 22
	}
	return &Buffer{rollingCheckpoint: rollingCheckpoint}
}

// Append adds ex to the tail of the live buffer.
func (b *Buffer) Append(ex Exchange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exchanges = append(b.exchanges, ex)
}

// Len returns the number of live (not-yet-summarized) exchanges.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.exchanges)
}

// ContextText emits the most-recent-first fragment of the buffer up to
// max_tokens, always keeping whole exchanges (never truncating inside one).
func (b *Buffer) ContextText(maxTokens int) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var parts []string
	used := 0
	for i := len(b.exchanges) - 1; i >= 0; i-- {
		ex := b.exchanges[i]
		text := formatExchange(ex)
		cost := tokens.Estimate(text)
		if used+cost > maxTokens && len(parts) > 0 {
			break
		}
		parts = append(parts, text)
		used += cost
	}
	// parts was built newest-first; reverse to restore chronological order.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "\n\n")
}

func formatExchange(ex Exchange) string {
	var b strings.Builder
	b.WriteString("User: ")
	b.WriteString(ex.UserText)
	b.WriteString("\nAssistant: ")
	b.WriteString(ex.AssistantText)
	return b.String()
}

// EligibleForSummary returns the exchanges that may be summarized given
// the pressure-adjusted target N: everything beyond the last
// rollingCheckpoint exchanges, once the buffer exceeds N.
func (b *Buffer) EligibleForSummary(target int) []Exchange {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.exchanges)
	if n <= target {
		return nil
	}
	keep := b.rollingCheckpoint
	if keep > n {
		keep = n
	}
	cut := n - keep
	if cut <= 0 {
		return nil
	}
	out := make([]Exchange, cut)
	copy(out, b.exchanges[:cut])
	return out
}

// MarkSummarized removes the given exchange ids from the live buffer. It is
// the only operation that actually shrinks the buffer; EligibleForSummary
// is a pure read.
func (b *Buffer) MarkSummarized(ids []string) {
	if len(ids) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := b.exchanges[:0:0]
	for _, ex := range b.exchanges {
		if !drop[ex.ID] {
			kept = append(kept, ex)
		}
	}
	b.exchanges = kept
}

// All returns a snapshot copy of the live exchanges, oldest first.
func (b *Buffer) All() []Exchange {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Exchange, len(b.exchanges))
	copy(out, b.exchanges)
	return out
}
