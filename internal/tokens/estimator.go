// Package tokens estimates token counts for context-window budgeting.
package tokens

import (
	"context"
)

// Message is the minimal shape an Estimator needs to size a conversation;
// it mirrors the role/content pair every store in COCO already carries.
type Message struct {
	Role    string
	Content string
}

// Estimator counts tokens for a single string or a conversation.
//
// Implementations may call out to a provider's real tokenizer, but must
// always be able to fall back to the heuristic in Estimate when no
// provider connection is available.
type Estimator interface {
	Estimate(s string) int
	EstimateMessages(msgs []Message) int
}

// Estimate returns the conservative heuristic token count ceil(len(bytes)/3).
// This is intentionally stricter than the common chars/4 rule of thumb so
// that budget checks err on the side of triggering compression early rather
// than overrunning a model's real context window.
func Estimate(s string) int {
	if s == "" {
		return 0
	}
	n := len(s)
	return (n + 2) / 3
}

// EstimateForMessages sums Estimate over every message's content, plus a
// small fixed overhead per message for role/formatting tokens.
func EstimateForMessages(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		total += Estimate(m.Content) + 4
	}
	return total
}

// HeuristicEstimator is the always-available Estimator backed by Estimate.
type HeuristicEstimator struct{}

func (HeuristicEstimator) Estimate(s string) int              { return Estimate(s) }
func (HeuristicEstimator) EstimateMessages(msgs []Message) int { return EstimateForMessages(msgs) }

// Counter is implemented by providers that expose an authoritative token
// count (e.g. an API's count_tokens endpoint). When present it takes
// precedence over the heuristic.
type Counter interface {
	CountTokens(ctx context.Context, text string) (int, error)
	CountMessageTokens(ctx context.Context, msgs []Message) (int, error)
}

// ProviderEstimator prefers a Counter when available and falls back to the
// heuristic on error, so callers always get a usable estimate.
type ProviderEstimator struct {
	Counter Counter
}

func (p ProviderEstimator) Estimate(s string) int {
	if p.Counter != nil {
		if n, err := p.Counter.CountTokens(context.Background(), s); err == nil {
			return n
		}
	}
	return Estimate(s)
}

func (p ProviderEstimator) EstimateMessages(msgs []Message) int {
	if p.Counter != nil {
		if n, err := p.Counter.CountMessageTokens(context.Background(), msgs); err == nil {
			return n
		}
	}
	return EstimateForMessages(msgs)
}
