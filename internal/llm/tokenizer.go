package llm

import "context"

// Tokenizer provides accurate token counting for a specific provider.
type Tokenizer interface {
	// CountTokens returns the number of tokens in the given text.
	// Returns an error if tokenization fails.
	CountTokens(ctx context.Context, text string) (int, error)

	// CountMessagesTokens returns token count for a conversation.
	// This accounts for message formatting overhead (roles, separators, etc.)
	CountMessagesTokens(ctx context.Context, msgs []Message) (int, error)
}

// TokenizableProvider is an optional interface that providers can implement
// to offer accurate token counting.
type TokenizableProvider interface {
	Provider
	Tokenizer() Tokenizer
}
