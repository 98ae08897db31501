package llm

import (
	"context"
	"encoding/json"
)

type ToolCall struct {
	Name string
	Args json.RawMessage
	ID   string
}

// ToolResult is one tool_use id's outcome. A single turn's tool_result
// blocks must all reach the wire inside one user message, so a "tool" role
// Message carries all of them together rather than one Message per call.
type ToolResult struct {
	ToolID  string
	Content string
}

type Message struct {
	Role    string // "system" | "user" | "assistant" | "tool"
	Content string
	ToolID  string
	// ToolCalls are only set on assistant messages.
	ToolCalls []ToolCall
	// ToolResults holds every tool_result produced by one dispatch round, for
	// Role == "tool". Providers must adapt this into a single wire-level
	// message with one block per result, never splitting them across
	// messages. ToolID/Content above remain populated too, mirroring the
	// first result, for callers that only look at a single-result shape.
	ToolResults []ToolResult
	// ThoughtSignature carries Claude extended-thinking block state
	// (JSON-encoded) that must be echoed back on the next turn to keep
	// multi-turn thinking valid.
	ThoughtSignature string
}

type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type StreamHandler interface {
	OnDelta(content string)
	OnToolCall(tc ToolCall)
	// OnThoughtSummary receives incremental extended-thinking text.
	OnThoughtSummary(summary string)
	// OnThoughtSignature receives the JSON-encoded thinking-block state to
	// persist on the assistant message once the stream completes.
	OnThoughtSignature(signature string)
}

type Provider interface {
	Chat(ctx context.Context, msgs []Message, tools []ToolSchema, model string) (Message, error)
	ChatStream(ctx context.Context, msgs []Message, tools []ToolSchema, model string, h StreamHandler) error
}
