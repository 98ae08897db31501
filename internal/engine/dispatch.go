package engine

import (
	"context"
	"sync"

	"coco/internal/llm"
	"coco/internal/logging"
)

// dispatchTools executes every tool_use block from one assistant message and
// collapses their outcomes into a single "tool" role Message: every id must
// be answered, all together, in one follow-up message. This is satisfied
// here by construction — results is sized to len(calls), every slot is
// filled before the merged message is built, and exactly one Message
// (never one per call) is appended.
func (e *Engine) dispatchTools(ctx context.Context, msgs []llm.Message, calls []llm.ToolCall) ([]llm.Message, []string) {
	if len(calls) == 0 {
		return msgs, nil
	}

	maxParallel := e.MaxToolParallelism
	if maxParallel <= 0 || maxParallel > len(calls) {
		maxParallel = len(calls)
	}

	results := make([]llm.ToolResult, len(calls))
	names := make([]string, len(calls))
	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup

	for i, tc := range calls {
		i, tc := i, tc
		names[i] = tc.Name
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = e.executeToolCall(ctx, tc)
		}()
	}
	wg.Wait()

	merged := llm.Message{Role: "tool", ToolResults: results}
	if len(results) > 0 {
		merged.ToolID = results[0].ToolID
		merged.Content = results[0].Content
	}

	return append(msgs, merged), names
}

func (e *Engine) executeToolCall(ctx context.Context, tc llm.ToolCall) llm.ToolResult {
	log := logging.For(ctx)
	res := e.Tools.Dispatch(ctx, tc.Name, tc.Args)

	var content string
	if res.OK {
		content = res.Value
	} else {
		log.Warn().Str("tool", tc.Name).Str("error_kind", string(res.ErrorKind)).
			Str("error", res.ErrorMessage).Msg("engine_tool_error")
		content = `{"error":"` + res.ErrorMessage + `","error_kind":"` + string(res.ErrorKind) + `"}`
	}
	return llm.ToolResult{ToolID: tc.ID, Content: content}
}
