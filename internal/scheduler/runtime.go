package scheduler

import (
	"context"

	"coco/internal/episodic"
	"coco/internal/llm"
	"coco/internal/semantic"
	"coco/internal/tools"
)

// Runtime bundles everything a Template needs to act: the tool registry to
// dispatch calls through, an LLM for templates that summarize or compose
// text, and the memory stores so autonomous work leaves a trace the
// Consciousness Engine can later surface.
type Runtime struct {
	Tools    *tools.Registry
	LLM      llm.Provider
	Model    string
	Episodic *episodic.Store
	Semantic *semantic.Store
	Limiter  *RateLimiter
	Store    *Store
}

// dispatch is a small helper templates use to call a tool and get back a
// plain string result or a typed error.
func (rt *Runtime) dispatch(ctx context.Context, name string, argsJSON []byte) (string, error) {
	res := rt.Tools.Dispatch(ctx, name, argsJSON)
	if !res.OK {
		return "", toolError(name, res)
	}
	return res.Value, nil
}

// recordExchange appends an autonomous Exchange to the episodic store and a
// matching SemanticMemory entry so the engine's next turn can recall what an
// unattended template did.
func (rt *Runtime) recordExchange(task Task, summary string) {
	ex := episodic.NewExchange("scheduler:"+task.ID, task.Name, summary, nil)
	ex.Autonomous = true
	if rt.Episodic != nil {
		_ = rt.Episodic.Save(ex)
	}
	if rt.Semantic != nil {
		_, _ = rt.Semantic.Add(task.Name+": "+summary, 0.5)
	}
}

// chatSummarize is a small convenience for templates that need the LLM to
// compose or condense text (digests, reports) rather than just passing tool
// output straight through.
func (rt *Runtime) chatSummarize(ctx context.Context, prompt string) (string, error) {
	if rt.LLM == nil {
		return prompt, nil
	}
	msg, err := rt.LLM.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, nil, rt.Model)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}
