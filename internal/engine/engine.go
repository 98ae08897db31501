// Package engine implements the Consciousness Engine: the single loop that
// assembles context, talks to the LLM, dispatches tool calls, and persists
// the resulting exchange into every memory subsystem.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"coco/internal/cocoerr"
	"coco/internal/config"
	"coco/internal/docs"
	"coco/internal/episodic"
	"coco/internal/extract"
	"coco/internal/facts"
	"coco/internal/identity"
	"coco/internal/llm"
	"coco/internal/logging"
	"coco/internal/scheduler"
	"coco/internal/semantic"
	"coco/internal/summary"
	"coco/internal/tools"
)

// minToolDepth is the lowest acceptable bound on tool-use follow-up rounds;
// spec requires at least 3.
const minToolDepth = 3

// reserveOutputTokens is set aside for the model's own response when sizing
// the working-memory and document budgets against the context window.
const reserveOutputTokens = 4096

// Engine wires every memory subsystem, the tool registry, and an LLM
// provider into the single per-turn protocol that Run executes.
type Engine struct {
	LLM   llm.Provider
	Model string
	Tools *tools.Registry

	Identity     *identity.Store
	Episodic     *episodic.Buffer
	Exchanges    *episodic.Store
	Summary      *summary.Buffer
	SummaryStore *summary.Store
	Facts        *facts.Store
	Semantic     *semantic.Store
	Docs         *docs.Index
	Extract      *extract.Registry

	Config config.Config

	SessionID          string
	MaxToolDepth       int
	MaxToolParallelism int

	// turnMutex serializes this engine's episodic- and summary-buffer
	// mutations — it is held only around those mutations, not the whole
	// turn, so LLM and tool I/O still run unlocked. Scheduler template runs
	// write only to the durable exchange store and the semantic store and
	// do not take it.
	turnMutex sync.Mutex

	toolCallSeq uint64

	// OnObservation, if set, receives a record of every completed turn for
	// logging/metrics; it is never required for correctness.
	OnObservation func(Observation)
}

// New builds an Engine from its required collaborators, applying defaults
// for depth/parallelism bounds that callers usually leave unset.
func New(llmProvider llm.Provider, model string, reg *tools.Registry, cfg config.Config) *Engine {
	return &Engine{
		LLM:          llmProvider,
		Model:        model,
		Tools:        reg,
		Config:       cfg,
		SessionID:    "default",
		MaxToolDepth: minToolDepth,
	}
}

// Observation is the observability record produced for every turn: timing,
// per-section token estimates, the model's finish behavior, tools run, and
// any error kinds encountered along the way.
type Observation struct {
	StartedAt      time.Time
	FinishedAt     time.Time
	SectionTokens  map[string]int
	ToolsExecuted  []string
	ErrorKinds     []cocoerr.Kind
	CompressionLog []string
	FinalLength    int
}

// Run executes the full per-turn protocol for one user message and returns
// the assistant's final text.
func (e *Engine) Run(ctx context.Context, userText string) (string, error) {
	log := logging.For(ctx)
	obs := Observation{StartedAt: time.Now(), SectionTokens: map[string]int{}}

	sys, p := e.assembleSystemPrompt(ctx, userText, &obs)

	msgs := []llm.Message{
		{Role: "system", Content: sys},
		{Role: "user", Content: userText},
	}

	maxDepth := e.MaxToolDepth
	if maxDepth < minToolDepth {
		maxDepth = minToolDepth
	}

	var finalText string
	var toolCalls []llm.ToolCall
	depth := 0
	for {
		schemas := e.Tools.SchemasForLLM()
		msg, err := e.LLM.Chat(ctx, msgs, schemas, e.Model)
		if err != nil {
			obs.ErrorKinds = append(obs.ErrorKinds, cocoerr.Internal)
			e.finish(obs)
			return "", cocoerr.Wrap(cocoerr.ExternalFailure, "llm chat call failed", err)
		}

		msg.ToolCalls = e.ensureToolCallIDs(msgs, msg.ToolCalls)
		msgs = append(msgs, msg)

		if len(msg.ToolCalls) == 0 {
			finalText = msg.Content
			break
		}
		toolCalls = append(toolCalls, msg.ToolCalls...)

		depth++
		if depth > maxDepth {
			log.Warn().Int("depth", depth).Msg("engine_tool_depth_exceeded")
			finalText = "I had to stop after too many tool-use rounds without reaching a final answer."
			break
		}

		var executed []string
		msgs, executed = e.dispatchTools(ctx, msgs, msg.ToolCalls)
		obs.ToolsExecuted = append(obs.ToolsExecuted, executed...)
	}

	obs.FinalLength = len(finalText)
	e.persistAndMaintain(ctx, userText, finalText, toolCalls, p, &obs)

	e.finish(obs)
	return finalText, nil
}

func (e *Engine) finish(obs Observation) {
	obs.FinishedAt = time.Now()
	if e.OnObservation != nil {
		e.OnObservation(obs)
	}
}

// ensureToolCallIDs guarantees every tool_use block in this turn has a
// unique, non-empty id before it is used to key a tool_result — the
// invariant spec.md §6.1 requires be enforced by construction.
func (e *Engine) ensureToolCallIDs(msgs []llm.Message, calls []llm.ToolCall) []llm.ToolCall {
	used := map[string]struct{}{}
	for _, m := range msgs {
		if m.Role != "assistant" {
			continue
		}
		for _, tc := range m.ToolCalls {
			if tc.ID != "" {
				used[tc.ID] = struct{}{}
			}
		}
	}
	for i := range calls {
		id := calls[i].ID
		if id == "" {
			id = e.nextToolCallID()
		}
		for {
			if _, dup := used[id]; !dup {
				break
			}
			id = e.nextToolCallID()
		}
		calls[i].ID = id
		used[id] = struct{}{}
	}
	return calls
}

func (e *Engine) nextToolCallID() string {
	seq := atomic.AddUint64(&e.toolCallSeq, 1)
	return fmt.Sprintf("coco-call-%d", seq)
}

// SchedulerRuntime adapts this Engine's collaborators into the shape the
// Autonomous Scheduler's templates dispatch through, so scheduled tasks and
// foreground turns share one tool registry, LLM provider, and memory
// subsystems.
func (e *Engine) SchedulerRuntime(store *scheduler.Store, limiter *scheduler.RateLimiter) *scheduler.Runtime {
	return &scheduler.Runtime{
		Tools:    e.Tools,
		LLM:      e.LLM,
		Model:    e.Model,
		Episodic: e.Exchanges,
		Semantic: e.Semantic,
		Limiter:  limiter,
		Store:    store,
	}
}
