package engine

import (
	"context"

	"coco/internal/episodic"
	"coco/internal/extract"
	"coco/internal/llm"
	"coco/internal/logging"
)

// persistAndMaintain implements steps 4 and 5 of the turn protocol:
// persistence (append to the live buffer, durable store, fact extraction,
// semantic store) and maintenance (summarize the eligible window once the
// buffer exceeds its pressure-adjusted target).
//
// The episodic/summary buffer mutation sequence is serialized via
// turnMutex, so concurrent Run calls on one Engine cannot interleave an
// append with this turn's checkpoint trim. The scheduler's template-driven
// exchanges do not pass through here; they go only to the durable exchange
// store.
func (e *Engine) persistAndMaintain(ctx context.Context, userText, assistantText string, calls []llm.ToolCall, p float64, obs *Observation) {
	log := logging.For(ctx)

	ex := episodic.NewExchange(e.SessionID, userText, assistantText, calls)

	e.turnMutex.Lock()
	e.Episodic.Append(ex)
	e.turnMutex.Unlock()

	if e.Exchanges != nil {
		if err := e.Exchanges.Save(ex); err != nil {
			log.Error().Err(err).Msg("engine_exchange_persist_failed")
		}
	}

	e.extractFacts(ctx, ex, calls)

	if e.Semantic != nil {
		if _, err := e.Semantic.Add(assistantText, 1.0); err != nil {
			log.Error().Err(err).Msg("engine_semantic_add_failed")
		}
	}

	e.maintainBuffer(ctx, p)
}

// extractFacts runs the exchange-text extractors plus, for every tool call
// made during the turn, the tool-specific extractor — failures here never
// roll back the already-durable exchange.
func (e *Engine) extractFacts(ctx context.Context, ex episodic.Exchange, calls []llm.ToolCall) {
	if e.Extract == nil || e.Facts == nil {
		return
	}
	log := logging.For(ctx)

	save := func(d extract.Draft) {
		if _, err := e.Facts.Add(d.Type, d.Content, d.Context, ex.ID, ex.SessionID); err != nil {
			log.Error().Err(err).Msg("engine_fact_persist_failed")
		}
	}

	for _, d := range e.Extract.ExtractFromExchange(ex) {
		save(d)
	}
	for _, tc := range calls {
		for _, d := range e.Extract.ExtractFromTool(tc, "") {
			save(d)
		}
	}
}

// maintainBuffer implements spec §4.E/§4.F's maintenance step: if the live
// buffer exceeds the pressure-adjusted target N, the eligible (oldest,
// beyond the rolling checkpoint) window is summarized. A failed
// summarization leaves its exchanges live for retry on a later turn.
func (e *Engine) maintainBuffer(ctx context.Context, p float64) {
	log := logging.For(ctx)
	target := episodic.Target(p)
	if e.Episodic.Len() <= target {
		return
	}

	e.turnMutex.Lock()
	eligible := e.Episodic.EligibleForSummary(target)
	e.turnMutex.Unlock()
	if len(eligible) == 0 {
		return
	}

	produced, unsummarized := e.Summary.Summarize(ctx, eligible)

	summarizedIDs := make([]string, 0, len(eligible)-len(unsummarized))
	unsummarizedIDs := map[string]bool{}
	for _, ex := range unsummarized {
		unsummarizedIDs[ex.ID] = true
	}
	for _, ex := range eligible {
		if !unsummarizedIDs[ex.ID] {
			summarizedIDs = append(summarizedIDs, ex.ID)
		}
	}

	for _, s := range produced {
		e.Summary.Append(s)
		if e.SummaryStore != nil {
			if err := e.SummaryStore.Save(s); err != nil {
				log.Error().Err(err).Msg("engine_summary_persist_failed")
			}
		}
	}

	if len(summarizedIDs) == 0 {
		return
	}

	e.turnMutex.Lock()
	e.Episodic.MarkSummarized(summarizedIDs)
	e.turnMutex.Unlock()

	if e.Exchanges != nil {
		if err := e.Exchanges.MarkSummarized(summarizedIDs); err != nil {
			log.Error().Err(err).Msg("engine_mark_summarized_failed")
		}
	}
}
