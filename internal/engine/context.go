package engine

import (
	"context"
	"strings"

	"coco/internal/facts"
	"coco/internal/router"
	"coco/internal/tokens"
)

const factsInjectionBudgetTokens = 1000

// pressure computes P = used_tokens / context_limit for the identity+summary
// portion of the prompt, per spec §4.E — this is the figure the document
// budget tier and the episodic buffer's pressure-adaptive target both key
// off of.
func pressure(usedTokens, contextLimit int) float64 {
	if contextLimit <= 0 {
		return 0
	}
	return float64(usedTokens) / float64(contextLimit)
}

// documentBudgetTier picks the dynamic document-context token budget for
// pressure p, per spec §4.J.
func documentBudgetTier(p float64, low, medium, high int) int {
	switch {
	case p < 0.60:
		return high
	case p < 0.75:
		return medium
	default:
		return low
	}
}

// assembleSystemPrompt builds the system prompt in the exact order spec.md
// §4.J requires: identity, summary, working memory, documents, facts
// auto-injection, then applies the emergency compression ladder if the
// assembled estimate reaches the critical threshold (an estimate between
// the warning and critical thresholds is left uncompressed). It returns
// the finished prompt and the pressure figure P used to size it.
func (e *Engine) assembleSystemPrompt(ctx context.Context, userText string, obs *Observation) (string, float64) {
	docs, _ := e.Identity.ReadAll()
	identityText := strings.TrimSpace(docs.Self + "\n\n" + docs.User + "\n\n" + docs.Prefs)
	identityTokens := tokens.Estimate(identityText)
	obs.SectionTokens["identity"] = identityTokens

	summaryBudget := e.Config.SummaryBudgetTokens
	if summaryBudget <= 0 {
		summaryBudget = 5000
	}
	summaryText := e.Summary.ContextText(summaryBudget)
	summaryTokens := tokens.Estimate(summaryText)
	obs.SectionTokens["summary"] = summaryTokens

	p := pressure(identityTokens+summaryTokens, e.Config.ContextLimitTokens)

	workingBudget := e.Config.ContextLimitTokens - reserveOutputTokens - identityTokens - summaryTokens
	if workingBudget < 0 {
		workingBudget = 0
	}
	workingText := e.Episodic.ContextText(workingBudget)
	obs.SectionTokens["working_memory"] = tokens.Estimate(workingText)

	docBudget := documentBudgetTier(p,
		e.Config.DocumentBudgetLow, e.Config.DocumentBudgetMedium, e.Config.DocumentBudgetHigh)
	docsText := ""
	if e.Docs != nil {
		docsText, _ = e.Docs.RelevantChunks(userText, docBudget)
	}
	obs.SectionTokens["documents"] = tokens.Estimate(docsText)

	decision := router.Route(userText)
	factsText := ""
	if e.Facts != nil && decision.Confidence >= e.Config.FactsAutoinjectThreshold {
		k := e.Config.FactsAutoinjectK
		if k <= 0 {
			k = 5
		}
		matches, _ := e.Facts.Search(userText, k, decision.SuggestedFactTypes)
		factsText = formatFacts(matches, factsInjectionBudgetTokens)
	}
	obs.SectionTokens["facts"] = tokens.Estimate(factsText)

	sections := &promptSections{
		identity: identityText,
		summary:  summaryText,
		working:  workingText,
		docs:     docsText,
		facts:    factsText,
	}
	e.applyEmergencyCompression(ctx, sections, userText, p, obs)

	return sections.render(), p
}

type promptSections struct {
	identity string
	summary  string
	working  string
	docs     string
	facts    string
}

func (s *promptSections) render() string {
	var b strings.Builder
	b.WriteString(s.identity)
	if s.summary != "" {
		b.WriteString("\n\n## Summary of earlier conversation\n")
		b.WriteString(s.summary)
	}
	if s.working != "" {
		b.WriteString("\n\n## Recent conversation\n")
		b.WriteString(s.working)
	}
	if s.docs != "" {
		b.WriteString("\n\n## Relevant documents\n")
		b.WriteString(s.docs)
	}
	if s.facts != "" {
		b.WriteString("\n\n## Relevant facts\n")
		b.WriteString(s.facts)
	}
	return b.String()
}

func (s *promptSections) totalTokens() int {
	return tokens.Estimate(s.identity) + tokens.Estimate(s.summary) +
		tokens.Estimate(s.working) + tokens.Estimate(s.docs) + tokens.Estimate(s.facts)
}

// applyEmergencyCompression implements spec §4.J's emergency context
// policy: while the assembled estimate is at or above the critical
// threshold, apply compression steps in order — shrink the document
// budget, cap the summary further, drop the oldest working-memory
// exchanges, then drop facts auto-injection entirely — never touching
// identity. It stops as soon as the estimate falls back under the
// critical threshold, or once every step has been exhausted.
func (e *Engine) applyEmergencyCompression(ctx context.Context, s *promptSections, userText string, p float64, obs *Observation) {
	critical := e.Config.ContextCriticalTokens
	warning := e.Config.ContextWarningTokens
	if critical <= 0 {
		critical = 160_000
	}
	if warning <= 0 {
		warning = 140_000
	}

	if s.totalTokens() < warning {
		return
	}

	steps := []struct {
		name string
		fn   func()
	}{
		{"shrink_document_budget", func() {
			tighter := documentBudgetTier(p+0.20,
				e.Config.DocumentBudgetLow, e.Config.DocumentBudgetMedium, e.Config.DocumentBudgetHigh)
			if tighter < tokens.Estimate(s.docs) && e.Docs != nil {
				s.docs, _ = e.Docs.RelevantChunks(userText, tighter)
			}
		}},
		{"cap_summary_further", func() {
			half := tokens.Estimate(s.summary) / 2
			s.summary = e.Summary.ContextText(half)
		}},
		{"drop_oldest_working_memory", func() {
			half := tokens.Estimate(s.working) / 2
			s.working = e.Episodic.ContextText(half)
		}},
		{"drop_facts_autoinjection", func() {
			s.facts = ""
		}},
	}

	for _, step := range steps {
		if s.totalTokens() < critical {
			break
		}
		step.fn()
		obs.CompressionLog = append(obs.CompressionLog, step.name)
	}
}

func formatFacts(fs []facts.Fact, budgetTokens int) string {
	var b strings.Builder
	used := 0
	for _, f := range fs {
		line := "- [" + string(f.Type) + "] " + f.Content
		cost := tokens.Estimate(line)
		if used+cost > budgetTokens && used > 0 {
			break
		}
		b.WriteString(line)
		b.WriteString("\n")
		used += cost
	}
	return strings.TrimSpace(b.String())
}
