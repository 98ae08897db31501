// Package router decides, for a given query, whether the Facts Store or the
// Semantic Store is the better source of recall.
package router

import (
	"strings"

	"coco/internal/facts"
)

// Target names which store a query should be routed to.
type Target string

const (
	TargetFacts    Target = "facts"
	TargetSemantic Target = "semantic"
)

// Decision is the router's output for one query.
type Decision struct {
	Target             Target
	Confidence         float64
	SuggestedFactTypes []facts.Type
}

// AutoInjectThreshold is the confidence at or above which the engine
// automatically injects top-k facts into the system prompt on a
// non-command turn.
const AutoInjectThreshold = 0.6

var exactRecallKeywords = []string{
	"what was", "show me", "which", "when", "where", "who", "how much",
}

var temporalKeywords = []string{
	"yesterday", "last week", "tomorrow", "ago",
}

// factTypeKeywords maps a keyword to the fact type it suggests. Several
// fact types share obvious trigger words (appointment/meeting, task, etc.)
var factTypeKeywords = map[string]facts.Type{
	"meeting":     facts.TypeAppointment,
	"appointment": facts.TypeAppointment,
	"contact":     facts.TypeContact,
	"email":       facts.TypeCommunication,
	"message":     facts.TypeCommunication,
	"task":        facts.TypeTask,
	"todo":        facts.TypeTask,
	"preference":  facts.TypePreference,
	"prefer":      facts.TypePreference,
	"note":        facts.TypeNote,
	"location":    facts.TypeLocation,
	"recommend":   facts.TypeRecommendation,
	"routine":     facts.TypeRoutine,
	"health":      facts.TypeHealth,
	"password":    facts.TypeFinancial,
	"financial":   facts.TypeFinancial,
	"tool":        facts.TypeToolUse,
	"command":     facts.TypeCommand,
	"code":        facts.TypeCode,
	"file":        facts.TypeFile,
	"url":         facts.TypeURL,
	"link":        facts.TypeURL,
	"error":       facts.TypeError,
	"config":      facts.TypeConfig,
}

// Route scores query against the three weighted signals and returns a
// routing decision. Weights sum to <= 1.0.
func Route(query string) Decision {
	lower := strings.ToLower(query)
	confidence := 0.0

	for _, kw := range exactRecallKeywords {
		if strings.Contains(lower, kw) {
			confidence += 0.4
			break
		}
	}

	var suggested []facts.Type
	seen := map[facts.Type]bool{}
	for kw, t := range factTypeKeywords {
		if strings.Contains(lower, kw) {
			if !seen[t] {
				seen[t] = true
				suggested = append(suggested, t)
			}
		}
	}
	if len(suggested) > 0 {
		confidence += 0.3
	}

	for _, kw := range temporalKeywords {
		if strings.Contains(lower, kw) {
			confidence += 0.3
			break
		}
	}

	if confidence >= AutoInjectThreshold {
		return Decision{Target: TargetFacts, Confidence: confidence, SuggestedFactTypes: suggested}
	}
	return Decision{Target: TargetSemantic, Confidence: confidence, SuggestedFactTypes: suggested}
}
