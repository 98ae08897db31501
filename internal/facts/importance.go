package facts

import "strings"

var baseImportance = map[Type]float64{
	// high group 0.7-0.9
	TypeAppointment:   0.8,
	TypeContact:       0.75,
	TypeCommunication: 0.75,
	TypeTask:          0.8,
	TypePreference:    0.85,
	TypeNote:          0.7,

	// medium group 0.5-0.7
	TypeLocation:       0.6,
	TypeRecommendation: 0.6,
	TypeRoutine:        0.6,
	TypeHealth:         0.65,
	TypeFinancial:      0.65,
	TypeToolUse:        0.55,

	// low group 0.3-0.5
	TypeCommand: 0.4,
	TypeCode:    0.4,
	TypeFile:    0.35,
	TypeURL:     0.35,
	TypeError:   0.45,
	TypeConfig:  0.4,
}

var urgencyKeywords = []string{"today", "tomorrow", "urgent", "asap", "deadline"}
var emphasisKeywords = []string{"important", "must", "required"}

// ComputeImportance scores a fact at insert time per the base-type band plus
// temporal-urgency and emphasis bonuses, clamped to [0, 1].
func ComputeImportance(t Type, content string) float64 {
	score, ok := baseImportance[t]
	if !ok {
		score = 0.5
	}

	lower := strings.ToLower(content)
	for _, kw := range urgencyKeywords {
		if strings.Contains(lower, kw) {
			score += 0.2
			break
		}
	}

	if hasEmphasis(content, lower) {
		score += 0.1
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

func hasEmphasis(content, lower string) bool {
	for _, kw := range emphasisKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	if strings.HasSuffix(strings.TrimSpace(content), "!") {
		return true
	}
	for _, word := range strings.Fields(content) {
		if len(word) >= 3 && isAllCapsWord(word) {
			return true
		}
	}
	return false
}

func isAllCapsWord(word string) bool {
	hasLetter := false
	for _, r := range word {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}
