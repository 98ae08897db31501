// Package facts stores discrete, typed pieces of information extracted from
// conversation and tool use, ranked by a blend of keyword relevance,
// importance, access frequency, and recency.
package facts

import "time"

// Type names a fact's category, which drives its base importance band.
type Type string

const (
	TypeAppointment   Type = "appointment"
	TypeContact       Type = "contact"
	TypeCommunication Type = "communication"
	TypeTask          Type = "task"
	TypePreference    Type = "preference"
	TypeNote          Type = "note"

	TypeLocation       Type = "location"
	TypeRecommendation Type = "recommendation"
	TypeRoutine        Type = "routine"
	TypeHealth         Type = "health"
	TypeFinancial      Type = "financial"
	TypeToolUse        Type = "tool_use"

	TypeCommand Type = "command"
	TypeCode    Type = "code"
	TypeFile    Type = "file"
	TypeURL     Type = "url"
	TypeError   Type = "error"
	TypeConfig  Type = "config"
)

// Fact is one stored observation.
type Fact struct {
	ID           string
	Type         Type
	Content      string
	Context      string
	Importance   float64
	AccessCount  int
	EpisodeID    string
	SessionID    string
	CreatedAt    time.Time
	LastAccessed *time.Time
}

// Stats summarizes the store's contents.
type Stats struct {
	Total      int
	ByType     map[Type]int
	AvgImportance float64
}
