package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeImportanceBaseBands(t *testing.T) {
	assert.InDelta(t, 0.85, ComputeImportance(TypePreference, "likes dark mode"), 1e-9)
	assert.InDelta(t, 0.55, ComputeImportance(TypeToolUse, "ran search_web"), 1e-9)
	assert.InDelta(t, 0.35, ComputeImportance(TypeURL, "https://example.com"), 1e-9)
}

func TestComputeImportanceUrgencyBonus(t *testing.T) {
	base := ComputeImportance(TypeNote, "lunch plans")
	urgent := ComputeImportance(TypeNote, "lunch plans due tomorrow")
	assert.InDelta(t, base+0.2, urgent, 1e-9)
}

func TestComputeImportanceEmphasisBonus(t *testing.T) {
	base := ComputeImportance(TypeTask, "clean the garage")
	emphatic := ComputeImportance(TypeTask, "clean the garage!")
	assert.InDelta(t, base+0.1, emphatic, 1e-9)
}

func TestComputeImportanceClampsToOne(t *testing.T) {
	v := ComputeImportance(TypePreference, "URGENT ASAP MUST do this today!")
	assert.LessOrEqual(t, v, 1.0)
}
