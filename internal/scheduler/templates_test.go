package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCfgStringFallsBackToDefault(t *testing.T) {
	cfg := map[string]any{"subject": "hi"}
	assert.Equal(t, "hi", cfgString(cfg, "subject", "default"))
	assert.Equal(t, "default", cfgString(cfg, "missing", "default"))
}

func TestCfgStringsExtractsStringSlice(t *testing.T) {
	cfg := map[string]any{"topics": []any{"ai", "go"}}
	assert.Equal(t, []string{"ai", "go"}, cfgStrings(cfg, "topics"))
}

func TestCfgStringsMissingKeyReturnsNil(t *testing.T) {
	assert.Nil(t, cfgStrings(map[string]any{}, "topics"))
}

func TestRegistryHasAllNamedTemplates(t *testing.T) {
	for _, name := range []string{
		"simple_email", "calendar_email", "news_digest", "health_check",
		"web_research", "meeting_prep", "weekly_report", "video_message",
		"tweet_quote", "tweet_headline", "tweet_thread",
	} {
		_, ok := Registry[name]
		assert.True(t, ok, "missing template %s", name)
	}
}
