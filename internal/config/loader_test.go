package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "COCO_WORKDIR",
		"COCO_CONTEXT_LIMIT_TOKENS", "COCO_FACTS_AUTOINJECT_THRESHOLD",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
	assert.Equal(t, 200_000, cfg.ContextLimitTokens)
	assert.Equal(t, 140_000, cfg.ContextWarningTokens)
	assert.Equal(t, 160_000, cfg.ContextCriticalTokens)
	assert.Equal(t, 22, cfg.BufferRollingCheckpoint)
	assert.Equal(t, 0.6, cfg.FactsAutoinjectThreshold)
	assert.Equal(t, 128, cfg.EmbeddingDim)
	assert.NotEmpty(t, cfg.Workdir)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_MODEL", "claude-opus-4")
	t.Setenv("COCO_WORKDIR", "/tmp/coco-test-workdir")
	t.Setenv("COCO_CONTEXT_LIMIT_TOKENS", "50000")
	t.Setenv("COCO_FACTS_AUTOINJECT_THRESHOLD", "0.75")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Anthropic.APIKey)
	assert.Equal(t, "claude-opus-4", cfg.Anthropic.Model)
	assert.Equal(t, "/tmp/coco-test-workdir", cfg.Workdir)
	assert.Equal(t, 50000, cfg.ContextLimitTokens)
	assert.Equal(t, 0.75, cfg.FactsAutoinjectThreshold)
}

func TestBoolFromEnvVariants(t *testing.T) {
	t.Setenv("COCO_TEST_BOOL", "yes")
	assert.True(t, boolFromEnv("COCO_TEST_BOOL", false))
	t.Setenv("COCO_TEST_BOOL", "0")
	assert.False(t, boolFromEnv("COCO_TEST_BOOL", true))
	os.Unsetenv("COCO_TEST_BOOL")
	assert.True(t, boolFromEnv("COCO_TEST_BOOL", true))
}
