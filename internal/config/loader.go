package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables, optionally overlaid
// by a .env file in the current directory, and applies COCO's defaults.
func Load() (Config, error) {
	// Overload so a local .env deterministically controls runtime behavior
	// in development: its values replace any already set in the real
	// environment.
	_ = godotenv.Overload()

	cfg := Config{}

	cfg.Anthropic.APIKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	cfg.Anthropic.Model = firstNonEmpty(strings.TrimSpace(os.Getenv("ANTHROPIC_MODEL")), "claude-sonnet-4-5-20250929")
	cfg.Anthropic.BaseURL = strings.TrimSpace(os.Getenv("ANTHROPIC_BASE_URL"))
	cfg.Anthropic.MaxTokens = intFromEnv("ANTHROPIC_MAX_TOKENS", 8192)
	cfg.Anthropic.PromptCache.Enabled = boolFromEnv("ANTHROPIC_PROMPT_CACHE_ENABLED", true)
	cfg.Anthropic.PromptCache.CacheSystem = boolFromEnv("ANTHROPIC_PROMPT_CACHE_SYSTEM", true)
	cfg.Anthropic.PromptCache.CacheTools = boolFromEnv("ANTHROPIC_PROMPT_CACHE_TOOLS", true)
	cfg.Anthropic.PromptCache.CacheMessages = boolFromEnv("ANTHROPIC_PROMPT_CACHE_MESSAGES", false)

	cfg.Workdir = strings.TrimSpace(os.Getenv("COCO_WORKDIR"))
	if cfg.Workdir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Workdir = home + "/.coco"
		} else {
			cfg.Workdir = ".coco"
		}
	}
	cfg.LogLevel = firstNonEmpty(strings.TrimSpace(os.Getenv("COCO_LOG_LEVEL")), "info")
	cfg.LogPretty = boolFromEnv("COCO_LOG_PRETTY", true)

	cfg.ContextLimitTokens = intFromEnv("COCO_CONTEXT_LIMIT_TOKENS", 200_000)
	cfg.ContextWarningTokens = intFromEnv("COCO_CONTEXT_WARNING_TOKENS", 140_000)
	cfg.ContextCriticalTokens = intFromEnv("COCO_CONTEXT_CRITICAL_TOKENS", 160_000)

	cfg.BufferRollingCheckpoint = intFromEnv("COCO_BUFFER_ROLLING_CHECKPOINT", 22)
	cfg.SummaryBudgetTokens = intFromEnv("COCO_SUMMARY_BUDGET_TOKENS", 5_000)

	cfg.DocumentBudgetLow = intFromEnv("COCO_DOCUMENT_BUDGET_LOW", 5_000)
	cfg.DocumentBudgetMedium = intFromEnv("COCO_DOCUMENT_BUDGET_MEDIUM", 10_000)
	cfg.DocumentBudgetHigh = intFromEnv("COCO_DOCUMENT_BUDGET_HIGH", 20_000)

	cfg.IdentityBudgetTokens = intFromEnv("COCO_IDENTITY_BUDGET_TOKENS", 8_000)

	cfg.FactsAutoinjectThreshold = floatFromEnv("COCO_FACTS_AUTOINJECT_THRESHOLD", 0.6)
	cfg.FactsAutoinjectK = intFromEnv("COCO_FACTS_AUTOINJECT_K", 5)

	cfg.SchedulerTickSeconds = intFromEnv("COCO_SCHEDULER_TICK_SECONDS", 60)
	cfg.TaskDefaultTimeoutSeconds = intFromEnv("COCO_TASK_DEFAULT_TIMEOUT_SECONDS", 300)
	cfg.TaskHardTimeoutSeconds = intFromEnv("COCO_TASK_HARD_TIMEOUT_SECONDS", 900)

	cfg.EmbeddingDim = intFromEnv("COCO_EMBEDDING_DIM", 128)

	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func intFromEnv(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
	}
	return def
}
