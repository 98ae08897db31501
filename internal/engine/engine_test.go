package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"coco/internal/config"
	"coco/internal/docs"
	"coco/internal/episodic"
	"coco/internal/extract"
	"coco/internal/facts"
	"coco/internal/identity"
	"coco/internal/llm"
	"coco/internal/semantic"
	"coco/internal/storage"
	"coco/internal/summary"
	"coco/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequencedProvider returns one queued message per Chat call, looping on
// the last entry once exhausted.
type sequencedProvider struct {
	replies []llm.Message
	calls   int
}

func (s *sequencedProvider) Chat(ctx context.Context, msgs []llm.Message, schemas []llm.ToolSchema, model string) (llm.Message, error) {
	idx := s.calls
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	s.calls++
	return s.replies[idx], nil
}

func (s *sequencedProvider) ChatStream(ctx context.Context, msgs []llm.Message, schemas []llm.ToolSchema, model string, h llm.StreamHandler) error {
	return nil
}

func testConfig() config.Config {
	return config.Config{
		ContextLimitTokens:       200_000,
		ContextWarningTokens:     140_000,
		ContextCriticalTokens:    160_000,
		SummaryBudgetTokens:      5_000,
		DocumentBudgetLow:        5_000,
		DocumentBudgetMedium:     10_000,
		DocumentBudgetHigh:       20_000,
		IdentityBudgetTokens:     8_000,
		FactsAutoinjectThreshold: 0.6,
		FactsAutoinjectK:         5,
		BufferRollingCheckpoint:  22,
	}
}

func newTestEngine(t *testing.T, provider llm.Provider) *Engine {
	t.Helper()
	workdir := t.TempDir()
	db, err := storage.Open(workdir)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, os.MkdirAll(filepath.Join(workdir, "documents"), 0o755))

	e := &Engine{
		LLM:       provider,
		Model:     "claude-test",
		Tools:     tools.NewRegistry(),
		Identity:  identity.New(workdir),
		Episodic:  episodic.New(22),
		Exchanges: episodic.NewStore(db),
		Summary:   summary.New(provider, "claude-test"),
		Facts:     facts.NewStore(db),
		Semantic:  semantic.NewStore(db),
		Docs:      docs.New(filepath.Join(workdir, "documents")),
		Extract:   extract.NewRegistry(),
		Config:    testConfig(),
		SessionID: "s1",
	}
	return e
}

func TestRunReturnsAssistantTextWithoutToolCalls(t *testing.T) {
	provider := &sequencedProvider{replies: []llm.Message{
		{Role: "assistant", Content: "hello there"},
	}}
	e := newTestEngine(t, provider)

	out, err := e.Run(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
}

func TestRunDispatchesToolUseThenReturnsFinal(t *testing.T) {
	provider := &sequencedProvider{replies: []llm.Message{
		{Role: "assistant", ToolCalls: []llm.ToolCall{
			{ID: "1", Name: "echo", Args: json.RawMessage(`{"text":"hi"}`)},
		}},
		{Role: "assistant", Content: "done"},
	}}
	e := newTestEngine(t, provider)
	e.Tools.Register(tools.Definition{
		Name: "echo",
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			return "echoed", nil
		},
	})

	out, err := e.Run(context.Background(), "please echo hi")
	require.NoError(t, err)
	assert.Equal(t, "done", out)
}

func TestRunStopsAfterMaxToolDepth(t *testing.T) {
	toolMsg := llm.Message{Role: "assistant", ToolCalls: []llm.ToolCall{
		{Name: "loop", Args: json.RawMessage(`{}`)},
	}}
	provider := &sequencedProvider{replies: []llm.Message{toolMsg, toolMsg, toolMsg, toolMsg, toolMsg, toolMsg}}
	e := newTestEngine(t, provider)
	e.MaxToolDepth = 3
	e.Tools.Register(tools.Definition{
		Name: "loop",
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			return "again", nil
		},
	})

	out, err := e.Run(context.Background(), "loop forever")
	require.NoError(t, err)
	assert.Contains(t, out, "too many tool-use rounds")
}

func TestRunPersistsExchangeAndExtractsFacts(t *testing.T) {
	provider := &sequencedProvider{replies: []llm.Message{
		{Role: "assistant", Content: "noted"},
	}}
	e := newTestEngine(t, provider)

	_, err := e.Run(context.Background(), "remind me to call the dentist tomorrow")
	require.NoError(t, err)

	assert.Equal(t, 1, e.Episodic.Len())

	recent, err := e.Exchanges.RecentForSession("s1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	stats, err := e.Facts.Stats()
	require.NoError(t, err)
	assert.Greater(t, stats.Total, 0)

	count, err := e.Semantic.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEnsureToolCallIDsFillsMissingAndDedupes(t *testing.T) {
	e := newTestEngine(t, &sequencedProvider{})
	calls := []llm.ToolCall{{ID: ""}, {ID: ""}, {ID: "dup"}}
	out := e.ensureToolCallIDs(nil, calls)

	seen := map[string]bool{}
	for _, c := range out {
		require.NotEmpty(t, c.ID)
		assert.False(t, seen[c.ID], "duplicate id assigned: %s", c.ID)
		seen[c.ID] = true
	}
}

func TestDocumentBudgetTierFollowsPressureBands(t *testing.T) {
	assert.Equal(t, 20, documentBudgetTier(0.1, 5, 10, 20))
	assert.Equal(t, 10, documentBudgetTier(0.65, 5, 10, 20))
	assert.Equal(t, 5, documentBudgetTier(0.9, 5, 10, 20))
}

func TestApplyEmergencyCompressionNeverDropsIdentity(t *testing.T) {
	e := newTestEngine(t, &sequencedProvider{})
	e.Config.ContextWarningTokens = 10
	e.Config.ContextCriticalTokens = 20

	s := &promptSections{
		identity: "identity text that must survive",
		summary:  "a fairly long summary section with many words in it",
		working:  "a fairly long working memory section with many words in it too",
		docs:     "some document chunk text here",
		facts:    "- [note] something",
	}
	obs := &Observation{SectionTokens: map[string]int{}}
	e.applyEmergencyCompression(context.Background(), s, "query", 0.5, obs)

	assert.Equal(t, "identity text that must survive", s.identity)
	assert.NotEmpty(t, obs.CompressionLog)
}

func TestMaintainBufferLeavesSmallBufferUntouched(t *testing.T) {
	provider := &sequencedProvider{replies: []llm.Message{
		{Role: "assistant", Content: "summary text"},
	}}
	e := newTestEngine(t, provider)
	e.Episodic = episodic.New(2)

	for i := 0; i < 5; i++ {
		e.Episodic.Append(episodic.NewExchange("s1", "u", "a", nil))
	}

	// p=0.95 -> target 15 (episodic.Target); 5 exchanges never exceeds that,
	// so nothing should become eligible for summarization.
	e.maintainBuffer(context.Background(), 0.95)
	assert.Equal(t, 5, e.Episodic.Len())
}

func TestMaintainBufferSummarizesOverflowAndRetainsCheckpoint(t *testing.T) {
	provider := &sequencedProvider{replies: []llm.Message{
		{Role: "assistant", Content: "summary text"},
	}}
	e := newTestEngine(t, provider)
	e.Episodic = episodic.New(2)

	for i := 0; i < 20; i++ {
		e.Episodic.Append(episodic.NewExchange("s1", "u", "a", nil))
	}

	// p=0.95 -> target 15; 20 exceeds that, so the oldest 18 (beyond the
	// rolling checkpoint of 2) become eligible and get summarized.
	e.maintainBuffer(context.Background(), 0.95)
	assert.Equal(t, 2, e.Episodic.Len())
	assert.NotEmpty(t, e.Summary.All())
}
