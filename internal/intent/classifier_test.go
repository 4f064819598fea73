package intent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
	"github.com/smarthome-ai/diagnostic-core/internal/intent"
	"github.com/smarthome-ai/diagnostic-core/internal/llm"
)

func TestClassifyIntent_KeywordShortCircuit(t *testing.T) {
	fake := llm.NewFakeClient()
	c := intent.New(intent.Config{LLMClient: fake})

	result := c.ClassifyIntent(context.Background(), "how is my system doing?", nil)

	assert.Equal(t, domain.IntentSystemStatus, result.Intent)
	assert.GreaterOrEqual(t, result.Confidence, 0.85)
	assert.Empty(t, fake.Calls, "high-confidence keyword match must short-circuit the LLM tier")
}

func TestClassifyIntent_FallsBackToLLMWhenKeywordWeak(t *testing.T) {
	fake := llm.NewFakeClient(llm.ChatResult{
		Content: `{"intent": "discovery", "confidence": 0.8, "entities": {}, "requiresDiagnostics": false, "reasoning": "similar search"}`,
	})
	c := intent.New(intent.Config{LLMClient: fake})

	result := c.ClassifyIntent(context.Background(), "tell me something random", nil)

	assert.Equal(t, domain.IntentDiscovery, result.Intent)
	assert.Equal(t, 0.8, result.Confidence)
	assert.Len(t, fake.Calls, 1)
}

func TestClassifyIntent_StripsMarkdownCodeFence(t *testing.T) {
	fake := llm.NewFakeClient(llm.ChatResult{
		Content: "```json\n{\"intent\": \"systemstatus\", \"confidence\": 0.9, \"entities\": {}, \"requiresDiagnostics\": true}\n```",
	})
	c := intent.New(intent.Config{LLMClient: fake})

	result := c.ClassifyIntent(context.Background(), "what's going on overall", nil)

	assert.Equal(t, domain.IntentSystemStatus, result.Intent)
}

func TestClassifyIntent_ParseFailureFallsBackToNormalQuery(t *testing.T) {
	fake := llm.NewFakeClient(llm.ChatResult{Content: "not json at all"})
	c := intent.New(intent.Config{LLMClient: fake})

	result := c.ClassifyIntent(context.Background(), "some ambiguous text", nil)

	assert.Equal(t, domain.IntentNormalQuery, result.Intent)
	assert.Equal(t, 0.3, result.Confidence)
}

func TestClassifyIntent_LLMErrorFallsBackToNormalQuery(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Err = assert.AnError
	c := intent.New(intent.Config{LLMClient: fake})

	result := c.ClassifyIntent(context.Background(), "some ambiguous text", nil)

	assert.Equal(t, domain.IntentNormalQuery, result.Intent)
	assert.Equal(t, 0.3, result.Confidence)
}

func TestClassifyIntent_NilClientNeverPanics(t *testing.T) {
	c := intent.New(intent.Config{})
	result := c.ClassifyIntent(context.Background(), "some ambiguous text", nil)
	assert.Equal(t, domain.IntentNormalQuery, result.Intent)
}

func TestClassifyIntent_CacheHitIncrementsHits(t *testing.T) {
	fake := llm.NewFakeClient()
	c := intent.New(intent.Config{LLMClient: fake})

	c.ClassifyIntent(context.Background(), "How is my system doing?", nil)
	c.ClassifyIntent(context.Background(), "  HOW IS   MY SYSTEM doing?  ", nil)

	stats := c.GetCacheStats()
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, stats.Size)
}

func TestClassifyIntent_LowConfidenceNotCached(t *testing.T) {
	fake := llm.NewFakeClient(llm.ChatResult{Content: "garbage"})
	c := intent.New(intent.Config{LLMClient: fake})

	c.ClassifyIntent(context.Background(), "ambiguous one", nil)
	stats := c.GetCacheStats()
	assert.Equal(t, 0, stats.Size)
}

func TestClearCache_ResetsStats(t *testing.T) {
	fake := llm.NewFakeClient()
	c := intent.New(intent.Config{LLMClient: fake})

	c.ClassifyIntent(context.Background(), "how is my system doing?", nil)
	c.ClearCache()

	stats := c.GetCacheStats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, 0, stats.Hits)
	assert.Equal(t, 0, stats.Misses)
}

func TestClassifyIntent_EntityExtraction_DeviceAndRoom(t *testing.T) {
	fake := llm.NewFakeClient()
	c := intent.New(intent.Config{LLMClient: fake})

	result := c.ClassifyIntent(context.Background(), "why is the bedroom motion sensor not working", nil)

	assert.Equal(t, domain.IntentIssueDiagnosis, result.Intent)
	assert.Equal(t, "bedroom", result.Entities.RoomName)
	assert.Contains(t, result.Entities.DeviceName, "motion sensor")
}

func TestClassifyIntent_RequiresDiagnosticsDefaultsPerIntent(t *testing.T) {
	fake := llm.NewFakeClient()
	c := intent.New(intent.Config{LLMClient: fake})

	result := c.ClassifyIntent(context.Background(), "check status of the kitchen light", nil)
	assert.True(t, result.RequiresDiagnostics)
}

func TestNew_DefaultsAppliedWhenZero(t *testing.T) {
	c := intent.New(intent.Config{ClassifyTimeout: 0, CacheTTL: 0})
	require.NotNil(t, c)
}
