package intent_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
	"github.com/smarthome-ai/diagnostic-core/internal/intent"
	"github.com/smarthome-ai/diagnostic-core/internal/llm"
)

func newMiniredisStore(t *testing.T) intent.CacheStore {
	t.Helper()
	mr := miniredis.RunT(t)
	return intent.NewRedisCacheStore(mr.Addr(), "", 0, time.Minute)
}

func TestClassifyIntent_RedisCacheStore_HitIncrementsHits(t *testing.T) {
	fake := llm.NewFakeClient()
	c := intent.New(intent.Config{LLMClient: fake, CacheStore: newMiniredisStore(t)})

	c.ClassifyIntent(context.Background(), "How is my system doing?", nil)
	result := c.ClassifyIntent(context.Background(), "  HOW IS   MY SYSTEM doing?  ", nil)

	assert.Equal(t, domain.IntentSystemStatus, result.Intent)
	stats := c.GetCacheStats()
	assert.Equal(t, 1, stats.Hits)
	assert.Empty(t, fake.Calls, "keyword match should short-circuit before any cache lookup matters")
}

func TestClassifyIntent_RedisCacheStore_MissOnUnseenMessage(t *testing.T) {
	fake := llm.NewFakeClient()
	c := intent.New(intent.Config{LLMClient: fake, CacheStore: newMiniredisStore(t)})

	c.ClassifyIntent(context.Background(), "how is my system doing?", nil)

	stats := c.GetCacheStats()
	assert.Equal(t, 0, stats.Hits)
	assert.Equal(t, 1, stats.Misses)
}

func TestRedisCacheStore_ClearResetsCounters(t *testing.T) {
	fake := llm.NewFakeClient()
	c := intent.New(intent.Config{LLMClient: fake, CacheStore: newMiniredisStore(t)})

	c.ClassifyIntent(context.Background(), "how is my system doing?", nil)
	c.ClassifyIntent(context.Background(), "how is my system doing?", nil)
	require.Equal(t, 1, c.GetCacheStats().Hits)

	c.ClearCache()

	stats := c.GetCacheStats()
	assert.Equal(t, 0, stats.Hits)
	assert.Equal(t, 0, stats.Misses)
}
