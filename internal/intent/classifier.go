package intent

import (
	"context"
	"time"

	"github.com/smarthome-ai/diagnostic-core/internal/common/logger"
	"github.com/smarthome-ai/diagnostic-core/internal/domain"
	"github.com/smarthome-ai/diagnostic-core/internal/llm"
)

// diagnosticIntents are the intents for which requiresDiagnostics defaults
// to true.
var diagnosticIntents = map[domain.IntentType]bool{
	domain.IntentDeviceHealth:   true,
	domain.IntentIssueDiagnosis: true,
	domain.IntentSystemStatus:   true,
}

// cacheWriteConfidenceFloor is the minimum confidence required before a
// classification is cached.
const cacheWriteConfidenceFloor = 0.7

// Classifier implements the hybrid keyword/LLM intent classification
// pipeline (cache → keyword matcher → LLM tier → entity extraction → cache
// write), modelled on the teacher's HybridRecognizer threshold dispatch.
type Classifier struct {
	log             logger.Logger
	llmClient       llm.Client
	cache           CacheStore
	classifyTimeout time.Duration
}

// Config controls Classifier construction.
type Config struct {
	LLMClient       llm.Client
	CacheTTL        time.Duration
	ClassifyTimeout time.Duration

	// CacheStore overrides the classifier's cache backend. Nil (the
	// default) gets the in-process TTL map per spec; pass
	// NewRedisCacheStore(...) for a shared backend across instances.
	CacheStore CacheStore
}

// New builds a Classifier. LLMClient may be nil, in which case the pipeline
// never advances past the keyword tier.
func New(cfg Config) *Classifier {
	timeout := cfg.ClassifyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	cache := cfg.CacheStore
	if cache == nil {
		cache = newTTLCache(ttl)
	}

	return &Classifier{
		log:             logger.NewLogger("intent"),
		llmClient:       cfg.LLMClient,
		cache:           cache,
		classifyTimeout: timeout,
	}
}

// ClassifyIntent classifies a single user message, deterministic modulo LLM
// non-determinism on the slow path. Never returns an error: every failure
// mode downgrades to a lower-confidence result instead of propagating.
func (c *Classifier) ClassifyIntent(ctx context.Context, message string, conversationContext []string) domain.IntentClassification {
	key := cacheKey(message, conversationContext)
	if cached, ok := c.cache.get(ctx, key); ok {
		return cached
	}

	result := c.classify(ctx, message, conversationContext)

	if result.Confidence >= cacheWriteConfidenceFloor {
		c.cache.set(ctx, key, result)
	}

	return result
}

func (c *Classifier) classify(ctx context.Context, message string, conversationContext []string) domain.IntentClassification {
	kw := matchKeywords(message)

	var classification domain.IntentClassification
	var fromLLM bool

	if kw.matched {
		classification = domain.IntentClassification{
			Intent:     kw.intent,
			Confidence: kw.confidence,
		}
	}

	if !kw.matched || kw.confidence < shortCircuitThreshold {
		llmResult := classifyWithLLM(ctx, c.llmClient, message, conversationContext, c.classifyTimeout)

		if !kw.matched {
			classification = llmResult
			fromLLM = true
		} else if llmResult.Confidence > classification.Confidence {
			classification = llmResult
			fromLLM = true
		}
	}

	classification.Entities = extractEntities(message, classification.Entities)
	classification.RequiresDiagnostics = deriveRequiresDiagnostics(classification, fromLLM)

	return classification
}

// deriveRequiresDiagnostics applies the specification's derivation rule:
// true for DEVICE_HEALTH/ISSUE_DIAGNOSIS/SYSTEM_STATUS by default, overridden
// only by an explicit LLM signal when the classification came from the LLM
// tier at confidence ≥ 0.8 — a keyword-tier result never overrides the
// per-intent default, since it carries no such signal.
func deriveRequiresDiagnostics(c domain.IntentClassification, fromLLM bool) bool {
	def := diagnosticIntents[c.Intent]
	if fromLLM && c.Confidence >= 0.8 {
		return c.RequiresDiagnostics
	}
	return def
}

// GetCacheStats reports the classifier's cache hit/miss/size counters.
func (c *Classifier) GetCacheStats() Stats {
	return c.cache.stats()
}

// ClearCache empties the classifier's cache.
func (c *Classifier) ClearCache() {
	c.cache.clear(context.Background())
}
