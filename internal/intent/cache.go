package intent

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

// CacheStore is the classifier's pluggable cache backend. The default,
// in-process ttlCache below satisfies it directly; redisCacheStore
// (cache_redis.go) backs it with Redis instead, for deployments running
// more than one classifier instance against a shared cache.
type CacheStore interface {
	get(ctx context.Context, key string) (domain.IntentClassification, bool)
	set(ctx context.Context, key string, classification domain.IntentClassification)
	stats() Stats
	clear(ctx context.Context)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalizeMessage lowercases, trims, and collapses whitespace — the cache
// key's message component.
func normalizeMessage(message string) string {
	m := strings.ToLower(strings.TrimSpace(message))
	return whitespaceRun.ReplaceAllString(m, " ")
}

// cacheKey builds the cache key: normalised message + hash of conversation
// context.
func cacheKey(message string, conversationContext []string) string {
	key := normalizeMessage(message)
	if len(conversationContext) == 0 {
		return key
	}

	h := sha1.New()
	for _, turn := range conversationContext {
		h.Write([]byte(turn))
		h.Write([]byte{0})
	}
	return key + "#" + hex.EncodeToString(h.Sum(nil))
}

type cacheEntry struct {
	classification domain.IntentClassification
	expiresAt      time.Time
}

// ttlCache is the classifier's owned TTL-bounded cache, evicted lazily on
// read. Modelled on the conversation-context manager's RWMutex-guarded map
// with a time.Since expiry check.
type ttlCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration

	hits   int
	misses int
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *ttlCache) get(ctx context.Context, key string) (domain.IntentClassification, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		c.misses++
		if ok {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return domain.IntentClassification{}, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return entry.classification, true
}

func (c *ttlCache) set(ctx context.Context, key string, classification domain.IntentClassification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		classification: classification,
		expiresAt:      time.Now().Add(c.ttl),
	}
}

// Stats reports cache hit/miss/size counters.
type Stats struct {
	Hits   int
	Misses int
	Size   int
}

func (c *ttlCache) stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Hits: c.hits, Misses: c.misses, Size: len(c.entries)}
}

func (c *ttlCache) clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	c.hits = 0
	c.misses = 0
}
