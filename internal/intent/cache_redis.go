package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smarthome-ai/diagnostic-core/internal/common/logger"
	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

// redisCacheStore backs the classifier's cache with Redis instead of the
// in-process map, for deployments that run more than one classifier
// instance against a shared cache. Grounded on the teacher's
// nlp/context.RedisSessionStore: same key-prefix/Set-with-TTL/Get-or-miss
// shape, swapped from Session payloads to IntentClassification.
type redisCacheStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	log       logger.Logger

	hits   int64
	misses int64
}

// NewRedisCacheStore builds a Redis-backed CacheStore. addr is a
// host:port pair; db selects the Redis logical database.
func NewRedisCacheStore(addr, password string, db int, ttl time.Duration) CacheStore {
	return &redisCacheStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		keyPrefix: "diagcore:intent",
		ttl:       ttl,
		log:       logger.NewLogger("intent.cache.redis"),
	}
}

func (s *redisCacheStore) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, key)
}

func (s *redisCacheStore) get(ctx context.Context, key string) (domain.IntentClassification, bool) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err == redis.Nil {
		atomic.AddInt64(&s.misses, 1)
		return domain.IntentClassification{}, false
	}
	if err != nil {
		s.log.Warn("redis cache get failed, treating as miss", "error", err)
		atomic.AddInt64(&s.misses, 1)
		return domain.IntentClassification{}, false
	}

	var classification domain.IntentClassification
	if err := json.Unmarshal(data, &classification); err != nil {
		s.log.Warn("redis cache entry corrupt, treating as miss", "error", err)
		atomic.AddInt64(&s.misses, 1)
		return domain.IntentClassification{}, false
	}

	atomic.AddInt64(&s.hits, 1)
	return classification, true
}

func (s *redisCacheStore) set(ctx context.Context, key string, classification domain.IntentClassification) {
	data, err := json.Marshal(classification)
	if err != nil {
		s.log.Warn("failed to marshal classification for redis cache", "error", err)
		return
	}
	if err := s.client.Set(ctx, s.redisKey(key), data, s.ttl).Err(); err != nil {
		s.log.Warn("redis cache set failed", "error", err)
	}
}

// stats reports hit/miss counters tracked client-side; Size is always 0
// since Redis has no cheap way to count keys under a prefix on every call.
func (s *redisCacheStore) stats() Stats {
	return Stats{
		Hits:   int(atomic.LoadInt64(&s.hits)),
		Misses: int(atomic.LoadInt64(&s.misses)),
	}
}

// clear resets the local hit/miss counters. Entries themselves expire via
// Redis TTL rather than an explicit bulk delete.
func (s *redisCacheStore) clear(ctx context.Context) {
	atomic.StoreInt64(&s.hits, 0)
	atomic.StoreInt64(&s.misses, 0)
}
