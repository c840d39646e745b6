package report

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"rollbook/internal/attendance"
)

const versionPrefix = "report:ver:"

// Cache stores rendered reports. Failures are treated as misses.
type Cache interface {
	Load(ctx context.Context, key string, dst any) bool
	Store(ctx context.Context, key string, v any)
	Version(ctx context.Context, scope string) int64
}

// NopCache never hits.
type NopCache struct{}

func (NopCache) Load(context.Context, string, any) bool { return false }

func (NopCache) Store(context.Context, string, any) {}

func (NopCache) Version(context.Context, string) int64 { return 0 }

func (NopCache) Invalidate(context.Context, attendance.MarkedEvent) error { return nil }

// RedisCache keeps reports as JSON values with a TTL. Scope versions live
// under report:ver:{class|subject|student}:{id} and only ever increase.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache returns a cache backed by client. A nil client or a
// non-positive ttl disables caching.
func NewRedisCache(client *redis.Client, ttl time.Duration) Cache {
	if client == nil || ttl <= 0 {
		return NopCache{}
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Load(ctx context.Context, key string, dst any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("report cache get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("report cache decode %s: %v", key, err)
		return false
	}
	return true
}

func (c *RedisCache) Store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("report cache encode %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("report cache set %s: %v", key, err)
	}
}

func (c *RedisCache) Version(ctx context.Context, scope string) int64 {
	v, err := c.client.Get(ctx, versionPrefix+scope).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("report cache version %s: %v", scope, err)
		}
		return 0
	}
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}

// Invalidate bumps the versions of every scope the marked record feeds.
func (c *RedisCache) Invalidate(ctx context.Context, e attendance.MarkedEvent) error {
	pipe := c.client.TxPipeline()
	for _, scope := range Scopes(e) {
		pipe.Incr(ctx, versionPrefix+scope)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Invalidator is implemented by caches that react to ledger writes. The
// ledger calls it on its own write path; EventHandler calls it for writes
// made by other processes.
type Invalidator = attendance.Invalidator

// Scopes lists the report scopes a marked record belongs to.
func Scopes(e attendance.MarkedEvent) []string {
	scopes := make([]string, 0, 3)
	if e.Class != "" {
		scopes = append(scopes, "class:"+e.Class)
	}
	if e.SubjectID != "" {
		scopes = append(scopes, "subject:"+e.SubjectID)
	}
	if e.StudentID != "" {
		scopes = append(scopes, "student:"+e.StudentID)
	}
	return scopes
}
