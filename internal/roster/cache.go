package roster

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cached wraps a Provider with a Redis read-through cache for single-entity
// lookups. List lookups always go to the underlying provider.
type Cached struct {
	Provider
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewCached returns next unchanged when client is nil or ttl is not positive.
func NewCached(next Provider, client *redis.Client, ttl time.Duration) Provider {
	if client == nil || ttl <= 0 {
		return next
	}
	return &Cached{Provider: next, client: client, ttl: ttl, prefix: "roster:"}
}

func (c *Cached) FindStudent(ctx context.Context, id string) (Student, error) {
	var s Student
	err := c.readThrough(ctx, c.prefix+"student:"+id, &s, func() (any, error) {
		return c.Provider.FindStudent(ctx, id)
	})
	return s, err
}

func (c *Cached) FindSubject(ctx context.Context, id string) (Subject, error) {
	var s Subject
	err := c.readThrough(ctx, c.prefix+"subject:"+id, &s, func() (any, error) {
		return c.Provider.FindSubject(ctx, id)
	})
	return s, err
}

// readThrough decodes key into dst, or loads, stores and copies into dst.
// Cache failures degrade to the underlying provider.
func (c *Cached) readThrough(ctx context.Context, key string, dst any, load func() (any, error)) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		if json.Unmarshal(raw, dst) == nil {
			return nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("roster cache get %s: %v", key, err)
	}

	v, err := load()
	if err != nil {
		return err
	}
	raw, err = json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("roster cache set %s: %v", key, err)
	}
	return json.Unmarshal(raw, dst)
}
