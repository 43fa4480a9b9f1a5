// Package cache keeps student and course display names in Redis in front of
// the repository.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

const (
	defaultTTL    = 10 * time.Minute
	defaultPrefix = "rollcall:name:"
)

// Kind selects the name namespace.
type Kind string

const (
	Student Kind = "student"
	Course  Kind = "course"
)

// NameSource resolves display names. Unknown ids are omitted from the result.
type NameSource interface {
	StudentNames(ctx context.Context, ids []int64) (map[int64]string, error)
	CourseNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

// NameCache is a read-through NameSource backed by Redis. Redis errors are
// logged and the lookup falls through to the source.
type NameCache struct {
	client redis.Cmdable
	source NameSource
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

var _ NameSource = (*NameCache)(nil)

// New returns a NameCache in front of source.
func New(client redis.Cmdable, source NameSource, opts ...Option) *NameCache {
	c := &NameCache{
		client: client,
		source: source,
		ttl:    defaultTTL,
		prefix: defaultPrefix,
		logger: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StudentNames implements NameSource.
func (c *NameCache) StudentNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return c.lookup(ctx, Student, ids, c.source.StudentNames)
}

// CourseNames implements NameSource.
func (c *NameCache) CourseNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return c.lookup(ctx, Course, ids, c.source.CourseNames)
}

// Name returns a single cached name without consulting the source.
func (c *NameCache) Name(ctx context.Context, kind Kind, id int64) (string, error) {
	v, err := c.client.Get(ctx, c.key(kind, id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("cache get: %w", err)
	}
	return v, nil
}

func (c *NameCache) key(kind Kind, id int64) string {
	return c.prefix + string(kind) + ":" + strconv.FormatInt(id, 10)
}

func (c *NameCache) lookup(
	ctx context.Context,
	kind Kind,
	ids []int64,
	fill func(context.Context, []int64) (map[int64]string, error),
) (map[int64]string, error) {
	ids = unique(ids)
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(kind, id)
	}

	missing := ids
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		metrics.RecordNameCacheLookup(metrics.CacheError, len(ids))
		c.logger.Warn(ctx, "name cache read failed",
			logger.String("kind", string(kind)), logger.Int("ids", len(ids)), logger.Error(err))
	} else {
		missing = missing[:0:0]
		for i, v := range vals {
			if s, ok := v.(string); ok && s != "" {
				out[ids[i]] = s
				continue
			}
			missing = append(missing, ids[i])
		}
		metrics.RecordNameCacheLookup(metrics.CacheHit, len(ids)-len(missing))
		metrics.RecordNameCacheLookup(metrics.CacheMiss, len(missing))
	}
	if len(missing) == 0 {
		return out, nil
	}

	filled, err := fill(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(filled) == 0 {
		return out, nil
	}

	pipe := c.client.Pipeline()
	for id, name := range filled {
		out[id] = name
		pipe.Set(ctx, c.key(kind, id), name, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn(ctx, "name cache write failed",
			logger.String("kind", string(kind)), logger.Int("ids", len(filled)), logger.Error(err))
	}
	return out, nil
}

func unique(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
