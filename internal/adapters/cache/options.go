package cache

import (
	"time"

	"github.com/okian/rollcall/pkg/logger"
)

// Option applies a configuration option to the NameCache.
type Option func(*NameCache)

// WithTTL sets how long a cached name lives. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *NameCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the prefix of every cache key.
func WithKeyPrefix(prefix string) Option {
	return func(c *NameCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithLogger sets the logger used to report Redis failures.
func WithLogger(l logger.Logger) Option {
	return func(c *NameCache) {
		if l != nil {
			c.logger = l
		}
	}
}
