package cache

import "errors"

// ErrMiss is returned by Name when the key is not cached.
var ErrMiss = errors.New("cache miss")
