package cache

import (
	"context"
	"strings"
	"time"
)

// Backend is the key-value store behind the gateway. Implementations are
// safe for concurrent use; Redis provides cross-process sharing while the
// memory store only serves a single process.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) (int, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	Ping(ctx context.Context) error
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapeGlob quotes glob metacharacters so s matches literally in a Keys pattern.
func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
