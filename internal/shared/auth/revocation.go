package auth

import (
	"context"
	"sync"
	"time"
)

// KV is the subset of the cache backend token revocation needs.
type KV interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Revoker records revoked token IDs until the token would have expired.
type Revoker struct {
	kv     KV
	prefix string
}

// NewRevoker constructs a Revoker. A nil kv disables revocation checks.
func NewRevoker(kv KV) *Revoker {
	return &Revoker{kv: kv, prefix: "revoked_jti:"}
}

// Revoke marks jti revoked until exp.
func (r *Revoker) Revoke(ctx context.Context, jti string, exp time.Time) error {
	if r == nil || r.kv == nil {
		return nil
	}
	ttl := time.Until(exp)
	if ttl <= 0 {
		ttl = time.Minute
	}
	_, err := r.kv.SetNX(ctx, r.prefix+jti, []byte("1"), ttl)
	return err
}

// IsRevoked reports whether jti has been revoked.
func (r *Revoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if r == nil || r.kv == nil {
		return false, nil
	}
	return r.kv.Exists(ctx, r.prefix+jti)
}

const memoryPruneEvery = 256

// MemoryKV is an in-process KV for revocations. Entries live until their TTL
// passes and are never evicted for space.
type MemoryKV struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
	writes  int
}

// NewMemoryKV builds a MemoryKV. A nil now uses time.Now.
func NewMemoryKV(now func() time.Time) *MemoryKV {
	if now == nil {
		now = time.Now
	}
	return &MemoryKV{expires: make(map[string]time.Time), now: now}
}

func (m *MemoryKV) SetNX(ctx context.Context, key string, _ []byte, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.writes%memoryPruneEvery == 0 {
		m.pruneLocked(now)
	}
	if exp, ok := m.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	m.expires[key] = now.Add(ttl)
	return true, nil
}

func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.expires[key]
	if !ok {
		return false, nil
	}
	if !now.Before(exp) {
		delete(m.expires, key)
		return false, nil
	}
	return true, nil
}

// Len reports the number of tracked keys, expired ones included until pruned.
func (m *MemoryKV) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.expires)
}

func (m *MemoryKV) pruneLocked(now time.Time) {
	for key, exp := range m.expires {
		if !now.Before(exp) {
			delete(m.expires, key)
		}
	}
}
