package cache

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/viccon/sturdyc"
)

const (
	defaultMemoryCapacity = 10000
	memoryShards          = 8
	memoryEvictionPercent = 10
	defaultMemoryMaxTTL   = 7 * 24 * time.Hour
	setPruneEvery         = 1024
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

type memorySet struct {
	members map[string]struct{}
	touched time.Time
}

// MemoryStore is an in-process Backend backed by sturdyc. Entries carry their
// own expiry; maxTTL bounds how long sturdyc keeps any entry. Sets untouched
// for maxTTL can only reference evicted entries and are pruned.
type MemoryStore struct {
	entries *sturdyc.Client[memoryEntry]
	maxTTL  time.Duration

	mu   sync.Mutex
	sets map[string]*memorySet
	adds int
	now  func() time.Time
}

// NewMemoryStore builds a MemoryStore. Non-positive arguments select defaults.
func NewMemoryStore(capacity int, maxTTL time.Duration) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	if maxTTL <= 0 {
		maxTTL = defaultMemoryMaxTTL
	}
	return &MemoryStore{
		entries: sturdyc.New[memoryEntry](capacity, memoryShards, maxTTL, memoryEvictionPercent),
		maxTTL:  maxTTL,
		sets:    make(map[string]*memorySet),
		now:     time.Now,
	}
}

func (s *MemoryStore) lookup(key string) (memoryEntry, bool) {
	e, ok := s.entries.Get(key)
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.entries.Delete(key)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	e, ok := s.lookup(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.entries.Set(key, s.entry(value, ttl))
	return nil
}

func (s *MemoryStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(key); ok {
		return false, nil
	}
	s.entries.Set(key, s.entry(value, ttl))
	return true, nil
}

func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, ok := s.lookup(key); ok {
		return true, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sets[key]
	return ok, nil
}

func (s *MemoryStore) Del(ctx context.Context, keys ...string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, key := range keys {
		if _, ok := s.lookup(key); ok {
			s.entries.Delete(key)
			removed++
			continue
		}
		if _, ok := s.sets[key]; ok {
			delete(s.sets, key)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) SAdd(ctx context.Context, key string, members ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adds++
	if s.adds%setPruneEvery == 0 {
		s.pruneSetsLocked(now)
	}
	set, ok := s.sets[key]
	if !ok {
		set = &memorySet{members: make(map[string]struct{}, len(members))}
		s.sets[key] = set
	}
	set.touched = now
	for _, m := range members {
		set.members[m] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) pruneSetsLocked(now time.Time) {
	for key, set := range s.sets {
		if now.Sub(set.touched) > s.maxTTL {
			delete(s.sets, key)
		}
	}
}

// SetCount reports the number of tracked sets.
func (s *MemoryStore) SetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sets)
}

func (s *MemoryStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		return []string{}, nil
	}
	out := make([]string, 0, len(set.members))
	for m := range set.members {
		out = append(out, m)
	}
	return out, nil
}

// Keys returns live keys matching a glob pattern with path.Match semantics.
func (s *MemoryStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []string
	for _, key := range s.entries.ScanKeys() {
		if ok, _ := path.Match(pattern, key); !ok {
			continue
		}
		if _, live := s.lookup(key); live {
			out = append(out, key)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.sets {
		if ok, _ := path.Match(pattern, key); ok {
			out = append(out, key)
		}
	}
	return out, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) entry(value []byte, ttl time.Duration) memoryEntry {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	return e
}
