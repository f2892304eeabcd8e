package asyncresult

import (
	"context"
	"sync"
	"time"

	"idv/pkg/platform/sentinel"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryKV is an in-process KV with clock-driven expiry.
type MemoryKV struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryKV uses now for expiry; nil means time.Now.
func NewMemoryKV(now func() time.Time) *MemoryKV {
	if now == nil {
		now = time.Now
	}
	return &MemoryKV{entries: make(map[string]memoryEntry), now: now}
}

func (kv *MemoryKV) SetEX(_ context.Context, key string, value []byte, ttl time.Duration) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: kv.now().Add(ttl),
	}
	return nil
}

func (kv *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	e, ok := kv.entries[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !kv.now().Before(e.expiresAt) {
		delete(kv.entries, key)
		return nil, sentinel.ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// Put stores raw bytes without sealing. Tests use it to plant corrupt records.
func (kv *MemoryKV) Put(key string, value []byte, ttl time.Duration) {
	_ = kv.SetEX(context.Background(), key, value, ttl)
}
