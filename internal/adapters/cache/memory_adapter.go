package cache

import (
	"context"
	"sync"
	"time"

	"github.com/recipify/diversity-guard/internal/domain/providers"
)

type memoryEntry struct {
	value     []byte
	storedAt  time.Time
	expiresAt time.Time
}

// MemoryAdapter implements the CacheProvider interface with an in-process
// map. Used when no Redis is configured, e.g. embedded library use.
type MemoryAdapter struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	maxSize int
}

// NewMemoryAdapter creates a new in-memory cache adapter holding at most
// maxSize entries
func NewMemoryAdapter(maxSize int) providers.CacheProvider {
	return &MemoryAdapter{
		entries: make(map[string]*memoryEntry),
		maxSize: maxSize,
	}
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entry, ok := a.entries[key]
	if !ok || a.expired(entry) {
		return nil, providers.ErrCacheMiss
	}
	return entry.value, nil
}

// Set stores a value in cache with expiration
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.entries[key]; !ok && a.maxSize > 0 && len(a.entries) >= a.maxSize {
		a.evictOldest()
	}

	entry := &memoryEntry{
		value:    value,
		storedAt: time.Now(),
	}
	if expirationSeconds > 0 {
		entry.expiresAt = entry.storedAt.Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.entries[key] = entry
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.entries, key)
	return nil
}

// Exists checks if a key exists in cache
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entry, ok := a.entries[key]
	return ok && !a.expired(entry), nil
}

func (a *MemoryAdapter) expired(entry *memoryEntry) bool {
	return !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt)
}

// evictOldest removes the oldest entry. Caller holds the write lock.
func (a *MemoryAdapter) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range a.entries {
		if oldestKey == "" || entry.storedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.storedAt
		}
	}

	if oldestKey != "" {
		delete(a.entries, oldestKey)
	}
}
