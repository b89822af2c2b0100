package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/domain/providers"
	"github.com/recipify/diversity-guard/internal/domain/repositories"
	"github.com/recipify/diversity-guard/internal/infrastructure/observability"
)

// Cache TTL (in seconds)
const avoidListCacheTTL = 120

// CachedAvoidListAdapter wraps an AvoidListRepository with caching. The
// cache holds each combo's full capped history; the recency window is
// applied after unmarshalling so cached reads never widen the window.
type CachedAvoidListAdapter struct {
	adapter repositories.AvoidListRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedAvoidListAdapter creates a new cached avoid-list adapter
func NewCachedAvoidListAdapter(adapter repositories.AvoidListRepository, cache providers.CacheProvider, metrics *observability.Metrics) repositories.AvoidListRepository {
	return &CachedAvoidListAdapter{
		adapter: adapter,
		cache:   cache,
		metrics: metrics,
	}
}

func avoidListCacheKey(comboKey entities.ComboKey) string {
	return fmt.Sprintf("avoidlist:combo:%s", comboKey)
}

// GetActive retrieves the entries inside the window for a combo, oldest first
func (a *CachedAvoidListAdapter) GetActive(ctx context.Context, comboKey entities.ComboKey, windowStart time.Time) ([]*entities.AvoidListEntry, error) {
	cacheKey := avoidListCacheKey(comboKey)

	// Try to get from cache first
	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var entries []*entities.AvoidListEntry
		if err := json.Unmarshal(cached, &entries); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, cacheKey)
			return filterWindow(entries, windowStart), nil
		}
		log.Printf("Failed to unmarshal cached avoid-list for %s: %v", comboKey, err)
	}
	observability.RecordCacheMiss(ctx, a.metrics, cacheKey)

	// Cache miss - fetch the full capped history so the cached value can
	// serve any later window
	entries, err := a.adapter.GetActive(ctx, comboKey, time.Time{})
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the decision
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(entries); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, avoidListCacheTTL); err != nil {
				log.Printf("Failed to cache avoid-list for %s: %v", comboKey, err)
			}
		}
	}()

	return filterWindow(entries, windowStart), nil
}

// Append records an entry and synchronously invalidates the combo's cache,
// so the next read for this combo sees the new entry
func (a *CachedAvoidListAdapter) Append(ctx context.Context, entry *entities.AvoidListEntry) error {
	if err := a.adapter.Append(ctx, entry); err != nil {
		return err
	}

	if err := a.cache.Delete(ctx, avoidListCacheKey(entry.ComboKey)); err != nil {
		log.Printf("Warning: failed to invalidate avoid-list cache for %s: %v", entry.ComboKey, err)
	}
	return nil
}

// PurgeExpired drops entries created before the cutoff. Cached copies of
// purged entries fall out of the window filter at read time, so no
// invalidation pass is needed.
func (a *CachedAvoidListAdapter) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	return a.adapter.PurgeExpired(ctx, cutoff)
}

func filterWindow(entries []*entities.AvoidListEntry, windowStart time.Time) []*entities.AvoidListEntry {
	active := make([]*entities.AvoidListEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.CreatedAt.Before(windowStart) {
			active = append(active, entry)
		}
	}
	return active
}
