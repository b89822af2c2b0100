package memory

import (
	"context"
	"sync"
	"time"

	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/domain/repositories"
)

type comboHistory struct {
	mu      sync.Mutex
	entries []*entities.AvoidListEntry
}

// AvoidListAdapter implements the AvoidListRepository interface with
// in-process state. Entries per combo are held oldest first; the window
// filter runs at read time and the capacity cap at write time.
type AvoidListAdapter struct {
	mu          sync.RWMutex
	combos      map[entities.ComboKey]*comboHistory
	perComboCap int
}

// NewAvoidListAdapter creates a new in-memory avoid-list store keeping at
// most perComboCap entries per combo
func NewAvoidListAdapter(perComboCap int) repositories.AvoidListRepository {
	return &AvoidListAdapter{
		combos:      make(map[entities.ComboKey]*comboHistory),
		perComboCap: perComboCap,
	}
}

// GetActive retrieves the entries inside the window for a combo, oldest first
func (a *AvoidListAdapter) GetActive(ctx context.Context, comboKey entities.ComboKey, windowStart time.Time) ([]*entities.AvoidListEntry, error) {
	a.mu.RLock()
	combo, ok := a.combos[comboKey]
	a.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	combo.mu.Lock()
	defer combo.mu.Unlock()

	active := make([]*entities.AvoidListEntry, 0, len(combo.entries))
	for _, entry := range combo.entries {
		if !entry.CreatedAt.Before(windowStart) {
			active = append(active, entry)
		}
	}
	return active, nil
}

// Append records an entry, evicting the oldest entries of the same combo
// once the cap is exceeded. Append and eviction happen under one lock.
func (a *AvoidListAdapter) Append(ctx context.Context, entry *entities.AvoidListEntry) error {
	combo := a.comboFor(entry.ComboKey)

	combo.mu.Lock()
	defer combo.mu.Unlock()

	combo.entries = append(combo.entries, entry)
	if a.perComboCap > 0 && len(combo.entries) > a.perComboCap {
		overflow := len(combo.entries) - a.perComboCap
		combo.entries = combo.entries[overflow:]
	}
	return nil
}

// PurgeExpired drops entries created before the cutoff across all combos
func (a *AvoidListAdapter) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var purged int64
	for key, combo := range a.combos {
		combo.mu.Lock()
		kept := combo.entries[:0]
		for _, entry := range combo.entries {
			if entry.CreatedAt.Before(cutoff) {
				purged++
			} else {
				kept = append(kept, entry)
			}
		}
		combo.entries = kept
		empty := len(combo.entries) == 0
		combo.mu.Unlock()

		if empty {
			delete(a.combos, key)
		}
	}
	return purged, nil
}

func (a *AvoidListAdapter) comboFor(comboKey entities.ComboKey) *comboHistory {
	a.mu.RLock()
	combo, ok := a.combos[comboKey]
	a.mu.RUnlock()
	if ok {
		return combo
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if combo, ok = a.combos[comboKey]; ok {
		return combo
	}
	combo = &comboHistory{}
	a.combos[comboKey] = combo
	return combo
}
