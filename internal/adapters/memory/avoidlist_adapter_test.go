package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/recipify/diversity-guard/internal/adapters/memory"
	"github.com/recipify/diversity-guard/internal/domain/entities"
)

func entryAt(comboKey entities.ComboKey, title string, createdAt time.Time) *entities.AvoidListEntry {
	fp := entities.Fingerprint{
		Ingredients:      []string{"egg", "flour"},
		TitleTokens:      []string{title},
		IngredientBucket: entities.BucketSmall,
		StepBucket:       entities.BucketSmall,
	}
	return entities.NewAvoidListEntry(comboKey, "", fp, createdAt)
}

func TestAvoidListAdapter_AppendAndGetActive(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("returns entries oldest first", func(t *testing.T) {
		store := memory.NewAvoidListAdapter(10)

		for i, title := range []string{"first", "second", "third"} {
			err := store.Append(ctx, entryAt("egg|flour", title, now.Add(time.Duration(i)*time.Minute)))
			assert.NoError(t, err)
		}

		entries, err := store.GetActive(ctx, "egg|flour", time.Time{})

		assert.NoError(t, err)
		assert.Len(t, entries, 3)
		assert.Equal(t, "first", entries[0].Fingerprint.Title())
		assert.Equal(t, "third", entries[2].Fingerprint.Title())
	})

	t.Run("unknown combo reads empty", func(t *testing.T) {
		store := memory.NewAvoidListAdapter(10)

		entries, err := store.GetActive(ctx, "nothing|here", time.Time{})

		assert.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("window start excludes stale entries", func(t *testing.T) {
		store := memory.NewAvoidListAdapter(10)
		assert.NoError(t, store.Append(ctx, entryAt("egg|flour", "stale", now.AddDate(0, 0, -20))))
		assert.NoError(t, store.Append(ctx, entryAt("egg|flour", "recent", now.AddDate(0, 0, -1))))

		entries, err := store.GetActive(ctx, "egg|flour", now.AddDate(0, 0, -14))

		assert.NoError(t, err)
		assert.Len(t, entries, 1)
		assert.Equal(t, "recent", entries[0].Fingerprint.Title())
	})

	t.Run("combos are isolated", func(t *testing.T) {
		store := memory.NewAvoidListAdapter(10)
		assert.NoError(t, store.Append(ctx, entryAt("egg|flour", "pancakes", now)))
		assert.NoError(t, store.Append(ctx, entryAt("chicken|rice", "stirfry", now)))

		entries, err := store.GetActive(ctx, "egg|flour", time.Time{})

		assert.NoError(t, err)
		assert.Len(t, entries, 1)
		assert.Equal(t, "pancakes", entries[0].Fingerprint.Title())
	})
}

func TestAvoidListAdapter_CapEviction(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("evicts the oldest entry beyond the cap", func(t *testing.T) {
		store := memory.NewAvoidListAdapter(2)

		for i, title := range []string{"first", "second", "third"} {
			assert.NoError(t, store.Append(ctx, entryAt("egg|flour", title, now.Add(time.Duration(i)*time.Minute))))
		}

		entries, err := store.GetActive(ctx, "egg|flour", time.Time{})

		assert.NoError(t, err)
		assert.Len(t, entries, 2)
		assert.Equal(t, "second", entries[0].Fingerprint.Title())
		assert.Equal(t, "third", entries[1].Fingerprint.Title())
	})

	t.Run("concurrent appends never exceed the cap", func(t *testing.T) {
		store := memory.NewAvoidListAdapter(10)
		var wg sync.WaitGroup

		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = store.Append(ctx, entryAt("egg|flour", "title", now.Add(time.Duration(i)*time.Second)))
			}(i)
		}
		wg.Wait()

		entries, err := store.GetActive(ctx, "egg|flour", time.Time{})

		assert.NoError(t, err)
		assert.Len(t, entries, 10)
	})
}

func TestAvoidListAdapter_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := memory.NewAvoidListAdapter(10)

	assert.NoError(t, store.Append(ctx, entryAt("egg|flour", "old", now.AddDate(0, 0, -30))))
	assert.NoError(t, store.Append(ctx, entryAt("egg|flour", "new", now)))
	assert.NoError(t, store.Append(ctx, entryAt("chicken|rice", "ancient", now.AddDate(0, 0, -60))))

	purged, err := store.PurgeExpired(ctx, now.AddDate(0, 0, -14))

	assert.NoError(t, err)
	assert.EqualValues(t, 2, purged)

	remaining, err := store.GetActive(ctx, "egg|flour", time.Time{})
	assert.NoError(t, err)
	assert.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].Fingerprint.Title())

	gone, err := store.GetActive(ctx, "chicken|rice", time.Time{})
	assert.NoError(t, err)
	assert.Empty(t, gone)
}
