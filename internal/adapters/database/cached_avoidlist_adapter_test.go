package database_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/recipify/diversity-guard/internal/adapters/database"
	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/domain/providers"
	apperrors "github.com/recipify/diversity-guard/pkg/errors"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetActive(ctx context.Context, comboKey entities.ComboKey, windowStart time.Time) ([]*entities.AvoidListEntry, error) {
	args := m.Called(ctx, comboKey, windowStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AvoidListEntry), args.Error(1)
}

func (m *MockRepository) Append(ctx context.Context, entry *entities.AvoidListEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	args := m.Called(ctx, key, value, expirationSeconds)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func comboEntry(title string, createdAt time.Time) *entities.AvoidListEntry {
	fp := entities.Fingerprint{
		Ingredients:      []string{"egg", "flour"},
		TitleTokens:      []string{title},
		IngredientBucket: entities.BucketSmall,
		StepBucket:       entities.BucketSmall,
	}
	return entities.NewAvoidListEntry("egg|flour", "", fp, createdAt)
}

func TestCachedAvoidListAdapter_GetActive(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	cacheKey := "avoidlist:combo:egg|flour"

	t.Run("serves from cache and filters the window", func(t *testing.T) {
		entries := []*entities.AvoidListEntry{
			comboEntry("stale", now.AddDate(0, 0, -20)),
			comboEntry("recent", now.AddDate(0, 0, -1)),
		}
		data, err := json.Marshal(entries)
		assert.NoError(t, err)

		source := new(MockRepository)
		cache := new(MockCache)
		cache.On("Get", mock.Anything, cacheKey).Return(data, nil)

		cached := database.NewCachedAvoidListAdapter(source, cache, nil)

		got, err := cached.GetActive(ctx, "egg|flour", now.AddDate(0, 0, -14))

		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, "recent", got[0].Fingerprint.Title())
		source.AssertNotCalled(t, "GetActive")
	})

	t.Run("miss falls through and caches the full history", func(t *testing.T) {
		entries := []*entities.AvoidListEntry{
			comboEntry("stale", now.AddDate(0, 0, -20)),
			comboEntry("recent", now.AddDate(0, 0, -1)),
		}

		source := new(MockRepository)
		source.On("GetActive", mock.Anything, entities.ComboKey("egg|flour"), mock.MatchedBy(func(ws time.Time) bool {
			return ws.IsZero()
		})).Return(entries, nil)

		populated := make(chan struct{}, 1)
		cache := new(MockCache)
		cache.On("Get", mock.Anything, cacheKey).Return(nil, providers.ErrCacheMiss)
		cache.On("Set", mock.Anything, cacheKey, mock.Anything, 120).Run(func(args mock.Arguments) {
			select {
			case populated <- struct{}{}:
			default:
			}
		}).Return(nil)

		cached := database.NewCachedAvoidListAdapter(source, cache, nil)

		got, err := cached.GetActive(ctx, "egg|flour", now.AddDate(0, 0, -14))

		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, "recent", got[0].Fingerprint.Title())

		select {
		case <-populated:
		case <-time.After(time.Second):
			t.Fatal("expected the cache to be populated asynchronously")
		}
		source.AssertExpectations(t)
	})

	t.Run("corrupt cache payload falls back to the source", func(t *testing.T) {
		entries := []*entities.AvoidListEntry{comboEntry("recent", now.Add(-time.Hour))}

		source := new(MockRepository)
		source.On("GetActive", mock.Anything, mock.Anything, mock.Anything).Return(entries, nil)

		cache := new(MockCache)
		cache.On("Get", mock.Anything, cacheKey).Return([]byte("{not json"), nil)
		cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		cached := database.NewCachedAvoidListAdapter(source, cache, nil)

		got, err := cached.GetActive(ctx, "egg|flour", time.Time{})

		assert.NoError(t, err)
		assert.Len(t, got, 1)
		source.AssertExpectations(t)
	})

	t.Run("source failure propagates on a miss", func(t *testing.T) {
		source := new(MockRepository)
		source.On("GetActive", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.NewStoreUnavailableError("postgres down", nil))

		cache := new(MockCache)
		cache.On("Get", mock.Anything, cacheKey).Return(nil, providers.ErrCacheMiss)

		cached := database.NewCachedAvoidListAdapter(source, cache, nil)

		_, err := cached.GetActive(ctx, "egg|flour", time.Time{})

		assert.True(t, apperrors.IsStoreUnavailable(err))
	})
}

func TestCachedAvoidListAdapter_Append(t *testing.T) {
	ctx := context.Background()
	entry := comboEntry("pancakes", time.Now())

	t.Run("writes through and invalidates the combo cache", func(t *testing.T) {
		source := new(MockRepository)
		source.On("Append", mock.Anything, entry).Return(nil)

		cache := new(MockCache)
		cache.On("Delete", mock.Anything, "avoidlist:combo:egg|flour").Return(nil)

		cached := database.NewCachedAvoidListAdapter(source, cache, nil)

		assert.NoError(t, cached.Append(ctx, entry))
		source.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("write failure skips invalidation", func(t *testing.T) {
		source := new(MockRepository)
		source.On("Append", mock.Anything, entry).
			Return(apperrors.NewStoreUnavailableError("write failed", nil))

		cache := new(MockCache)
		cached := database.NewCachedAvoidListAdapter(source, cache, nil)

		err := cached.Append(ctx, entry)

		assert.True(t, apperrors.IsStoreUnavailable(err))
		cache.AssertNotCalled(t, "Delete")
	})

	t.Run("invalidation failure does not fail the append", func(t *testing.T) {
		source := new(MockRepository)
		source.On("Append", mock.Anything, entry).Return(nil)

		cache := new(MockCache)
		cache.On("Delete", mock.Anything, mock.Anything).Return(apperrors.NewExternalError("redis down", nil))

		cached := database.NewCachedAvoidListAdapter(source, cache, nil)

		assert.NoError(t, cached.Append(ctx, entry))
	})
}

func TestCachedAvoidListAdapter_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	cutoff := time.Now().AddDate(0, 0, -14)

	source := new(MockRepository)
	source.On("PurgeExpired", mock.Anything, cutoff).Return(int64(3), nil)

	cached := database.NewCachedAvoidListAdapter(source, new(MockCache), nil)

	purged, err := cached.PurgeExpired(ctx, cutoff)

	assert.NoError(t, err)
	assert.EqualValues(t, 3, purged)
}
