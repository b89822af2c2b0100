//go:build integration

package redisstore_test

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipify/diversity-guard/internal/adapters/redisstore"
	"github.com/recipify/diversity-guard/internal/domain/entities"
	redisclient "github.com/recipify/diversity-guard/internal/infrastructure/clients/redis"
	"github.com/recipify/diversity-guard/pkg/config"
)

func TestRedisStoreRoundTripIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	client := newTestRedisClient(t)
	defer client.Close()

	store := redisstore.NewAvoidListAdapter(client, 10, time.Hour)
	ctx := context.Background()
	combo := uniqueCombo(t)
	defer cleanupCombo(client, combo)

	base := time.Now().Add(-time.Minute)
	first := storedEntry(combo, "", base, "chicken", "broccoli", "skillet")
	second := storedEntry(combo, "user-7", base.Add(10*time.Second), "chicken", "fried", "rice")

	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	got, err := store.GetActive(ctx, combo, base.Add(-time.Second))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.Equal(t, combo, got[0].ComboKey)
	assert.Equal(t, []string{"chicken", "broccoli", "skillet"}, got[0].Fingerprint.TitleTokens)
	assert.Equal(t, entities.BucketSmall, got[0].Fingerprint.IngredientBucket)
	assert.Equal(t, "user-7", got[1].UserID)
}

func TestRedisStoreWindowExcludesOldEntriesIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	client := newTestRedisClient(t)
	defer client.Close()

	store := redisstore.NewAvoidListAdapter(client, 10, 2*time.Hour)
	ctx := context.Background()
	combo := uniqueCombo(t)
	defer cleanupCombo(client, combo)

	base := time.Now().Add(-time.Hour)
	stale := storedEntry(combo, "", base, "stale", "stew")
	fresh := storedEntry(combo, "", base.Add(50*time.Minute), "fresh", "salad")

	require.NoError(t, store.Append(ctx, stale))
	require.NoError(t, store.Append(ctx, fresh))

	got, err := store.GetActive(ctx, combo, base.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, fresh.ID, got[0].ID)
}

func TestRedisStoreTrimsToCapIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	client := newTestRedisClient(t)
	defer client.Close()

	store := redisstore.NewAvoidListAdapter(client, 2, time.Hour)
	ctx := context.Background()
	combo := uniqueCombo(t)
	defer cleanupCombo(client, combo)

	base := time.Now().Add(-time.Minute)
	oldest := storedEntry(combo, "", base, "first")
	middle := storedEntry(combo, "", base.Add(time.Second), "second")
	newest := storedEntry(combo, "", base.Add(2*time.Second), "third")

	require.NoError(t, store.Append(ctx, oldest))
	require.NoError(t, store.Append(ctx, middle))
	require.NoError(t, store.Append(ctx, newest))

	got, err := store.GetActive(ctx, combo, base.Add(-time.Second))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, middle.ID, got[0].ID)
	assert.Equal(t, newest.ID, got[1].ID)
}

func TestRedisStorePurgeExpiredIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	client := newTestRedisClient(t)
	defer client.Close()

	store := redisstore.NewAvoidListAdapter(client, 10, 4*time.Hour)
	ctx := context.Background()
	combo := uniqueCombo(t)
	defer cleanupCombo(client, combo)

	expired := storedEntry(combo, "", time.Now().Add(-2*time.Hour), "expired")
	recent := storedEntry(combo, "", time.Now().Add(-10*time.Minute), "recent")

	require.NoError(t, store.Append(ctx, expired))
	require.NoError(t, store.Append(ctx, recent))

	purged, err := store.PurgeExpired(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	// The purge scans every combo key, so leftovers from other runs may
	// raise the count beyond our single expired entry.
	assert.GreaterOrEqual(t, purged, int64(1))

	got, err := store.GetActive(ctx, combo, time.Now().Add(-3*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, recent.ID, got[0].ID)
}

func newTestRedisClient(t *testing.T) *redisclient.Client {
	t.Helper()

	cfg := &config.RedisConfig{
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_REDIS_PORT", 6379),
		Password: getEnv("TEST_REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("TEST_REDIS_DB", 0),
	}

	client, err := redisclient.NewClient(cfg)
	require.NoError(t, err, "Failed to create redis client")
	return client
}

// uniqueCombo keeps repeated runs against a shared redis from seeing each
// other's history.
func uniqueCombo(t *testing.T) entities.ComboKey {
	t.Helper()
	return entities.ComboKey(fmt.Sprintf("itest-%d", time.Now().UnixNano()))
}

func cleanupCombo(client *redisclient.Client, combo entities.ComboKey) {
	client.Client().Del(context.Background(), "avoidlist:"+string(combo))
}

func storedEntry(combo entities.ComboKey, userID string, createdAt time.Time, titleTokens ...string) *entities.AvoidListEntry {
	fp := entities.Fingerprint{
		Ingredients:      []string{"chicken", "broccoli", "rice"},
		Tags:             []string{"skillet"},
		TitleTokens:      titleTokens,
		IngredientBucket: entities.BucketSmall,
		StepBucket:       entities.BucketSmall,
	}
	return entities.NewAvoidListEntry(combo, userID, fp, createdAt)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
