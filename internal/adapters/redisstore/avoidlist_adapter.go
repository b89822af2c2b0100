package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/domain/repositories"
	redisclient "github.com/recipify/diversity-guard/internal/infrastructure/clients/redis"
	apperrors "github.com/recipify/diversity-guard/pkg/errors"
)

const keyPrefix = "avoidlist:"

// AvoidListAdapter implements the AvoidListRepository interface on Redis.
// Each combo maps to a sorted set scored by creation time, so range reads
// come back oldest first and rank trims evict FIFO.
type AvoidListAdapter struct {
	client      *redisclient.Client
	perComboCap int
	retention   time.Duration
}

// NewAvoidListAdapter creates a new Redis avoid-list store. retention
// bounds how long a dormant combo's key survives and should exceed the
// guard's recency window.
func NewAvoidListAdapter(client *redisclient.Client, perComboCap int, retention time.Duration) repositories.AvoidListRepository {
	return &AvoidListAdapter{
		client:      client,
		perComboCap: perComboCap,
		retention:   retention,
	}
}

// GetActive retrieves the entries inside the window for a combo, oldest first
func (a *AvoidListAdapter) GetActive(ctx context.Context, comboKey entities.ComboKey, windowStart time.Time) ([]*entities.AvoidListEntry, error) {
	members, err := a.client.Client().ZRangeByScore(ctx, comboRedisKey(comboKey), &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", windowStart.UnixNano()),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("failed to read avoid-list history", err)
	}

	entries := make([]*entities.AvoidListEntry, 0, len(members))
	for _, member := range members {
		var entry entities.AvoidListEntry
		if err := json.Unmarshal([]byte(member), &entry); err != nil {
			return nil, apperrors.NewStoreUnavailableError("failed to decode avoid-list entry", err)
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

// Append records an entry and trims the combo to the capacity cap in the
// same transaction
func (a *AvoidListAdapter) Append(ctx context.Context, entry *entities.AvoidListEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return apperrors.NewStoreUnavailableError("failed to encode avoid-list entry", err)
	}

	key := comboRedisKey(entry.ComboKey)
	_, err = a.client.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(entry.CreatedAt.UnixNano()),
			Member: payload,
		})
		if a.perComboCap > 0 {
			pipe.ZRemRangeByRank(ctx, key, 0, int64(-a.perComboCap-1))
		}
		if a.retention > 0 {
			pipe.Expire(ctx, key, a.retention)
		}
		return nil
	})
	if err != nil {
		return apperrors.NewStoreUnavailableError("failed to append avoid-list entry", err)
	}
	return nil
}

// PurgeExpired drops entries created before the cutoff across all combos
func (a *AvoidListAdapter) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	var (
		purged int64
		cursor uint64
	)
	max := fmt.Sprintf("(%d", cutoff.UnixNano())

	for {
		keys, next, err := a.client.Client().Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return purged, apperrors.NewStoreUnavailableError("failed to scan avoid-list keys", err)
		}

		for _, key := range keys {
			removed, err := a.client.Client().ZRemRangeByScore(ctx, key, "-inf", max).Result()
			if err != nil {
				return purged, apperrors.NewStoreUnavailableError("failed to purge avoid-list entries", err)
			}
			purged += removed
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return purged, nil
}

func comboRedisKey(comboKey entities.ComboKey) string {
	return keyPrefix + string(comboKey)
}
