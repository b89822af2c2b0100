package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0

	err := Do(context.Background(), fastConfig(), "test", func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	retriesSeen := 0
	cfg := fastConfig()
	cfg.OnRetry = func(attempt int, err error, nextDelay time.Duration) {
		retriesSeen++
	}

	err := Do(context.Background(), cfg, "test", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retriesSeen)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")

	err := Do(context.Background(), fastConfig(), "test", func() error {
		return boom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestDo_HonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastConfig(), "test", func() error {
		return errors.New("never succeeds")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
