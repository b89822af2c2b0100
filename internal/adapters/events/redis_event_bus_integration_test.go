//go:build integration

package events_test

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipify/diversity-guard/internal/adapters/events"
	"github.com/recipify/diversity-guard/internal/adapters/memory"
	"github.com/recipify/diversity-guard/internal/application/services"
	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/domain/providers"
	redisclient "github.com/recipify/diversity-guard/internal/infrastructure/clients/redis"
	"github.com/recipify/diversity-guard/pkg/config"
)

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.EventChannelAdmissions
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := entities.NewAdmissionEvent(
		"broccoli|chicken|rice",
		"user-redis-1",
		entities.OutcomeAdmitted,
		entities.RequestKindFresh,
		0,
		0.41,
	)

	err = eventBus.Publish(context.Background(), channel, event)
	require.NoError(t, err)

	received1 := waitForAdmissionEvent(t, sub1)
	received2 := waitForAdmissionEvent(t, sub2)

	assert.Equal(t, event.ID, received1.ID)
	assert.Equal(t, event.ID, received2.ID)
	assert.Equal(t, entities.OutcomeAdmitted, received1.Outcome)
	assert.Equal(t, entities.ComboKey("broccoli|chicken|rice"), received1.ComboKey)
	assert.Equal(t, 0.41, received1.MaxSimilarity)
}

func TestGuardService_EvaluateCandidate_PublishesEvents(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	policy := config.GuardPolicy{
		SimilarityThreshold:       0.62,
		WindowDays:                14,
		PerComboCap:               10,
		MaxAttemptsDefault:        3,
		MaxAttemptsReroll:         2,
		LowEntropyIngredientCount: 3,
		LowEntropyMaxAttempts:     2,
		Weights: config.SimilarityWeights{
			Ingredients: 0.45,
			Title:       0.35,
			Tags:        0.10,
			Structure:   0.10,
			Embedding:   0.30,
		},
	}

	store := memory.NewAvoidListAdapter(policy.PerComboCap)
	fingerprints := services.NewFingerprintService(nil, false)
	similarity := services.NewSimilarityService(policy)
	guard := services.NewGuardService(store, fingerprints, similarity, eventBus, nil, nil, policy)

	// Subscriber combo keys come from the request ingredients, so derive
	// the channel the same way the service does.
	ingredients := []string{fmt.Sprintf("itest-carrot-%d", time.Now().UnixNano()), "lentils", "cumin", "onion"}
	comboKey := entities.NewComboKey(ingredients)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	firehose, err := eventBus.Subscribe(ctx, providers.EventChannelAdmissions)
	require.NoError(t, err)
	comboChan, err := eventBus.Subscribe(ctx, providers.GetComboChannel(comboKey))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	decision, err := guard.EvaluateCandidate(ctx, services.EvaluateRequest{
		Candidate: &entities.Recipe{
			Title: "Spiced Lentil and Carrot Stew",
			IngredientsUsed: []entities.Ingredient{
				{Name: "lentils", Quantity: "1", Unit: "cup"},
				{Name: "carrot", Quantity: "2", Unit: ""},
				{Name: "cumin", Quantity: "1", Unit: "tsp"},
				{Name: "onion", Quantity: "1", Unit: ""},
			},
			Instructions: []string{"Soften the onion", "Add lentils and spices", "Simmer until tender"},
		},
		RequestIngredients: ingredients,
		UserID:             "user-events-1",
		Kind:               entities.RequestKindFresh,
		AttemptIndex:       0,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.OutcomeAdmitted, decision.Outcome)

	fromFirehose := waitForAdmissionEvent(t, firehose)
	fromCombo := waitForAdmissionEvent(t, comboChan)

	assert.Equal(t, fromFirehose.ID, fromCombo.ID)
	assert.Equal(t, comboKey, fromFirehose.ComboKey)
	assert.Equal(t, "user-events-1", fromFirehose.UserID)
	assert.Equal(t, entities.OutcomeAdmitted, fromFirehose.Outcome)
	assert.Equal(t, entities.RequestKindFresh, fromFirehose.RequestKind)
	assert.Equal(t, 0, fromFirehose.AttemptIndex)
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

func waitForAdmissionEvent(t *testing.T, ch <-chan *entities.AdmissionEvent) *entities.AdmissionEvent {
	t.Helper()
	select {
	case event := <-ch:
		require.NotNil(t, event)
		return event
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for admission event")
		return nil
	}
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
