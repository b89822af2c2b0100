package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/recipify/diversity-guard/internal/adapters/cache"
	"github.com/recipify/diversity-guard/internal/adapters/database"
	"github.com/recipify/diversity-guard/internal/adapters/events"
	"github.com/recipify/diversity-guard/internal/adapters/memory"
	"github.com/recipify/diversity-guard/internal/adapters/providers/embedding"
	"github.com/recipify/diversity-guard/internal/adapters/providers/generation"
	"github.com/recipify/diversity-guard/internal/adapters/redisstore"
	"github.com/recipify/diversity-guard/internal/application/services"
	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/domain/providers"
	"github.com/recipify/diversity-guard/internal/domain/repositories"
	genaiclient "github.com/recipify/diversity-guard/internal/infrastructure/clients/genai"
	"github.com/recipify/diversity-guard/internal/infrastructure/clients/postgres"
	"github.com/recipify/diversity-guard/internal/infrastructure/clients/redis"
	"github.com/recipify/diversity-guard/internal/infrastructure/observability"
	"github.com/recipify/diversity-guard/pkg/config"
)

func main() {
	var ingredientsFlag string
	var cuisine string
	var audience string
	var servings int
	var kind string
	var userID string

	flag.StringVar(&ingredientsFlag, "ingredients", "", "Comma-separated ingredients to cook with (required)")
	flag.StringVar(&cuisine, "cuisine", "", "Preferred cuisine style, e.g. Korean")
	flag.StringVar(&audience, "audience", "", "Audience, e.g. Everyone or Baby (6-8 months)")
	flag.IntVar(&servings, "servings", 2, "Number of servings")
	flag.StringVar(&kind, "kind", "fresh", "Request kind: fresh or reroll")
	flag.StringVar(&userID, "user", "", "User identifier recorded on history entries")
	flag.Parse()

	if ingredientsFlag == "" {
		flag.Usage()
		os.Exit(2)
	}

	var ingredients []string
	for _, part := range strings.Split(ingredientsFlag, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ingredients = append(ingredients, trimmed)
		}
	}

	requestKind := entities.RequestKind(kind)
	if requestKind != entities.RequestKindFresh && requestKind != entities.RequestKindReroll {
		log.Fatalf("Invalid kind %q (must be fresh or reroll)", kind)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Redis backs the event bus, the generation cache and the redis store
	// backend. Everything but the redis backend keeps working without it.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	} else {
		cacheProvider = cache.NewMemoryAdapter(cfg.GenAI.CacheMaxSize)
	}

	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		defer func() {
			if err := eventBus.Close(); err != nil {
				log.Printf("Error closing event bus: %v", err)
			}
		}()
	}

	store, cleanup, err := buildStore(cfg, redisClient, cacheProvider, metrics)
	if err != nil {
		log.Fatalf("Failed to initialize avoid-list store: %v", err)
	}
	if cleanup != nil {
		defer cleanup()
	}
	log.Printf("Avoid-list store backend: %s", cfg.Store.Backend)

	// GenAI client is optional; without it the mock providers take over
	var genaiClient *genaiclient.Client
	if cfg.GenAI.APIKey != "" {
		genaiClient, err = genaiclient.NewClient(ctx, &cfg.GenAI)
		if err != nil {
			log.Printf("Warning: Failed to initialize GenAI client: %v", err)
		} else {
			defer genaiClient.Close()
		}
	}

	embedder := embedding.NewEmbeddingProvider(&cfg.GenAI, genaiClient, metrics)
	generator := generation.NewRecipeGenerator(&cfg.GenAI, genaiClient, cacheProvider, metrics)

	// Initialize services
	fingerprints := services.NewFingerprintService(embedder, cfg.Guard.UseEmbeddings)
	similarity := services.NewSimilarityService(cfg.Guard)
	featureFlags := services.NewFeatureFlags()
	guard := services.NewGuardService(store, fingerprints, similarity, eventBus, featureFlags, metrics, cfg.Guard)
	generationService := services.NewGenerationService(guard, generator, store, metrics, cfg.Guard)

	result, err := generationService.GenerateRecipe(ctx, services.GenerateRequest{
		Ingredients: ingredients,
		Cuisine:     cuisine,
		Audience:    audience,
		Servings:    servings,
		UserID:      userID,
		Kind:        requestKind,
	})
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}

// buildStore selects the avoid-list history backend. The postgres store is
// wrapped with the read-through cache when Redis is up.
func buildStore(
	cfg *config.Config,
	redisClient *redis.Client,
	cacheProvider providers.CacheProvider,
	metrics *observability.Metrics,
) (repositories.AvoidListRepository, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		return memory.NewAvoidListAdapter(cfg.Guard.PerComboCap), nil, nil

	case config.StoreBackendRedis:
		if redisClient == nil {
			return nil, nil, fmt.Errorf("redis store backend requires a reachable Redis")
		}
		retention := time.Duration(cfg.Guard.WindowDays) * 24 * time.Hour
		return redisstore.NewAvoidListAdapter(redisClient, cfg.Guard.PerComboCap, retention), nil, nil

	case config.StoreBackendPostgres:
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		var store repositories.AvoidListRepository = database.NewAvoidListAdapter(pgClient, cfg.Guard.PerComboCap)
		if redisClient != nil {
			store = database.NewCachedAvoidListAdapter(store, cacheProvider, metrics)
		}
		return store, func() { pgClient.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
