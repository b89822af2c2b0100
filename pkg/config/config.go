package config

import (
	"fmt"
	"os"
	"strconv"

	apperrors "github.com/recipify/diversity-guard/pkg/errors"
)

// Store backends selectable for the avoid-list history.
const (
	StoreBackendMemory   = "memory"
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"
)

// Fallback behaviors when the attempt cap is exhausted.
const (
	ExhaustedFallbackServeLast = "serve-last"
	ExhaustedFallbackFail      = "fail"
)

// Config holds all application configuration
type Config struct {
	Guard    GuardPolicy
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	GenAI    GenAIConfig
	OTEL     OTELConfig
}

// GuardPolicy holds the diversity guard decision policy. It is plain
// configuration, never persisted per request.
type GuardPolicy struct {
	SimilarityThreshold       float64
	WindowDays                int
	PerComboCap               int
	MaxAttemptsDefault        int
	MaxAttemptsReroll         int
	LowEntropyIngredientCount int
	LowEntropyMaxAttempts     int
	UseEmbeddings             bool
	ExhaustedFallback         string
	Weights                   SimilarityWeights
}

// SimilarityWeights holds the blend weights for similarity scoring.
// Weights are renormalized over the components present for a pair, so they
// do not need to sum to one.
type SimilarityWeights struct {
	Ingredients float64
	Title       float64
	Tags        float64
	Structure   float64
	Embedding   float64
}

// StoreConfig selects the avoid-list store backend
type StoreConfig struct {
	Backend string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// GenAIConfig holds Gemini client configuration
type GenAIConfig struct {
	APIKey            string
	ModelName         string
	EmbeddingModel    string
	EmbeddingProvider string
	Temperature       float64
	CacheTTLSeconds   int
	CacheMaxSize      int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables and fails fast on
// out-of-range values
func Load() (*Config, error) {
	cfg := &Config{
		Guard: GuardPolicy{
			SimilarityThreshold:       getEnvAsFloat("DIVERSITY_SIMILARITY_THRESHOLD", 0.62),
			WindowDays:                getEnvAsInt("DIVERSITY_WINDOW_DAYS", 14),
			PerComboCap:               getEnvAsInt("DIVERSITY_PER_COMBO_CAP", 10),
			MaxAttemptsDefault:        getEnvAsInt("DIVERSITY_MAX_ATTEMPTS_DEFAULT", 3),
			MaxAttemptsReroll:         getEnvAsInt("DIVERSITY_MAX_ATTEMPTS_REROLL", 2),
			LowEntropyIngredientCount: getEnvAsInt("DIVERSITY_LOW_ENTROPY_INGREDIENTS", 3),
			LowEntropyMaxAttempts:     getEnvAsInt("DIVERSITY_LOW_ENTROPY_MAX_ATTEMPTS", 2),
			UseEmbeddings:             getEnvAsBool("DIVERSITY_USE_EMBEDDINGS", false),
			ExhaustedFallback:         getEnv("DIVERSITY_EXHAUSTED_FALLBACK", ExhaustedFallbackServeLast),
			Weights: SimilarityWeights{
				Ingredients: getEnvAsFloat("DIVERSITY_WEIGHT_INGREDIENTS", 0.45),
				Title:       getEnvAsFloat("DIVERSITY_WEIGHT_TITLE", 0.35),
				Tags:        getEnvAsFloat("DIVERSITY_WEIGHT_TAGS", 0.10),
				Structure:   getEnvAsFloat("DIVERSITY_WEIGHT_STRUCTURE", 0.10),
				Embedding:   getEnvAsFloat("DIVERSITY_WEIGHT_EMBEDDING", 0.30),
			},
		},
		Store: StoreConfig{
			Backend: getEnv("DIVERSITY_STORE_BACKEND", StoreBackendMemory),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "recipify"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		GenAI: GenAIConfig{
			APIKey:            getEnv("GEMINI_API_KEY", ""),
			ModelName:         getEnv("GEMINI_MODEL_NAME", "gemini-1.5-flash-latest"),
			EmbeddingModel:    getEnv("GEMINI_EMBEDDING_MODEL", "gemini-embedding-001"),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "mock"),
			Temperature:       getEnvAsFloat("GEMINI_TEMP", 0.6),
			CacheTTLSeconds:   getEnvAsInt("GEMINI_CACHE_TTL", 3600),
			CacheMaxSize:      getEnvAsInt("GEMINI_CACHE_MAXSIZE", 128),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "diversity-guard"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every policy value range. Violations surface as
// configuration errors at load time, never at request time.
func (c *Config) Validate() error {
	g := c.Guard

	if g.SimilarityThreshold < 0 || g.SimilarityThreshold > 1 {
		return apperrors.NewConfigurationError(fmt.Sprintf("similarity threshold %.3f outside [0,1]", g.SimilarityThreshold))
	}
	if g.WindowDays <= 0 {
		return apperrors.NewConfigurationError(fmt.Sprintf("window days must be positive, got %d", g.WindowDays))
	}
	if g.PerComboCap <= 0 {
		return apperrors.NewConfigurationError(fmt.Sprintf("per-combo cap must be positive, got %d", g.PerComboCap))
	}
	if g.MaxAttemptsDefault < 1 {
		return apperrors.NewConfigurationError(fmt.Sprintf("max attempts (fresh) must be at least 1, got %d", g.MaxAttemptsDefault))
	}
	if g.MaxAttemptsReroll < 1 {
		return apperrors.NewConfigurationError(fmt.Sprintf("max attempts (reroll) must be at least 1, got %d", g.MaxAttemptsReroll))
	}
	if g.LowEntropyIngredientCount < 0 {
		return apperrors.NewConfigurationError(fmt.Sprintf("low-entropy ingredient count must not be negative, got %d", g.LowEntropyIngredientCount))
	}
	if g.LowEntropyMaxAttempts < 1 {
		return apperrors.NewConfigurationError(fmt.Sprintf("low-entropy max attempts must be at least 1, got %d", g.LowEntropyMaxAttempts))
	}
	if g.ExhaustedFallback != ExhaustedFallbackServeLast && g.ExhaustedFallback != ExhaustedFallbackFail {
		return apperrors.NewConfigurationError(fmt.Sprintf("exhausted fallback must be %q or %q, got %q", ExhaustedFallbackServeLast, ExhaustedFallbackFail, g.ExhaustedFallback))
	}

	w := g.Weights
	for name, weight := range map[string]float64{
		"ingredients": w.Ingredients,
		"title":       w.Title,
		"tags":        w.Tags,
		"structure":   w.Structure,
		"embedding":   w.Embedding,
	} {
		if weight < 0 {
			return apperrors.NewConfigurationError(fmt.Sprintf("similarity weight %s must not be negative, got %.3f", name, weight))
		}
	}
	if w.Ingredients+w.Title+w.Tags+w.Structure == 0 {
		return apperrors.NewConfigurationError("similarity weights must not all be zero")
	}

	switch c.Store.Backend {
	case StoreBackendMemory, StoreBackendRedis, StoreBackendPostgres:
	default:
		return apperrors.NewConfigurationError(fmt.Sprintf("unknown store backend %q", c.Store.Backend))
	}

	if c.GenAI.Temperature <= 0 || c.GenAI.Temperature > 2 {
		return apperrors.NewConfigurationError(fmt.Sprintf("generation temperature %.2f outside (0,2]", c.GenAI.Temperature))
	}

	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
