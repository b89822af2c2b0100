package generation

import (
	"log"

	"github.com/recipify/diversity-guard/internal/domain/providers"
	genaiclient "github.com/recipify/diversity-guard/internal/infrastructure/clients/genai"
	"github.com/recipify/diversity-guard/internal/infrastructure/observability"
	"github.com/recipify/diversity-guard/pkg/config"
)

// NewRecipeGenerator creates a recipe generator for the configured backend,
// falling back to the mock generator when no GenAI client is available.
func NewRecipeGenerator(cfg *config.GenAIConfig, client *genaiclient.Client, cache providers.CacheProvider, metrics *observability.Metrics) providers.RecipeGenerator {
	if client == nil {
		log.Printf("Warning: no GenAI client configured, using mock recipe generator")
		return NewMockAdapter()
	}
	return NewGenAIAdapter(client, cache, metrics, cfg)
}
