package embedding

import (
	"log"

	"github.com/recipify/diversity-guard/internal/domain/providers"
	genaiclient "github.com/recipify/diversity-guard/internal/infrastructure/clients/genai"
	"github.com/recipify/diversity-guard/internal/infrastructure/observability"
	"github.com/recipify/diversity-guard/pkg/config"
)

// NewEmbeddingProvider creates an embedding provider from configuration.
// Without a usable GenAI client it falls back to the deterministic mock,
// so local development never needs an API key.
func NewEmbeddingProvider(cfg *config.GenAIConfig, client *genaiclient.Client, metrics *observability.Metrics) providers.EmbeddingProvider {
	if cfg.EmbeddingProvider == "genai" {
		if client == nil {
			log.Println("Warning: genai embedding provider requested without a client, using mock")
			return NewMockProvider()
		}
		return NewBatchedProvider(NewGenAIProvider(client, metrics))
	}

	return NewMockProvider()
}
