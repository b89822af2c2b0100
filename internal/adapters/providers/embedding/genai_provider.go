package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/recipify/diversity-guard/internal/domain/providers"
	genaiclient "github.com/recipify/diversity-guard/internal/infrastructure/clients/genai"
	"github.com/recipify/diversity-guard/internal/infrastructure/observability"
	apperrors "github.com/recipify/diversity-guard/pkg/errors"
)

// gemini-embedding-001 produces 768-dimensional vectors
const genaiDimensions = 768

// GenAIProvider implements the EmbeddingProvider interface using Google's
// Gemini embedding API
type GenAIProvider struct {
	client  *genaiclient.Client
	metrics *observability.Metrics
}

// NewGenAIProvider creates a new GenAI embedding provider
func NewGenAIProvider(client *genaiclient.Client, metrics *observability.Metrics) providers.EmbeddingProvider {
	return &GenAIProvider{
		client:  client,
		metrics: metrics,
	}
}

// EmbedText embeds a single piece of text
func (p *GenAIProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds multiple texts in one API call, preserving input order
func (p *GenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := p.client.Client().Models.EmbedContent(ctx,
		p.client.EmbeddingModel(),
		contents,
		&genai.EmbedContentConfig{
			TaskType: "SEMANTIC_SIMILARITY",
		},
	)
	if err != nil {
		return nil, apperrors.NewExternalError("GenAI embed failed", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("GenAI returned %d embeddings for %d texts", len(result.Embeddings), len(texts)), nil)
	}

	observability.RecordEmbeddingBatch(ctx, p.metrics, p.Name(), len(texts))

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// Dimensions returns the dimensionality of produced vectors
func (p *GenAIProvider) Dimensions() int {
	return genaiDimensions
}

// Name identifies the backing implementation
func (p *GenAIProvider) Name() string {
	return fmt.Sprintf("genai:%s", p.client.EmbeddingModel())
}
