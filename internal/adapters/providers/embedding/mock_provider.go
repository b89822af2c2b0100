package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/recipify/diversity-guard/internal/domain/providers"
)

const mockDimensions = 64

// MockProvider implements the EmbeddingProvider interface with
// deterministic feature-hashed vectors for local development and tests.
// Texts sharing tokens land near each other, so similarity scoring stays
// meaningful without a real model.
type MockProvider struct{}

// NewMockProvider creates a mock embedding provider
func NewMockProvider() providers.EmbeddingProvider {
	return &MockProvider{}
}

// EmbedText embeds a single piece of text
func (p *MockProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return hashEmbed(text), nil
}

// EmbedBatch embeds multiple texts, preserving input order
func (p *MockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = hashEmbed(text)
	}
	return vectors, nil
}

// Dimensions returns the dimensionality of produced vectors
func (p *MockProvider) Dimensions() int {
	return mockDimensions
}

// Name identifies the backing implementation
func (p *MockProvider) Name() string {
	return "mock"
}

// hashEmbed builds a normalized bag-of-tokens vector by hashing each token
// into a bucket
func hashEmbed(text string) []float32 {
	vector := make([]float32, mockDimensions)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(token, ",.:;")))
		vector[h.Sum32()%mockDimensions]++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vector
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vector {
		vector[i] *= scale
	}
	return vector
}
