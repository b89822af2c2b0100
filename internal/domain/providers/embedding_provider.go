package providers

import (
	"context"
)

// EmbeddingProvider defines the interface for semantic embedding services
type EmbeddingProvider interface {
	// EmbedText embeds a single piece of text into a dense vector
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds multiple texts in one call, preserving input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of produced vectors
	Dimensions() int

	// Name identifies the backing implementation
	Name() string
}
