package embedding

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/recipify/diversity-guard/internal/domain/providers"
)

// BatchedProvider wraps an EmbeddingProvider with a dataloader, so
// concurrent single-text calls coalesce into one upstream batch and
// repeated texts are served from the loader cache.
type BatchedProvider struct {
	inner  providers.EmbeddingProvider
	loader *dataloader.Loader[string, []float32]
}

// NewBatchedProvider creates a batching decorator around a provider
func NewBatchedProvider(inner providers.EmbeddingProvider) providers.EmbeddingProvider {
	return &BatchedProvider{
		inner: inner,
		loader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[[]float32] {
			results := make([]*dataloader.Result[[]float32], len(keys))
			vectors, err := inner.EmbedBatch(ctx, keys)

			for i := range keys {
				if err != nil {
					results[i] = &dataloader.Result[[]float32]{Error: err}
				} else {
					results[i] = &dataloader.Result[[]float32]{Data: vectors[i]}
				}
			}
			return results
		}),
	}
}

// EmbedText embeds a single piece of text through the batching loader
func (p *BatchedProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return p.loader.Load(ctx, text)()
}

// EmbedBatch embeds multiple texts through the batching loader,
// preserving input order
func (p *BatchedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	thunks := make([]func() ([]float32, error), len(texts))
	for i, text := range texts {
		thunks[i] = p.loader.Load(ctx, text)
	}

	vectors := make([][]float32, len(texts))
	for i, thunk := range thunks {
		vector, err := thunk()
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// Dimensions returns the dimensionality of produced vectors
func (p *BatchedProvider) Dimensions() int {
	return p.inner.Dimensions()
}

// Name identifies the backing implementation
func (p *BatchedProvider) Name() string {
	return p.inner.Name() + "+batched"
}
