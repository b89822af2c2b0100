package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/domain/providers"
	"github.com/recipify/diversity-guard/internal/domain/repositories"
)

const backfillBatchSize = 100

// BackfillSummary reports the outcome of one backfill run
type BackfillSummary struct {
	TotalProcessed int
	SuccessCount   int
	FailureCount   int
}

// EmbeddingBackfillService retrofits embedding vectors onto avoid-list
// entries stored without one, such as entries written while embedding
// scoring was disabled.
type EmbeddingBackfillService struct {
	repo        repositories.EmbeddingBackfillRepository
	embedder    providers.EmbeddingProvider
	workerCount int
}

// NewEmbeddingBackfillService creates a backfill service writing with the
// given number of concurrent workers
func NewEmbeddingBackfillService(
	repo repositories.EmbeddingBackfillRepository,
	embedder providers.EmbeddingProvider,
	workers int,
) *EmbeddingBackfillService {
	if workers <= 0 {
		workers = 1
	}
	return &EmbeddingBackfillService{
		repo:        repo,
		embedder:    embedder,
		workerCount: workers,
	}
}

// BackfillAll embeds entries missing vectors, batch by batch, until none
// remain. Failed entries stay missing and are retried on the next round,
// so a round with zero successes ends the run instead of refetching the
// same rows forever.
func (s *EmbeddingBackfillService) BackfillAll(ctx context.Context) (*BackfillSummary, error) {
	summary := &BackfillSummary{}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entries, err := s.repo.ListMissingEmbeddings(ctx, backfillBatchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list entries missing embeddings: %w", err)
		}
		if len(entries) == 0 {
			break
		}

		successes, err := s.backfillBatch(ctx, entries, summary)
		if err != nil {
			return nil, err
		}
		if successes == 0 {
			break
		}
	}

	return summary, nil
}

// backfillBatch embeds one batch in a single provider call and fans the
// writes out over the worker pool.
func (s *EmbeddingBackfillService) backfillBatch(ctx context.Context, entries []*entities.AvoidListEntry, summary *BackfillSummary) (int, error) {
	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Fingerprint.EmbeddingText()
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed batch: %w", err)
	}

	type job struct {
		entry  *entities.AvoidListEntry
		vector []float32
	}

	var success, failure int64
	jobs := make(chan job, len(entries))
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := s.repo.UpdateEmbedding(ctx, j.entry.ID, j.vector); err != nil {
					atomic.AddInt64(&failure, 1)
					log.Printf("Failed to backfill embedding for entry %s: %v", j.entry.ID, err)
					continue
				}
				atomic.AddInt64(&success, 1)
			}
		}()
	}

	for i, entry := range entries {
		jobs <- job{entry: entry, vector: vectors[i]}
	}
	close(jobs)
	wg.Wait()

	summary.TotalProcessed += len(entries)
	summary.SuccessCount += int(success)
	summary.FailureCount += int(failure)

	return int(success), nil
}
