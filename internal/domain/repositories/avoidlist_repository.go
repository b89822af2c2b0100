package repositories

import (
	"context"
	"time"

	"github.com/recipify/diversity-guard/internal/domain/entities"
)

// AvoidListRepository defines the interface for avoid-list history operations
type AvoidListRepository interface {
	// GetActive retrieves the active entries for a combo key, oldest first.
	// Entries created before windowStart are excluded.
	GetActive(ctx context.Context, comboKey entities.ComboKey, windowStart time.Time) ([]*entities.AvoidListEntry, error)

	// Append records an admitted fingerprint for a combo key. When the
	// per-combo capacity is exceeded the oldest entries are evicted in the
	// same operation.
	Append(ctx context.Context, entry *entities.AvoidListEntry) error

	// PurgeExpired removes entries created before the cutoff and reports
	// how many were deleted.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// EmbeddingBackfillRepository defines the interface for retrofitting
// embeddings onto avoid-list entries that were stored without one
type EmbeddingBackfillRepository interface {
	// ListMissingEmbeddings retrieves entries whose fingerprints carry no
	// embedding vector, up to limit
	ListMissingEmbeddings(ctx context.Context, limit int) ([]*entities.AvoidListEntry, error)

	// UpdateEmbedding attaches an embedding vector to a stored entry
	UpdateEmbedding(ctx context.Context, entryID string, embedding []float32) error
}
