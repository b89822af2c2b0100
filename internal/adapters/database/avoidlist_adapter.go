package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/infrastructure/clients/postgres"
	apperrors "github.com/recipify/diversity-guard/pkg/errors"
)

const avoidListTable = "avoid_list_entries"

// AvoidListAdapter implements the AvoidListRepository and
// EmbeddingBackfillRepository interfaces on PostgreSQL. Insertion order is
// tracked by a sequence column, so reads stay oldest first even when
// entries share a creation timestamp.
type AvoidListAdapter struct {
	client      *postgres.Client
	db          *goqu.Database
	perComboCap int
}

// NewAvoidListAdapter creates a new PostgreSQL avoid-list adapter keeping
// at most perComboCap entries per combo
func NewAvoidListAdapter(client *postgres.Client, perComboCap int) *AvoidListAdapter {
	return &AvoidListAdapter{
		client:      client,
		db:          goqu.New("postgres", client.DB()),
		perComboCap: perComboCap,
	}
}

// GetActive retrieves the entries inside the window for a combo, oldest first
func (a *AvoidListAdapter) GetActive(ctx context.Context, comboKey entities.ComboKey, windowStart time.Time) ([]*entities.AvoidListEntry, error) {
	query, args, err := a.db.From(avoidListTable).
		Select(
			"id", "combo_key", "user_id", "ingredients", "tags", "title_tokens",
			"ingredient_bucket", "step_bucket", "embedding", "created_at",
		).
		Where(
			goqu.Ex{"combo_key": string(comboKey)},
			goqu.C("created_at").Gte(windowStart),
		).
		Order(goqu.I("seq").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("failed to build avoid-list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("failed to read avoid-list history", err)
	}
	defer rows.Close()

	var entries []*entities.AvoidListEntry
	for rows.Next() {
		entry, err := scanAvoidListEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError("failed to read avoid-list history", err)
	}

	return entries, nil
}

// Append records an entry and evicts the oldest entries over the capacity
// cap inside one transaction. An advisory lock keyed on the combo prevents
// two writers from racing the trim.
func (a *AvoidListAdapter) Append(ctx context.Context, entry *entities.AvoidListEntry) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewStoreUnavailableError("failed to open avoid-list transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, string(entry.ComboKey)); err != nil {
		return apperrors.NewStoreUnavailableError("failed to lock combo", err)
	}

	insert := `
		INSERT INTO avoid_list_entries (
			id, combo_key, user_id, ingredients, tags, title_tokens,
			ingredient_bucket, step_bucket, embedding, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.ExecContext(ctx, insert,
		entry.ID,
		string(entry.ComboKey),
		sql.NullString{String: entry.UserID, Valid: entry.UserID != ""},
		pq.Array(entry.Fingerprint.Ingredients),
		pq.Array(entry.Fingerprint.Tags),
		pq.Array(entry.Fingerprint.TitleTokens),
		string(entry.Fingerprint.IngredientBucket),
		string(entry.Fingerprint.StepBucket),
		embeddingParam(entry.Fingerprint.Embedding),
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.NewStoreUnavailableError("failed to append avoid-list entry", err)
	}

	if a.perComboCap > 0 {
		trim := `
			DELETE FROM avoid_list_entries
			WHERE combo_key = $1
			  AND seq NOT IN (
				SELECT seq FROM avoid_list_entries
				WHERE combo_key = $1
				ORDER BY seq DESC
				LIMIT $2
			  )
		`
		if _, err := tx.ExecContext(ctx, trim, string(entry.ComboKey), a.perComboCap); err != nil {
			return apperrors.NewStoreUnavailableError("failed to trim avoid-list history", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStoreUnavailableError("failed to commit avoid-list entry", err)
	}
	return nil
}

// PurgeExpired drops entries created before the cutoff across all combos
func (a *AvoidListAdapter) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := a.db.Delete(avoidListTable).
		Where(goqu.C("created_at").Lt(cutoff)).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewStoreUnavailableError("failed to build purge query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewStoreUnavailableError("failed to purge avoid-list entries", err)
	}

	purged, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewStoreUnavailableError("failed to count purged entries", err)
	}
	return purged, nil
}

// ListMissingEmbeddings retrieves entries stored without an embedding,
// oldest first
func (a *AvoidListAdapter) ListMissingEmbeddings(ctx context.Context, limit int) ([]*entities.AvoidListEntry, error) {
	query, args, err := a.db.From(avoidListTable).
		Select(
			"id", "combo_key", "user_id", "ingredients", "tags", "title_tokens",
			"ingredient_bucket", "step_bucket", "embedding", "created_at",
		).
		Where(goqu.C("embedding").IsNull()).
		Order(goqu.I("seq").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("failed to build backfill query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("failed to list entries missing embeddings", err)
	}
	defer rows.Close()

	var entries []*entities.AvoidListEntry
	for rows.Next() {
		entry, err := scanAvoidListEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError("failed to list entries missing embeddings", err)
	}

	return entries, nil
}

// UpdateEmbedding attaches an embedding vector to a stored entry
func (a *AvoidListAdapter) UpdateEmbedding(ctx context.Context, entryID string, embedding []float32) error {
	query, args, err := a.db.Update(avoidListTable).
		Set(goqu.Record{"embedding": embeddingParam(embedding)}).
		Where(goqu.Ex{"id": entryID}).
		ToSQL()
	if err != nil {
		return apperrors.NewStoreUnavailableError("failed to build embedding update", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewStoreUnavailableError("failed to update embedding", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewStoreUnavailableError("failed to confirm embedding update", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError("avoid-list entry not found: " + entryID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAvoidListEntry(row rowScanner) (*entities.AvoidListEntry, error) {
	var (
		entry       entities.AvoidListEntry
		userID      sql.NullString
		ingredients pq.StringArray
		tags        pq.StringArray
		titleTokens pq.StringArray
		embedding   pq.Float64Array
		ingBucket   string
		stepBucket  string
	)

	err := row.Scan(
		&entry.ID,
		&entry.ComboKey,
		&userID,
		&ingredients,
		&tags,
		&titleTokens,
		&ingBucket,
		&stepBucket,
		&embedding,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("failed to scan avoid-list entry", err)
	}

	entry.UserID = userID.String
	entry.Fingerprint = entities.Fingerprint{
		Ingredients:      ingredients,
		Tags:             tags,
		TitleTokens:      titleTokens,
		IngredientBucket: entities.SizeBucket(ingBucket),
		StepBucket:       entities.SizeBucket(stepBucket),
		Embedding:        toFloat32(embedding),
	}
	return &entry, nil
}

// embeddingParam converts the vector for a double precision array column,
// mapping an absent vector to NULL
func embeddingParam(embedding []float32) interface{} {
	if len(embedding) == 0 {
		return nil
	}
	doubles := make([]float64, len(embedding))
	for i, v := range embedding {
		doubles[i] = float64(v)
	}
	return pq.Array(doubles)
}

func toFloat32(doubles []float64) []float32 {
	if len(doubles) == 0 {
		return nil
	}
	vector := make([]float32, len(doubles))
	for i, v := range doubles {
		vector[i] = float32(v)
	}
	return vector
}
