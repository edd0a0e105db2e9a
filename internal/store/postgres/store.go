package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"sentinel-pipeline/internal/domain/model"

	"github.com/lib/pq"
)

// Store persists ProcessedItems to Postgres.
type Store struct {
	db *sql.DB
}

// New wraps an already-open, already-migrated *sql.DB.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert upserts item's parent row (collection-time fields are left
// untouched on conflict; only analysis-derived fields update) and
// atomically replaces its theme/entity child rows, so reprocessing an item
// never leaves stale children behind.
func (s *Store) Insert(ctx context.Context, item *model.ProcessedItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	analysisJSON, err := json.Marshal(item.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	const upsert = `
INSERT INTO processed_items (
	id, source_type, source_name, external_id, url, title, content,
	author, published_at, collected_at, processed_at, search_phrase,
	raw_storage_path, sentiment, sentiment_score, summary, key_points, analysis
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
)
ON CONFLICT (id) DO UPDATE SET
	processed_at    = EXCLUDED.processed_at,
	sentiment       = EXCLUDED.sentiment,
	sentiment_score = EXCLUDED.sentiment_score,
	summary         = EXCLUDED.summary,
	key_points      = EXCLUDED.key_points,
	analysis        = EXCLUDED.analysis`

	_, err = tx.ExecContext(ctx, upsert,
		item.ID, string(item.SourceType), item.SourceName, item.ExternalID, item.URL, item.Title, item.Content,
		item.Author, item.PublishedAt, item.CollectedAt, item.ProcessedAt, item.SearchPhrase,
		item.RawStoragePath, string(item.Analysis.Sentiment), item.Analysis.SentimentScore, item.Analysis.Summary,
		pq.Array(item.Analysis.KeyPoints), analysisJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert processed_items: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM themes WHERE item_id = $1`, item.ID); err != nil {
		return fmt.Errorf("delete themes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE item_id = $1`, item.ID); err != nil {
		return fmt.Errorf("delete entities: %w", err)
	}

	const insertTheme = `INSERT INTO themes (item_id, name, confidence, keywords) VALUES ($1, $2, $3, $4)`
	for _, theme := range item.Analysis.Themes {
		if _, err := tx.ExecContext(ctx, insertTheme, item.ID, theme.Name, theme.Confidence, pq.Array(theme.Keywords)); err != nil {
			return fmt.Errorf("insert theme: %w", err)
		}
	}

	const insertEntity = `INSERT INTO entities (item_id, name) VALUES ($1, $2)`
	for _, entityName := range item.Analysis.Entities {
		if _, err := tx.ExecContext(ctx, insertEntity, item.ID, entityName); err != nil {
			return fmt.Errorf("insert entity: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Exists reports whether id has already been processed, the gate the
// processor checks before re-archiving and re-analyzing an item.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var found int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM processed_items WHERE id = $1`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return true, nil
}

// HealthCheck verifies the database connection is usable.
func (s *Store) HealthCheck(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}
