package postgres

import "database/sql"

// MigrateUp creates the processed_items/themes/entities schema if absent.
// Every statement is idempotent so it can run on every processor startup.
func MigrateUp(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS processed_items (
			id               VARCHAR(64) PRIMARY KEY,
			source_type      VARCHAR(32) NOT NULL,
			source_name      VARCHAR(128) NOT NULL,
			external_id      TEXT NOT NULL,
			url              TEXT NOT NULL,
			title            TEXT NOT NULL,
			content          TEXT,
			author           VARCHAR(256),
			published_at     TIMESTAMPTZ NOT NULL,
			collected_at     TIMESTAMPTZ NOT NULL,
			processed_at     TIMESTAMPTZ NOT NULL,
			search_phrase    VARCHAR(256) NOT NULL,
			raw_storage_path TEXT NOT NULL,
			sentiment        VARCHAR(32) NOT NULL,
			sentiment_score  FLOAT NOT NULL,
			summary          TEXT,
			key_points       TEXT[] NOT NULL DEFAULT '{}',
			analysis         JSONB NOT NULL DEFAULT '{}',
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_processed_items_search_phrase ON processed_items(search_phrase)`,
		`CREATE INDEX IF NOT EXISTS idx_processed_items_published_at ON processed_items(published_at)`,
		`CREATE INDEX IF NOT EXISTS idx_processed_items_sentiment ON processed_items(sentiment)`,
		`CREATE INDEX IF NOT EXISTS idx_processed_items_source_type ON processed_items(source_type)`,

		`CREATE TABLE IF NOT EXISTS themes (
			id         SERIAL PRIMARY KEY,
			item_id    VARCHAR(64) NOT NULL REFERENCES processed_items(id) ON DELETE CASCADE,
			name       VARCHAR(128) NOT NULL,
			confidence FLOAT NOT NULL,
			keywords   TEXT[] NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_themes_item_id ON themes(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_themes_name ON themes(name)`,

		`CREATE TABLE IF NOT EXISTS entities (
			id         SERIAL PRIMARY KEY,
			item_id    VARCHAR(64) NOT NULL REFERENCES processed_items(id) ON DELETE CASCADE,
			name       VARCHAR(256) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_item_id ON entities(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
