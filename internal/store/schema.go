package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/johanneskirmayr/CarMem/internal/embedding"
)

// Migrate creates the preferences table and its vector index if they do not
// exist yet.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS preferences (
			pk              TEXT PRIMARY KEY,
			user_name       TEXT NOT NULL,
			main_category   TEXT NOT NULL,
			subcategory     TEXT NOT NULL,
			detail_category TEXT NOT NULL,
			attribute       TEXT NOT NULL,
			text            TEXT NOT NULL,
			embedding       vector(%d),
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, embedding.Dimension),
		`CREATE INDEX IF NOT EXISTS idx_preferences_bucket
			ON preferences (user_name, main_category, subcategory, detail_category)`,
		`CREATE INDEX IF NOT EXISTS idx_preferences_embedding
			ON preferences USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate preferences: %w", err)
		}
	}
	return nil
}
