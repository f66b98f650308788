package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements are idempotent DDL for the recommendation core's tables.
// The vector extension is required for the user_preferences embedding column.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,

	`CREATE TABLE IF NOT EXISTS ratings (
		user_id     TEXT        NOT NULL,
		item_id     BIGINT      NOT NULL,
		item_title  TEXT        NOT NULL,
		item_year   INT         NOT NULL DEFAULT 0,
		value       TEXT        NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, item_id)
	)`,

	`CREATE TABLE IF NOT EXISTS catalog_items (
		id             BIGINT      PRIMARY KEY,
		title          TEXT        NOT NULL,
		original_title TEXT        NOT NULL DEFAULT '',
		overview       TEXT        NOT NULL DEFAULT '',
		poster_path    TEXT        NOT NULL DEFAULT '',
		backdrop_path  TEXT        NOT NULL DEFAULT '',
		release_date   TEXT        NOT NULL DEFAULT '',
		year           INT         NOT NULL DEFAULT 0,
		vote_average   DOUBLE PRECISION NOT NULL DEFAULT 0,
		vote_count     INT         NOT NULL DEFAULT 0,
		popularity     DOUBLE PRECISION NOT NULL DEFAULT 0,
		language       TEXT        NOT NULL DEFAULT '',
		genres         TEXT[]      NOT NULL DEFAULT '{}',
		runtime        INT         NOT NULL DEFAULT 0,
		tagline        TEXT        NOT NULL DEFAULT '',
		critic_rating  DOUBLE PRECISION,
		voter_count    INT,
		review_summary TEXT,
		budget         BIGINT,
		box_office     BIGINT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS recommendation_batches (
		id              UUID        PRIMARY KEY,
		user_id         TEXT        NOT NULL,
		generated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		requested_count INT         NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS recommendation_records (
		id               UUID        PRIMARY KEY,
		user_id          TEXT        NOT NULL,
		item_id          BIGINT      NOT NULL REFERENCES catalog_items(id),
		batch_id         UUID        NOT NULL REFERENCES recommendation_batches(id),
		position         INT         NOT NULL,
		reason           TEXT        NOT NULL DEFAULT '',
		match_percentage INT         NOT NULL DEFAULT 0,
		shown            BOOLEAN     NOT NULL DEFAULT false,
		rated            BOOLEAN     NOT NULL DEFAULT false,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_recommendation_records_user_unshown
		ON recommendation_records (user_id) WHERE NOT shown`,

	`CREATE TABLE IF NOT EXISTS user_preferences (
		id         UUID         PRIMARY KEY,
		user_id    TEXT         NOT NULL,
		type       TEXT         NOT NULL,
		value      TEXT         NOT NULL,
		strength   DOUBLE PRECISION NOT NULL DEFAULT 0.5,
		embedding  vector(1536),
		created_at TIMESTAMPTZ  NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ  NOT NULL DEFAULT now(),
		UNIQUE (user_id, type, value)
	)`,
}

// EnsureSchema creates the tables and indexes the core needs. Safe to run on
// every startup.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
