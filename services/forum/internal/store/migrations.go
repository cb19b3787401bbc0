package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the forum schema if it does not exist yet. Statements are
// idempotent, so running at every startup is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			username      TEXT NOT NULL UNIQUE,
			role          TEXT NOT NULL DEFAULT 'user',
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id          BIGSERIAL PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS threads (
			id          BIGSERIAL PRIMARY KEY,
			author_id   BIGINT NOT NULL,
			category_id BIGINT NOT NULL REFERENCES categories(id),
			title       TEXT NOT NULL,
			content     TEXT NOT NULL,
			likes       INT NOT NULL DEFAULT 0,
			dislikes    INT NOT NULL DEFAULT 0,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id         BIGSERIAL PRIMARY KEY,
			thread_id  BIGINT NOT NULL,
			parent_id  BIGINT,
			author_id  BIGINT NOT NULL,
			content    TEXT NOT NULL,
			likes      INT NOT NULL DEFAULT 0,
			dislikes   INT NOT NULL DEFAULT 0,
			deleted    BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_thread ON comments (thread_id)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments (parent_id)`,
		`CREATE TABLE IF NOT EXISTS thread_votes (
			thread_id BIGINT NOT NULL,
			user_id   BIGINT NOT NULL,
			vote      SMALLINT NOT NULL,
			PRIMARY KEY (thread_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS comment_votes (
			comment_id BIGINT NOT NULL,
			user_id    BIGINT NOT NULL,
			vote       SMALLINT NOT NULL,
			PRIMARY KEY (comment_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id         BIGSERIAL PRIMARY KEY,
			user_id    BIGINT NOT NULL,
			actor_id   BIGINT NOT NULL,
			kind       TEXT NOT NULL,
			thread_id  BIGINT NOT NULL,
			comment_id BIGINT,
			read       BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
