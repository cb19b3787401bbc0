package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresNotificationStore persists notifications in Postgres.
type PostgresNotificationStore struct {
	pool *pgxpool.Pool
}

func NewPostgresNotificationStore(pool *pgxpool.Pool) *PostgresNotificationStore {
	return &PostgresNotificationStore{pool: pool}
}

func (s *PostgresNotificationStore) Add(ctx context.Context, n Notification) (Notification, error) {
	const q = `INSERT INTO notifications (user_id, actor_id, kind, thread_id, comment_id)
	           VALUES ($1, $2, $3, $4, NULLIF($5, 0))
	           RETURNING id, user_id, actor_id, kind, thread_id, COALESCE(comment_id, 0), read, created_at`
	var out Notification
	err := s.pool.QueryRow(ctx, q, n.UserID, n.ActorID, n.Kind, n.ThreadID, n.CommentID).
		Scan(&out.ID, &out.UserID, &out.ActorID, &out.Kind, &out.ThreadID, &out.CommentID, &out.Read, &out.CreatedAt)
	return out, err
}

func (s *PostgresNotificationStore) ListByUser(ctx context.Context, userID int64) ([]Notification, error) {
	const q = `SELECT id, user_id, actor_id, kind, thread_id, COALESCE(comment_id, 0), read, created_at
	           FROM notifications
	           WHERE user_id = $1
	           ORDER BY id DESC`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.ActorID, &n.Kind, &n.ThreadID, &n.CommentID, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresNotificationStore) MarkRead(ctx context.Context, id, userID int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
