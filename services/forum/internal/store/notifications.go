package store

import (
	"context"
	"time"
)

// NotificationKind distinguishes what triggered a notification.
type NotificationKind string

const (
	NotificationReply    NotificationKind = "reply"
	NotificationReaction NotificationKind = "reaction"
)

// Notification tells a user that someone replied to or reacted to their
// content. Materialized by the events consumer, not by request handlers.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	ActorID   int64            `json:"actor_id"`
	Kind      NotificationKind `json:"kind"`
	ThreadID  int64            `json:"thread_id"`
	CommentID int64            `json:"comment_id,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

type NotificationStore interface {
	Add(ctx context.Context, n Notification) (Notification, error)
	ListByUser(ctx context.Context, userID int64) ([]Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
}
