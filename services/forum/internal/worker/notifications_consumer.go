package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/forum-platform/internal/platform/events"
	"github.com/example/forum-platform/services/forum/internal/store"
)

const (
	durableName = "forum_notifications"
	fetchBatch  = 100
	fetchWait   = 2 * time.Second
)

// StartNotificationsConsumer pulls forum.* events from JetStream and
// materializes Notification records for the affected content authors.
// It returns when ctx is cancelled or the subscription cannot be set up.
func StartNotificationsConsumer(ctx context.Context, nc *nats.Conn, cs store.ContentStore, ns store.NotificationStore, log *zap.Logger) {
	js, err := nc.JetStream()
	if err != nil {
		log.Error("notifications consumer: jetstream", zap.Error(err))
		return
	}

	sub, err := js.PullSubscribe("forum.>", durableName)
	if err != nil {
		log.Error("notifications consumer: subscribe", zap.Error(err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := sub.Fetch(fetchBatch, nats.MaxWait(fetchWait))
		if err != nil {
			if err == nats.ErrTimeout || err == context.DeadlineExceeded {
				continue
			}
			log.Warn("notifications consumer: fetch", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, m := range msgs {
			if err := handleMessage(ctx, m, cs, ns); err != nil {
				log.Warn("notifications consumer: handle", zap.String("subject", m.Subject), zap.Error(err))
				if err := m.Nak(); err != nil {
					log.Warn("notifications consumer: nak", zap.Error(err))
				}
				continue
			}
			if err := m.Ack(); err != nil {
				log.Warn("notifications consumer: ack", zap.Error(err))
			}
		}
	}
}

func handleMessage(ctx context.Context, m *nats.Msg, cs store.ContentStore, ns store.NotificationStore) error {
	var ev events.Event
	if err := json.Unmarshal(m.Data, &ev); err != nil {
		// Malformed payloads are dropped, not retried.
		return nil
	}

	switch m.Subject {
	case events.SubjectCommentCreated:
		return notifyReply(ctx, ev, cs, ns)
	case events.SubjectContentReacted:
		return notifyReaction(ctx, ev, cs, ns)
	default:
		return nil
	}
}

// notifyReply tells the parent's author (or the thread's author for top-level
// comments) about a new reply.
func notifyReply(ctx context.Context, ev events.Event, cs store.ContentStore, ns store.NotificationStore) error {
	commentID := propInt64(ev.Properties, "comment_id")
	threadID := propInt64(ev.Properties, "thread_id")
	parentID := propInt64(ev.Properties, "parent_id")

	var recipient int64
	if parentID > 0 {
		parent, err := cs.GetComment(ctx, parentID)
		if err != nil {
			return nil // parent vanished, nothing to notify
		}
		recipient = parent.AuthorID
	} else {
		th, err := cs.GetThread(ctx, threadID)
		if err != nil {
			return nil
		}
		recipient = th.AuthorID
	}

	if recipient == ev.ActorID || recipient == store.DeletedAuthor {
		return nil
	}

	_, err := ns.Add(ctx, store.Notification{
		UserID:    recipient,
		ActorID:   ev.ActorID,
		Kind:      store.NotificationReply,
		ThreadID:  threadID,
		CommentID: commentID,
	})
	return err
}

// notifyReaction tells the content author about a like or dislike. A toggle
// back to neutral produces no notification.
func notifyReaction(ctx context.Context, ev events.Event, cs store.ContentStore, ns store.NotificationStore) error {
	if propInt64(ev.Properties, "state") == 0 {
		return nil
	}
	contentID := propInt64(ev.Properties, "content_id")
	kind, _ := ev.Properties["kind"].(string)

	n := store.Notification{ActorID: ev.ActorID, Kind: store.NotificationReaction}
	switch store.ContentKind(kind) {
	case store.KindThread:
		th, err := cs.GetThread(ctx, contentID)
		if err != nil {
			return nil
		}
		n.UserID = th.AuthorID
		n.ThreadID = th.ID
	case store.KindComment:
		c, err := cs.GetComment(ctx, contentID)
		if err != nil {
			return nil
		}
		n.UserID = c.AuthorID
		n.ThreadID = c.ThreadID
		n.CommentID = c.ID
	default:
		return nil
	}

	if n.UserID == ev.ActorID || n.UserID == store.DeletedAuthor {
		return nil
	}

	_, err := ns.Add(ctx, n)
	return err
}

// propInt64 reads a numeric event property. JSON numbers decode as float64.
func propInt64(props map[string]any, key string) int64 {
	switch v := props[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}
