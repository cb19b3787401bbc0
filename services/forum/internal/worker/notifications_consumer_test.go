package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/example/forum-platform/internal/platform/events"
	"github.com/example/forum-platform/services/forum/internal/store"
)

func newFixture(t *testing.T) (store.ContentStore, *store.MemoryNotificationStore, int64, int64) {
	t.Helper()
	users := store.NewMemoryUserStore()
	cats := store.NewMemoryCategoryStore()
	ctx := context.Background()

	a, err := users.Create(ctx, store.CreateUserParams{Email: "a@example.com", Username: "alice", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	b, err := users.Create(ctx, store.CreateUserParams{Email: "b@example.com", Username: "bob", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return store.NewMemoryContentStore(users, cats), store.NewMemoryNotificationStore(), a.ID, b.ID
}

func eventMsg(t *testing.T, subject string, actorID int64, props map[string]any) *nats.Msg {
	t.Helper()
	data, err := json.Marshal(events.Event{EventName: subject, ActorID: actorID, Properties: props})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return &nats.Msg{Subject: subject, Data: data}
}

func TestCommentCreatedNotifiesThreadAuthor(t *testing.T) {
	cs, ns, alice, bob := newFixture(t)
	ctx := context.Background()

	th, _ := cs.CreateThread(ctx, alice, 1, "t", "b")
	c, _ := cs.ReplyToThread(ctx, bob, th.ID, "hi")

	msg := eventMsg(t, events.SubjectCommentCreated, bob, map[string]any{
		"comment_id": float64(c.ID),
		"thread_id":  float64(th.ID),
	})
	if err := handleMessage(ctx, msg, cs, ns); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got, _ := ns.ListByUser(ctx, alice)
	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if got[0].Kind != store.NotificationReply || got[0].ActorID != bob || got[0].CommentID != c.ID {
		t.Fatalf("unexpected notification: %+v", got[0])
	}
}

func TestCommentCreatedSkipsSelfReply(t *testing.T) {
	cs, ns, alice, _ := newFixture(t)
	ctx := context.Background()

	th, _ := cs.CreateThread(ctx, alice, 1, "t", "b")
	c, _ := cs.ReplyToThread(ctx, alice, th.ID, "note to self")

	msg := eventMsg(t, events.SubjectCommentCreated, alice, map[string]any{
		"comment_id": float64(c.ID),
		"thread_id":  float64(th.ID),
	})
	if err := handleMessage(ctx, msg, cs, ns); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if got, _ := ns.ListByUser(ctx, alice); len(got) != 0 {
		t.Fatalf("expected no self-notification, got %d", len(got))
	}
}

func TestNestedReplyNotifiesParentAuthor(t *testing.T) {
	cs, ns, alice, bob := newFixture(t)
	ctx := context.Background()

	th, _ := cs.CreateThread(ctx, alice, 1, "t", "b")
	c1, _ := cs.ReplyToThread(ctx, bob, th.ID, "top")
	c2, _ := cs.ReplyToComment(ctx, alice, c1.ID, "nested")

	msg := eventMsg(t, events.SubjectCommentCreated, alice, map[string]any{
		"comment_id": float64(c2.ID),
		"thread_id":  float64(th.ID),
		"parent_id":  float64(c1.ID),
	})
	if err := handleMessage(ctx, msg, cs, ns); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got, _ := ns.ListByUser(ctx, bob)
	if len(got) != 1 || got[0].Kind != store.NotificationReply {
		t.Fatalf("expected reply notification for parent author, got %+v", got)
	}
}

func TestReactionNotifiesAuthorOnlyWhenSet(t *testing.T) {
	cs, ns, alice, bob := newFixture(t)
	ctx := context.Background()

	th, _ := cs.CreateThread(ctx, alice, 1, "t", "b")

	// Toggle back to neutral produces no notification.
	neutral := eventMsg(t, events.SubjectContentReacted, bob, map[string]any{
		"kind":       string(store.KindThread),
		"content_id": float64(th.ID),
		"state":      float64(0),
	})
	if err := handleMessage(ctx, neutral, cs, ns); err != nil {
		t.Fatalf("handle neutral: %v", err)
	}
	if got, _ := ns.ListByUser(ctx, alice); len(got) != 0 {
		t.Fatalf("expected no notification for neutral state, got %d", len(got))
	}

	liked := eventMsg(t, events.SubjectContentReacted, bob, map[string]any{
		"kind":       string(store.KindThread),
		"content_id": float64(th.ID),
		"state":      float64(1),
	})
	if err := handleMessage(ctx, liked, cs, ns); err != nil {
		t.Fatalf("handle like: %v", err)
	}

	got, _ := ns.ListByUser(ctx, alice)
	if len(got) != 1 || got[0].Kind != store.NotificationReaction || got[0].ThreadID != th.ID {
		t.Fatalf("unexpected notifications: %+v", got)
	}
}

func TestMalformedEventIsDropped(t *testing.T) {
	cs, ns, _, _ := newFixture(t)

	msg := &nats.Msg{Subject: events.SubjectCommentCreated, Data: []byte("{not json")}
	if err := handleMessage(context.Background(), msg, cs, ns); err != nil {
		t.Fatalf("malformed event should not error: %v", err)
	}
}
