package store

import (
	"context"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) (*MemoryContentStore, int64, int64) {
	t.Helper()
	users := NewMemoryUserStore()
	cats := NewMemoryCategoryStore()
	ctx := context.Background()

	a, err := users.Create(ctx, CreateUserParams{Email: "alice@example.com", Username: "alice", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	b, err := users.Create(ctx, CreateUserParams{Email: "bob@example.com", Username: "bob", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewMemoryContentStore(users, cats), a.ID, b.ID
}

// verifyCounters recomputes both counters from vote membership and compares
// them with the stored records. Run after every toggle sequence.
func verifyCounters(t *testing.T, s *MemoryContentStore) {
	t.Helper()
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, th := range s.threads {
		likes, dislikes := countVotes(s.threadVotes[id])
		if th.Likes != likes || th.Dislikes != dislikes {
			t.Fatalf("thread %d counters (%d,%d) diverge from votes (%d,%d)",
				id, th.Likes, th.Dislikes, likes, dislikes)
		}
	}
	for id, c := range s.comments {
		likes, dislikes := countVotes(s.commentVotes[id])
		if c.Likes != likes || c.Dislikes != dislikes {
			t.Fatalf("comment %d counters (%d,%d) diverge from votes (%d,%d)",
				id, c.Likes, c.Dislikes, likes, dislikes)
		}
	}
}

func TestCreateThread(t *testing.T) {
	s, alice, _ := newTestStore(t)
	ctx := context.Background()

	th, err := s.CreateThread(ctx, alice, 1, "hello", "first post")
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	if th.ID == 0 {
		t.Fatal("expected non-zero thread id")
	}
	if th.Likes != 0 || th.Dislikes != 0 {
		t.Fatalf("expected zero counters, got %d/%d", th.Likes, th.Dislikes)
	}
	if len(th.Replies) != 0 {
		t.Fatalf("expected no replies, got %d", len(th.Replies))
	}
}

func TestCreateThread_UnknownCategory(t *testing.T) {
	s, alice, _ := newTestStore(t)

	_, err := s.CreateThread(context.Background(), alice, 999, "hello", "body")
	if err != ErrCategoryNotFound {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestThreadIDsMonotonic(t *testing.T) {
	s, alice, _ := newTestStore(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		th, err := s.CreateThread(ctx, alice, 1, "t", "b")
		if err != nil {
			t.Fatalf("create thread: %v", err)
		}
		if th.ID <= last {
			t.Fatalf("expected monotonically increasing ids, got %d after %d", th.ID, last)
		}
		last = th.ID
	}
}

// ─── toggle state machine ───────────────────────────────────────────────────

func TestReact_LikeThenUnlike(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")

	res, err := s.React(ctx, KindThread, th.ID, bob, ReactionLike)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if res.State != ReactionLike || res.Likes != 1 || res.Dislikes != 0 {
		t.Fatalf("after like: state=%d likes=%d dislikes=%d", res.State, res.Likes, res.Dislikes)
	}
	verifyCounters(t, s)

	// Same reaction again toggles back to neutral: net zero.
	res, err = s.React(ctx, KindThread, th.ID, bob, ReactionLike)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if res.State != ReactionNone || res.Likes != 0 || res.Dislikes != 0 {
		t.Fatalf("after unlike: state=%d likes=%d dislikes=%d", res.State, res.Likes, res.Dislikes)
	}
	verifyCounters(t, s)
}

func TestReact_CrossToggleClearsOpposite(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")

	if _, err := s.React(ctx, KindThread, th.ID, bob, ReactionDislike); err != nil {
		t.Fatalf("dislike: %v", err)
	}
	res, err := s.React(ctx, KindThread, th.ID, bob, ReactionLike)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if res.State != ReactionLike || res.Likes != 1 || res.Dislikes != 0 {
		t.Fatalf("after cross toggle: state=%d likes=%d dislikes=%d", res.State, res.Likes, res.Dislikes)
	}
	verifyCounters(t, s)

	liked, err := s.LikedThreads(ctx, bob)
	if err != nil {
		t.Fatalf("liked threads: %v", err)
	}
	if len(liked) != 1 || liked[0].ID != th.ID {
		t.Fatalf("expected thread %d in liked set, got %v", th.ID, liked)
	}
}

func TestReact_ToggleSequenceInvariant(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")

	seq := []Reaction{
		ReactionLike, ReactionLike, ReactionDislike, ReactionLike,
		ReactionDislike, ReactionDislike, ReactionLike,
	}
	for i, r := range seq {
		if _, err := s.React(ctx, KindThread, th.ID, bob, r); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		verifyCounters(t, s)
	}
	// Sequence ends with bob liking the thread.
	got, _ := s.GetThread(ctx, th.ID)
	if got.Likes != 1 || got.Dislikes != 0 {
		t.Fatalf("expected 1/0 after sequence, got %d/%d", got.Likes, got.Dislikes)
	}
}

func TestReact_TwoUsersIndependent(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")

	if _, err := s.React(ctx, KindThread, th.ID, alice, ReactionLike); err != nil {
		t.Fatalf("alice like: %v", err)
	}
	res, err := s.React(ctx, KindThread, th.ID, bob, ReactionDislike)
	if err != nil {
		t.Fatalf("bob dislike: %v", err)
	}
	if res.Likes != 1 || res.Dislikes != 1 {
		t.Fatalf("expected 1/1, got %d/%d", res.Likes, res.Dislikes)
	}
	verifyCounters(t, s)
}

func TestReact_WorkedExample(t *testing.T) {
	// Thread by A starts 0/0; B likes it (1/0), then B dislikes it (0/1).
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")

	res, _ := s.React(ctx, KindThread, th.ID, bob, ReactionLike)
	if res.Likes != 1 {
		t.Fatalf("expected likes=1, got %d", res.Likes)
	}
	res, _ = s.React(ctx, KindThread, th.ID, bob, ReactionDislike)
	if res.Likes != 0 || res.Dislikes != 1 {
		t.Fatalf("expected 0/1, got %d/%d", res.Likes, res.Dislikes)
	}

	liked, _ := s.LikedThreads(ctx, bob)
	if len(liked) != 0 {
		t.Fatalf("expected empty liked set, got %d entries", len(liked))
	}
	verifyCounters(t, s)
}

func TestReact_UnknownContent(t *testing.T) {
	s, _, bob := newTestStore(t)

	_, err := s.React(context.Background(), KindThread, 404, bob, ReactionLike)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReact_UnknownUser(t *testing.T) {
	s, alice, _ := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")
	_, err := s.React(ctx, KindThread, th.ID, 9999, ReactionLike)
	if err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestReact_DeletedComment(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")
	c, _ := s.ReplyToThread(ctx, alice, th.ID, "hi")
	if err := s.DeleteComment(ctx, c.ID, alice); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err := s.React(ctx, KindComment, c.ID, bob, ReactionLike)
	if err != ErrContentDeleted {
		t.Fatalf("expected ErrContentDeleted, got %v", err)
	}
}

// ─── reply tree ─────────────────────────────────────────────────────────────

func TestReplyToThread(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")
	c, err := s.ReplyToThread(ctx, bob, th.ID, "first reply")
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if c.ThreadID != th.ID {
		t.Fatalf("expected root thread %d, got %d", th.ID, c.ThreadID)
	}

	got, _ := s.GetThread(ctx, th.ID)
	if len(got.Replies) != 1 || got.Replies[0] != c.ID {
		t.Fatalf("expected thread replies [%d], got %v", c.ID, got.Replies)
	}
}

func TestReplyToComment_InheritsRootThread(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")
	c1, _ := s.ReplyToThread(ctx, bob, th.ID, "reply")
	c2, err := s.ReplyToComment(ctx, alice, c1.ID, "nested")
	if err != nil {
		t.Fatalf("nested reply: %v", err)
	}
	if c2.ThreadID != th.ID {
		t.Fatalf("expected nested reply to resolve to thread %d, got %d", th.ID, c2.ThreadID)
	}

	parent, _ := s.GetComment(ctx, c1.ID)
	if len(parent.Replies) != 1 || parent.Replies[0] != c2.ID {
		t.Fatalf("expected parent replies [%d], got %v", c2.ID, parent.Replies)
	}
}

func TestReplyToThread_UnknownThread(t *testing.T) {
	s, _, bob := newTestStore(t)

	_, err := s.ReplyToThread(context.Background(), bob, 404, "hi")
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplyToComment_DeletedParent(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")
	c, _ := s.ReplyToThread(ctx, alice, th.ID, "hi")
	_ = s.DeleteComment(ctx, c.ID, alice)

	_, err := s.ReplyToComment(ctx, bob, c.ID, "too late")
	if err != ErrContentDeleted {
		t.Fatalf("expected ErrContentDeleted, got %v", err)
	}
}

func TestEditComment_AuthorOnly(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")
	c, _ := s.ReplyToThread(ctx, alice, th.ID, "original")

	if _, err := s.EditComment(ctx, c.ID, "hacked", bob); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden for non-author, got %v", err)
	}

	got, err := s.EditComment(ctx, c.ID, "updated", alice)
	if err != nil {
		t.Fatalf("author edit: %v", err)
	}
	if !strings.HasSuffix(got.Content, " (edited)") {
		t.Fatalf("expected edit marker, got %q", got.Content)
	}
}

func TestEditThread_MarkerAndAuthz(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "old title", "body")

	if _, err := s.EditThread(ctx, th.ID, "x", "y", bob); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	got, err := s.EditThread(ctx, th.ID, "new title", "new body", alice)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got.Title != "new title" {
		t.Fatalf("expected title replaced, got %q", got.Title)
	}
	if !strings.Contains(got.Content, "(last edited ") {
		t.Fatalf("expected edit marker, got %q", got.Content)
	}
}

func TestDeleteComment_PreservesChildren(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")
	c1, _ := s.ReplyToThread(ctx, alice, th.ID, "parent")
	c2, _ := s.ReplyToComment(ctx, bob, c1.ID, "child")

	if _, err := s.React(ctx, KindComment, c1.ID, bob, ReactionLike); err != nil {
		t.Fatalf("like: %v", err)
	}
	if err := s.DeleteComment(ctx, c1.ID, alice); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, _ := s.GetComment(ctx, c1.ID)
	if !got.Deleted {
		t.Fatal("expected comment marked deleted")
	}
	if got.Content != "" || got.AuthorID != DeletedAuthor {
		t.Fatalf("expected cleared tombstone, got content=%q author=%d", got.Content, got.AuthorID)
	}
	if got.Likes != 0 || got.Dislikes != 0 {
		t.Fatalf("expected zeroed counters, got %d/%d", got.Likes, got.Dislikes)
	}
	if len(got.Replies) != 1 || got.Replies[0] != c2.ID {
		t.Fatalf("expected child %d still attached, got %v", c2.ID, got.Replies)
	}

	child, err := s.GetComment(ctx, c2.ID)
	if err != nil {
		t.Fatalf("child lookup: %v", err)
	}
	if child.Deleted {
		t.Fatal("child must survive parent deletion")
	}
	verifyCounters(t, s)
}

func TestDeleteComment_TwiceIsDistinctError(t *testing.T) {
	s, alice, _ := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")
	c, _ := s.ReplyToThread(ctx, alice, th.ID, "hi")

	if err := s.DeleteComment(ctx, c.ID, alice); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := s.DeleteComment(ctx, c.ID, alice); err != ErrAlreadyDeleted {
		t.Fatalf("expected ErrAlreadyDeleted on second delete, got %v", err)
	}
	if err := s.DeleteComment(ctx, 404, alice); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestDeleteComment_AuthorOnly(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")
	c, _ := s.ReplyToThread(ctx, alice, th.ID, "hi")

	if err := s.DeleteComment(ctx, c.ID, bob); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDeleteThread_CascadeSoftDeletesSubtree(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	// T ── c1 ── c2
	//        └── c3
	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")
	c1, _ := s.ReplyToThread(ctx, bob, th.ID, "c1")
	c2, _ := s.ReplyToComment(ctx, alice, c1.ID, "c2")
	c3, _ := s.ReplyToComment(ctx, bob, c1.ID, "c3")

	if _, err := s.React(ctx, KindComment, c2.ID, alice, ReactionLike); err != nil {
		t.Fatalf("like: %v", err)
	}

	if err := s.DeleteThread(ctx, th.ID, bob); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden for non-author, got %v", err)
	}
	if err := s.DeleteThread(ctx, th.ID, alice); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}

	if _, err := s.GetThread(ctx, th.ID); err != ErrNotFound {
		t.Fatalf("expected thread gone, got %v", err)
	}
	for _, id := range []int64{c1.ID, c2.ID, c3.ID} {
		c, err := s.GetComment(ctx, id)
		if err != nil {
			t.Fatalf("comment %d lookup: %v", id, err)
		}
		if !c.Deleted || c.Content != "" {
			t.Fatalf("comment %d: expected soft-deleted tombstone, got %+v", id, c)
		}
	}
	verifyCounters(t, s)
}

func TestDeleteThread_CascadeCrossesDeletedNodes(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")
	c1, _ := s.ReplyToThread(ctx, bob, th.ID, "c1")
	c2, _ := s.ReplyToComment(ctx, bob, c1.ID, "c2")

	// c1 is already a tombstone; its child must still be reached.
	if err := s.DeleteComment(ctx, c1.ID, bob); err != nil {
		t.Fatalf("delete c1: %v", err)
	}
	if err := s.DeleteThread(ctx, th.ID, alice); err != nil {
		t.Fatalf("cascade: %v", err)
	}

	c, _ := s.GetComment(ctx, c2.ID)
	if !c.Deleted {
		t.Fatal("expected grandchild soft-deleted through a deleted parent")
	}
}

// ─── listings ───────────────────────────────────────────────────────────────

func TestListings(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	t1, _ := s.CreateThread(ctx, alice, 1, "a1", "b")
	t2, _ := s.CreateThread(ctx, bob, 2, "b1", "b")
	c1, _ := s.ReplyToThread(ctx, bob, t1.ID, "hi")
	_, _ = s.React(ctx, KindThread, t2.ID, alice, ReactionLike)
	_, _ = s.React(ctx, KindComment, c1.ID, alice, ReactionLike)

	byAuthor, err := s.ThreadsByAuthor(ctx, alice)
	if err != nil {
		t.Fatalf("threads by author: %v", err)
	}
	if len(byAuthor) != 1 || byAuthor[0].ID != t1.ID {
		t.Fatalf("expected [%d], got %v", t1.ID, byAuthor)
	}

	byCat, err := s.ThreadsByCategory(ctx, 2)
	if err != nil {
		t.Fatalf("threads by category: %v", err)
	}
	if len(byCat) != 1 || byCat[0].ID != t2.ID {
		t.Fatalf("expected [%d], got %v", t2.ID, byCat)
	}

	likedT, _ := s.LikedThreads(ctx, alice)
	if len(likedT) != 1 || likedT[0].ID != t2.ID {
		t.Fatalf("expected liked threads [%d], got %v", t2.ID, likedT)
	}

	likedC, _ := s.LikedComments(ctx, alice)
	if len(likedC) != 1 || likedC[0].ID != c1.ID {
		t.Fatalf("expected liked comments [%d], got %v", c1.ID, likedC)
	}

	comments, _ := s.CommentsByAuthor(ctx, bob)
	if len(comments) != 1 || comments[0].ID != c1.ID {
		t.Fatalf("expected comments [%d], got %v", c1.ID, comments)
	}
}

func TestListings_EmptyIsNotAnError(t *testing.T) {
	s, alice, _ := newTestStore(t)
	ctx := context.Background()

	ts, err := s.ThreadsByCategory(ctx, 1)
	if err != nil {
		t.Fatalf("threads by category: %v", err)
	}
	if ts == nil || len(ts) != 0 {
		t.Fatalf("expected empty slice, got %v", ts)
	}

	if _, err := s.ThreadsByAuthor(ctx, alice); err != nil {
		t.Fatalf("threads by author: %v", err)
	}
	if _, err := s.ThreadsByAuthor(ctx, 9999); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound for unknown author, got %v", err)
	}
	if _, err := s.ThreadsByCategory(ctx, 999); err != ErrCategoryNotFound {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestSampleThreads_CapPerCategory(t *testing.T) {
	s, alice, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.CreateThread(ctx, alice, 1, "t", "b"); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	_, _ = s.CreateThread(ctx, alice, 2, "t", "b")

	samples, err := s.SampleThreads(ctx)
	if err != nil {
		t.Fatalf("samples: %v", err)
	}
	if len(samples) != 3 { // seeded categories
		t.Fatalf("expected 3 categories, got %d", len(samples))
	}
	if got := len(samples[0].Threads); got != SampleThreadsPerCategory {
		t.Fatalf("expected cap of %d, got %d", SampleThreadsPerCategory, got)
	}
	if got := len(samples[1].Threads); got != 1 {
		t.Fatalf("expected 1 thread in second category, got %d", got)
	}
}

func TestThreadReplies_OneLevelOnly(t *testing.T) {
	s, alice, bob := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")
	c1, _ := s.ReplyToThread(ctx, bob, th.ID, "top")
	c2, _ := s.ReplyToComment(ctx, alice, c1.ID, "nested")

	top, err := s.ThreadReplies(ctx, th.ID)
	if err != nil {
		t.Fatalf("thread replies: %v", err)
	}
	if len(top) != 1 || top[0].ID != c1.ID {
		t.Fatalf("expected one top-level reply %d, got %v", c1.ID, top)
	}

	children, err := s.CommentReplies(ctx, c1.ID)
	if err != nil {
		t.Fatalf("comment replies: %v", err)
	}
	if len(children) != 1 || children[0].ID != c2.ID {
		t.Fatalf("expected child %d, got %v", c2.ID, children)
	}
}

func TestThreadReplies_IncludesTombstones(t *testing.T) {
	s, alice, _ := newTestStore(t)
	ctx := context.Background()

	th, _ := s.CreateThread(ctx, alice, 1, "t", "b")
	c, _ := s.ReplyToThread(ctx, alice, th.ID, "hi")
	_ = s.DeleteComment(ctx, c.ID, alice)

	top, _ := s.ThreadReplies(ctx, th.ID)
	if len(top) != 1 || !top[0].Deleted {
		t.Fatalf("expected tombstone in reply listing, got %v", top)
	}
}

func TestStoreInterfaces(t *testing.T) {
	var _ ContentStore = (*MemoryContentStore)(nil)
	var _ ContentStore = (*PostgresContentStore)(nil)
	var _ UserStore = (*MemoryUserStore)(nil)
	var _ UserStore = (*PostgresUserStore)(nil)
	var _ CategoryStore = (*MemoryCategoryStore)(nil)
	var _ CategoryStore = (*PostgresCategoryStore)(nil)
	var _ NotificationStore = (*MemoryNotificationStore)(nil)
	var _ NotificationStore = (*PostgresNotificationStore)(nil)
}
