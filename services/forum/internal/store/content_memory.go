package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryContentStore is the in-memory ContentStore used when Postgres is not
// configured. One mutex guards the whole store, so every operation (including
// cascade delete and reaction toggles) is atomic.
type MemoryContentStore struct {
	mu         sync.RWMutex
	users      UserDirectory
	categories CategoryIndex

	nextThreadID  int64
	nextCommentID int64
	threads       map[int64]Thread
	comments      map[int64]Comment

	threadVotes  map[int64]map[int64]Reaction // threadID -> userID -> reaction
	commentVotes map[int64]map[int64]Reaction
}

func NewMemoryContentStore(users UserDirectory, categories CategoryIndex) *MemoryContentStore {
	return &MemoryContentStore{
		users:        users,
		categories:   categories,
		threads:      make(map[int64]Thread),
		comments:     make(map[int64]Comment),
		threadVotes:  make(map[int64]map[int64]Reaction),
		commentVotes: make(map[int64]map[int64]Reaction),
	}
}

func cloneThread(t Thread) Thread {
	t.Replies = append([]int64(nil), t.Replies...)
	return t
}

func cloneComment(c Comment) Comment {
	c.Replies = append([]int64(nil), c.Replies...)
	return c
}

func (s *MemoryContentStore) CreateThread(ctx context.Context, authorID, categoryID int64, title, content string) (Thread, error) {
	ok, err := s.categories.CategoryExists(ctx, categoryID)
	if err != nil {
		return Thread{}, err
	}
	if !ok {
		return Thread{}, ErrCategoryNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextThreadID++
	t := Thread{
		ID:         s.nextThreadID,
		AuthorID:   authorID,
		CategoryID: categoryID,
		Title:      title,
		Content:    content,
		Replies:    []int64{},
		CreatedAt:  time.Now().UTC(),
	}
	s.threads[t.ID] = t
	return cloneThread(t), nil
}

func (s *MemoryContentStore) GetThread(_ context.Context, id int64) (Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.threads[id]
	if !ok {
		return Thread{}, ErrNotFound
	}
	return cloneThread(t), nil
}

func (s *MemoryContentStore) EditThread(_ context.Context, id int64, title, content string, editorID int64) (Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[id]
	if !ok {
		return Thread{}, ErrNotFound
	}
	if t.AuthorID != editorID {
		return Thread{}, ErrForbidden
	}
	t.Title = title
	t.Content = fmt.Sprintf("%s (last edited %s)", content, time.Now().UTC().Format(time.RFC3339))
	s.threads[id] = t
	return cloneThread(t), nil
}

func (s *MemoryContentStore) DeleteThread(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[id]
	if !ok {
		return ErrNotFound
	}
	if t.AuthorID != userID {
		return ErrForbidden
	}

	// Depth-first over the reply subtree with an explicit stack: comment
	// trees have no depth bound. Children of already-deleted comments are
	// still live, so traversal never stops early.
	stack := append([]int64(nil), t.Replies...)
	for len(stack) > 0 {
		cid := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c, ok := s.comments[cid]
		if !ok {
			continue
		}
		stack = append(stack, c.Replies...)
		if !c.Deleted {
			s.softDeleteLocked(c)
		}
	}

	delete(s.threadVotes, id)
	delete(s.threads, id)
	return nil
}

// softDeleteLocked tombstones a comment: content cleared, author replaced by
// the sentinel, counters zeroed, vote rows dropped. Replies are kept so the
// tree shape survives. Caller holds the write lock.
func (s *MemoryContentStore) softDeleteLocked(c Comment) {
	c.Deleted = true
	c.Content = ""
	c.AuthorID = DeletedAuthor
	c.Likes = 0
	c.Dislikes = 0
	s.comments[c.ID] = c
	delete(s.commentVotes, c.ID)
}

func (s *MemoryContentStore) ReplyToThread(_ context.Context, authorID, threadID int64, content string) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[threadID]
	if !ok {
		return Comment{}, ErrNotFound
	}

	c := s.newCommentLocked(authorID, threadID, content)
	t.Replies = append(t.Replies, c.ID)
	s.threads[threadID] = t
	return cloneComment(c), nil
}

func (s *MemoryContentStore) ReplyToComment(_ context.Context, authorID, parentID int64, content string) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.comments[parentID]
	if !ok {
		return Comment{}, ErrNotFound
	}
	if parent.Deleted {
		return Comment{}, ErrContentDeleted
	}

	// The new comment resolves back to the parent's root thread, so
	// replies-to-replies still navigate to the original thread.
	c := s.newCommentLocked(authorID, parent.ThreadID, content)
	parent.Replies = append(parent.Replies, c.ID)
	s.comments[parentID] = parent
	return cloneComment(c), nil
}

func (s *MemoryContentStore) newCommentLocked(authorID, threadID int64, content string) Comment {
	s.nextCommentID++
	c := Comment{
		ID:        s.nextCommentID,
		ThreadID:  threadID,
		AuthorID:  authorID,
		Content:   content,
		Replies:   []int64{},
		CreatedAt: time.Now().UTC(),
	}
	s.comments[c.ID] = c
	return c
}

func (s *MemoryContentStore) GetComment(_ context.Context, id int64) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return cloneComment(c), nil
}

func (s *MemoryContentStore) EditComment(_ context.Context, id int64, content string, userID int64) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	if c.Deleted {
		return Comment{}, ErrContentDeleted
	}
	if c.AuthorID != userID {
		return Comment{}, ErrForbidden
	}
	c.Content = content + " (edited)"
	s.comments[id] = c
	return cloneComment(c), nil
}

func (s *MemoryContentStore) DeleteComment(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return ErrNotFound
	}
	if c.Deleted {
		return ErrAlreadyDeleted
	}
	if c.AuthorID != userID {
		return ErrForbidden
	}
	s.softDeleteLocked(c)
	return nil
}

func (s *MemoryContentStore) React(ctx context.Context, kind ContentKind, id, userID int64, reaction Reaction) (ReactionResult, error) {
	if reaction != ReactionLike && reaction != ReactionDislike {
		return ReactionResult{}, ErrInvalidReaction
	}
	ok, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return ReactionResult{}, err
	}
	if !ok {
		return ReactionResult{}, ErrUserNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case KindThread:
		t, ok := s.threads[id]
		if !ok {
			return ReactionResult{}, ErrNotFound
		}
		state := applyVote(s.threadVotes, id, userID, reaction)
		t.Likes, t.Dislikes = countVotes(s.threadVotes[id])
		s.threads[id] = t
		return ReactionResult{Kind: kind, ContentID: id, State: state, Likes: t.Likes, Dislikes: t.Dislikes}, nil
	case KindComment:
		c, ok := s.comments[id]
		if !ok {
			return ReactionResult{}, ErrNotFound
		}
		if c.Deleted {
			return ReactionResult{}, ErrContentDeleted
		}
		state := applyVote(s.commentVotes, id, userID, reaction)
		c.Likes, c.Dislikes = countVotes(s.commentVotes[id])
		s.comments[id] = c
		return ReactionResult{Kind: kind, ContentID: id, State: state, Likes: c.Likes, Dislikes: c.Dislikes}, nil
	default:
		return ReactionResult{}, ErrNotFound
	}
}

// applyVote runs the toggle transition on the vote table and returns the
// resulting state: same reaction again clears it, the opposite replaces it.
func applyVote(votes map[int64]map[int64]Reaction, contentID, userID int64, req Reaction) Reaction {
	byUser := votes[contentID]
	if byUser == nil {
		byUser = make(map[int64]Reaction)
		votes[contentID] = byUser
	}
	if byUser[userID] == req {
		delete(byUser, userID)
		return ReactionNone
	}
	byUser[userID] = req
	return req
}

// countVotes recomputes both counters from vote membership, so the counters
// cannot drift from the per-user sets.
func countVotes(byUser map[int64]Reaction) (likes, dislikes int) {
	for _, v := range byUser {
		switch v {
		case ReactionLike:
			likes++
		case ReactionDislike:
			dislikes++
		}
	}
	return likes, dislikes
}

func (s *MemoryContentStore) ThreadsByCategory(ctx context.Context, categoryID int64) ([]Thread, error) {
	ok, err := s.categories.CategoryExists(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCategoryNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Thread{}
	for _, t := range s.threads {
		if t.CategoryID == categoryID {
			out = append(out, cloneThread(t))
		}
	}
	sortThreadsNewestFirst(out)
	return out, nil
}

func (s *MemoryContentStore) ThreadsByAuthor(ctx context.Context, authorID int64) ([]Thread, error) {
	if err := s.requireUser(ctx, authorID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Thread{}
	for _, t := range s.threads {
		if t.AuthorID == authorID {
			out = append(out, cloneThread(t))
		}
	}
	sortThreadsNewestFirst(out)
	return out, nil
}

func (s *MemoryContentStore) LikedThreads(ctx context.Context, userID int64) ([]Thread, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Thread{}
	for tid, byUser := range s.threadVotes {
		if byUser[userID] != ReactionLike {
			continue
		}
		if t, ok := s.threads[tid]; ok {
			out = append(out, cloneThread(t))
		}
	}
	sortThreadsNewestFirst(out)
	return out, nil
}

func (s *MemoryContentStore) CommentsByAuthor(ctx context.Context, authorID int64) ([]Comment, error) {
	if err := s.requireUser(ctx, authorID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Comment{}
	for _, c := range s.comments {
		// Soft-deleted comments carry the sentinel author and drop out.
		if c.AuthorID == authorID {
			out = append(out, cloneComment(c))
		}
	}
	sortCommentsNewestFirst(out)
	return out, nil
}

func (s *MemoryContentStore) LikedComments(ctx context.Context, userID int64) ([]Comment, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Comment{}
	for cid, byUser := range s.commentVotes {
		if byUser[userID] != ReactionLike {
			continue
		}
		if c, ok := s.comments[cid]; ok {
			out = append(out, cloneComment(c))
		}
	}
	sortCommentsNewestFirst(out)
	return out, nil
}

func (s *MemoryContentStore) SampleThreads(ctx context.Context) ([]CategorySample, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CategorySample, 0, len(cats))
	for _, cat := range cats {
		sample := CategorySample{Category: cat, Threads: []Thread{}}
		for _, t := range s.threads {
			if t.CategoryID == cat.ID {
				sample.Threads = append(sample.Threads, cloneThread(t))
			}
		}
		sortThreadsNewestFirst(sample.Threads)
		if len(sample.Threads) > SampleThreadsPerCategory {
			sample.Threads = sample.Threads[:SampleThreadsPerCategory]
		}
		out = append(out, sample)
	}
	return out, nil
}

func (s *MemoryContentStore) ThreadReplies(_ context.Context, threadID int64) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.threads[threadID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.collectLocked(t.Replies), nil
}

func (s *MemoryContentStore) CommentReplies(_ context.Context, commentID int64) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[commentID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.collectLocked(c.Replies), nil
}

// collectLocked resolves a reply id list to comments, keeping insertion
// order. Soft-deleted children are included as tombstones.
func (s *MemoryContentStore) collectLocked(ids []int64) []Comment {
	out := make([]Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			out = append(out, cloneComment(c))
		}
	}
	return out
}

func (s *MemoryContentStore) requireUser(ctx context.Context, id int64) error {
	ok, err := s.users.UserExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

func sortThreadsNewestFirst(ts []Thread) {
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].CreatedAt.Equal(ts[j].CreatedAt) {
			return ts[i].CreatedAt.After(ts[j].CreatedAt)
		}
		return ts[i].ID > ts[j].ID
	})
}

func sortCommentsNewestFirst(cs []Comment) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.After(cs[j].CreatedAt)
		}
		return cs[i].ID > cs[j].ID
	})
}
