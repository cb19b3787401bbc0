package store

import (
	"context"
	"errors"
	"time"
)

// ContentKind discriminates reaction targets.
type ContentKind string

const (
	KindThread  ContentKind = "thread"
	KindComment ContentKind = "comment"
)

// Reaction is the per-(user, content) toggle state. Absent vote rows mean
// ReactionNone; stored rows are always ReactionLike or ReactionDislike.
type Reaction int16

const (
	ReactionNone    Reaction = 0
	ReactionLike    Reaction = 1
	ReactionDislike Reaction = -1
)

// DeletedAuthor replaces the author id on soft-deleted comments.
const DeletedAuthor int64 = 0

// Thread is a top-level post inside a category.
type Thread struct {
	ID         int64     `json:"id"`
	AuthorID   int64     `json:"author_id"`
	CategoryID int64     `json:"category_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Likes      int       `json:"likes"`
	Dislikes   int       `json:"dislikes"`
	Replies    []int64   `json:"replies"`
	CreatedAt  time.Time `json:"created_at"`
}

// Comment is a node in a thread's reply tree. Replies holds direct child ids
// in insertion order; the parent is whichever thread or comment lists this id.
type Comment struct {
	ID        int64     `json:"id"`
	ThreadID  int64     `json:"thread_id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	Likes     int       `json:"likes"`
	Dislikes  int       `json:"dislikes"`
	Replies   []int64   `json:"replies"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
}

// ReactionResult reports the state after a toggle so callers can render
// without a second read.
type ReactionResult struct {
	Kind      ContentKind `json:"kind"`
	ContentID int64       `json:"content_id"`
	State     Reaction    `json:"state"`
	Likes     int         `json:"likes"`
	Dislikes  int         `json:"dislikes"`
}

// CategorySample is a front-page slice: a category with up to
// SampleThreadsPerCategory of its newest threads.
type CategorySample struct {
	Category Category `json:"category"`
	Threads  []Thread `json:"threads"`
}

// SampleThreadsPerCategory caps the per-category thread count in SampleThreads.
const SampleThreadsPerCategory = 3

// Sentinel errors shared by all store implementations.
var (
	ErrNotFound         = errors.New("content not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrForbidden        = errors.New("not the author")
	ErrContentDeleted   = errors.New("content is deleted")
	ErrAlreadyDeleted   = errors.New("content already deleted")
	ErrInvalidReaction  = errors.New("reaction must be like or dislike")
)

// UserDirectory is the slice of the identity store the content engine needs.
type UserDirectory interface {
	UserExists(ctx context.Context, id int64) (bool, error)
}

// CategoryIndex is the slice of the category store the content engine needs.
type CategoryIndex interface {
	CategoryExists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]Category, error)
}

// ContentStore owns threads, comments, their reply adjacency and the
// like/dislike toggle state.
type ContentStore interface {
	CreateThread(ctx context.Context, authorID, categoryID int64, title, content string) (Thread, error)
	GetThread(ctx context.Context, id int64) (Thread, error)
	EditThread(ctx context.Context, id int64, title, content string, editorID int64) (Thread, error)
	// DeleteThread soft-deletes the full reply subtree, then removes the
	// thread record. Author only. Atomic.
	DeleteThread(ctx context.Context, id, userID int64) error

	ReplyToThread(ctx context.Context, authorID, threadID int64, content string) (Comment, error)
	ReplyToComment(ctx context.Context, authorID, parentID int64, content string) (Comment, error)
	GetComment(ctx context.Context, id int64) (Comment, error)
	EditComment(ctx context.Context, id int64, content string, userID int64) (Comment, error)
	// DeleteComment soft-deletes a single comment, keeping its children
	// attached. Deleting twice returns ErrAlreadyDeleted.
	DeleteComment(ctx context.Context, id, userID int64) error

	// React applies the three-state like/dislike toggle: repeating the
	// current reaction clears it, the opposite reaction replaces it.
	React(ctx context.Context, kind ContentKind, id, userID int64, reaction Reaction) (ReactionResult, error)

	ThreadsByCategory(ctx context.Context, categoryID int64) ([]Thread, error)
	ThreadsByAuthor(ctx context.Context, authorID int64) ([]Thread, error)
	LikedThreads(ctx context.Context, userID int64) ([]Thread, error)
	CommentsByAuthor(ctx context.Context, authorID int64) ([]Comment, error)
	LikedComments(ctx context.Context, userID int64) ([]Comment, error)
	SampleThreads(ctx context.Context) ([]CategorySample, error)
	ThreadReplies(ctx context.Context, threadID int64) ([]Comment, error)
	CommentReplies(ctx context.Context, commentID int64) ([]Comment, error)
}
