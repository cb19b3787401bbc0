package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresContentStore persists threads, comments and votes in Postgres.
// Reply adjacency is stored as parent_id columns; the Replies id lists on
// returned records are filled from child rows.
type PostgresContentStore struct {
	pool       *pgxpool.Pool
	users      UserDirectory
	categories CategoryIndex
}

func NewPostgresContentStore(pool *pgxpool.Pool, users UserDirectory, categories CategoryIndex) *PostgresContentStore {
	return &PostgresContentStore{pool: pool, users: users, categories: categories}
}

const threadColumns = `id, author_id, category_id, title, content, likes, dislikes, created_at`
const commentColumns = `id, thread_id, author_id, content, likes, dislikes, deleted, created_at`

func (s *PostgresContentStore) CreateThread(ctx context.Context, authorID, categoryID int64, title, content string) (Thread, error) {
	ok, err := s.categories.CategoryExists(ctx, categoryID)
	if err != nil {
		return Thread{}, err
	}
	if !ok {
		return Thread{}, ErrCategoryNotFound
	}

	const q = `INSERT INTO threads (author_id, category_id, title, content)
	           VALUES ($1, $2, $3, $4)
	           RETURNING ` + threadColumns
	var t Thread
	err = s.pool.QueryRow(ctx, q, authorID, categoryID, title, content).
		Scan(&t.ID, &t.AuthorID, &t.CategoryID, &t.Title, &t.Content, &t.Likes, &t.Dislikes, &t.CreatedAt)
	if err != nil {
		return Thread{}, err
	}
	t.Replies = []int64{}
	return t, nil
}

func (s *PostgresContentStore) GetThread(ctx context.Context, id int64) (Thread, error) {
	const q = `SELECT ` + threadColumns + ` FROM threads WHERE id = $1`
	var t Thread
	err := s.pool.QueryRow(ctx, q, id).
		Scan(&t.ID, &t.AuthorID, &t.CategoryID, &t.Title, &t.Content, &t.Likes, &t.Dislikes, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Thread{}, ErrNotFound
	}
	if err != nil {
		return Thread{}, err
	}
	ts := []Thread{t}
	if err := s.fillThreadReplies(ctx, ts); err != nil {
		return Thread{}, err
	}
	return ts[0], nil
}

func (s *PostgresContentStore) EditThread(ctx context.Context, id int64, title, content string, editorID int64) (Thread, error) {
	var authorID int64
	err := s.pool.QueryRow(ctx, `SELECT author_id FROM threads WHERE id = $1`, id).Scan(&authorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Thread{}, ErrNotFound
	}
	if err != nil {
		return Thread{}, err
	}
	if authorID != editorID {
		return Thread{}, ErrForbidden
	}

	marked := fmt.Sprintf("%s (last edited %s)", content, time.Now().UTC().Format(time.RFC3339))
	const q = `UPDATE threads SET title = $2, content = $3 WHERE id = $1
	           RETURNING ` + threadColumns
	var t Thread
	err = s.pool.QueryRow(ctx, q, id, title, marked).
		Scan(&t.ID, &t.AuthorID, &t.CategoryID, &t.Title, &t.Content, &t.Likes, &t.Dislikes, &t.CreatedAt)
	if err != nil {
		return Thread{}, err
	}
	ts := []Thread{t}
	if err := s.fillThreadReplies(ctx, ts); err != nil {
		return Thread{}, err
	}
	return ts[0], nil
}

func (s *PostgresContentStore) DeleteThread(ctx context.Context, id, userID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var authorID int64
	err = tx.QueryRow(ctx, `SELECT author_id FROM threads WHERE id = $1 FOR UPDATE`, id).Scan(&authorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if authorID != userID {
		return ErrForbidden
	}

	// The whole cascade commits or rolls back as one unit: no partially
	// unlinked subtrees on failure.
	if _, err := tx.Exec(ctx,
		`DELETE FROM comment_votes WHERE comment_id IN (SELECT id FROM comments WHERE thread_id = $1)`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE comments SET deleted = true, content = '', author_id = $2, likes = 0, dislikes = 0
		 WHERE thread_id = $1 AND deleted = false`, id, DeletedAuthor); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM thread_votes WHERE thread_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM threads WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresContentStore) ReplyToThread(ctx context.Context, authorID, threadID int64, content string) (Comment, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM threads WHERE id = $1)`, threadID).Scan(&exists); err != nil {
		return Comment{}, err
	}
	if !exists {
		return Comment{}, ErrNotFound
	}

	const q = `INSERT INTO comments (thread_id, parent_id, author_id, content)
	           VALUES ($1, NULL, $2, $3)
	           RETURNING ` + commentColumns
	return s.scanComment(s.pool.QueryRow(ctx, q, threadID, authorID, content))
}

func (s *PostgresContentStore) ReplyToComment(ctx context.Context, authorID, parentID int64, content string) (Comment, error) {
	var threadID int64
	var deleted bool
	err := s.pool.QueryRow(ctx, `SELECT thread_id, deleted FROM comments WHERE id = $1`, parentID).Scan(&threadID, &deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	if err != nil {
		return Comment{}, err
	}
	if deleted {
		return Comment{}, ErrContentDeleted
	}

	// thread_id is copied from the parent so nested replies resolve back
	// to the owning thread.
	const q = `INSERT INTO comments (thread_id, parent_id, author_id, content)
	           VALUES ($1, $2, $3, $4)
	           RETURNING ` + commentColumns
	return s.scanComment(s.pool.QueryRow(ctx, q, threadID, parentID, authorID, content))
}

func (s *PostgresContentStore) GetComment(ctx context.Context, id int64) (Comment, error) {
	const q = `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	c, err := s.scanComment(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		return Comment{}, err
	}
	cs := []Comment{c}
	if err := s.fillCommentReplies(ctx, cs); err != nil {
		return Comment{}, err
	}
	return cs[0], nil
}

func (s *PostgresContentStore) EditComment(ctx context.Context, id int64, content string, userID int64) (Comment, error) {
	var authorID int64
	var deleted bool
	err := s.pool.QueryRow(ctx, `SELECT author_id, deleted FROM comments WHERE id = $1`, id).Scan(&authorID, &deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	if err != nil {
		return Comment{}, err
	}
	if deleted {
		return Comment{}, ErrContentDeleted
	}
	if authorID != userID {
		return Comment{}, ErrForbidden
	}

	const q = `UPDATE comments SET content = $2 WHERE id = $1
	           RETURNING ` + commentColumns
	c, err := s.scanComment(s.pool.QueryRow(ctx, q, id, content+" (edited)"))
	if err != nil {
		return Comment{}, err
	}
	cs := []Comment{c}
	if err := s.fillCommentReplies(ctx, cs); err != nil {
		return Comment{}, err
	}
	return cs[0], nil
}

func (s *PostgresContentStore) DeleteComment(ctx context.Context, id, userID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var authorID int64
	var deleted bool
	err = tx.QueryRow(ctx, `SELECT author_id, deleted FROM comments WHERE id = $1 FOR UPDATE`, id).Scan(&authorID, &deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if deleted {
		return ErrAlreadyDeleted
	}
	if authorID != userID {
		return ErrForbidden
	}

	if _, err := tx.Exec(ctx,
		`UPDATE comments SET deleted = true, content = '', author_id = $2, likes = 0, dislikes = 0 WHERE id = $1`,
		id, DeletedAuthor); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM comment_votes WHERE comment_id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresContentStore) React(ctx context.Context, kind ContentKind, id, userID int64, reaction Reaction) (ReactionResult, error) {
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

	var contentTable, voteTable, voteKey string
	switch kind {
	case KindThread:
		contentTable, voteTable, voteKey = "threads", "thread_votes", "thread_id"
	case KindComment:
		contentTable, voteTable, voteKey = "comments", "comment_votes", "comment_id"
	default:
		return ReactionResult{}, ErrNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ReactionResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if kind == KindComment {
		var deleted bool
		err = tx.QueryRow(ctx, `SELECT deleted FROM comments WHERE id = $1`, id).Scan(&deleted)
		if errors.Is(err, pgx.ErrNoRows) {
			return ReactionResult{}, ErrNotFound
		}
		if err != nil {
			return ReactionResult{}, err
		}
		if deleted {
			return ReactionResult{}, ErrContentDeleted
		}
	} else {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM threads WHERE id = $1)`, id).Scan(&exists); err != nil {
			return ReactionResult{}, err
		}
		if !exists {
			return ReactionResult{}, ErrNotFound
		}
	}

	var old Reaction
	err = tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT vote FROM %s WHERE %s = $1 AND user_id = $2 FOR UPDATE`, voteTable, voteKey),
		id, userID).Scan(&old)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return ReactionResult{}, err
	}

	// Toggle transition: same vote again clears it, otherwise the new
	// vote replaces whatever was there.
	state := reaction
	switch {
	case old == reaction:
		state = ReactionNone
		_, err = tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND user_id = $2`, voteTable, voteKey), id, userID)
	case old == ReactionNone:
		_, err = tx.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (%s, user_id, vote) VALUES ($1, $2, $3)`, voteTable, voteKey),
			id, userID, reaction)
	default:
		_, err = tx.Exec(ctx,
			fmt.Sprintf(`UPDATE %s SET vote = $3 WHERE %s = $1 AND user_id = $2`, voteTable, voteKey),
			id, userID, reaction)
	}
	if err != nil {
		return ReactionResult{}, err
	}

	likeDelta, dislikeDelta := voteDeltas(old, state)
	var likes, dislikes int
	err = tx.QueryRow(ctx,
		fmt.Sprintf(`UPDATE %s SET likes = likes + $1, dislikes = dislikes + $2 WHERE id = $3 RETURNING likes, dislikes`, contentTable),
		likeDelta, dislikeDelta, id).Scan(&likes, &dislikes)
	if err != nil {
		return ReactionResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ReactionResult{}, err
	}
	return ReactionResult{Kind: kind, ContentID: id, State: state, Likes: likes, Dislikes: dislikes}, nil
}

// voteDeltas maps a from->to reaction transition to counter adjustments.
func voteDeltas(from, to Reaction) (likeDelta, dislikeDelta int) {
	switch from {
	case ReactionLike:
		likeDelta--
	case ReactionDislike:
		dislikeDelta--
	}
	switch to {
	case ReactionLike:
		likeDelta++
	case ReactionDislike:
		dislikeDelta++
	}
	return likeDelta, dislikeDelta
}

func (s *PostgresContentStore) ThreadsByCategory(ctx context.Context, categoryID int64) ([]Thread, error) {
	ok, err := s.categories.CategoryExists(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCategoryNotFound
	}
	const q = `SELECT ` + threadColumns + ` FROM threads WHERE category_id = $1
	           ORDER BY created_at DESC, id DESC`
	return s.queryThreads(ctx, q, categoryID)
}

func (s *PostgresContentStore) ThreadsByAuthor(ctx context.Context, authorID int64) ([]Thread, error) {
	if err := s.requireUser(ctx, authorID); err != nil {
		return nil, err
	}
	const q = `SELECT ` + threadColumns + ` FROM threads WHERE author_id = $1
	           ORDER BY created_at DESC, id DESC`
	return s.queryThreads(ctx, q, authorID)
}

func (s *PostgresContentStore) LikedThreads(ctx context.Context, userID int64) ([]Thread, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	const q = `SELECT t.id, t.author_id, t.category_id, t.title, t.content, t.likes, t.dislikes, t.created_at
	           FROM threads t
	           JOIN thread_votes v ON v.thread_id = t.id
	           WHERE v.user_id = $1 AND v.vote = 1
	           ORDER BY t.created_at DESC, t.id DESC`
	return s.queryThreads(ctx, q, userID)
}

func (s *PostgresContentStore) CommentsByAuthor(ctx context.Context, authorID int64) ([]Comment, error) {
	if err := s.requireUser(ctx, authorID); err != nil {
		return nil, err
	}
	const q = `SELECT ` + commentColumns + ` FROM comments
	           WHERE author_id = $1 AND deleted = false
	           ORDER BY created_at DESC, id DESC`
	return s.queryComments(ctx, q, authorID)
}

func (s *PostgresContentStore) LikedComments(ctx context.Context, userID int64) ([]Comment, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	const q = `SELECT c.id, c.thread_id, c.author_id, c.content, c.likes, c.dislikes, c.deleted, c.created_at
	           FROM comments c
	           JOIN comment_votes v ON v.comment_id = c.id
	           WHERE v.user_id = $1 AND v.vote = 1
	           ORDER BY c.created_at DESC, c.id DESC`
	return s.queryComments(ctx, q, userID)
}

func (s *PostgresContentStore) SampleThreads(ctx context.Context) ([]CategorySample, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ` + threadColumns + ` FROM threads WHERE category_id = $1
	           ORDER BY created_at DESC, id DESC LIMIT $2`
	out := make([]CategorySample, 0, len(cats))
	for _, cat := range cats {
		ts, err := s.queryThreads(ctx, q, cat.ID, SampleThreadsPerCategory)
		if err != nil {
			return nil, err
		}
		out = append(out, CategorySample{Category: cat, Threads: ts})
	}
	return out, nil
}

func (s *PostgresContentStore) ThreadReplies(ctx context.Context, threadID int64) ([]Comment, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM threads WHERE id = $1)`, threadID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	const q = `SELECT ` + commentColumns + ` FROM comments
	           WHERE thread_id = $1 AND parent_id IS NULL
	           ORDER BY id`
	return s.queryComments(ctx, q, threadID)
}

func (s *PostgresContentStore) CommentReplies(ctx context.Context, commentID int64) ([]Comment, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)`, commentID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	const q = `SELECT ` + commentColumns + ` FROM comments
	           WHERE parent_id = $1
	           ORDER BY id`
	return s.queryComments(ctx, q, commentID)
}

func (s *PostgresContentStore) requireUser(ctx context.Context, id int64) error {
	ok, err := s.users.UserExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

func (s *PostgresContentStore) queryThreads(ctx context.Context, q string, args ...any) ([]Thread, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Thread{}
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.ID, &t.AuthorID, &t.CategoryID, &t.Title, &t.Content, &t.Likes, &t.Dislikes, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Replies = []int64{}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.fillThreadReplies(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresContentStore) queryComments(ctx context.Context, q string, args ...any) ([]Comment, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		c, err := scanCommentRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.fillCommentReplies(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresContentStore) scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.ThreadID, &c.AuthorID, &c.Content, &c.Likes, &c.Dislikes, &c.Deleted, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	if err != nil {
		return Comment{}, err
	}
	c.Replies = []int64{}
	return c, nil
}

func scanCommentRow(rows pgx.Rows) (Comment, error) {
	var c Comment
	if err := rows.Scan(&c.ID, &c.ThreadID, &c.AuthorID, &c.Content, &c.Likes, &c.Dislikes, &c.Deleted, &c.CreatedAt); err != nil {
		return Comment{}, err
	}
	c.Replies = []int64{}
	return c, nil
}

// fillThreadReplies loads top-level comment ids for a batch of threads.
func (s *PostgresContentStore) fillThreadReplies(ctx context.Context, ts []Thread) error {
	if len(ts) == 0 {
		return nil
	}
	ids := make([]int64, len(ts))
	byID := make(map[int64]int, len(ts))
	for i, t := range ts {
		ids[i] = t.ID
		byID[t.ID] = i
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, thread_id FROM comments WHERE thread_id = ANY($1) AND parent_id IS NULL ORDER BY id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid, tid int64
		if err := rows.Scan(&cid, &tid); err != nil {
			return err
		}
		if i, ok := byID[tid]; ok {
			ts[i].Replies = append(ts[i].Replies, cid)
		}
	}
	return rows.Err()
}

// fillCommentReplies loads child comment ids for a batch of comments.
func (s *PostgresContentStore) fillCommentReplies(ctx context.Context, cs []Comment) error {
	if len(cs) == 0 {
		return nil
	}
	ids := make([]int64, len(cs))
	byID := make(map[int64]int, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
		byID[c.ID] = i
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, parent_id FROM comments WHERE parent_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid, pid int64
		if err := rows.Scan(&cid, &pid); err != nil {
			return err
		}
		if i, ok := byID[pid]; ok {
			cs[i].Replies = append(cs[i].Replies, cid)
		}
	}
	return rows.Err()
}
