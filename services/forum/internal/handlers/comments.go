package handlers

import (
	"net/http"
	"strings"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/events"
	"github.com/example/forum-platform/services/forum/internal/store"
)

type createCommentRequest struct {
	Content string `json:"content"`
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

// CreateThreadComment handles POST /v1/threads/{id}/comments
func CreateThreadComment(cs store.ContentStore, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		threadID, ok := idParam(r, "id")
		if !ok {
			api.BadRequest(w, "INVALID_ID", "id must be a positive integer", "", nil)
			return
		}

		var req createCommentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			api.BadRequest(w, "EMPTY_CONTENT", "content must not be empty", "", nil)
			return
		}

		c, err := cs.ReplyToThread(r.Context(), userID, threadID, req.Content)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		pub.Publish(events.SubjectCommentCreated, "comment.created", userID, map[string]any{
			"comment_id": c.ID,
			"thread_id":  c.ThreadID,
		})

		api.WriteJSON(w, http.StatusCreated, c)
	}
}

// ReplyToComment handles POST /v1/comments/{id}/replies
func ReplyToComment(cs store.ContentStore, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		parentID, ok := idParam(r, "id")
		if !ok {
			api.BadRequest(w, "INVALID_ID", "id must be a positive integer", "", nil)
			return
		}

		var req createCommentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			api.BadRequest(w, "EMPTY_CONTENT", "content must not be empty", "", nil)
			return
		}

		c, err := cs.ReplyToComment(r.Context(), userID, parentID, req.Content)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		pub.Publish(events.SubjectCommentCreated, "comment.created", userID, map[string]any{
			"comment_id": c.ID,
			"thread_id":  c.ThreadID,
			"parent_id":  parentID,
		})

		api.WriteJSON(w, http.StatusCreated, c)
	}
}

// ThreadComments handles GET /v1/threads/{id}/comments
func ThreadComments(cs store.ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threadID, ok := idParam(r, "id")
		if !ok {
			api.BadRequest(w, "INVALID_ID", "id must be a positive integer", "", nil)
			return
		}

		comments, err := cs.ThreadReplies(r.Context(), threadID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, comments)
	}
}

// CommentReplies handles GET /v1/comments/{id}/replies
func CommentReplies(cs store.ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID, ok := idParam(r, "id")
		if !ok {
			api.BadRequest(w, "INVALID_ID", "id must be a positive integer", "", nil)
			return
		}

		comments, err := cs.CommentReplies(r.Context(), commentID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, comments)
	}
}

// UpdateComment handles PUT /v1/comments/{id}
func UpdateComment(cs store.ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		commentID, ok := idParam(r, "id")
		if !ok {
			api.BadRequest(w, "INVALID_ID", "id must be a positive integer", "", nil)
			return
		}

		var req updateCommentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			api.BadRequest(w, "EMPTY_CONTENT", "content must not be empty", "", nil)
			return
		}

		c, err := cs.EditComment(r.Context(), commentID, req.Content, userID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, c)
	}
}

// DeleteComment handles DELETE /v1/comments/{id}
func DeleteComment(cs store.ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		commentID, ok := idParam(r, "id")
		if !ok {
			api.BadRequest(w, "INVALID_ID", "id must be a positive integer", "", nil)
			return
		}

		if err := cs.DeleteComment(r.Context(), commentID, userID); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UserComments handles GET /v1/users/{id}/comments
func UserComments(cs store.ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			api.BadRequest(w, "INVALID_ID", "id must be a positive integer", "", nil)
			return
		}

		comments, err := cs.CommentsByAuthor(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, comments)
	}
}

// LikedComments handles GET /v1/me/liked/comments
func LikedComments(cs store.ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		comments, err := cs.LikedComments(r.Context(), userID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, comments)
	}
}
