package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/events"
	"github.com/example/forum-platform/services/forum/internal/cache"
	"github.com/example/forum-platform/services/forum/internal/store"
)

type createThreadRequest struct {
	CategoryID int64  `json:"category_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

type updateThreadRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreateThread handles POST /v1/threads
func CreateThread(cs store.ContentStore, pub *events.Publisher, fc *cache.RedisCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		var req createThreadRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			api.BadRequest(w, "EMPTY_TITLE", "title must not be empty", "", nil)
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			api.BadRequest(w, "EMPTY_CONTENT", "content must not be empty", "", nil)
			return
		}
		if req.CategoryID <= 0 {
			api.BadRequest(w, "MISSING_CATEGORY", "category_id is required", "", nil)
			return
		}

		th, err := cs.CreateThread(r.Context(), userID, req.CategoryID, req.Title, req.Content)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		pub.Publish(events.SubjectThreadCreated, "thread.created", userID, map[string]any{
			"thread_id":   th.ID,
			"category_id": th.CategoryID,
		})
		invalidateFrontPage(r, fc)

		api.WriteJSON(w, http.StatusCreated, th)
	}
}

// GetThread handles GET /v1/threads/{id}
func GetThread(cs store.ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			api.BadRequest(w, "INVALID_ID", "id must be a positive integer", "", nil)
			return
		}

		th, err := cs.GetThread(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, th)
	}
}

// UpdateThread handles PUT /v1/threads/{id}
func UpdateThread(cs store.ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		id, ok := idParam(r, "id")
		if !ok {
			api.BadRequest(w, "INVALID_ID", "id must be a positive integer", "", nil)
			return
		}

		var req updateThreadRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
			api.BadRequest(w, "EMPTY_BODY", "title and content must not be empty", "", nil)
			return
		}

		th, err := cs.EditThread(r.Context(), id, req.Title, req.Content, userID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, th)
	}
}

// DeleteThread handles DELETE /v1/threads/{id}
func DeleteThread(cs store.ContentStore, pub *events.Publisher, fc *cache.RedisCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		id, ok := idParam(r, "id")
		if !ok {
			api.BadRequest(w, "INVALID_ID", "id must be a positive integer", "", nil)
			return
		}

		if err := cs.DeleteThread(r.Context(), id, userID); err != nil {
			writeStoreError(w, err)
			return
		}

		pub.Publish(events.SubjectThreadDeleted, "thread.deleted", userID, map[string]any{
			"thread_id": id,
		})
		invalidateFrontPage(r, fc)

		w.WriteHeader(http.StatusNoContent)
	}
}

// ThreadsByCategory handles GET /v1/categories/{id}/threads
func ThreadsByCategory(cs store.ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			api.BadRequest(w, "INVALID_ID", "id must be a positive integer", "", nil)
			return
		}

		ts, err := cs.ThreadsByCategory(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrCategoryNotFound) {
				api.NotFound(w, "CATEGORY_NOT_FOUND", "category not found", "")
				return
			}
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, ts)
	}
}

// UserThreads handles GET /v1/users/{id}/threads
func UserThreads(cs store.ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			api.BadRequest(w, "INVALID_ID", "id must be a positive integer", "", nil)
			return
		}

		ts, err := cs.ThreadsByAuthor(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, ts)
	}
}

// LikedThreads handles GET /v1/me/liked/threads
func LikedThreads(cs store.ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		ts, err := cs.LikedThreads(r.Context(), userID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, ts)
	}
}

// FrontPage handles GET /v1/frontpage. The sample set is cheap to rebuild but
// hot, so it is served from redis when a cache is configured.
func FrontPage(cs store.ContentStore, fc *cache.RedisCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if fc != nil {
			var cached []store.CategorySample
			if hit, err := fc.Get(r.Context(), cache.FrontPageKey, &cached); err == nil && hit {
				api.WriteJSON(w, http.StatusOK, cached)
				return
			}
		}

		samples, err := cs.SampleThreads(r.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if fc != nil {
			_ = fc.Set(r.Context(), cache.FrontPageKey, samples)
		}
		api.WriteJSON(w, http.StatusOK, samples)
	}
}

func invalidateFrontPage(r *http.Request, fc *cache.RedisCache) {
	if fc == nil {
		return
	}
	_ = fc.Invalidate(r.Context(), cache.FrontPageKey)
}
