package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/auth"
	"github.com/example/forum-platform/services/forum/internal/store"
)

const maxBodyBytes = 1 << 20

func idParam(r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok || userID <= 0 {
		api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
		return 0, false
	}
	return userID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dest); err != nil {
		api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
		return false
	}
	return true
}

// writeStoreError maps the store error taxonomy onto the HTTP surface.
// Deleted-content conflicts report 409 so clients can tell a tombstone from
// a missing resource.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "content not found", "")
	case errors.Is(err, store.ErrUserNotFound):
		api.NotFound(w, "USER_NOT_FOUND", "user not found", "")
	case errors.Is(err, store.ErrCategoryNotFound):
		api.BadRequest(w, "UNKNOWN_CATEGORY", "category does not exist", "", nil)
	case errors.Is(err, store.ErrForbidden):
		api.Forbidden(w, "FORBIDDEN", "not the author", "")
	case errors.Is(err, store.ErrContentDeleted):
		api.Conflict(w, "CONTENT_DELETED", "content has been deleted", "", nil)
	case errors.Is(err, store.ErrAlreadyDeleted):
		api.Conflict(w, "ALREADY_DELETED", "content was already deleted", "", nil)
	default:
		api.Internal(w, "")
	}
}
