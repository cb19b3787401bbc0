package handlers

import (
	"errors"
	"net/http"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/services/forum/internal/store"
)

// MyNotifications handles GET /v1/me/notifications
func MyNotifications(ns store.NotificationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		out, err := ns.ListByUser(r.Context(), userID)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, out)
	}
}

// MarkNotificationRead handles POST /v1/me/notifications/{id}/read
func MarkNotificationRead(ns store.NotificationStore) http.HandlerFunc {
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

		if err := ns.MarkRead(r.Context(), id, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "notification not found", "")
				return
			}
			api.Internal(w, "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
