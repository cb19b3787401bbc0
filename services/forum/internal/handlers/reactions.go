package handlers

import (
	"net/http"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/events"
	"github.com/example/forum-platform/services/forum/internal/store"
)

// react builds the shared handler behind the four reaction routes. The store
// applies toggle semantics, so posting the same reaction twice returns the
// content to neutral.
func react(cs store.ContentStore, pub *events.Publisher, kind store.ContentKind, reaction store.Reaction) http.HandlerFunc {
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

		res, err := cs.React(r.Context(), kind, id, userID, reaction)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		pub.Publish(events.SubjectContentReacted, "content.reacted", userID, map[string]any{
			"kind":       string(res.Kind),
			"content_id": res.ContentID,
			"state":      int16(res.State),
		})

		api.WriteJSON(w, http.StatusOK, res)
	}
}

// LikeThread handles POST /v1/threads/{id}/like
func LikeThread(cs store.ContentStore, pub *events.Publisher) http.HandlerFunc {
	return react(cs, pub, store.KindThread, store.ReactionLike)
}

// DislikeThread handles POST /v1/threads/{id}/dislike
func DislikeThread(cs store.ContentStore, pub *events.Publisher) http.HandlerFunc {
	return react(cs, pub, store.KindThread, store.ReactionDislike)
}

// LikeComment handles POST /v1/comments/{id}/like
func LikeComment(cs store.ContentStore, pub *events.Publisher) http.HandlerFunc {
	return react(cs, pub, store.KindComment, store.ReactionLike)
}

// DislikeComment handles POST /v1/comments/{id}/dislike
func DislikeComment(cs store.ContentStore, pub *events.Publisher) http.HandlerFunc {
	return react(cs, pub, store.KindComment, store.ReactionDislike)
}
