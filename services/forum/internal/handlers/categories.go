package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/services/forum/internal/store"
)

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListCategories handles GET /v1/categories
func ListCategories(cats store.CategoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := cats.List(r.Context())
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, out)
	}
}

// CreateCategory handles POST /v1/categories. Admin only; the role check
// happens in middleware.
func CreateCategory(cats store.CategoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCategoryRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			api.BadRequest(w, "EMPTY_NAME", "name must not be empty", "", nil)
			return
		}

		c, err := cats.Create(r.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Description))
		if err != nil {
			if errors.Is(err, store.ErrCategoryConflict) {
				api.Conflict(w, "CATEGORY_EXISTS", "category name already taken", "", nil)
				return
			}
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusCreated, c)
	}
}
