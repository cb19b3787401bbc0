package store

import (
	"context"
	"errors"
	"time"
)

// Category is an entry in the category index. Threads must reference an
// existing category at creation time; the reference is immutable afterwards.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

var ErrCategoryConflict = errors.New("category name already taken")

type CategoryStore interface {
	CategoryIndex
	GetByID(ctx context.Context, id int64) (Category, error)
	Create(ctx context.Context, name, description string) (Category, error)
}
