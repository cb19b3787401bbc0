package store

import (
	"context"
	"errors"
	"time"
)

// User is an identity record. PasswordHash never leaves the service.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	PasswordHash string `json:"-"`
}

var ErrUserConflict = errors.New("email or username already taken")

type CreateUserParams struct {
	Email        string
	Username     string
	PasswordHash string
	Role         string
}

// UserStore is the identity store consumed by handlers and, through
// UserDirectory, by the content engine.
type UserStore interface {
	UserDirectory
	Create(ctx context.Context, p CreateUserParams) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
}
