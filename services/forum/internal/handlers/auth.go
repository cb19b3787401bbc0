package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/auth"
	"github.com/example/forum-platform/services/forum/internal/store"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	User  store.User `json:"user"`
	Token string     `json:"token"`
}

// Register handles POST /v1/auth/register
func Register(us store.UserStore, signer auth.Signer, bootstrapAdmin string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !decodeBody(w, r, &req) {
			return
		}

		email := strings.TrimSpace(req.Email)
		username := strings.TrimSpace(req.Username)
		if !isValidEmail(email) {
			api.BadRequest(w, "VALIDATION_EMAIL", "invalid email", "", map[string]any{"email": "invalid"})
			return
		}
		if !isValidUsername(username) {
			api.BadRequest(w, "VALIDATION_USERNAME", "invalid username", "", map[string]any{"username": "3-32 chars, alphanumeric or underscore"})
			return
		}
		if len(req.Password) < 8 {
			api.BadRequest(w, "VALIDATION_PASSWORD", "password too short", "", map[string]any{"password": "min length 8"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			api.Internal(w, "")
			return
		}

		role := "user"
		if bootstrapAdmin != "" && strings.EqualFold(bootstrapAdmin, username) {
			role = "admin"
		}

		u, err := us.Create(r.Context(), store.CreateUserParams{
			Email:        email,
			Username:     username,
			PasswordHash: string(hash),
			Role:         role,
		})
		if err != nil {
			if errors.Is(err, store.ErrUserConflict) {
				api.Conflict(w, "USER_ALREADY_EXISTS", "user already exists", "", nil)
				return
			}
			api.Internal(w, "")
			return
		}

		token, err := signer.Sign(u.ID, u.Role)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusCreated, authResponse{User: u, Token: token})
	}
}

// Login handles POST /v1/auth/login
func Login(us store.UserStore, signer auth.Signer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Username) == "" || req.Password == "" {
			api.BadRequest(w, "VALIDATION_LOGIN", "username and password are required", "", nil)
			return
		}

		u, err := us.GetByUsername(r.Context(), req.Username)
		if err != nil {
			api.Unauthorized(w, "AUTH_INVALID_CREDENTIALS", "invalid credentials", "")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			api.Unauthorized(w, "AUTH_INVALID_CREDENTIALS", "invalid credentials", "")
			return
		}

		token, err := signer.Sign(u.ID, u.Role)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, authResponse{User: u, Token: token})
	}
}

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

func isValidUsername(s string) bool {
	return usernameRe.MatchString(strings.TrimSpace(s))
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func isValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) > 254 {
		return false
	}
	return emailRe.MatchString(s)
}
