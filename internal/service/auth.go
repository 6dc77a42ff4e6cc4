package service

import (
	"context"
	"crypto/subtle"

	"github.com/google/uuid"

	"hse-portal/internal/contextutil"
	"hse-portal/internal/storage"
)

// UserInfo is the public part of a user returned on login.
type UserInfo struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResult carries the issued token and the user.
type LoginResult struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// AuthService checks credentials against the users document.
//
// Tokens are opaque and are not checked by any other endpoint.
type AuthService interface {
	Login(ctx context.Context, username, password string) (LoginResult, error)
}

type authService struct {
	store            *storage.Store
	fallbackUsername string
	fallbackPassword string
}

// NewAuthService creates an AuthService. The fallback admin credential is
// accepted even when the users document does not contain it.
func NewAuthService(store *storage.Store, fallbackUsername, fallbackPassword string) AuthService {
	return &authService{
		store:            store,
		fallbackUsername: fallbackUsername,
		fallbackPassword: fallbackPassword,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var users []storage.User
	if err := s.store.Read(ctx, Users, &users); err != nil {
		return LoginResult{}, WrapError(err, "failed to read users")
	}

	for _, u := range users {
		if equal(u.Username, username) && equal(u.Password, password) {
			logger.InfoContext(ctx, "user logged in", "username", u.Username, "role", u.Role)
			return LoginResult{
				Token: "token-" + uuid.NewString(),
				User:  UserInfo{Username: u.Username, Role: u.Role},
			}, nil
		}
	}

	if s.fallbackUsername != "" && equal(username, s.fallbackUsername) && equal(password, s.fallbackPassword) {
		logger.InfoContext(ctx, "fallback admin logged in", "username", username)
		return LoginResult{
			Token: "admintoken-" + uuid.NewString(),
			User:  UserInfo{Username: s.fallbackUsername, Role: "admin"},
		}, nil
	}

	logger.WarnContext(ctx, "login rejected", "username", username)
	return LoginResult{}, ErrInvalidCredentials
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
