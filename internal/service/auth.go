package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"promanage/internal/auth"
	"promanage/internal/common"
	"promanage/internal/models"
)

const msgBadCredentials = "Invalid username or password"

// LoginResult is returned on a successful sign in.
type LoginResult struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// AuthService verifies credentials and issues session tokens.
type AuthService struct {
	users    UserStore
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewAuthService(users UserStore, secret []byte, tokenTTL time.Duration, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{users: users, secret: secret, tokenTTL: tokenTTL, logger: logger}
}

// Login matches the username ignoring whitespace and case. Unknown users and
// wrong passwords fail with the same message.
func (a *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return LoginResult{}, common.Validation("Username and password are required")
	}

	u, err := a.users.FindUserByUsername(ctx, username)
	if errors.Is(err, common.ErrNotFound) {
		return LoginResult{}, common.Unauthenticated(msgBadCredentials)
	}
	if err != nil {
		return LoginResult{}, err
	}

	ok, err := auth.CheckPassword(u.Password, password)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		return LoginResult{}, common.Unauthenticated(msgBadCredentials)
	}

	token, err := auth.GenerateToken(u, a.secret, a.tokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	a.logger.Info("user signed in", slog.String("user", u.ID), slog.String("role", string(u.Role)))
	return LoginResult{User: u, Token: token}, nil
}

// Verify turns a bearer token into the caller identity.
func (a *AuthService) Verify(token string) (auth.Identity, error) {
	return auth.ParseToken(token, a.secret)
}

// Me loads the caller's profile.
func (a *AuthService) Me(ctx context.Context, actor auth.Identity) (models.User, error) {
	u, err := a.users.GetUser(ctx, actor.ID)
	if errors.Is(err, common.ErrNotFound) {
		return models.User{}, common.NotFound("User not found")
	}
	return u, err
}

// Directory lists every user for assignment pickers and mentions.
func (a *AuthService) Directory(ctx context.Context) ([]models.User, error) {
	users, err := a.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}
