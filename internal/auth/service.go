package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/taskpilot/taskpilot-be/internal/apperr"
	"github.com/taskpilot/taskpilot-be/internal/models"
	"github.com/taskpilot/taskpilot-be/internal/storage"
)

// Session is the result of a successful register or login.
type Session struct {
	User  models.UserProjection
	Token string
}

// Service orchestrates registration, login, and identity resolution over the
// user store, the password hasher, and the token manager.
type Service struct {
	store    storage.UserStore
	tokens   *TokenManager
	hashCost int
}

// NewService constructs the auth service. hashCost 0 uses the bcrypt default.
func NewService(store storage.UserStore, tokens *TokenManager, hashCost int) *Service {
	return &Service{store: store, tokens: tokens, hashCost: hashCost}
}

// Register creates a new user and issues a token for it. An email collision,
// whether caught by the lookup or by the store's unique index, surfaces as
// AlreadyExists.
func (s *Service) Register(ctx context.Context, email, password, name string) (Session, error) {
	email = strings.TrimSpace(email)

	_, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return Session{}, apperr.New(apperr.KindAlreadyExists, "user already exists")
	case !errors.Is(err, storage.ErrNotFound):
		return Session{}, fmt.Errorf("look up existing user: %w", err)
	}

	hash, err := HashPassword(password, s.hashCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.store.CreateUser(ctx, models.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return Session{}, apperr.Wrap(apperr.KindAlreadyExists, "user already exists", err)
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	return s.newSession(created)
}

// Login verifies email+password and issues a token. A missing user and a
// wrong password produce the identical error so the response cannot be used
// to enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.store.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, invalidCredentials()
		}
		return Session{}, fmt.Errorf("look up user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return Session{}, invalidCredentials()
	}
	return s.newSession(user)
}

// ValidateUser resolves the current projection for a user id. Callers get
// storage.ErrNotFound when the account no longer exists.
func (s *Service) ValidateUser(ctx context.Context, id int64) (models.UserProjection, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return models.UserProjection{}, err
	}
	return user.Projection(), nil
}

func (s *Service) newSession(user models.User) (Session, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return Session{}, fmt.Errorf("generate token: %w", err)
	}
	return Session{User: user.Projection(), Token: token}, nil
}

func invalidCredentials() error {
	return apperr.New(apperr.KindInvalidCredentials, "invalid credentials")
}
