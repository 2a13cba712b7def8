package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/internal/metrics"
	"github.com/tasklist/tasklist/internal/model"
	"github.com/tasklist/tasklist/internal/store"
)

const bearerPrefix = "Bearer "

// AuthService registers users, logs them in and authenticates bearer tokens.
type AuthService struct {
	users   store.CredentialStore
	hasher  *auth.PasswordHasher
	tokens  *auth.TokenIssuer
	metrics metrics.Recorder
	logger  *slog.Logger

	// dummyDigest is verified against when the username is unknown so that
	// both login failure paths cost one hash computation.
	dummyDigest string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users store.CredentialStore, hasher *auth.PasswordHasher, tokens *auth.TokenIssuer, recorder metrics.Recorder, logger *slog.Logger) *AuthService {
	s := &AuthService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		metrics: defaultRecorder(recorder),
		logger:  defaultLogger(logger),
	}
	if digest, err := hasher.Hash("tasklist-dummy-password"); err == nil {
		s.dummyDigest = digest
	}
	return s
}

// Credentials is the input for Register and Login.
type Credentials struct {
	Username string
	Password string
}

// Register creates a user with a hashed password.
// Returns ErrUsernameTaken if the username is already registered.
func (s *AuthService) Register(ctx context.Context, in Credentials) (*model.User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, missingField("username")
	}
	if in.Password == "" {
		return nil, missingField("password")
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Username:     in.Username,
		PasswordHash: digest,
		CreatedAt:    time.Now().UTC(),
	}

	start := time.Now()
	err = s.users.CreateUser(ctx, user)
	observe(s.metrics, start)
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserRegistered()
	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// Login verifies the credentials and issues a bearer token.
// Unknown usernames and wrong passwords both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in Credentials) (string, error) {
	if in.Username == "" || in.Password == "" {
		s.metrics.IncLogin("failed")
		return "", ErrInvalidCredentials
	}

	start := time.Now()
	user, err := s.users.GetUserByUsername(ctx, in.Username)
	observe(s.metrics, start)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			return "", fmt.Errorf("failed to look up user: %w", err)
		}
		s.hasher.Verify(in.Password, s.dummyDigest)
		s.metrics.IncLogin("failed")
		return "", ErrInvalidCredentials
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		s.metrics.IncLogin("failed")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncLogin("success")
	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return token, nil
}

// Authenticate resolves the raw Authorization header value to an identity.
// Returns ErrMissingToken when no bearer token is present and ErrInvalidToken
// for every verification failure.
func (s *AuthService) Authenticate(rawHeader string) (*model.AuthContext, error) {
	token := ExtractBearerToken(rawHeader)
	if token == "" {
		s.metrics.IncAuthRejected("missing")
		return nil, ErrMissingToken
	}

	authCtx, err := s.tokens.Verify(token)
	if err != nil {
		s.metrics.IncAuthRejected("invalid")
		return nil, ErrInvalidToken
	}

	return authCtx, nil
}

// ExtractBearerToken returns the token from "Bearer <token>", or "" if the
// header does not carry one.
func ExtractBearerToken(rawHeader string) string {
	if len(rawHeader) < len(bearerPrefix) || !strings.EqualFold(rawHeader[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(rawHeader[len(bearerPrefix):])
}
