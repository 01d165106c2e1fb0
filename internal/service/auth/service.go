package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/internal/domain"
	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/internal/repository"
	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/pkg/config"
	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/pkg/crypto"
	jwtpkg "github.com/Minhajul-Abidin/Koala-Cloud-Editor/pkg/jwt"
)

// Service handles authentication workflows.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, logger: logger, cfg: cfg}
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    time.Duration `json:"expires_in"`
}

var (
	errUsernameRequired = errors.New("username is required")
	errPasswordRequired = errors.New("password is required")
	errUsernameTaken    = errors.New("username already taken")
)

// Signup registers a new user.
func (s Service) Signup(ctx context.Context, username, password string) (*domain.User, TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, TokenPair{}, errUsernameRequired
	}
	if password == "" {
		return nil, TokenPair{}, errPasswordRequired
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, TokenPair{}, errUsernameTaken
		}
		return nil, TokenPair{}, err
	}
	tokens, err := s.issueTokens(user.Username)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, tokens, nil
}

// Login authenticates a user and returns tokens.
func (s Service) Login(ctx context.Context, username, password string) (*domain.User, TokenPair, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, TokenPair{}, err
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, TokenPair{}, err
	}
	tokens, err := s.issueTokens(user.Username)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, tokens, nil
}

// Verify validates a bearer token and returns the subject username. The check
// is a pure signature and expiry validation with no store round-trip; a
// verified token whose user row has since vanished surfaces later, at the
// first operation that resolves the username.
func (s Service) Verify(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", errors.New("token required")
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return "", err
	}
	if claims.Username == "" {
		return "", errors.New("token missing subject")
	}
	return claims.Username, nil
}

func (s Service) issueTokens(username string) (TokenPair, error) {
	access, err := jwtpkg.GenerateToken(username, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := jwtpkg.GenerateToken(username, s.cfg.JWTSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.cfg.AccessTokenTTL}, nil
}
