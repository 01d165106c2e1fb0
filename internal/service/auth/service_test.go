package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/internal/domain"
	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/internal/repository"
	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/pkg/config"
)

type stubUserRepository struct {
	users map[string]*domain.User
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{users: make(map[string]*domain.User)}
}

func (s *stubUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if _, ok := s.users[user.Username]; ok {
		return repository.ErrAlreadyExists
	}
	s.users[user.Username] = user
	return nil
}

func (s *stubUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, ok := s.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func newTestService(users *stubUserRepository) Service {
	cfg := config.APIConfig{
		JWTSecret:       "auth-test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(users, log, cfg)
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService(newStubUserRepository())

	if _, _, err := svc.Signup(context.Background(), "  ", "pw"); !errors.Is(err, errUsernameRequired) {
		t.Fatalf("expected errUsernameRequired, got %v", err)
	}
	if _, _, err := svc.Signup(context.Background(), "maya", ""); !errors.Is(err, errPasswordRequired) {
		t.Fatalf("expected errPasswordRequired, got %v", err)
	}
}

func TestSignupIssuesUsableTokens(t *testing.T) {
	users := newStubUserRepository()
	svc := newTestService(users)

	user, tokens, err := svc.Signup(context.Background(), "maya", "s3cret")
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected generated user id")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("expected both tokens issued")
	}

	subject, err := svc.Verify(tokens.AccessToken)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if subject != "maya" {
		t.Fatalf("expected subject maya, got %q", subject)
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	users := newStubUserRepository()
	svc := newTestService(users)

	if _, _, err := svc.Signup(context.Background(), "maya", "s3cret"); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	if _, _, err := svc.Signup(context.Background(), "maya", "other"); !errors.Is(err, errUsernameTaken) {
		t.Fatalf("expected errUsernameTaken, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	users := newStubUserRepository()
	svc := newTestService(users)

	if _, _, err := svc.Signup(context.Background(), "maya", "s3cret"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "maya", "wrong"); err == nil {
		t.Fatal("expected error for wrong password")
	}
	if _, _, err := svc.Login(context.Background(), "nobody", "s3cret"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestVerifyRejectsEmptyAndForgedTokens(t *testing.T) {
	svc := newTestService(newStubUserRepository())

	if _, err := svc.Verify("  "); err == nil {
		t.Fatal("expected error for blank token")
	}
	if _, err := svc.Verify("abc.def.ghi"); err == nil {
		t.Fatal("expected error for forged token")
	}
}
