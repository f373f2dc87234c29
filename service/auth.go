package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"unhidden/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u domain.User) error
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	Exists(ctx context.Context, username string) (bool, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Compared against when the username does not exist, so both failure paths
// pay for one bcrypt comparison.
var dummyHash = mustHash("unhidden placeholder")

func mustHash(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("hash placeholder password: %v", err))
	}
	return hash
}

type AuthService struct {
	users    UserRepository
	sessions SessionRepository
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(users UserRepository, sessions SessionRepository, ttl time.Duration) *AuthService {
	return &AuthService{users: users, sessions: sessions, ttl: ttl, now: time.Now}
}

// Login verifies the credentials and opens a new session. An unknown user
// and a wrong password both return domain.ErrAuthFailure.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return domain.Session{}, domain.ErrAuthFailure
		}
		return domain.Session{}, err
	}
	if !domain.CheckPassword(user.PasswordHash, password) {
		return domain.Session{}, domain.ErrAuthFailure
	}

	now := s.now().UTC()
	if _, err := s.sessions.DeleteExpired(ctx, now); err != nil {
		return domain.Session{}, err
	}
	sess := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// Authenticate resolves a session id to a live session.
func (s *AuthService) Authenticate(ctx context.Context, sessionID string) (domain.Session, error) {
	if sessionID == "" {
		return domain.Session{}, domain.ErrAuthFailure
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Session{}, domain.ErrAuthFailure
		}
		return domain.Session{}, err
	}
	if sess.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, sess.ID); err != nil {
			return domain.Session{}, err
		}
		return domain.Session{}, domain.ErrAuthFailure
	}
	return sess, nil
}

func (s *AuthService) Register(ctx context.Context, username, password string) (domain.User, error) {
	if err := domain.ValidateCredentials(username, password); err != nil {
		return domain.User{}, err
	}
	exists, err := s.users.Exists(ctx, username)
	if err != nil {
		return domain.User{}, err
	}
	if exists {
		return domain.User{}, domain.ErrDuplicateUsername
	}

	hash, err := domain.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Logout destroys the session. An unknown id is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}
