//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"creator-chat/auth"
	"creator-chat/domain"
	"creator-chat/errors"
	"creator-chat/repositories"
)

// IAuthService is the authentication collaborator. It issues and validates
// credentials and pushes session-change notifications to registered
// listeners. A nil *domain.Session in any result or notification means
// unauthenticated.
type IAuthService interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*domain.Session, error)
	OnSessionChange(fn func(*domain.Session)) (unsubscribe func())
}

type AuthService struct {
	mu             sync.Mutex
	users          repositories.IUserRepository
	sessions       repositories.ISessionRepository
	tokenSecret    []byte
	tokenDuration  time.Duration
	log            *slog.Logger
	listeners      map[int]func(*domain.Session)
	nextListenerID int
}

func NewAuthService(users repositories.IUserRepository, sessions repositories.ISessionRepository,
	tokenSecret []byte, tokenDuration time.Duration, log *slog.Logger) *AuthService {
	return &AuthService{
		users:         users,
		sessions:      sessions,
		tokenSecret:   tokenSecret,
		tokenDuration: tokenDuration,
		log:           log,
		listeners:     make(map[int]func(*domain.Session)),
	}
}

func (s *AuthService) SignUp(_ context.Context, email, password string) error {
	valReq := auth.SignUpRequest{
		Email:    email,
		Password: password,
	}

	// Validate business rules before any expensive cryptographic operation.
	if err := auth.ValidateSignUp(valReq); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hashing happens in the service layer to keep the repository unaware
	// of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing failed: %w", err)
	}

	// Propagates ErrUserAlreadyExists if the email is taken.
	if _, err = s.users.CreateUser(email, hashedPassword); err != nil {
		return err
	}

	// Registration does not sign the user in. They go through SignIn like
	// anyone else.
	return nil
}

func (s *AuthService) SignIn(_ context.Context, email, password string) (*domain.Session, error) {
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks.
		return nil, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return nil, errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(s.tokenSecret, user.ID, user.Email, s.tokenDuration)
	if err != nil {
		return nil, errors.ErrTokenGeneration
	}

	if err = s.sessions.SaveToken(token); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrAuthTransport, err)
	}

	session := &domain.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokenDuration),
	}
	s.notify(session)
	return session, nil
}

func (s *AuthService) SignOut(_ context.Context) error {
	if err := s.sessions.DeleteToken(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrAuthTransport, err)
	}
	s.notify(nil)
	return nil
}

// CurrentSession restores the session persisted by a previous run.
// Absence of a stored token is not an error. A stored token that no longer
// validates is discarded. Storage failures surface as ErrAuthTransport so
// callers can distinguish "signed out" from "could not ask".
func (s *AuthService) CurrentSession(_ context.Context) (*domain.Session, error) {
	token, found, err := s.sessions.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrAuthTransport, err)
	}
	if !found {
		return nil, nil
	}

	claims, err := auth.ValidateToken(s.tokenSecret, token)
	if err != nil {
		s.log.Debug("Discarding stored session token", "error", err)
		_ = s.sessions.DeleteToken()
		return nil, nil
	}

	return &domain.Session{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// OnSessionChange registers a push listener delivering the new session (or
// nil) on every sign-in and sign-out. The returned function releases the
// registration and is safe to call more than once.
func (s *AuthService) OnSessionChange(fn func(*domain.Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextListenerID++
	id := s.nextListenerID
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// notify calls every listener outside the lock so a listener can register or
// unregister from within its callback without deadlocking.
func (s *AuthService) notify(session *domain.Session) {
	s.mu.Lock()
	fns := make([]func(*domain.Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(session)
	}
}
