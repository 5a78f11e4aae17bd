// Package session keeps the signed-in identity between runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Fixed storage keys shared by every store implementation.
const (
	KeyToken = "access_token"
	KeyUser  = "user"
)

var ErrNotLoggedIn = errors.New("not logged in, run `matchmate login` first")

type Session struct {
	Username string
	Token    string
}

func (s Session) LoggedIn() bool {
	return s.Username != "" && s.Token != ""
}

// ExpiresAt reads the exp claim of the token without verifying its signature.
// The zero time means the token carries no expiry.
func (s Session) ExpiresAt() (time.Time, error) {
	if s.Token == "" {
		return time.Time{}, errors.New("session has no token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

// Subject returns the sub claim, which the backend sets to the username.
func (s Session) Subject() string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

// Store persists a session. Implementations keep the token and username under KeyToken and KeyUser.
type Store interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// Service owns the current session and tells subscribers about every change.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time

	mu          sync.RWMutex
	current     Session
	subscribers map[int]func(Session)
	nextID      int
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		logger:      logger,
		now:         time.Now,
		subscribers: make(map[int]func(Session)),
	}
}

// Init restores the persisted session. An expired token is discarded.
func (s *Service) Init(ctx context.Context) error {
	restored, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	if restored.LoggedIn() {
		if exp, err := restored.ExpiresAt(); err == nil && !exp.IsZero() && !exp.After(s.now()) {
			s.logger.Info("stored session expired", zap.String("username", restored.Username), zap.Time("expired_at", exp))
			if err := s.store.Clear(ctx); err != nil {
				return fmt.Errorf("clear expired session: %w", err)
			}
			restored = Session{}
		}
	}

	s.set(restored)
	return nil
}

func (s *Service) Login(ctx context.Context, username, token string) error {
	username = strings.TrimSpace(username)
	token = strings.TrimSpace(token)
	if username == "" || token == "" {
		return errors.New("username and token are required")
	}

	next := Session{Username: username, Token: token}
	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.set(next)
	s.logger.Debug("session started", zap.String("username", username))
	return nil
}

func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.set(Session{})
	s.logger.Debug("session cleared")
	return nil
}

func (s *Service) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Require returns the current session or ErrNotLoggedIn.
func (s *Service) Require() (Session, error) {
	current := s.Current()
	if !current.LoggedIn() {
		return Session{}, ErrNotLoggedIn
	}
	return current, nil
}

// Subscribe registers fn for session changes. The returned func removes it.
func (s *Service) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Service) set(next Session) {
	s.mu.Lock()
	s.current = next
	subscribers := make([]func(Session), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(next)
	}
}
