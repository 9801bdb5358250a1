// Package auth resolves the signed-in player from the stored bearer token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"quiz-client/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenExpired = errors.New("token expired")

// ProfileFetcher asks the backend who a token belongs to.
type ProfileFetcher interface {
	Profile(ctx context.Context) (domain.User, error)
}

// Session holds the player's token. The client has no signing key, so claims
// are read without verification; when a ProfileFetcher is attached the
// backend confirms the user once per token.
type Session struct {
	now func() time.Time

	mu       sync.RWMutex
	token    string
	profiles ProfileFetcher
	verified *domain.User
}

func NewSession(token string) *Session {
	return &Session{token: token, now: time.Now}
}

// Token returns the current bearer token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken replaces the token, e.g. after a fresh login.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.verified = nil
	s.mu.Unlock()
}

// VerifyWith makes CurrentUser confirm the token against the backend.
func (s *Session) VerifyWith(profiles ProfileFetcher) {
	s.mu.Lock()
	s.profiles = profiles
	s.verified = nil
	s.mu.Unlock()
}

// CurrentUser reports the signed-in player. A missing, malformed or expired
// token means nobody is signed in.
func (s *Session) CurrentUser(ctx context.Context) (domain.User, bool) {
	s.mu.RLock()
	token, profiles, verified := s.token, s.profiles, s.verified
	s.mu.RUnlock()

	if token == "" {
		return domain.User{}, false
	}
	user, err := s.parse(token)
	if err != nil {
		return domain.User{}, false
	}
	if profiles == nil {
		return user, true
	}
	if verified != nil {
		return *verified, true
	}
	user, err = s.Verify(ctx)
	return user, err == nil
}

// Verify asks the backend for the profile behind the current token and
// caches it until the token changes.
func (s *Session) Verify(ctx context.Context) (domain.User, error) {
	s.mu.RLock()
	token, profiles := s.token, s.profiles
	s.mu.RUnlock()
	if token == "" {
		return domain.User{}, domain.ErrUnauthenticated
	}
	if profiles == nil {
		return s.parse(token)
	}

	user, err := profiles.Profile(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("verify token: %w", err)
	}
	if user.ID == "" {
		return domain.User{}, domain.ErrUnauthenticated
	}

	s.mu.Lock()
	if s.token == token {
		s.verified = &user
	}
	s.mu.Unlock()
	return user, nil
}

// parse reads identity claims. Backends disagree on the claim holding the
// user id, so the usual candidates are tried in order.
func (s *Session) parse(token string) (domain.User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return domain.User{}, fmt.Errorf("parse token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return domain.User{}, fmt.Errorf("parse token: %w", err)
	}
	if exp != nil && !s.now().Before(exp.Time) {
		return domain.User{}, ErrTokenExpired
	}

	user := domain.User{
		ID:       firstClaim(claims, "sub", "id", "userId", "_id"),
		Username: firstClaim(claims, "username", "name"),
		Email:    firstClaim(claims, "email"),
		Role:     firstClaim(claims, "role"),
	}
	if user.ID == "" {
		return domain.User{}, domain.ErrUnauthenticated
	}
	return user, nil
}

func firstClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
