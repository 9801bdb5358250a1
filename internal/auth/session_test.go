package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-client/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return token
}

type stubProfiles struct {
	user  domain.User
	err   error
	calls int
}

func (s *stubProfiles) Profile(context.Context) (domain.User, error) {
	s.calls++
	return s.user, s.err
}

func TestCurrentUserFromClaims(t *testing.T) {
	token := signed(t, jwt.MapClaims{
		"id":       "u-1",
		"username": "gopher",
		"role":     "user",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	session := NewSession(token)

	user, ok := session.CurrentUser(context.Background())
	require.True(t, ok)
	assert.Equal(t, domain.User{ID: "u-1", Username: "gopher", Role: "user"}, user)
	assert.Equal(t, token, session.Token())
}

func TestCurrentUserRejectsMissingMalformedExpired(t *testing.T) {
	ctx := context.Background()

	_, ok := NewSession("").CurrentUser(ctx)
	assert.False(t, ok)

	_, ok = NewSession("not-a-jwt").CurrentUser(ctx)
	assert.False(t, ok)

	expired := NewSession(signed(t, jwt.MapClaims{"sub": "u-1", "exp": time.Now().Add(-time.Minute).Unix()}))
	_, ok = expired.CurrentUser(ctx)
	assert.False(t, ok)
	_, err := expired.parse(expired.Token())
	assert.ErrorIs(t, err, ErrTokenExpired)

	anonymous := NewSession(signed(t, jwt.MapClaims{"username": "nobody"}))
	_, ok = anonymous.CurrentUser(ctx)
	assert.False(t, ok)
}

func TestVerifyUsesBackendOncePerToken(t *testing.T) {
	profiles := &stubProfiles{user: domain.User{ID: "u-1", Username: "gopher", Email: "g@example.com"}}
	session := NewSession(signed(t, jwt.MapClaims{"sub": "u-1"}))
	session.VerifyWith(profiles)

	for i := 0; i < 3; i++ {
		user, ok := session.CurrentUser(context.Background())
		require.True(t, ok)
		assert.Equal(t, "g@example.com", user.Email)
	}
	assert.Equal(t, 1, profiles.calls)

	session.SetToken(signed(t, jwt.MapClaims{"sub": "u-2"}))
	profiles.user = domain.User{ID: "u-2"}
	user, ok := session.CurrentUser(context.Background())
	require.True(t, ok)
	assert.Equal(t, "u-2", user.ID)
	assert.Equal(t, 2, profiles.calls)
}

func TestVerifyFailureMeansSignedOut(t *testing.T) {
	profiles := &stubProfiles{err: domain.ErrUnauthenticated}
	session := NewSession(signed(t, jwt.MapClaims{"sub": "u-1"}))
	session.VerifyWith(profiles)

	_, ok := session.CurrentUser(context.Background())
	assert.False(t, ok)

	_, err := session.Verify(context.Background())
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}
