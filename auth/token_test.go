package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/landing-go/apperror"
)

var issuedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestTokenService(t *testing.T, clock *time.Time) *TokenService {
	t.Helper()
	s, err := NewTokenService("test-secret", DefaultTokenDuration)
	require.NoError(t, err)
	s.now = func() time.Time { return *clock }
	return s
}

func TestTokenService_RoundTrip(t *testing.T) {
	clock := issuedAt
	s := newTestTokenService(t, &clock)
	id := uuid.New()

	token, err := s.Issue(id, "alice@example.com", "alice")
	require.NoError(t, err)

	claims, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.AccountID)
	assert.Equal(t, id.String(), claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "alice", claims.AccountName)
	assert.True(t, issuedAt.Add(24*time.Hour).Equal(claims.ExpiresAt.Time))
}

func TestTokenService_ExpiryBoundary(t *testing.T) {
	clock := issuedAt
	s := newTestTokenService(t, &clock)

	token, err := s.Issue(uuid.New(), "alice@example.com", "alice")
	require.NoError(t, err)

	clock = issuedAt.Add(24*time.Hour - time.Second)
	_, err = s.Validate(token)
	require.NoError(t, err)

	clock = issuedAt.Add(24 * time.Hour)
	_, err = s.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestTokenService_RejectsEveryInvalidShape(t *testing.T) {
	clock := issuedAt
	s := newTestTokenService(t, &clock)
	valid := &Claims{
		Email: "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	}
	noExpiry := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()}}
	badSubject := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}}

	tests := map[string]string{
		"empty":           "",
		"garbage":         "not.a.token",
		"forged":          signed(t, jwt.SigningMethodHS256, []byte("other-secret"), valid),
		"wrong algorithm": signed(t, jwt.SigningMethodHS512, []byte("test-secret"), valid),
		"unsigned":        signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid),
		"no expiry":       signed(t, jwt.SigningMethodHS256, []byte("test-secret"), noExpiry),
		"bad subject":     signed(t, jwt.SigningMethodHS256, []byte("test-secret"), badSubject),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			claims, err := s.Validate(token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.True(t, apperror.IsAuthError(err))
		})
	}
}

func TestNewTokenService(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	require.Error(t, err)

	s, err := NewTokenService("k", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenDuration, s.duration)
}
