package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/user/landing-go/apperror"
)

// DefaultTokenDuration is how long an issued token stays valid.
const DefaultTokenDuration = 24 * time.Hour

// ErrInvalidToken is returned for every token that fails validation. Callers
// never learn which check failed.
var ErrInvalidToken = apperror.NewAuthError("invalid token", nil)

// Claims is the verified payload of an identity token. Email and AccountName
// are copied from the account at issue time and may be stale until the token
// expires.
type Claims struct {
	Email       string `json:"email"`
	AccountName string `json:"account_name"`
	jwt.RegisteredClaims

	// AccountID is the parsed subject, set by Validate.
	AccountID uuid.UUID `json:"-"`
}

// TokenService issues and validates HS256 identity tokens with a secret that
// is fixed for the life of the process.
type TokenService struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

// NewTokenService returns a TokenService signing with secret. A non-positive
// duration means DefaultTokenDuration.
func NewTokenService(secret string, duration time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, apperror.NewConfigError("JWT secret must not be empty", nil)
	}
	if duration <= 0 {
		duration = DefaultTokenDuration
	}
	return &TokenService{
		secret:   []byte(secret),
		duration: duration,
		now:      time.Now,
	}, nil
}

// Issue signs a token for the given account.
func (s *TokenService) Issue(accountID uuid.UUID, email, accountName string) (string, error) {
	now := s.now()
	claims := &Claims{
		Email:       email,
		AccountName: accountName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", apperror.NewInternalError("failed to sign token", err)
	}
	return signed, nil
}

// Validate verifies the signature and expiry of tokenString and returns its
// claims. Any failure is ErrInvalidToken.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims.AccountID = id
	return claims, nil
}

// IsInvalidToken reports whether err came from Validate.
func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}
