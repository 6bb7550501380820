package auth

import (
	"net/http"
	"strings"

	"github.com/user/landing-go/apperror"
	"github.com/user/landing-go/httpio"
	"github.com/user/landing-go/logging"
)

const bearerPrefix = "Bearer "

// TokenValidator is the part of TokenService the Gate needs.
type TokenValidator interface {
	Validate(tokenString string) (*Claims, error)
}

var (
	errMissingHeader = apperror.NewAuthError("authorization header is missing", nil)
	errHeaderFormat  = apperror.NewAuthError("authorization header format must be Bearer {token}", nil)
)

// Gate returns middleware that admits only requests carrying a valid
// "Authorization: Bearer <token>" header. Admitted requests see the verified
// claims through ClaimsFromContext; every other request gets a 401 and never
// reaches next.
func Gate(tokens TokenValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httpio.WriteError(w, r, errMissingHeader)
				return
			}

			// Exactly one token after the scheme. A value with embedded
			// whitespace is a malformed header, not a token to try.
			token, ok := strings.CutPrefix(header, bearerPrefix)
			if !ok || token == "" || strings.ContainsAny(token, " \t") {
				httpio.WriteError(w, r, errHeaderFormat)
				return
			}

			// Validation failures all surface as the same 401 body so a
			// client cannot tell a bad signature from an expired token. The
			// reason is only logged at debug level.
			claims, err := tokens.Validate(token)
			if err != nil {
				logging.FromContext(r.Context()).Debug(r.Context(), "rejected bearer token")
				if !apperror.IsAuthError(err) {
					err = ErrInvalidToken
				}
				httpio.WriteError(w, r, err)
				return
			}

			// Handlers behind the gate read the caller from the context and
			// never look at the header again.
			ctx := NewContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
