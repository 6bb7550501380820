package accounts

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/user/landing-go/auth"
	"github.com/user/landing-go/httpio"
	"github.com/user/landing-go/logging"
)

// Service is the part of Store the handlers use.
type Service interface {
	Create(ctx context.Context, req CreateAccountRequest) (*Account, error)
	Login(ctx context.Context, req LoginRequest) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
}

// TokenIssuer is implemented by auth.TokenService.
type TokenIssuer interface {
	Issue(accountID uuid.UUID, email, accountName string) (string, error)
}

// Handlers serves the account endpoints.
type Handlers struct {
	service Service
	tokens  TokenIssuer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service Service, tokens TokenIssuer) *Handlers {
	return &Handlers{service: service, tokens: tokens}
}

// HandleCreateAccount godoc
// @Summary Register an account
// @Description Creates an account. The response never includes the password hash.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param body body accounts.CreateAccountRequest true "Account details"
// @Success 201 {object} accounts.AccountResponse
// @Failure 400 {object} apperror.ErrorResponse "Invalid input or account cannot be created"
// @Failure 500 {object} apperror.ErrorResponse
// @Router /accounts [post]
func (h *Handlers) HandleCreateAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAccountRequest
		if err := httpio.DecodeJSON(w, r, &req); err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		account, err := h.service.Create(r.Context(), req)
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		logging.FromContext(r.Context()).Info(r.Context(), "account created", "account_id", account.ID)
		httpio.WriteJSON(w, http.StatusCreated, AccountResponse{Data: account})
	}
}

// HandleLogin godoc
// @Summary Log in
// @Description Verifies email and password and returns a signed token valid for 24 hours.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param body body accounts.LoginRequest true "Credentials"
// @Success 200 {object} accounts.TokenResponse
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Failure 401 {object} apperror.ErrorResponse "Invalid email or password"
// @Failure 500 {object} apperror.ErrorResponse
// @Router /login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := httpio.DecodeJSON(w, r, &req); err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		account, err := h.service.Login(r.Context(), req)
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		token, err := h.tokens.Issue(account.ID, account.Email, account.AccountName)
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		httpio.WriteJSON(w, http.StatusOK, TokenResponse{Token: token})
	}
}

// HandleMe godoc
// @Summary Current account
// @Description Returns the account the bearer token was issued to.
// @Tags Accounts
// @Produce json
// @Success 200 {object} accounts.AccountResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse "Account no longer exists"
// @Router /accounts/me [get]
// @Security BearerAuth
func (h *Handlers) HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.MustClaims(r.Context())
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		account, err := h.service.FindByID(r.Context(), claims.AccountID)
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		httpio.WriteJSON(w, http.StatusOK, AccountResponse{Data: account})
	}
}
