package accounts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/landing-go/auth"
)

type fakeService struct {
	createFn func(CreateAccountRequest) (*Account, error)
	loginFn  func(LoginRequest) (*Account, error)
	findFn   func(uuid.UUID) (*Account, error)
}

func (f *fakeService) Create(_ context.Context, req CreateAccountRequest) (*Account, error) {
	return f.createFn(req)
}

func (f *fakeService) Login(_ context.Context, req LoginRequest) (*Account, error) {
	return f.loginFn(req)
}

func (f *fakeService) FindByID(_ context.Context, id uuid.UUID) (*Account, error) {
	return f.findFn(id)
}

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	return tokens
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return rec
}

func TestHandleCreateAccount(t *testing.T) {
	id := uuid.New()
	svc := &fakeService{createFn: func(req CreateAccountRequest) (*Account, error) {
		assert.Equal(t, "hunter22", req.Password)
		return &Account{ID: id, Email: req.Email, AccountName: req.AccountName}, nil
	}}
	h := NewHandlers(svc, newTokens(t)).HandleCreateAccount()

	rec := post(h, `{"email":"alice@example.com","password":"hunter22","account_name":"alice"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":{"id":"`+id.String()+`","email":"alice@example.com","account_name":"alice","email_verified_at":null,"photo_identifier":null}}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "hunter22")
}

func TestHandleCreateAccount_Invalid(t *testing.T) {
	svc := &fakeService{createFn: func(CreateAccountRequest) (*Account, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	h := NewHandlers(svc, newTokens(t)).HandleCreateAccount()

	for _, body := range []string{
		``,
		`{"email":"not-an-email","password":"x","account_name":"a"}`,
		`{"email":"alice@example.com","account_name":"a"}`,
		`{"email":"alice@example.com","password":"` + strings.Repeat("x", 73) + `","account_name":"a"}`,
		// 40 runes but 160 bytes
		`{"email":"alice@example.com","password":"` + strings.Repeat("😀", 40) + `","account_name":"a"}`,
	} {
		rec := post(h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestHandleCreateAccount_Duplicate(t *testing.T) {
	svc := &fakeService{createFn: func(CreateAccountRequest) (*Account, error) {
		return nil, ErrDuplicateEmail
	}}
	h := NewHandlers(svc, newTokens(t)).HandleCreateAccount()

	rec := post(h, `{"email":"alice@example.com","password":"hunter22","account_name":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"account could not be created with the provided details"}`, rec.Body.String())
}

func TestHandleLogin_IssuesVerifiableToken(t *testing.T) {
	id := uuid.New()
	tokens := newTokens(t)
	svc := &fakeService{loginFn: func(req LoginRequest) (*Account, error) {
		return &Account{ID: id, Email: req.Email, AccountName: "alice"}, nil
	}}
	h := NewHandlers(svc, tokens).HandleLogin()

	rec := post(h, `{"email":"alice@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	claims, err := tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.AccountID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "alice", claims.AccountName)
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	svc := &fakeService{loginFn: func(LoginRequest) (*Account, error) {
		return nil, ErrInvalidCredentials
	}}
	h := NewHandlers(svc, newTokens(t)).HandleLogin()

	rec := post(h, `{"email":"alice@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid email or password"}`, rec.Body.String())
}

func TestHandleMe(t *testing.T) {
	id := uuid.New()
	svc := &fakeService{findFn: func(got uuid.UUID) (*Account, error) {
		if got != id {
			return nil, ErrAccountNotFound
		}
		return &Account{ID: id, Email: "alice@example.com", AccountName: "alice"}, nil
	}}
	h := NewHandlers(svc, newTokens(t)).HandleMe()

	serve := func(ctx context.Context) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
		return rec
	}

	rec := serve(auth.NewContextWithClaims(context.Background(), &auth.Claims{AccountID: id}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id.String())

	rec = serve(auth.NewContextWithClaims(context.Background(), &auth.Claims{AccountID: uuid.New()}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(context.Background())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
