package accounts

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/user/landing-go/apperror"
	"github.com/user/landing-go/db"
)

var (
	// ErrInvalidCredentials covers an unknown email and a wrong password
	// alike, so login responses cannot be used to probe for accounts.
	ErrInvalidCredentials = apperror.NewAuthError("invalid email or password", nil)

	// ErrDuplicateEmail does not say which field collided.
	ErrDuplicateEmail = apperror.NewDuplicateError("account could not be created with the provided details", nil)

	ErrAccountNotFound = apperror.NewNotFoundError("account not found", nil)
)

// PasswordHasher is implemented by auth.Hasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}

const accountColumns = `id, email, account_name, email_verified_at, photo_identifier`

const (
	insertAccountSQL = `
		INSERT INTO accounts (email, password_hash, account_name)
		VALUES ($1, $2, $3)
		RETURNING ` + accountColumns

	selectPasswordHashSQL = `
		SELECT password_hash
		FROM accounts
		WHERE email = $1 AND deleted_at IS NULL`

	selectAccountByEmailSQL = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = $1 AND deleted_at IS NULL`

	selectAccountByIDSQL = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1 AND deleted_at IS NULL`
)

// dummyPassword is hashed once and verified against when an email is
// unknown, so both login failures spend the same bcrypt time.
const dummyPassword = "landing-login-timing-equalizer"

// Store persists accounts and checks credentials.
type Store struct {
	db        db.TxBeginner
	hasher    PasswordHasher
	dummyHash func() string
}

// NewStore creates a Store on conn, usually the application *db.Pool.
func NewStore(conn db.TxBeginner, hasher PasswordHasher) *Store {
	return &Store{
		db:     conn,
		hasher: hasher,
		dummyHash: sync.OnceValue(func() string {
			h, _ := hasher.Hash(dummyPassword)
			return h
		}),
	}
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Email, &a.AccountName, &a.EmailVerifiedAt, &a.PhotoIdentifier)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create hashes the password and stores a new account. An email already used
// by a live account is ErrDuplicateEmail.
func (s *Store) Create(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.NewValidationError("password cannot be used", err)
	}

	account, err := scanAccount(s.db.QueryRow(ctx, insertAccountSQL, req.Email, hash, req.AccountName))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, db.WrapError("failed to create account", err)
	}
	return account, nil
}

// Login returns the live account matching the credentials. The hash lookup,
// the verification and the account read share one repeatable-read snapshot,
// so an account deleted in between cannot log in.
func (s *Store) Login(ctx context.Context, req LoginRequest) (*Account, error) {
	var account *Account
	err := db.WithTx(ctx, s.db, db.ReadSnapshot, func(ctx context.Context, tx db.DBTX) error {
		var hash string
		err := tx.QueryRow(ctx, selectPasswordHashSQL, req.Email).Scan(&hash)
		if errors.Is(err, pgx.ErrNoRows) {
			// An unknown email still pays for one bcrypt comparison, so
			// response time does not reveal whether the account exists.
			_, _ = s.hasher.Verify(req.Password, s.dummyHash())
			return ErrInvalidCredentials
		}
		if err != nil {
			return db.WrapError("failed to look up account", err)
		}

		// a malformed stored hash is a failed login, not a server error
		ok, err := s.hasher.Verify(req.Password, hash)
		if err != nil || !ok {
			return ErrInvalidCredentials
		}

		// Same snapshot as the hash lookup, so ErrNoRows here should not
		// happen. It is still reported as bad credentials rather than 500.
		account, err = scanAccount(tx.QueryRow(ctx, selectAccountByEmailSQL, req.Email))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidCredentials
		}
		if err != nil {
			return db.WrapError("failed to load account", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// FindByID returns the live account with the given id.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	account, err := scanAccount(s.db.QueryRow(ctx, selectAccountByIDSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, db.WrapError("failed to load account", err)
	}
	return account, nil
}
