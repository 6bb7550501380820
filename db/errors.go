package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/user/landing-go/apperror"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// WrapError converts a driver error into an *apperror.AppError.
//
// Errors that already carry an AppError pass through untouched. Timeouts and
// connection failures become UnavailableError (503, safe for the caller to
// retry); everything else is a DatabaseError with message as its public text.
func WrapError(message string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.FromError(err); ok {
		return err
	}
	if isUnavailable(err) {
		return apperror.NewUnavailableError("database unavailable", err)
	}
	return apperror.NewDatabaseError(message, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
