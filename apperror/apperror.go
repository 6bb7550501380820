// Package apperror defines a centralized system for application-specific errors.
// Every repository and auth operation returns one of these typed errors; the
// HTTP boundary turns them into a status code and a `{"error": ...}` body.
// Only the user-facing Message ever leaves the process. The wrapped Err is for
// logs and for errors.Is / errors.As inspection.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is an enumeration (using `iota`) for the categories of application errors.
type ErrorType int

const (
	// UnknownError is for unspecified errors
	UnknownError ErrorType = iota
	// DatabaseError represents an unexpected error originating from the database
	DatabaseError
	// ConfigError represents an error related to application configuration
	ConfigError
	// AuthError represents an authentication failure (bad credentials, missing or invalid token)
	AuthError
	// NotFoundError represents a missing resource, or one the caller does not own
	NotFoundError
	// ValidationError represents an input validation error
	ValidationError
	// BadRequestError represents a generic bad request (undecodable body, malformed id)
	BadRequestError
	// DuplicateError represents a uniqueness collision. It is reported like a
	// validation error so the response does not reveal which field collided.
	DuplicateError
	// InvalidQueryError represents rejected list parameters (unknown field, bad direction, bad page window)
	InvalidQueryError
	// InternalError represents a generic internal server error
	InternalError
	// MigrationError represents an error during database migrations
	MigrationError
	// UnavailableError represents a backend that could not be reached in time.
	// Callers may retry; the server never retries on its own.
	UnavailableError
	// MethodNotAllowedError is a known route requested with the wrong verb
	MethodNotAllowedError
)

// AppError is a custom error type for the application.
// It allows wrapping an underlying error (`Err`) for more detailed debugging.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error // Underlying error
}

// Error returns the string representation of the error, satisfying the `error` interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error so `errors.Is` and `errors.As` can walk the chain.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code appropriate for the error type
func (e *AppError) StatusCode() int {
	switch e.Type {
	case AuthError:
		return http.StatusUnauthorized
	case NotFoundError:
		return http.StatusNotFound
	case ValidationError, BadRequestError, DuplicateError, InvalidQueryError:
		return http.StatusBadRequest
	case MethodNotAllowedError:
		return http.StatusMethodNotAllowed
	case UnavailableError:
		return http.StatusServiceUnavailable
	case DatabaseError, ConfigError, InternalError, MigrationError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new AppError. This is the generic constructor the
// typed helpers below delegate to.
func NewAppError(errType ErrorType, message string, underlyingError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlyingError,
	}
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(message string, underlyingError error) *AppError {
	return NewAppError(DatabaseError, message, underlyingError)
}

// NewConfigError creates a new ConfigError
func NewConfigError(message string, underlyingError error) *AppError {
	return NewAppError(ConfigError, message, underlyingError)
}

// NewAuthError creates a new AuthError (for authentication issues)
func NewAuthError(message string, underlyingError error) *AppError {
	return NewAppError(AuthError, message, underlyingError)
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(message string, underlyingError error) *AppError {
	return NewAppError(NotFoundError, message, underlyingError)
}

// NewValidationError creates a new ValidationError
func NewValidationError(message string, underlyingError error) *AppError {
	return NewAppError(ValidationError, message, underlyingError)
}

// NewBadRequestError creates a new BadRequestError
func NewBadRequestError(message string, underlyingError error) *AppError {
	return NewAppError(BadRequestError, message, underlyingError)
}

// NewDuplicateError creates a new DuplicateError
func NewDuplicateError(message string, underlyingError error) *AppError {
	return NewAppError(DuplicateError, message, underlyingError)
}

// NewInvalidQueryError creates a new InvalidQueryError
func NewInvalidQueryError(message string, underlyingError error) *AppError {
	return NewAppError(InvalidQueryError, message, underlyingError)
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, underlyingError error) *AppError {
	return NewAppError(InternalError, message, underlyingError)
}

// NewMigrationError creates a new MigrationError
func NewMigrationError(message string, underlyingError error) *AppError {
	return NewAppError(MigrationError, message, underlyingError)
}

// NewUnavailableError creates a new UnavailableError
func NewUnavailableError(message string, underlyingError error) *AppError {
	return NewAppError(UnavailableError, message, underlyingError)
}

// ErrorResponse represents a generic error response payload for API clients.
type ErrorResponse struct {
	Error string `json:"error" example:"A description of the error"`
}

// ToResponse converts an AppError to an ErrorResponse suitable for API responses.
// Only the user-facing `Message` is included, never the underlying `Err`.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message}
}

// FromError finds the first *AppError in err's chain.
// It returns the *AppError and true if one exists, otherwise nil and false.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool { return isType(err, NotFoundError) }

// IsAuthError checks if an error is an AuthError (authentication problem)
func IsAuthError(err error) bool { return isType(err, AuthError) }

// IsValidationError checks if an error is a Validation error
func IsValidationError(err error) bool { return isType(err, ValidationError) }

// IsDuplicateError checks if an error is a Duplicate error
func IsDuplicateError(err error) bool { return isType(err, DuplicateError) }

// IsInvalidQuery checks if an error is an InvalidQuery error
func IsInvalidQuery(err error) bool { return isType(err, InvalidQueryError) }

// IsUnavailable checks if an error is an Unavailable error
func IsUnavailable(err error) bool { return isType(err, UnavailableError) }
