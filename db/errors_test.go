package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/user/landing-go/apperror"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("23505")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType apperror.ErrorType
	}{
		{"deadline", context.DeadlineExceeded, apperror.UnavailableError},
		{"wrapped deadline", fmt.Errorf("acquire: %w", context.DeadlineExceeded), apperror.UnavailableError},
		{"other", errors.New("syntax error"), apperror.DatabaseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr, ok := apperror.FromError(WrapError("query failed", tt.err))
			if assert.True(t, ok) {
				assert.Equal(t, tt.wantType, appErr.Type)
				assert.ErrorIs(t, appErr, tt.err)
			}
		})
	}
}

func TestWrapError_PassesThrough(t *testing.T) {
	assert.NoError(t, WrapError("x", nil))

	notFound := apperror.NewNotFoundError("post not found", nil)
	assert.Same(t, notFound, WrapError("x", notFound))
}
