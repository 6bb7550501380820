package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/landing-go/apperror"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBeginTx(ReadSnapshot)
	mock.ExpectQuery("SELECT 1").WillReturnRows(pgxmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectCommit()

	var n int
	err := WithTx(context.Background(), mock, ReadSnapshot, func(ctx context.Context, tx DBTX) error {
		return tx.QueryRow(ctx, "SELECT 1").Scan(&n)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := WithTx(context.Background(), mock, pgx.TxOptions{}, func(context.Context, DBTX) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestWithTx_RollsBackAndRethrowsPanic(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = WithTx(context.Background(), mock, pgx.TxOptions{}, func(context.Context, DBTX) error {
			panic("kaboom")
		})
	})
}

func TestWithTx_BeginFailure(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBeginTx(pgx.TxOptions{}).WillReturnError(errors.New("no connection"))

	called := false
	err := WithTx(context.Background(), mock, pgx.TxOptions{}, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)

	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.DatabaseError, appErr.Type)
}

func TestWithTx_CommitFailure(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err := WithTx(context.Background(), mock, pgx.TxOptions{}, func(context.Context, DBTX) error {
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction")
}
