package store

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockSQLite(t *testing.T) (*SQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS kv")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s, err := NewSQLite(context.Background(), db)
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(1718000000000) }
	return s, mock
}

func TestSQLite_Get(t *testing.T) {
	s, mock := newMockSQLite(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(sqliteGet)).
		WithArgs(KeyAccounts).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`[]`)))
	got, err := s.Get(ctx, KeyAccounts)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	mock.ExpectQuery(regexp.QuoteMeta(sqliteGet)).
		WithArgs(KeyHistory).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	got, err = s.Get(ctx, KeyHistory)
	require.NoError(t, err)
	assert.Nil(t, got)

	mock.ExpectQuery(regexp.QuoteMeta(sqliteGet)).
		WithArgs(KeyCandidates).
		WillReturnError(errors.New("disk I/O error"))
	_, err = s.Get(ctx, KeyCandidates)
	assert.True(t, IsStorageFailure(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_SetManyCommitsOnce(t *testing.T) {
	s, mock := newMockSQLite(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv")).
		WithArgs(KeyAccounts, []byte(`[1]`), int64(1718000000000)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv")).
		WithArgs(KeyHistory, []byte(`[2]`), int64(1718000000000)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.SetMany(context.Background(), map[string][]byte{
		KeyHistory:  []byte(`[2]`),
		KeyAccounts: []byte(`[1]`),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_SetManyRollsBack(t *testing.T) {
	s, mock := newMockSQLite(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv")).
		WithArgs(KeyAccounts, []byte(`[1]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv")).
		WithArgs(KeyHistory, []byte(`[2]`), sqlmock.AnyArg()).
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	err := s.SetMany(context.Background(), map[string][]byte{
		KeyAccounts: []byte(`[1]`),
		KeyHistory:  []byte(`[2]`),
	})
	require.Error(t, err)
	assert.True(t, IsStorageFailure(err))

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KeyHistory, se.Key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_RealDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "smsledger.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	exerciseKV(t, s)
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, KeyAccounts)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}
