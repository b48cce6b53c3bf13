package localstore

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todosync/internal/identity"
	"todosync/internal/service"
)

func newMockStore(t *testing.T) (*SQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &SQLite{db: db, log: zap.NewNop().Sugar()}, mock
}

func TestSQLite_WriteFailureIsLocalStoreError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lists")).
		WithArgs("temp_1", sqlmock.AnyArg()).
		WillReturnError(sql.ErrConnDone)

	err := s.WriteEntry(context.Background(), identity.Parse("temp_1"), service.List{ID: identity.Parse("temp_1")})
	require.Error(t, err)
	assert.True(t, service.IsLocalStore(err))
	assert.False(t, service.IsTransport(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_ReadMissingIsAbsent(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectEntrySQL)).
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"body"}))

	_, ok, err := s.ReadEntry(context.Background(), identity.Parse("abc123"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_CorruptRecord(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectCollectionSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow("{not json"))

	_, err := s.ReadCollection(context.Background())
	require.Error(t, err)
	assert.True(t, service.IsLocalStore(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_WriteCollectionRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteAllSQL)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lists")).
		WithArgs("a", 0, sqlmock.AnyArg()).
		WillReturnError(sql.ErrTxDone)
	mock.ExpectRollback()

	err := s.WriteCollection(context.Background(), []service.List{{ID: identity.Parse("a")}})
	require.Error(t, err)
	assert.True(t, service.IsLocalStore(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
