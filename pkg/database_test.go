package gaindrift

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	sqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestGetAcceptedRunsFromDB(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{"RunNumber"}).AddRow(int64(1002)).AddRow(int64(1000)).AddRow(int64(1005))
	mock.ExpectQuery(acceptedRunsQuery).WithArgs(112, 4494, 5331, 3).WillReturnRows(rows)

	runs, err := GetAcceptedRunsFromDB(db, 112, 4494, 5331, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1002, 1000, 1005}, runs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAcceptedRunsFromDBShort(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{"RunNumber"}).AddRow(int64(1002))
	mock.ExpectQuery(acceptedRunsQuery).WithArgs(112, 4494, 5331, 3).WillReturnRows(rows)

	_, err := GetAcceptedRunsFromDB(db, 112, 4494, 5331, 3)
	var listErr *InputListError
	require.ErrorAs(t, err, &listErr)
	assert.ErrorIs(t, err, ErrShortRunList)
}

func TestGetAcceptedRunsFromDBQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(acceptedRunsQuery).WillReturnError(errors.New("connection lost"))

	_, err := GetAcceptedRunsFromDB(db, 112, 4494, 5331, 3)
	var listErr *InputListError
	require.ErrorAs(t, err, &listErr)
	assert.Contains(t, err.Error(), "connection lost")
}

func TestGetGeometryFromDB(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{"Channel", "PulserPosition", "OvershootPosition"}).
		AddRow(int64(112), 281e3, 22.5e3).
		AddRow(int64(144), 37e3, 3.1e3)
	mock.ExpectQuery(geometryQuery).WithArgs(4494, 4494).WillReturnRows(rows)

	geometry, err := GetGeometryFromDB(db, 4494)
	require.NoError(t, err)
	assert.Equal(t, GeometryTable{
		112: {PulserPosition: 281e3, OvershootPosition: 22.5e3},
		144: {PulserPosition: 37e3, OvershootPosition: 3.1e3},
	}, geometry)
	assert.Equal(t, []int{112, 144}, geometry.Channels())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetGeometryFromDBNoRows(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{"Channel", "PulserPosition", "OvershootPosition"})
	mock.ExpectQuery(geometryQuery).WithArgs(10, 10).WillReturnRows(rows)

	_, err := GetGeometryFromDB(db, 10)
	assert.Error(t, err)
}
