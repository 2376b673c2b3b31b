package repositories

import (
	"context"
	"testing"

	"apiscaffold/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawBase = "SELECT id, name FROM (SELECT id, name FROM roles) AS t ORDER BY id DESC"

func TestRawQuerySetSliceAppendsLimitOffsetOnce(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer sqlDB.Close()

	rs := NewRawQuerySet(sqlDB, RawQuery{SQL: "SELECT id, name FROM roles", Columns: []string{"id", "name"}})
	window, err := rs.Slice(5, 15)
	require.NoError(t, err)

	raw := window.(*RawQuerySet)
	assert.Equal(t, rawBase+" LIMIT 10 OFFSET 5", raw.SQL())

	mock.ExpectQuery(rawBase + " LIMIT 10 OFFSET 5").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(6), "ops").AddRow(int64(7), "audit"))

	first, err := window.Fetch(context.Background())
	require.NoError(t, err)
	second, err := window.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, first, 2)
	assert.Equal(t, first, second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRawQuerySetNoOffsetAtStartAndCountMemoized(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer sqlDB.Close()

	rs := NewRawQuerySet(sqlDB, RawQuery{SQL: "SELECT id, name FROM roles", Columns: []string{"id", "name"}})
	window, err := rs.Slice(0, 10)
	require.NoError(t, err)
	assert.Equal(t, rawBase+" LIMIT 10", window.(*RawQuerySet).SQL())

	mock.ExpectQuery("SELECT count(*) FROM (SELECT id, name FROM roles) AS t").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := rs.Count(context.Background())
	require.NoError(t, err)
	again, err := rs.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, 42, again)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRawQuerySetIndexAndNegative(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer sqlDB.Close()

	rs := NewRawQuerySet(sqlDB, RawQuery{SQL: "SELECT id, name FROM roles", Columns: []string{"id", "name"}})

	_, err = rs.Slice(-1, 3)
	assert.True(t, domain.IsValidation(err))

	mock.ExpectQuery(rawBase + " LIMIT 1 OFFSET 3").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(4), "viewer"))

	row, err := rs.Index(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "viewer", row["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}
