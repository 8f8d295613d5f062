package catalog

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	createPattern = regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS construction_unit_costs")
	deletePattern = regexp.QuoteMeta("DELETE FROM construction_unit_costs WHERE schedule = $1")
	insertPattern = regexp.QuoteMeta("INSERT INTO construction_unit_costs")
)

func TestSeed_ReplacesScheduleAndDropsCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, mr.Set(cacheKeyPrefix+"default", "[]"))
	require.NoError(t, mr.Set(cacheKeyPrefix+"other", "[]"))

	mock.ExpectBegin()
	mock.ExpectExec(createPattern).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deletePattern).WithArgs("default").WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec(insertPattern).WithArgs("default", "I-A", "residential", "1700.00", int64(0), int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertPattern).WithArgs("default", "I-A", "commercial", "1950.00", int64(0), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertPattern).WithArgs("default", "II-A", "residential", "3800.00", int64(1), int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := Seed(context.Background(), db, rdb, "default", expectedCatalog(t))

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.False(t, mr.Exists(cacheKeyPrefix+"default"))
	assert.True(t, mr.Exists(cacheKeyPrefix+"other"))
}

func TestSeed_RollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(createPattern).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deletePattern).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertPattern).WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	_, err = Seed(context.Background(), db, nil, "default", expectedCatalog(t))

	assert.ErrorContains(t, err, "insert I-A/residential")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeed_RequiresDatabaseAndSchedule(t *testing.T) {
	_, err := Seed(context.Background(), nil, nil, "default", expectedCatalog(t))
	assert.Error(t, err)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	_, err = Seed(context.Background(), db, nil, "", expectedCatalog(t))
	assert.ErrorContains(t, err, "schedule name")
}
