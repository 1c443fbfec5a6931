package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/webpack-chart/pkg/errors"
)

func setupMockCatalog(t *testing.T) (*GormCatalog, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormCatalog(db), mock
}

var recordColumns = []string{
	"id", "source", "public_path", "total_size", "module_count",
	"node_count", "max_depth", "top_level", "created_at",
}

func TestMySQLCatalog_Save(t *testing.T) {
	catalog, mock := setupMockCatalog(t)

	mock.ExpectExec("INSERT INTO `report_records`").
		WillReturnResult(sqlmock.NewResult(7, 1))

	rec := &ReportRecord{Source: "stats.json", TotalSize: 45, TopLevel: JSONField(`[]`)}
	require.NoError(t, catalog.Save(context.Background(), rec))
	assert.Equal(t, int64(7), rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLCatalog_SaveError(t *testing.T) {
	catalog, mock := setupMockCatalog(t)

	mock.ExpectExec("INSERT INTO `report_records`").
		WillReturnError(errors.New("connection reset"))

	err := catalog.Save(context.Background(), &ReportRecord{Source: "x"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetErrorCode(err))
}

func TestMySQLCatalog_List(t *testing.T) {
	catalog, mock := setupMockCatalog(t)
	now := time.Now()

	rows := sqlmock.NewRows(recordColumns).
		AddRow(int64(2), "b.json", "/", int64(100), 3, 5, 2, []byte(`[{"label":"a","value":100}]`), now).
		AddRow(int64(1), "a.json", "", int64(10), 1, 2, 1, nil, now.Add(-time.Hour))
	mock.ExpectQuery("SELECT \\* FROM `report_records` ORDER BY created_at DESC,id DESC LIMIT").
		WillReturnRows(rows)

	recs, err := catalog.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(2), recs[0].ID)

	entries, err := recs[0].Entries()
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"a", 100}}, entries)

	entries, err = recs[1].Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLCatalog_GetNotFound(t *testing.T) {
	catalog, mock := setupMockCatalog(t)

	mock.ExpectQuery("SELECT \\* FROM `report_records` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	_, err := catalog.Get(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMySQLCatalog_GetError(t *testing.T) {
	catalog, mock := setupMockCatalog(t)

	mock.ExpectQuery("SELECT \\* FROM `report_records`").
		WillReturnError(errors.New("timeout"))

	_, err := catalog.Get(context.Background(), 9)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetErrorCode(err))
}

func TestMySQLCatalog_Delete(t *testing.T) {
	catalog, mock := setupMockCatalog(t)

	mock.ExpectExec("DELETE FROM `report_records` WHERE id = \\?").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, catalog.Delete(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}
