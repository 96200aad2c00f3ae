package storage

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"streamchat/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMockDB creates a GORM *gorm.DB backed by sqlmock for unit tests.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return gormDB, mock
}

func TestSaveReport_DefaultsIDAndStatus(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	s := NewStorageService(gormDB, nil)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "reports"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	r := &models.Report{StreamID: "s1", ReporterID: "u1", MessageID: "m1", Reason: "spam"}
	require.NoError(t, s.SaveReport(r))

	assert.NotEmpty(t, r.ReportID)
	assert.Equal(t, models.ReportStatusNew, r.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReport_DatabaseError(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	s := NewStorageService(gormDB, nil)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "reports"`)).
		WillReturnError(errors.New("connection reset"))

	err := s.SaveReport(&models.Report{StreamID: "s1", MessageID: "m1", Reason: "spam"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveReport(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	s := NewStorageService(gormDB, nil)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reports" SET "status"=$1 WHERE report_id = $2`)).
		WithArgs(models.ReportStatusResolved, "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reports" SET "status"=$1 WHERE report_id = $2`)).
		WithArgs(models.ReportStatusResolved, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, s.ResolveReport("r1"))
	assert.ErrorIs(t, s.ResolveReport("missing"), ErrReportNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentMessages_OldestFirst(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	s := NewStorageService(gormDB, nil)

	newer := time.Date(2026, 10, 16, 9, 5, 0, 0, time.UTC)
	older := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "created_at", "message_id", "stream_id", "user_id", "user_name", "content", "is_admin"}).
		AddRow(2, newer, "m2", "s1", "u2", "bob", "second", false).
		AddRow(1, older, "m1", "s1", "u1", "alice", "first", true)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "chat_histories" WHERE stream_id = $1`)).
		WillReturnRows(rows)

	msgs, err := s.RecentMessages("s1", 50)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "first", msgs[0].Message)
	assert.True(t, msgs[0].IsAdmin)
	assert.Equal(t, "m2", msgs[1].ID)
	assert.Equal(t, newer, msgs[1].Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMessage_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	s := NewStorageService(gormDB, nil)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "chat_histories" SET "deleted_at"=`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.DeleteMessage("s1", "m404"), ErrMessageNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMessage_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	s := NewStorageService(gormDB, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "chat_histories" WHERE (stream_id = $1 AND message_id = $2)`)).
		WithArgs("s1", "m404", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.FindMessage("s1", "m404")
	assert.ErrorIs(t, err, ErrMessageNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
