package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"solarnotify/internal/domain/notification"
)

// ==========================
// Test Helper Functions
// ==========================

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewPostgresStoreWithDB(db), mock
}

var attemptColumns = []string{
	"id", "notification_id", "channel", "status",
	"provider_message_id", "error", "sent_at", "created_at", "updated_at",
}

func existingAttemptRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(attemptColumns).
		AddRow("att-1", "notif-1", "email", "failed", "", "smtp timeout", nil, now, now)
}

// nonNilTime matches a bound timestamp argument that actually carries a value.
type nonNilTime struct{}

func (nonNilTime) Match(v driver.Value) bool {
	ts, ok := v.(time.Time)
	return ok && !ts.IsZero()
}

// ==========================
// SaveAttempts
// ==========================

func TestSaveAttemptsUpdatesExistingChannelInPlace(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "notification_channels" WHERE notification_id = \$1 AND channel = \$2`).
		WillReturnRows(existingAttemptRow(now))
	// The existing row is updated; with ordered expectations, an INSERT here
	// would fail the call.
	mock.ExpectExec(`UPDATE "notification_channels" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sentAt := time.Now().UTC()
	err := s.SaveAttempts(context.Background(), "notif-1", []notification.ChannelAttempt{{
		Channel:           notification.ChannelEmail,
		Status:            notification.StatusSent,
		ProviderMessageID: "em-2",
		SentAt:            &sentAt,
	}})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveAttemptsInsertsNewChannel(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "notification_channels" WHERE notification_id = \$1 AND channel = \$2`).
		WillReturnRows(sqlmock.NewRows(attemptColumns))
	mock.ExpectQuery(`INSERT INTO "notification_channels"`).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("sent"))
	mock.ExpectCommit()

	sentAt := time.Now().UTC()
	err := s.SaveAttempts(context.Background(), "notif-1", []notification.ChannelAttempt{{
		Channel:           notification.ChannelSMS,
		Status:            notification.StatusSent,
		ProviderMessageID: "sm-9",
		SentAt:            &sentAt,
	}})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveAttemptsRollsBackOnFailure(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "notification_channels" WHERE notification_id = \$1 AND channel = \$2`).
		WillReturnRows(existingAttemptRow(now))
	mock.ExpectExec(`UPDATE "notification_channels" SET`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.SaveAttempts(context.Background(), "notif-1", []notification.ChannelAttempt{{
		Channel: notification.ChannelEmail,
		Status:  notification.StatusFailed,
		Error:   "provider down",
	}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "updating channel attempt")
	require.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// ReconcileAttempt
// ==========================

func TestReconcileAttemptToSentStampsSentAtAndClearsError(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "notification_channels" WHERE channel = \$1 AND provider_message_id = \$2`).
		WillReturnRows(sqlmock.NewRows(attemptColumns).
			AddRow("att-1", "notif-1", "email", "queued", "em-1", "greylisted", nil, now, now))
	// Update columns bind alphabetically: error, sent_at, status, updated_at,
	// then the primary key in the WHERE clause.
	mock.ExpectExec(`UPDATE "notification_channels" SET`).
		WithArgs("", nonNilTime{}, "sent", sqlmock.AnyArg(), "att-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := s.ReconcileAttempt(context.Background(), notification.ChannelEmail, "em-1", notification.StatusSent, "")

	require.NoError(t, err)
	assert.True(t, updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileAttemptToFailedRecordsError(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "notification_channels" WHERE channel = \$1 AND provider_message_id = \$2`).
		WillReturnRows(sqlmock.NewRows(attemptColumns).
			AddRow("att-2", "notif-1", "sms", "sent", "sm-1", "", now, now, now))
	mock.ExpectExec(`UPDATE "notification_channels" SET`).
		WithArgs("handset off", "failed", sqlmock.AnyArg(), "att-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := s.ReconcileAttempt(context.Background(), notification.ChannelSMS, "sm-1", notification.StatusFailed, "handset off")

	require.NoError(t, err)
	assert.True(t, updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileAttemptUnknownProviderIDWritesNothing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "notification_channels" WHERE channel = \$1 AND provider_message_id = \$2`).
		WillReturnRows(sqlmock.NewRows(attemptColumns))

	updated, err := s.ReconcileAttempt(context.Background(), notification.ChannelEmail, "never-seen", notification.StatusSent, "")

	require.NoError(t, err)
	assert.False(t, updated)
	// No UPDATE was expected; any write would have errored above.
	require.NoError(t, mock.ExpectationsWereMet())
}
