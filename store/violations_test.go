package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	oracleworker "github.com/celestine-app/oracle-worker"
)

func TestViolationStore_LatestNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewViolationStore(db)

	mock.ExpectQuery(`SELECT \* FROM "oracle_violations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec, err := s.Latest(context.Background(), "hash1", oracleworker.ViolationAbusiveLanguage)
	require.NoError(t, err)
	require.Nil(t, rec)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestViolationStore_LatestReturnsNewest(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewViolationStore(db)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "oracle_violations"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id_hash", "type", "count", "message", "severity",
			"last_violation_at", "redeemed_at", "account_disabled", "created_at",
		}).AddRow(7, "hash1", "abusive_language", 2, "offending text", "medium", at, nil, false, at))

	rec, err := s.Latest(context.Background(), "hash1", oracleworker.ViolationAbusiveLanguage)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, oracleworker.ViolationAbusiveLanguage, rec.Type)
	require.Equal(t, 2, rec.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestViolationStore_Append(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewViolationStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "oracle_violations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := s.Append(context.Background(), &oracleworker.ViolationRecord{
		UserIDHash:      "hash1",
		Type:            oracleworker.ViolationSexualContent,
		Count:           1,
		Message:         "offending text",
		Severity:        oracleworker.SeverityHigh,
		LastViolationAt: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestViolationStore_ResetCountMissingRecord(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewViolationStore(db)

	mock.ExpectQuery(`SELECT \* FROM "oracle_violations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ok, err := s.ResetCount(context.Background(), "hash1", oracleworker.ViolationAbusiveLanguage, time.Now())
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestViolationStore_ResetCountUpdatesLatestRow(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewViolationStore(db)

	at := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "oracle_violations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id_hash", "type", "count", "created_at"}).
			AddRow(9, "hash1", "abusive_language", 1, at))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "oracle_violations" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := s.ResetCount(context.Background(), "hash1", oracleworker.ViolationAbusiveLanguage, at)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestViolationStore_Disabled(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewViolationStore(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "oracle_violations"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	disabled, err := s.Disabled(context.Background(), "hash1")
	require.NoError(t, err)
	require.True(t, disabled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestViolationStore_DisableAccount(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewViolationStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "oracle_violations" SET "account_disabled"`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, s.DisableAccount(context.Background(), "hash1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
