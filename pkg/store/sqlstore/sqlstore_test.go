package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-resilience/pkg/simerr"
	"github.com/dd0wney/cluso-resilience/pkg/store/storetest"
)

func openSQLite(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "reports.db")
	s, err := Open(context.Background(), "sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestSQLiteContract(t *testing.T) {
	s, _ := openSQLite(t)
	storetest.Run(t, s)
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	s, path := openSQLite(t)

	want := storetest.Report("persisted", 0.33)
	require.NoError(t, s.Save(ctx, want))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, "sqlite", path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSQLitePayloadCompressed(t *testing.T) {
	ctx := context.Background()
	s, _ := openSQLite(t)
	require.NoError(t, s.Save(ctx, storetest.Report("compressed", 0.5)))

	var (
		payload []byte
		score   float64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, resilience_score FROM resilience_reports WHERE fingerprint = ?`, "compressed").
		Scan(&payload, &score)
	require.NoError(t, err)
	assert.Equal(t, 0.5, score)

	data, err := snappy.Decode(nil, payload)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fingerprint":"compressed"`)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	assert.Error(t, err)
}

func TestDialectFor(t *testing.T) {
	for driver, want := range map[string]Dialect{
		"sqlite":     SQLite,
		"SQLite3":    SQLite,
		"pgx":        Postgres,
		"postgres":   Postgres,
		"postgresql": Postgres,
	} {
		got, err := DialectFor(driver)
		require.NoError(t, err, driver)
		assert.Equal(t, want, got, driver)
	}
}

func TestRebind(t *testing.T) {
	q := `SELECT a FROM t WHERE b = ? AND c = ?`
	assert.Equal(t, q, SQLite.rebind(q))
	assert.Equal(t, `SELECT a FROM t WHERE b = $1 AND c = $2`, Postgres.rebind(q))
}

func newMock(t *testing.T, dialect Dialect) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS resilience_reports").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_resilience_reports_type").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := New(context.Background(), db, dialect)
	require.NoError(t, err)
	return s, mock
}

func TestMigrationFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	_, err = New(context.Background(), db, Postgres)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveUsesNumberedPlaceholders(t *testing.T) {
	s, mock := newMock(t, Postgres)
	report := storetest.Report("pg", 0.7)

	mock.ExpectExec(regexp.QuoteMeta("VALUES ($1, $2, $3, $4, $5, $6)")).
		WithArgs("pg", report.ScenarioType, report.ScenarioID, 0.7, report.GeneratedAt.UnixNano(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Save(context.Background(), report))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveError(t *testing.T) {
	s, mock := newMock(t, SQLite)

	mock.ExpectExec("INSERT INTO resilience_reports").
		WillReturnError(errors.New("disk I/O error"))

	err := s.Save(context.Background(), storetest.Report("x", 0.1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save report")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	s, mock := newMock(t, Postgres)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM resilience_reports WHERE fingerprint = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	_, err := s.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, simerr.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCorruptPayload(t *testing.T) {
	s, mock := newMock(t, SQLite)

	mock.ExpectQuery("SELECT payload FROM resilience_reports").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte("not snappy")))

	_, err := s.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decompress report bad")
}

func TestListQueryError(t *testing.T) {
	s, mock := newMock(t, SQLite)

	mock.ExpectQuery("SELECT fingerprint, payload FROM resilience_reports").
		WillReturnError(errors.New("connection reset"))

	_, err := s.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list reports")
}

func TestDeleteNotFound(t *testing.T) {
	s, mock := newMock(t, Postgres)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM resilience_reports WHERE fingerprint = $1")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Delete(context.Background(), "gone")
	assert.True(t, simerr.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClose(t *testing.T) {
	s, mock := newMock(t, SQLite)
	mock.ExpectClose()

	require.NoError(t, s.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
