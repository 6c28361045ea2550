// Package sqlstore persists reports in SQLite or PostgreSQL through
// database/sql. Each report is stored as snappy-compressed JSON next to a
// few indexed summary columns.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/snappy"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
	"github.com/dd0wney/cluso-resilience/pkg/store"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect struct {
	Name     string
	Driver   string
	BlobType string
	// Numbered placeholders ($1, $2) instead of ?.
	Numbered bool
}

// Supported dialects
var (
	SQLite   = Dialect{Name: "sqlite", Driver: "sqlite", BlobType: "BLOB"}
	Postgres = Dialect{Name: "postgres", Driver: "pgx", BlobType: "BYTEA", Numbered: true}
)

// DialectFor maps a configured driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unsupported sql driver %q", driver)
}

// rebind rewrites ? placeholders for dialects that number them.
func (d Dialect) rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Compile-time contract assertion.
var _ store.ReportStore = (*Store)(nil)

// Store is a database/sql backed ReportStore.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) {
		s.logger = logging.OrNop(l)
	}
}

// Open connects to dsn with the named driver ("sqlite" or "pgx"), verifies
// the connection and creates the schema.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	if dialect == SQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name, err)
	}
	if dialect == SQLite {
		// One writer at a time avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Name, err)
	}

	s, err := New(ctx, db, dialect, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and creates the schema. The Store owns db.
func New(ctx context.Context, db *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	s := &Store{db: db, dialect: dialect, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

// migrate creates the reports table if it does not exist
func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS resilience_reports (
		fingerprint TEXT PRIMARY KEY,
		scenario_type TEXT NOT NULL,
		scenario_id TEXT NOT NULL,
		resilience_score DOUBLE PRECISION NOT NULL,
		generated_at BIGINT NOT NULL,
		payload ` + s.dialect.BlobType + ` NOT NULL
	)`,
		`CREATE INDEX IF NOT EXISTS idx_resilience_reports_type ON resilience_reports(scenario_type)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func encode(report resilience.Report) ([]byte, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return snappy.Encode(nil, data), nil
}

func decode(fingerprint string, payload []byte) (resilience.Report, error) {
	var report resilience.Report
	data, err := snappy.Decode(nil, payload)
	if err != nil {
		return report, fmt.Errorf("failed to decompress report %s: %w", fingerprint, err)
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("failed to unmarshal report %s: %w", fingerprint, err)
	}
	return report, nil
}

// Save inserts or replaces a report
func (s *Store) Save(ctx context.Context, report resilience.Report) error {
	if err := store.CheckFingerprint("save report", report.Fingerprint); err != nil {
		return err
	}
	payload, err := encode(report)
	if err != nil {
		return err
	}

	query := s.dialect.rebind(`
		INSERT INTO resilience_reports (fingerprint, scenario_type, scenario_id, resilience_score, generated_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (fingerprint) DO UPDATE SET
			scenario_type = excluded.scenario_type,
			scenario_id = excluded.scenario_id,
			resilience_score = excluded.resilience_score,
			generated_at = excluded.generated_at,
			payload = excluded.payload
	`)

	_, err = s.db.ExecContext(ctx, query,
		report.Fingerprint,
		report.ScenarioType,
		report.ScenarioID,
		report.ResilienceScore,
		report.GeneratedAt.UnixNano(),
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	s.logger.Debug("report saved",
		logging.Fingerprint(report.Fingerprint),
		logging.Int("bytes", len(payload)))
	return nil
}

// Get retrieves a report by fingerprint
func (s *Store) Get(ctx context.Context, fingerprint string) (resilience.Report, error) {
	query := s.dialect.rebind(`SELECT payload FROM resilience_reports WHERE fingerprint = ?`)

	var payload []byte
	err := s.db.QueryRowContext(ctx, query, fingerprint).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return resilience.Report{}, store.NotFound("get report", fingerprint)
	}
	if err != nil {
		return resilience.Report{}, fmt.Errorf("failed to get report: %w", err)
	}
	return decode(fingerprint, payload)
}

// List returns all reports ordered by fingerprint
func (s *Store) List(ctx context.Context) ([]resilience.Report, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fingerprint, payload FROM resilience_reports ORDER BY fingerprint`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reports []resilience.Report
	for rows.Next() {
		var (
			fingerprint string
			payload     []byte
		)
		if err := rows.Scan(&fingerprint, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		report, err := decode(fingerprint, payload)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// Delete removes a report
func (s *Store) Delete(ctx context.Context, fingerprint string) error {
	query := s.dialect.rebind(`DELETE FROM resilience_reports WHERE fingerprint = ?`)

	result, err := s.db.ExecContext(ctx, query, fingerprint)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if n == 0 {
		return store.NotFound("delete report", fingerprint)
	}
	return nil
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
