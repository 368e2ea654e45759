package ledger

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/laneguard/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store is the durable sqlite mirror of the in-memory ledger. The in-memory
// ledger stays authoritative for the run; the store exists so confirmed
// violations survive a process restart.
type Store struct {
	*sql.DB
}

// OpenStore opens (or creates) the violations database at path and runs all
// pending migrations.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open violations db: %w", err)
	}

	s := &Store{db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrateUp applies all pending schema migrations from the embedded FS.
func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(s.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// Note: we don't close m because it would close the underlying DB connection.

	m.Log = &migrateLogger{}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// migrateLogger implements migrate.Logger
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }

// InsertViolation mirrors one confirmed record into the database.
func (s *Store) InsertViolation(runID string, rec ViolationRecord) error {
	_, err := s.Exec(
		`INSERT INTO violations (
			run_id, vehicle_id, vehicle_class, frame_index,
			recorded_at_unix_ns, evidence_path
		) VALUES (?, ?, ?, ?, ?, ?)`,
		runID,
		rec.Identity,
		rec.Class,
		rec.FrameIndex,
		rec.RecordedAt.UnixNano(),
		rec.EvidencePath,
	)
	if err != nil {
		return fmt.Errorf("insert violation: %w", err)
	}
	return nil
}

// Violations returns all records for a run in insertion order.
func (s *Store) Violations(runID string) ([]ViolationRecord, error) {
	rows, err := s.Query(
		`SELECT vehicle_id, vehicle_class, frame_index, recorded_at_unix_ns, evidence_path
		 FROM violations
		 WHERE run_id = ?
		 ORDER BY violation_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query violations: %w", err)
	}
	defer rows.Close()

	var records []ViolationRecord
	for rows.Next() {
		var rec ViolationRecord
		var class sql.NullString
		var recordedNanos int64
		if err := rows.Scan(&rec.Identity, &class, &rec.FrameIndex, &recordedNanos, &rec.EvidencePath); err != nil {
			return nil, err
		}
		rec.Class = class.String
		rec.RecordedAt = time.Unix(0, recordedNanos).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ClearViolations deletes all records for a run and returns how many were removed.
func (s *Store) ClearViolations(runID string) (int64, error) {
	result, err := s.Exec(`DELETE FROM violations WHERE run_id = ?`, runID)
	if err != nil {
		return 0, fmt.Errorf("clear violations: %w", err)
	}
	return result.RowsAffected()
}
