package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"jobwatch/internal/adapters/repository/migrations"
	"jobwatch/internal/domain/model"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const migrationTable = "schema_migrations"

// SQLiteStore persists postings in a SQLite file.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// Open opens the SQLite posting store at path and applies embedded
// migrations. The parent directory must already exist.
func Open(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: storage path is required", ErrStoreUnavailable)
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", ErrStoreUnavailable, err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrStoreUnavailable, err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrStoreUnavailable, err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Exists reports whether a posting with this URL is persisted.
func (s *SQLiteStore) Exists(ctx context.Context, url string) (bool, error) {
	var one int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM postings WHERE url = ?`, url).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: exists: %w", ErrStoreUnavailable, err)
	}
	return true, nil
}

// Add inserts the posting iff its URL is new. The UNIQUE constraint on url
// is the authority; a violation means another insert won the race and is
// reported as (false, nil), identical to "already exists".
func (s *SQLiteStore) Add(ctx context.Context, p model.Posting) (bool, error) {
	firstSeen := p.FirstSeen
	if firstSeen.IsZero() {
		firstSeen = time.Now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO postings (company, title, url, location, job_type, description, first_seen, notified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		p.Company, p.Title, p.URL, p.Location, p.JobType, p.Description, toMillis(firstSeen),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: add: %w", ErrStoreUnavailable, err)
	}
	return true, nil
}

// MarkNotified flips the notified flag. Zero rows affected means the URL is
// unknown or already notified; both are fine.
func (s *SQLiteStore) MarkNotified(ctx context.Context, url string) error {
	_, err := s.sqlDB.ExecContext(ctx, `UPDATE postings SET notified = 1 WHERE url = ?`, url)
	if err != nil {
		return fmt.Errorf("%w: mark notified: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Unnotified returns persisted postings still awaiting notification, oldest
// first. Insertion id breaks first-seen ties so the order is stable.
func (s *SQLiteStore) Unnotified(ctx context.Context) ([]model.Posting, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT company, title, url, location, job_type, description, first_seen, notified
		 FROM postings WHERE notified = 0
		 ORDER BY first_seen, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: unnotified: %w", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var postings []model.Posting
	for rows.Next() {
		var p model.Posting
		var firstSeen int64
		var notified int
		if err := rows.Scan(&p.Company, &p.Title, &p.URL, &p.Location, &p.JobType,
			&p.Description, &firstSeen, &notified); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrStoreUnavailable, err)
		}
		p.FirstSeen = fromMillis(firstSeen)
		p.Notified = notified != 0
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: unnotified: %w", ErrStoreUnavailable, err)
	}
	return postings, nil
}

// Count returns the total number of persisted postings.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM postings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count: %w", ErrStoreUnavailable, err)
	}
	return count, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// applyMigrations executes embedded migrations at most once per file.
func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	if _, err := sqlDB.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY, applied_at INTEGER NOT NULL)`,
		migrationTable,
	)); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range sqlFiles {
		var applied int
		err := sqlDB.QueryRow(
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE name = ?", migrationTable), file,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if applied > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		upSQL := extractUpMigration(string(content))
		if strings.TrimSpace(upSQL) == "" {
			continue
		}

		tx, err := sqlDB.BeginTx(context.Background(), nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(upSQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec(
			fmt.Sprintf("INSERT OR IGNORE INTO %s (name, applied_at) VALUES (?, ?)", migrationTable),
			file, time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}

	return nil
}

// extractUpMigration returns the SQL in the -- +migrate Up section.
func extractUpMigration(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	downIdx := strings.Index(content, "-- +migrate Down")
	if downIdx == -1 {
		return content[upIdx+len("-- +migrate Up"):]
	}
	return content[upIdx+len("-- +migrate Up") : downIdx]
}

var _ Store = (*SQLiteStore)(nil)
