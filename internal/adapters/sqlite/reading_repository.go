package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // registers "sqlite" (pure Go)

	"github.com/quentinrf/glucose-log/internal/domain"
	"github.com/quentinrf/glucose-log/internal/ports"
)

// Driver names accepted in Config.Driver
const (
	DriverCgo    = "sqlite3"
	DriverPureGo = "sqlite"
)

const memoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	meal_type TEXT NOT NULL,
	sugar_level INTEGER NOT NULL,
	comment TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at);
CREATE INDEX IF NOT EXISTS idx_records_meal_type ON records(meal_type);
`

// Config configures the SQLite repository
type Config struct {
	// Path is the database file; its parent directory is created if missing
	Path string

	// Driver is DriverCgo (default) or DriverPureGo
	Driver string

	// Clock stamps new readings; defaults to the system clock
	Clock ports.Clock
}

// ReadingRepository implements domain.ReadingRepository with SQLite
type ReadingRepository struct {
	db    *sql.DB
	clock ports.Clock
}

// NewReadingRepository opens (or creates) the database at cfg.Path and
// ensures the records table exists. Safe to call on an existing database.
func NewReadingRepository(cfg Config) (*ReadingRepository, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: sqlite path is empty", domain.ErrInvalidConfig)
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverCgo
	}
	if cfg.Clock == nil {
		cfg.Clock = ports.SystemClock{}
	}

	dsn, err := buildDSN(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, err
	}

	if cfg.Path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create db dir: %v", domain.ErrStorageUnavailable, err)
		}
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", domain.ErrStorageUnavailable, err)
	}

	// Every pooled connection to :memory: would see its own empty database
	if cfg.Path == memoryPath {
		db.SetMaxOpenConns(1)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %v", domain.ErrStorageUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to create schema: %v", domain.ErrStorageUnavailable, err)
	}

	return &ReadingRepository{db: db, clock: cfg.Clock}, nil
}

// buildDSN returns a file: URI for path. The path is percent-escaped so
// '?', '#' and '%' in a directory or file name stay part of the name.
func buildDSN(driver, path string) (string, error) {
	var params string
	switch driver {
	case DriverCgo:
		params = "_journal_mode=WAL&_busy_timeout=5000"
	case DriverPureGo:
		params = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	default:
		return "", fmt.Errorf("%w: unknown sqlite driver %q", domain.ErrInvalidConfig, driver)
	}
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?" + params, nil
}

// Insert stores a reading and reads it back by its new ID
func (r *ReadingRepository) Insert(ctx context.Context, mealContext domain.MealContext, level int, comment *string) (*domain.Reading, error) {
	createdAt := domain.Timestamp(r.clock.Now())
	comment = domain.NormalizeComment(comment)

	query := `INSERT INTO records (meal_type, sugar_level, comment, created_at) VALUES (?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, string(mealContext), level, nullString(comment), createdAt.Format(domain.TimeLayout))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert reading: %v", domain.ErrStorageUnavailable, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get insert id: %v", domain.ErrStorageUnavailable, err)
	}

	return r.get(ctx, id)
}

func (r *ReadingRepository) get(ctx context.Context, id int64) (*domain.Reading, error) {
	query := `SELECT id, meal_type, sugar_level, comment, created_at FROM records WHERE id = ?`

	reading, err := scanReading(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", domain.ErrInsertFailed, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read back reading: %v", domain.ErrStorageUnavailable, err)
	}
	return reading, nil
}

// ListAll returns every reading, oldest first
func (r *ReadingRepository) ListAll(ctx context.Context) ([]*domain.Reading, error) {
	query := `
		SELECT id, meal_type, sugar_level, comment, created_at
		FROM records
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query readings: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	readings := make([]*domain.Reading, 0)
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan reading: %v", domain.ErrStorageUnavailable, err)
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate readings: %v", domain.ErrStorageUnavailable, err)
	}

	return readings, nil
}

// Ping checks the database is reachable
func (r *ReadingRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Close closes the database connection
func (r *ReadingRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReading(s scanner) (*domain.Reading, error) {
	var (
		reading     domain.Reading
		mealContext string
		comment     sql.NullString
		createdAt   string
	)

	if err := s.Scan(&reading.ID, &mealContext, &reading.Level, &comment, &createdAt); err != nil {
		return nil, err
	}

	ts, err := time.Parse(domain.TimeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	reading.MealContext = domain.MealContext(mealContext)
	reading.CreatedAt = ts.UTC()
	if comment.Valid {
		c := comment.String
		reading.Comment = &c
	}
	return &reading, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
