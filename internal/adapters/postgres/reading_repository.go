// Package postgres stores readings in a PostgreSQL server through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/quentinrf/glucose-log/internal/domain"
	"github.com/quentinrf/glucose-log/internal/ports"
)

const driverName = "pgx"

// Compile-time contract assertion
var _ domain.ReadingRepository = (*ReadingRepository)(nil)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS records (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		meal_type TEXT NOT NULL,
		sugar_level INTEGER NOT NULL,
		comment TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_records_meal_type ON records(meal_type)`,
}

// Config configures the Postgres repository
type Config struct {
	// DSN is the connection string, e.g. postgres://user@host/db?sslmode=disable
	DSN string

	// MaxOpenConns caps the pool; 0 means unlimited
	MaxOpenConns int

	// ConnMaxLifetime recycles connections; 0 keeps them forever
	ConnMaxLifetime time.Duration

	// Clock stamps new readings; defaults to the system clock
	Clock ports.Clock
}

// ReadingRepository implements domain.ReadingRepository with PostgreSQL
type ReadingRepository struct {
	db    *sql.DB
	clock ports.Clock
}

// NewReadingRepository connects to cfg.DSN and applies the idempotent schema.
// There is no default DSN: a missing connection string is a config error.
func NewReadingRepository(ctx context.Context, cfg Config) (*ReadingRepository, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: postgres dsn is empty", domain.ErrInvalidConfig)
	}
	if cfg.Clock == nil {
		cfg.Clock = ports.SystemClock{}
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", domain.ErrStorageUnavailable, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", domain.ErrStorageUnavailable, err)
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: execute ddl: %v", domain.ErrStorageUnavailable, err)
		}
	}

	return &ReadingRepository{db: db, clock: cfg.Clock}, nil
}

// Insert stores a reading in a single INSERT ... RETURNING statement
func (r *ReadingRepository) Insert(ctx context.Context, mealContext domain.MealContext, level int, comment *string) (*domain.Reading, error) {
	createdAt := domain.Timestamp(r.clock.Now())
	comment = domain.NormalizeComment(comment)

	var c sql.NullString
	if comment != nil {
		c = sql.NullString{String: *comment, Valid: true}
	}

	query := `
		INSERT INTO records (meal_type, sugar_level, comment, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, meal_type, sugar_level, comment, created_at
	`

	reading, err := scanReading(r.db.QueryRowContext(ctx, query, string(mealContext), level, c, createdAt))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInsertFailed
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert reading: %v", domain.ErrStorageUnavailable, err)
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
	defer func() { _ = rows.Close() }()

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

// Ping checks the server is reachable
func (r *ReadingRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping postgres: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Close closes the connection pool
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
		createdAt   time.Time
	)
	if err := s.Scan(&reading.ID, &mealContext, &reading.Level, &comment, &createdAt); err != nil {
		return nil, err
	}

	reading.MealContext = domain.MealContext(mealContext)
	reading.CreatedAt = domain.Timestamp(createdAt)
	if comment.Valid {
		c := comment.String
		reading.Comment = &c
	}
	return &reading, nil
}
