// Package store picks the reading backend from configuration and provides a
// lazily initialized, process-wide handle to it.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/glucose-log/internal/adapters/memory"
	"github.com/quentinrf/glucose-log/internal/adapters/postgres"
	"github.com/quentinrf/glucose-log/internal/adapters/sqlite"
	"github.com/quentinrf/glucose-log/internal/config"
	"github.com/quentinrf/glucose-log/internal/domain"
	"github.com/quentinrf/glucose-log/internal/ports"
)

// Open builds the repository named by cfg.Driver. This is the only place
// that knows which backends exist.
func Open(ctx context.Context, cfg config.StorageConfig, clock ports.Clock) (domain.ReadingRepository, error) {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	switch cfg.Driver {
	case config.DriverMemory:
		log.Info().Msg("initialized in-memory repository")
		return memory.NewReadingRepositoryWithClock(clock), nil

	case config.DriverSQLite:
		r, err := sqlite.NewReadingRepository(sqlite.Config{
			Path:   cfg.Path,
			Driver: cfg.SQLiteDriver,
			Clock:  clock,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("db_path", cfg.Path).Str("sqlite_driver", cfg.SQLiteDriver).Msg("initialized SQLite repository")
		return r, nil

	case config.DriverPostgres:
		r, err := postgres.NewReadingRepository(ctx, postgres.Config{
			DSN:   cfg.DSN,
			Clock: clock,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("initialized Postgres repository")
		return r, nil

	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", domain.ErrInvalidConfig, cfg.Driver)
	}
}

// DefaultInitTimeout bounds the first-use initialization of a Lazy handle
const DefaultInitTimeout = 30 * time.Second

// Factory builds a repository on first use
type Factory func(ctx context.Context) (domain.ReadingRepository, error)

// Lazy is a domain.ReadingRepository that opens its backend on the first
// call. Initialization runs exactly once; a failed initialization is
// remembered and returned to every later caller.
type Lazy struct {
	factory Factory
	timeout time.Duration

	once sync.Once
	repo domain.ReadingRepository
	err  error
}

var _ domain.ReadingRepository = (*Lazy)(nil)

// NewLazy wraps factory with DefaultInitTimeout
func NewLazy(factory Factory) *Lazy {
	return NewLazyWithTimeout(factory, DefaultInitTimeout)
}

// NewLazyWithTimeout wraps factory; initialization is abandoned after timeout
func NewLazyWithTimeout(factory Factory, timeout time.Duration) *Lazy {
	if timeout <= 0 {
		timeout = DefaultInitTimeout
	}
	return &Lazy{factory: factory, timeout: timeout}
}

func (l *Lazy) get(ctx context.Context) (domain.ReadingRepository, error) {
	l.once.Do(func() {
		// Detached so one caller's cancellation cannot poison the shared handle,
		// but still bounded so a hung dial cannot stall every caller
		initCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()
		l.repo, l.err = l.factory(initCtx)
		if l.err != nil {
			log.Error().Err(l.err).Msg("failed to initialize repository")
		}
	})
	return l.repo, l.err
}

// Insert opens the backend if needed, then inserts
func (l *Lazy) Insert(ctx context.Context, mealContext domain.MealContext, level int, comment *string) (*domain.Reading, error) {
	repo, err := l.get(ctx)
	if err != nil {
		return nil, unavailable(err)
	}
	return repo.Insert(ctx, mealContext, level, comment)
}

// ListAll opens the backend if needed, then lists
func (l *Lazy) ListAll(ctx context.Context) ([]*domain.Reading, error) {
	repo, err := l.get(ctx)
	if err != nil {
		return nil, unavailable(err)
	}
	return repo.ListAll(ctx)
}

// Ping opens the backend if needed, then pings it
func (l *Lazy) Ping(ctx context.Context) error {
	repo, err := l.get(ctx)
	if err != nil {
		return unavailable(err)
	}
	return repo.Ping(ctx)
}

// Close closes the backend if it was ever opened
func (l *Lazy) Close() error {
	// Burn the once so a Close before first use does not open anything later
	l.once.Do(func() {
		l.err = fmt.Errorf("%w: repository closed", domain.ErrStorageUnavailable)
	})
	if l.repo == nil {
		return nil
	}
	return l.repo.Close()
}

// unavailable makes sure init failures, including config errors, match
// ErrStorageUnavailable for callers
func unavailable(err error) error {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}
