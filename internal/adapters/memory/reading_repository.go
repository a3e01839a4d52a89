package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/quentinrf/glucose-log/internal/domain"
	"github.com/quentinrf/glucose-log/internal/ports"
)

// ReadingRepository implements domain.ReadingRepository with in-memory storage
// This is perfect for development - no database setup needed
type ReadingRepository struct {
	mu       sync.RWMutex
	clock    ports.Clock
	readings []*domain.Reading
	nextID   int64
	closed   bool
}

// NewReadingRepository creates an empty in-memory repository
func NewReadingRepository() *ReadingRepository {
	return NewReadingRepositoryWithClock(ports.SystemClock{})
}

// NewReadingRepositoryWithClock creates an empty repository that stamps
// readings with clock
func NewReadingRepositoryWithClock(clock ports.Clock) *ReadingRepository {
	return &ReadingRepository{
		clock:  clock,
		nextID: 1,
	}
}

// Insert stores a reading in memory
func (r *ReadingRepository) Insert(ctx context.Context, mealContext domain.MealContext, level int, comment *string) (*domain.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: insert reading: %v", domain.ErrStorageUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("%w: repository closed", domain.ErrStorageUnavailable)
	}

	reading := &domain.Reading{
		ID:          r.nextID,
		MealContext: mealContext,
		Level:       level,
		Comment:     domain.NormalizeComment(comment),
		CreatedAt:   domain.Timestamp(r.clock.Now()),
	}
	r.nextID++

	r.readings = append(r.readings, reading)
	return reading.Clone(), nil
}

// ListAll returns copies of every reading, oldest first
func (r *ReadingRepository) ListAll(ctx context.Context) ([]*domain.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: list readings: %v", domain.ErrStorageUnavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("%w: repository closed", domain.ErrStorageUnavailable)
	}

	results := make([]*domain.Reading, 0, len(r.readings))
	for _, reading := range r.readings {
		results = append(results, reading.Clone())
	}

	// Sort by timestamp, ID breaks ties
	sort.SliceStable(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.Before(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})

	return results, nil
}

// Ping fails once the repository is closed
func (r *ReadingRepository) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("%w: repository closed", domain.ErrStorageUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Close marks the repository unusable
func (r *ReadingRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
