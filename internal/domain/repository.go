package domain

import (
	"context"
)

// ReadingRepository defines how readings are stored and retrieved.
// This is a PORT - adapters (SQLite, Postgres, Memory) implement it.
// Failures to reach or write the backing store wrap ErrStorageUnavailable.
type ReadingRepository interface {
	// Insert assigns the next ID and the current timestamp, trims the comment,
	// persists the row and returns a copy of what was stored
	Insert(ctx context.Context, mealContext MealContext, level int, comment *string) (*Reading, error)

	// ListAll returns every reading ordered by CreatedAt, then ID, ascending
	ListAll(ctx context.Context) ([]*Reading, error)

	// Ping checks the backing store is reachable
	Ping(ctx context.Context) error

	// Close releases the underlying connection
	Close() error
}
