package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/quentinrf/glucose-log/internal/adapters/mock"
	"github.com/quentinrf/glucose-log/internal/domain"
)

const dsnEnv = "GLUCOSE_TEST_POSTGRES_DSN"

// newTestRepo connects to the server named by GLUCOSE_TEST_POSTGRES_DSN and
// empties the records table. Tests are skipped when it is not set.
func newTestRepo(t *testing.T, clock *mock.FakeClock) *ReadingRepository {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set; skipping postgres integration test", dsnEnv)
	}

	cfg := Config{DSN: dsn}
	if clock != nil {
		cfg.Clock = clock
	}
	repo, err := NewReadingRepository(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to create postgres repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	if _, err := repo.db.Exec(`TRUNCATE records`); err != nil {
		t.Fatalf("truncate failed: %v", err)
	}
	return repo
}

func TestNewReadingRepository_EmptyDSN(t *testing.T) {
	_, err := NewReadingRepository(context.Background(), Config{})
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestNewReadingRepository_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewReadingRepository(ctx, Config{DSN: "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"})
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestInsertAndListAll(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := mock.NewFakeClock(base, 0)
	repo := newTestRepo(t, clock)
	ctx := context.Background()

	clock.Set(base.Add(2 * time.Hour))
	comment := " fasting "
	later, err := repo.Insert(ctx, domain.EmptyStomach, 90, &comment)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	clock.Set(base.Add(time.Hour))
	earlier, err := repo.Insert(ctx, domain.AfterMeal, 130, nil)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if earlier.ID <= later.ID {
		t.Errorf("expected strictly increasing ids, got %d then %d", later.ID, earlier.ID)
	}
	if later.CommentText() != "fasting" {
		t.Errorf("expected trimmed comment, got %q", later.CommentText())
	}

	list, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(list))
	}
	if list[0].ID != earlier.ID || list[1].ID != later.ID {
		t.Errorf("expected chronological order, got ids %d, %d", list[0].ID, list[1].ID)
	}
	if !list[0].CreatedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("unexpected created_at %v", list[0].CreatedAt)
	}
}
