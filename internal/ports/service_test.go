package ports_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/quentinrf/glucose-log/internal/adapters/memory"
	"github.com/quentinrf/glucose-log/internal/adapters/mock"
	"github.com/quentinrf/glucose-log/internal/domain"
	"github.com/quentinrf/glucose-log/internal/ports"
)

type recordingObserver struct {
	created  []*domain.Reading
	rejected []error
}

func (o *recordingObserver) ReadingCreated(r *domain.Reading) { o.created = append(o.created, r) }
func (o *recordingObserver) ReadingRejected(err error)        { o.rejected = append(o.rejected, err) }

// failingRepo returns err from every call
type failingRepo struct{ err error }

func (f failingRepo) Insert(context.Context, domain.MealContext, int, *string) (*domain.Reading, error) {
	return nil, f.err
}
func (f failingRepo) ListAll(context.Context) ([]*domain.Reading, error) { return nil, f.err }
func (f failingRepo) Ping(context.Context) error                         { return f.err }
func (f failingRepo) Close() error                                       { return nil }

func newService(t *testing.T) (*ports.ReadingService, *recordingObserver) {
	t.Helper()
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	repo := memory.NewReadingRepositoryWithClock(mock.NewFakeClock(start, time.Second))
	obs := &recordingObserver{}
	return ports.NewReadingService(repo, obs), obs
}

func TestCreateReading_ValidInputs(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, mc := range domain.MealContexts {
		for _, level := range []int{0, 1, 95, 96, 120, 121, 500, 999, 1000} {
			got, err := svc.CreateReading(ctx, ports.CreateReadingInput{MealContext: string(mc), Level: float64(level)})
			if err != nil {
				t.Fatalf("CreateReading(%q, %d) failed: %v", mc, level, err)
			}
			if got.MealContext != mc || got.Level != level {
				t.Errorf("got (%q, %d), want (%q, %d)", got.MealContext, got.Level, mc, level)
			}
		}
	}
}

func TestCreateReading_LevelConversions(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		level   any
		want    int
		wantErr error
	}{
		{name: "json float", level: float64(90), want: 90},
		{name: "go int", level: 90, want: 90},
		{name: "go int64", level: int64(90), want: 90},
		{name: "json number", level: json.Number("130"), want: 130},
		{name: "numeric string", level: " 110 ", want: 110},
		{name: "exponent string", level: "1e2", want: 100},
		{name: "fractional float", level: 12.5, wantErr: domain.ErrInvalidLevel},
		{name: "fractional string", level: "12.5", wantErr: domain.ErrInvalidLevel},
		{name: "letters", level: "abc", wantErr: domain.ErrInvalidLevel},
		{name: "empty string", level: "", wantErr: domain.ErrInvalidLevel},
		{name: "nil", level: nil, wantErr: domain.ErrInvalidLevel},
		{name: "bool", level: true, wantErr: domain.ErrInvalidLevel},
		{name: "bool false", level: false, wantErr: domain.ErrInvalidLevel},
		{name: "whitespace string", level: "   ", wantErr: domain.ErrInvalidLevel},
		{name: "NaN", level: math.NaN(), wantErr: domain.ErrInvalidLevel},
		{name: "infinity", level: math.Inf(1), wantErr: domain.ErrInvalidLevel},
		{name: "negative", level: float64(-1), wantErr: domain.ErrLevelOutOfRange},
		{name: "above max", level: float64(1001), wantErr: domain.ErrLevelOutOfRange},
		{name: "huge integer", level: 1e300, wantErr: domain.ErrLevelOutOfRange},
		{name: "huge int64", level: int64(math.MaxInt64), wantErr: domain.ErrLevelOutOfRange},
		{name: "negative string", level: "-5", wantErr: domain.ErrLevelOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CreateReading(ctx, ports.CreateReadingInput{MealContext: "after meal", Level: tt.level})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Level != tt.want {
				t.Errorf("expected level %d, got %d", tt.want, got.Level)
			}
		})
	}
}

func TestCreateReading_InvalidMealContext(t *testing.T) {
	svc, obs := newService(t)
	ctx := context.Background()

	for _, mc := range []any{"", "Empty Stomach", "empty-stomach", "after_meal", " after meal", nil, 1} {
		_, err := svc.CreateReading(ctx, ports.CreateReadingInput{MealContext: mc, Level: float64(100)})
		if !errors.Is(err, domain.ErrInvalidMealContext) {
			t.Errorf("meal context %#v: expected ErrInvalidMealContext, got %v", mc, err)
		}
	}
	if len(obs.rejected) != 7 {
		t.Errorf("expected 7 rejections, got %d", len(obs.rejected))
	}
}

func TestCreateReading_ValidationOrder(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	// Meal context is checked before the level
	_, err := svc.CreateReading(ctx, ports.CreateReadingInput{MealContext: "lunch", Level: "abc"})
	if !errors.Is(err, domain.ErrInvalidMealContext) {
		t.Errorf("expected ErrInvalidMealContext first, got %v", err)
	}

	// Integer check comes before the range check
	_, err = svc.CreateReading(ctx, ports.CreateReadingInput{MealContext: "after meal", Level: 1000.5})
	if !errors.Is(err, domain.ErrInvalidLevel) {
		t.Errorf("expected ErrInvalidLevel before range check, got %v", err)
	}
}

func TestCreateReading_RejectedInputIsNotPersisted(t *testing.T) {
	svc, obs := newService(t)
	ctx := context.Background()

	for _, level := range []any{float64(-1), float64(1001), "12.5"} {
		if _, err := svc.CreateReading(ctx, ports.CreateReadingInput{MealContext: "empty stomach", Level: level}); err == nil {
			t.Errorf("level %v: expected error", level)
		}
	}

	list, err := svc.ListReadings(ctx)
	if err != nil {
		t.Fatalf("ListReadings failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no rows after rejected inserts, got %d", len(list))
	}
	if len(obs.created) != 0 {
		t.Errorf("observer saw %d creations", len(obs.created))
	}
}

func TestCreateReading_CommentHandling(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		comment any
		want    *string
	}{
		{name: "text", comment: "  fasting ", want: strPtr("fasting")},
		{name: "whitespace", comment: "   ", want: nil},
		{name: "missing", comment: nil, want: nil},
		{name: "number is ignored", comment: float64(42), want: nil},
		{name: "object is ignored", comment: map[string]any{"a": 1}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CreateReading(ctx, ports.CreateReadingInput{MealContext: "after meal", Level: float64(100), Comment: tt.comment})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch {
			case tt.want == nil && got.Comment != nil:
				t.Errorf("expected absent comment, got %q", *got.Comment)
			case tt.want != nil && (got.Comment == nil || *got.Comment != *tt.want):
				t.Errorf("expected comment %q, got %v", *tt.want, got.Comment)
			}
		})
	}
}

func TestEndToEnd_TwoReadings(t *testing.T) {
	svc, obs := newService(t)
	ctx := context.Background()

	first, err := svc.CreateReading(ctx, ports.CreateReadingInput{MealContext: "empty stomach", Level: float64(90), Comment: "fasting"})
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	second, err := svc.CreateReading(ctx, ports.CreateReadingInput{MealContext: "after meal", Level: float64(130), Comment: nil})
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}

	list, err := svc.ListReadings(ctx)
	if err != nil {
		t.Fatalf("ListReadings failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(list))
	}
	if list[0].ID != first.ID || list[1].ID != second.ID || list[1].ID <= list[0].ID {
		t.Errorf("unexpected order: %d, %d", list[0].ID, list[1].ID)
	}
	if list[0].CommentText() != "fasting" {
		t.Errorf("expected first comment 'fasting', got %q", list[0].CommentText())
	}
	if list[1].Comment != nil {
		t.Errorf("expected second comment absent, got %q", *list[1].Comment)
	}
	if len(obs.created) != 2 {
		t.Errorf("expected observer to see 2 creations, got %d", len(obs.created))
	}

	// Listing twice without an insert returns the same sequence
	again, _ := svc.ListReadings(ctx)
	for i := range list {
		if list[i].ID != again[i].ID {
			t.Errorf("listing not idempotent at %d", i)
		}
	}
}

func TestStorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()

	for _, want := range []error{domain.ErrStorageUnavailable, domain.ErrInsertFailed} {
		svc := ports.NewReadingService(failingRepo{err: want}, nil)

		_, err := svc.CreateReading(ctx, ports.CreateReadingInput{MealContext: "after meal", Level: float64(100)})
		if !errors.Is(err, want) {
			t.Errorf("CreateReading: expected %v, got %v", want, err)
		}
		_, err = svc.ListReadings(ctx)
		if !errors.Is(err, want) {
			t.Errorf("ListReadings: expected %v, got %v", want, err)
		}
	}
}

func strPtr(s string) *string { return &s }
