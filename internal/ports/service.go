package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/glucose-log/internal/domain"
)

// CreateReadingInput carries the raw, untrusted values a caller submitted.
// Fields are untyped because they come straight from decoded JSON.
type CreateReadingInput struct {
	MealContext any
	Level       any
	Comment     any
}

// Observer is notified about the outcome of create requests
type Observer interface {
	ReadingCreated(r *domain.Reading)
	ReadingRejected(err error)
}

// ReadingService is the single validated entry point for creating and
// listing readings. It does not know which backend it talks to.
type ReadingService struct {
	repo     domain.ReadingRepository
	observer Observer
}

// NewReadingService creates a service over repo. observer may be nil.
func NewReadingService(repo domain.ReadingRepository, observer Observer) *ReadingService {
	return &ReadingService{
		repo:     repo,
		observer: observer,
	}
}

// CreateReading validates in and persists it. Validation runs completely
// before the store is touched, so a rejected request never writes a row.
func (s *ReadingService) CreateReading(ctx context.Context, in CreateReadingInput) (*domain.Reading, error) {
	mealContext, level, comment, err := validateInput(in)
	if err != nil {
		log.Warn().Err(err).Msg("rejected reading")
		if s.observer != nil {
			s.observer.ReadingRejected(err)
		}
		return nil, err
	}

	reading, err := s.repo.Insert(ctx, mealContext, level, comment)
	if err != nil {
		log.Error().Err(err).Msg("failed to save reading")
		return nil, err
	}

	log.Info().
		Int64("id", reading.ID).
		Str("meal_context", string(reading.MealContext)).
		Int("level", reading.Level).
		Bool("out_of_range", reading.IsOutOfRange()).
		Msg("recorded reading")

	if s.observer != nil {
		s.observer.ReadingCreated(reading)
	}
	return reading, nil
}

// ListReadings returns every reading in chronological order
func (s *ReadingService) ListReadings(ctx context.Context) ([]*domain.Reading, error) {
	readings, err := s.repo.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list readings")
		return nil, err
	}
	return readings, nil
}

// Ping reports whether the backing store is reachable
func (s *ReadingService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func validateInput(in CreateReadingInput) (domain.MealContext, int, *string, error) {
	mealContext, err := parseMealContext(in.MealContext)
	if err != nil {
		return "", 0, nil, err
	}

	level, err := parseLevel(in.Level)
	if err != nil {
		return "", 0, nil, err
	}

	if err := domain.ValidateReading(mealContext, level); err != nil {
		return "", 0, nil, err
	}

	return mealContext, level, parseComment(in.Comment), nil
}

func parseMealContext(raw any) (domain.MealContext, error) {
	s, ok := raw.(string)
	if !ok {
		return "", domain.ErrInvalidMealContext
	}
	m := domain.MealContext(s)
	if !m.Valid() {
		return "", domain.ErrInvalidMealContext
	}
	return m, nil
}

// parseLevel converts raw to an integer. Values that are integral but too
// large to be a level report ErrLevelOutOfRange rather than overflowing.
// Empty strings, booleans and null are rejected, never coerced to 0 or 1.
func parseLevel(raw any) (int, error) {
	var f float64
	switch v := raw.(type) {
	case int:
		return clampLevel(float64(v)), nil
	case int64:
		return clampLevel(float64(v)), nil
	case float64:
		f = v
	case float32:
		f = float64(v)
	case json.Number:
		parsed, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", domain.ErrInvalidLevel, string(v))
		}
		f = parsed
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, domain.ErrInvalidLevel
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", domain.ErrInvalidLevel, v)
		}
		f = parsed
	default:
		return 0, domain.ErrInvalidLevel
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, domain.ErrInvalidLevel
	}
	return clampLevel(f), nil
}

// clampLevel keeps out-of-range integers out of range without overflowing int
func clampLevel(f float64) int {
	switch {
	case f < domain.MinLevel:
		return domain.MinLevel - 1
	case f > domain.MaxLevel:
		return domain.MaxLevel + 1
	}
	return int(f)
}

// parseComment keeps text comments; anything that is not a string is absent
func parseComment(raw any) *string {
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	return domain.NormalizeComment(&s)
}
