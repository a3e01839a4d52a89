package domain

import (
	"strings"
	"time"
)

// MealContext is the category a reading was taken in
type MealContext string

const (
	EmptyStomach MealContext = "empty stomach"
	AfterMeal    MealContext = "after meal"
)

// Level bounds, inclusive
const (
	MinLevel = 0
	MaxLevel = 1000
)

// Out-of-range thresholds. A reading is flagged when its level is strictly
// greater than the threshold for its meal context.
const (
	EmptyStomachThreshold = 95
	AfterMealThreshold    = 120
)

// MealContexts lists every valid meal context in display order
var MealContexts = []MealContext{EmptyStomach, AfterMeal}

// Valid reports whether m is one of the known meal contexts
func (m MealContext) Valid() bool {
	return m == EmptyStomach || m == AfterMeal
}

// Threshold returns the out-of-range threshold for m
func (m MealContext) Threshold() int {
	if m == AfterMeal {
		return AfterMealThreshold
	}
	return EmptyStomachThreshold
}

// Reading is a single stored blood-glucose measurement
type Reading struct {
	ID          int64
	MealContext MealContext
	Level       int
	Comment     *string // nil when absent
	CreatedAt   time.Time
}

// ValidateReading checks the invariants every stored reading must satisfy
func ValidateReading(mealContext MealContext, level int) error {
	if !mealContext.Valid() {
		return ErrInvalidMealContext
	}
	if level < MinLevel || level > MaxLevel {
		return ErrLevelOutOfRange
	}
	return nil
}

// NormalizeComment trims c and maps empty or whitespace-only text to nil
func NormalizeComment(c *string) *string {
	if c == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*c)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// IsOutOfRange returns true if the level exceeds the threshold for its context
func (r *Reading) IsOutOfRange() bool {
	return r.Level > r.MealContext.Threshold()
}

// Clone returns a deep copy so callers never share the comment pointer
func (r *Reading) Clone() *Reading {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Comment != nil {
		c := *r.Comment
		cp.Comment = &c
	}
	return &cp
}

// CommentText returns the comment or "" when absent
func (r *Reading) CommentText() string {
	if r.Comment == nil {
		return ""
	}
	return *r.Comment
}

// Timestamp returns t in UTC, truncated to the millisecond precision every
// backend stores
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// TimeLayout is the fixed-width ISO-8601 layout used on the wire and in
// text columns; it sorts lexicographically in chronological order.
const TimeLayout = "2006-01-02T15:04:05.000Z"
