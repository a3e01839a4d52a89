package domain

import (
	"errors"
	"testing"
	"time"
)

func TestValidateReading(t *testing.T) {
	tests := []struct {
		name        string
		mealContext MealContext
		level       int
		wantErr     error
	}{
		{name: "valid empty stomach", mealContext: EmptyStomach, level: 90},
		{name: "valid after meal", mealContext: AfterMeal, level: 130},
		{name: "zero is valid", mealContext: EmptyStomach, level: 0},
		{name: "upper bound is valid", mealContext: AfterMeal, level: 1000},
		{name: "negative level", mealContext: EmptyStomach, level: -1, wantErr: ErrLevelOutOfRange},
		{name: "above upper bound", mealContext: AfterMeal, level: 1001, wantErr: ErrLevelOutOfRange},
		{name: "unknown context", mealContext: "before bed", level: 100, wantErr: ErrInvalidMealContext},
		{name: "hyphenated label is not accepted", mealContext: "empty-stomach", level: 100, wantErr: ErrInvalidMealContext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReading(tt.mealContext, tt.level)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateReading() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReading_IsOutOfRange(t *testing.T) {
	tests := []struct {
		mealContext MealContext
		level       int
		want        bool
	}{
		{mealContext: EmptyStomach, level: 95, want: false},
		{mealContext: EmptyStomach, level: 96, want: true},
		{mealContext: EmptyStomach, level: 0, want: false},
		{mealContext: AfterMeal, level: 120, want: false},
		{mealContext: AfterMeal, level: 121, want: true},
		{mealContext: AfterMeal, level: 96, want: false},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			r := &Reading{MealContext: tt.mealContext, Level: tt.level}
			if got := r.IsOutOfRange(); got != tt.want {
				t.Errorf("IsOutOfRange() = %v, want %v for %q level %d", got, tt.want, tt.mealContext, tt.level)
			}
		})
	}
}

func TestNormalizeComment(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name string
		in   *string
		want *string
	}{
		{name: "nil stays nil", in: nil, want: nil},
		{name: "empty becomes nil", in: str(""), want: nil},
		{name: "whitespace becomes nil", in: str("   \t\n"), want: nil},
		{name: "text is trimmed", in: str("  fasting "), want: str("fasting")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeComment(tt.in)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("expected nil, got %q", *got)
			case tt.want != nil && got == nil:
				t.Errorf("expected %q, got nil", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("expected %q, got %q", *tt.want, *got)
			}
		})
	}
}

func TestReading_CloneIsIndependent(t *testing.T) {
	comment := "fasting"
	orig := &Reading{ID: 1, MealContext: EmptyStomach, Level: 90, Comment: &comment, CreatedAt: time.Now()}

	cp := orig.Clone()
	*cp.Comment = "changed"
	cp.Level = 200

	if *orig.Comment != "fasting" {
		t.Errorf("clone shares comment with original: %q", *orig.Comment)
	}
	if orig.Level != 90 {
		t.Errorf("clone shares level with original: %d", orig.Level)
	}
}

func TestIsValidationError(t *testing.T) {
	if !IsValidationError(ErrInvalidLevel) {
		t.Error("ErrInvalidLevel should be a validation error")
	}
	if IsValidationError(ErrStorageUnavailable) {
		t.Error("ErrStorageUnavailable should not be a validation error")
	}
	if IsValidationError(ErrInsertFailed) {
		t.Error("ErrInsertFailed should not be a validation error")
	}
}

func TestTimestamp_TruncatesToMillisecondUTC(t *testing.T) {
	in := time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.FixedZone("X", 3600))
	got := Timestamp(in)

	if got.Location() != time.UTC {
		t.Errorf("expected UTC, got %v", got.Location())
	}
	if got.Nanosecond() != 123000000 {
		t.Errorf("expected millisecond precision, got %d ns", got.Nanosecond())
	}
	if s := got.Format(TimeLayout); s != "2026-01-02T02:04:05.123Z" {
		t.Errorf("unexpected formatted time %q", s)
	}
}
