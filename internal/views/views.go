// Package views turns an ordered list of readings into display-ready
// shapes: per-context series for the chart, newest-first tables and
// summaries. Everything here is pure; nothing touches storage.
package views

import (
	"github.com/quentinrf/glucose-log/internal/domain"
)

// Point is a reading projected for plotting
type Point struct {
	ID         int64   `json:"id"`
	T          int64   `json:"t"` // Unix milliseconds
	Level      int     `json:"sugar_level"`
	Comment    *string `json:"comment"`
	OutOfRange bool    `json:"out_of_range"`
}

// Series is one chart line
type Series struct {
	MealContext domain.MealContext `json:"meal_type"`
	Threshold   int                `json:"threshold"`
	Points      []Point            `json:"points"`
}

// Row is one table line
type Row struct {
	ID         int64   `json:"id"`
	CreatedAt  string  `json:"created_at"`
	Level      int     `json:"sugar_level"`
	Comment    *string `json:"comment"`
	OutOfRange bool    `json:"out_of_range"`
}

// TableSection is the table for one meal context
type TableSection struct {
	MealContext domain.MealContext `json:"meal_type"`
	Count       int                `json:"count"`
	Rows        []Row              `json:"rows"`
}

// Summary holds statistics for one meal context
type Summary struct {
	MealContext domain.MealContext `json:"meal_type"`
	Count       int                `json:"count"`
	Min         int                `json:"min"`
	Max         int                `json:"max"`
	Average     float64            `json:"average"`
	OutOfRange  int                `json:"out_of_range"`
}

// PartitionByContext splits readings by meal context, keeping relative order
func PartitionByContext(readings []*domain.Reading) (emptyStomach, afterMeal []*domain.Reading) {
	emptyStomach = make([]*domain.Reading, 0)
	afterMeal = make([]*domain.Reading, 0)

	for _, r := range readings {
		if r.MealContext == domain.AfterMeal {
			afterMeal = append(afterMeal, r)
		} else {
			emptyStomach = append(emptyStomach, r)
		}
	}
	return emptyStomach, afterMeal
}

// IsOutOfRange applies the fixed per-context threshold
func IsOutOfRange(r *domain.Reading) bool {
	return r.IsOutOfRange()
}

// Project maps a reading to a plotting point
func Project(r *domain.Reading) Point {
	return Point{
		ID:         r.ID,
		T:          r.CreatedAt.UnixMilli(),
		Level:      r.Level,
		Comment:    r.Comment,
		OutOfRange: IsOutOfRange(r),
	}
}

// Chart returns one series per meal context, empty stomach first
func Chart(readings []*domain.Reading) []Series {
	groups := byContext(readings)

	series := make([]Series, 0, len(domain.MealContexts))
	for i, mc := range domain.MealContexts {
		points := make([]Point, 0, len(groups[i]))
		for _, r := range groups[i] {
			points = append(points, Project(r))
		}
		series = append(series, Series{
			MealContext: mc,
			Threshold:   mc.Threshold(),
			Points:      points,
		})
	}
	return series
}

// Table returns one section per meal context with rows newest first
func Table(readings []*domain.Reading) []TableSection {
	groups := byContext(readings)

	sections := make([]TableSection, 0, len(domain.MealContexts))
	for i, mc := range domain.MealContexts {
		group := groups[i]
		rows := make([]Row, 0, len(group))
		for j := len(group) - 1; j >= 0; j-- {
			r := group[j]
			rows = append(rows, Row{
				ID:         r.ID,
				CreatedAt:  r.CreatedAt.UTC().Format(domain.TimeLayout),
				Level:      r.Level,
				Comment:    r.Comment,
				OutOfRange: IsOutOfRange(r),
			})
		}
		sections = append(sections, TableSection{
			MealContext: mc,
			Count:       len(group),
			Rows:        rows,
		})
	}
	return sections
}

// Summarize returns statistics per meal context. Min, Max and Average are
// zero for a context without readings.
func Summarize(readings []*domain.Reading) []Summary {
	groups := byContext(readings)

	summaries := make([]Summary, 0, len(domain.MealContexts))
	for i, mc := range domain.MealContexts {
		summaries = append(summaries, summarize(mc, groups[i]))
	}
	return summaries
}

func summarize(mc domain.MealContext, readings []*domain.Reading) Summary {
	s := Summary{MealContext: mc, Count: len(readings)}
	if len(readings) == 0 {
		return s
	}

	sum := 0
	s.Min = readings[0].Level
	s.Max = readings[0].Level
	for _, r := range readings {
		sum += r.Level
		if r.Level < s.Min {
			s.Min = r.Level
		}
		if r.Level > s.Max {
			s.Max = r.Level
		}
		if IsOutOfRange(r) {
			s.OutOfRange++
		}
	}
	s.Average = float64(sum) / float64(len(readings))
	return s
}

// byContext groups readings in domain.MealContexts order
func byContext(readings []*domain.Reading) [][]*domain.Reading {
	emptyStomach, afterMeal := PartitionByContext(readings)
	return [][]*domain.Reading{emptyStomach, afterMeal}
}
