// Package duration converts task effort into scheduling durations.
package duration

import (
	"math"

	"github.com/csaptu/flow/analytics/common/models"
)

const (
	// DefaultHoursPerDay is the working-day length used to turn hours into days
	DefaultHoursPerDay = 8.0

	// DefaultPlaceholderHours is the per-day load assumed for tasks without an estimate
	DefaultPlaceholderHours = 4.0
)

// Model holds the conversion policy. The zero value uses the defaults.
type Model struct {
	HoursPerDay      float64
	PlaceholderHours float64
}

// Default returns the standard 8h/day, 4h placeholder model
func Default() Model {
	return Model{HoursPerDay: DefaultHoursPerDay, PlaceholderHours: DefaultPlaceholderHours}
}

func (m Model) hoursPerDay() float64 {
	if m.HoursPerDay <= 0 {
		return DefaultHoursPerDay
	}
	return m.HoursPerDay
}

// Placeholder returns the per-day workload assumed for unestimated tasks
func (m Model) Placeholder() float64 {
	if m.PlaceholderHours <= 0 {
		return DefaultPlaceholderHours
	}
	return m.PlaceholderHours
}

// Days returns ceil(estimatedHours / hoursPerDay), at least 1 when the
// estimate is positive. Tasks without an estimate (or a zero one) take 0 days.
func (m Model) Days(t *models.Task) int {
	if t.EstimatedHours == nil || *t.EstimatedHours <= 0 {
		return 0
	}
	d := int(math.Ceil(*t.EstimatedHours / m.hoursPerDay()))
	if d < 1 {
		return 1
	}
	return d
}

// DailyHours spreads a task's estimate evenly across spanDays.
// Unestimated tasks contribute the placeholder per day instead.
func (m Model) DailyHours(t *models.Task, spanDays int) float64 {
	if t.EstimatedHours == nil {
		return m.Placeholder()
	}
	if spanDays <= 0 {
		spanDays = 1
	}
	return *t.EstimatedHours / float64(spanDays)
}
