package duration

import (
	"testing"

	"github.com/csaptu/flow/analytics/common/models"
)

func hours(h float64) *float64 { return &h }

func TestModel_Days(t *testing.T) {
	m := Default()
	tests := []struct {
		name string
		est  *float64
		want int
	}{
		{"no estimate", nil, 0},
		{"zero", hours(0), 0},
		{"fraction of a day", hours(0.5), 1},
		{"exactly one day", hours(8), 1},
		{"just over", hours(8.1), 2},
		{"two days", hours(16), 2},
		{"week", hours(40), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &models.Task{ID: "t", EstimatedHours: tt.est}
			if got := m.Days(task); got != tt.want {
				t.Errorf("Days() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestModel_ZeroValueUsesDefaults(t *testing.T) {
	var m Model
	if got := m.Days(&models.Task{EstimatedHours: hours(24)}); got != 3 {
		t.Errorf("expected 3 days with default 8h/day, got %d", got)
	}
	if got := m.DailyHours(&models.Task{}, 5); got != DefaultPlaceholderHours {
		t.Errorf("expected placeholder %v, got %v", DefaultPlaceholderHours, got)
	}
}

func TestModel_DailyHours(t *testing.T) {
	m := Model{HoursPerDay: 6, PlaceholderHours: 2}
	if got := m.DailyHours(&models.Task{EstimatedHours: hours(12)}, 3); got != 4 {
		t.Errorf("expected 4h/day, got %v", got)
	}
	if got := m.DailyHours(&models.Task{EstimatedHours: hours(12)}, 0); got != 12 {
		t.Errorf("zero span should be treated as one day, got %v", got)
	}
	if got := m.DailyHours(&models.Task{}, 3); got != 2 {
		t.Errorf("expected configured placeholder, got %v", got)
	}
	if got := m.Days(&models.Task{EstimatedHours: hours(13)}); got != 3 {
		t.Errorf("expected ceil(13/6)=3, got %d", got)
	}
}
