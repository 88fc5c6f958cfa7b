package models

import "time"

// DefaultMaxHoursPerDay is used when a resource does not declare its capacity
const DefaultMaxHoursPerDay = 8.0

// DefaultWorkingDays is Monday through Friday
var DefaultWorkingDays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// Resource is a person or team slot that tasks are assigned to
type Resource struct {
	ID             string         `json:"id" yaml:"id" validate:"required"`
	Name           string         `json:"name" yaml:"name"`
	MaxHoursPerDay float64        `json:"max_hours_per_day" yaml:"max_hours_per_day" validate:"gte=0"`
	WorkingDays    []time.Weekday `json:"working_days,omitempty" yaml:"working_days,omitempty" validate:"dive,gte=0,lte=6"`
}

// HoursPerDay returns the daily capacity, defaulting to 8 hours
func (r *Resource) HoursPerDay() float64 {
	if r.MaxHoursPerDay <= 0 {
		return DefaultMaxHoursPerDay
	}
	return r.MaxHoursPerDay
}

// IsWorkingDay reports whether the resource is available on the given day
func (r *Resource) IsWorkingDay(day time.Time) bool {
	days := r.WorkingDays
	if len(days) == 0 {
		days = DefaultWorkingDays
	}
	wd := day.Weekday()
	for _, d := range days {
		if d == wd {
			return true
		}
	}
	return false
}
