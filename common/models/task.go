package models

import (
	"time"
)

// Task is the engine's view of a schedulable unit of work.
// Hosts build it from WBS nodes or personal tasks; the engine never mutates it.
type Task struct {
	ID             string     `json:"id" yaml:"id" validate:"required"`
	ProjectID      string     `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Title          string     `json:"title" yaml:"title"`
	Status         TaskStatus `json:"status" yaml:"status"`
	Priority       Priority   `json:"priority" yaml:"priority"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty" yaml:"estimated_hours,omitempty" validate:"omitempty,gte=0"`
	ActualHours    *float64   `json:"actual_hours,omitempty" yaml:"actual_hours,omitempty" validate:"omitempty,gte=0"`
	StartDate      *time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`

	// Dependencies lists the ids of tasks this task waits on
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty" validate:"dive,required"`

	// AssigneeIDs merges the legacy single assignee and the multi-resource join
	AssigneeIDs []string `json:"assignee_ids,omitempty" yaml:"assignee_ids,omitempty" validate:"dive,required"`
}

// IsCompleted returns true if the task is completed
func (t *Task) IsCompleted() bool {
	s, _ := t.Status.Normalize()
	return s == StatusCompleted
}

// HasEstimate returns true when estimated hours were provided
func (t *Task) HasEstimate() bool {
	return t.EstimatedHours != nil
}

// Hours returns the estimate, or 0 when absent
func (t *Task) Hours() float64 {
	if t.EstimatedHours == nil {
		return 0
	}
	return *t.EstimatedHours
}

// HasDates returns true when at least one of start or end date is set
func (t *Task) HasDates() bool {
	return t.StartDate != nil || t.EndDate != nil
}

// Interval returns the task's [start, end] interval. A task with only one
// date occupies that single day. ok is false when both dates are missing.
func (t *Task) Interval() (start, end time.Time, ok bool) {
	switch {
	case t.StartDate != nil && t.EndDate != nil:
		return *t.StartDate, *t.EndDate, true
	case t.StartDate != nil:
		return *t.StartDate, *t.StartDate, true
	case t.EndDate != nil:
		return *t.EndDate, *t.EndDate, true
	}
	return time.Time{}, time.Time{}, false
}

// AssignedTo reports whether the task is linked to the resource
func (t *Task) AssignedTo(resourceID string) bool {
	for _, id := range t.AssigneeIDs {
		if id == resourceID {
			return true
		}
	}
	return false
}

// IsOverdue returns true if the task is past its end date and not completed.
// End dates are date-only: a task is overdue from the day after its end date.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.EndDate == nil || t.IsCompleted() {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(t.EndDate.Year(), t.EndDate.Month(), t.EndDate.Day(), 0, 0, 0, 0, time.UTC)
	return endDay.Before(today)
}
