package models

import "strings"

// TaskStatus represents the workflow status of a task
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusReview     TaskStatus = "review"
	StatusCompleted  TaskStatus = "completed"
	StatusBlocked    TaskStatus = "blocked"
)

// IsValid checks if the status is valid
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusCompleted, StatusBlocked:
		return true
	}
	return false
}

// Normalize maps spelling variants ("InProgress", "in-progress", "IN_PROGRESS")
// onto the canonical value. Unknown values fall back to StatusTodo and
// report ok=false so callers can log the downgrade.
func (s TaskStatus) Normalize() (TaskStatus, bool) {
	if s.IsValid() {
		return s, true
	}
	switch fold(string(s)) {
	case "", "todo", "pending", "open":
		return StatusTodo, true
	case "inprogress", "doing", "active":
		return StatusInProgress, true
	case "review", "inreview":
		return StatusReview, true
	case "completed", "done", "complete":
		return StatusCompleted, true
	case "blocked":
		return StatusBlocked, true
	}
	return StatusTodo, false
}

// Priority represents the priority level of a task
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityUrgent   Priority = "urgent"
	PriorityCritical Priority = "critical"
)

// IsValid checks if the priority is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent, PriorityCritical:
		return true
	}
	return false
}

// Normalize maps spelling variants onto the canonical value. Unknown values
// fall back to PriorityLow, the lowest severity, with ok=false.
func (p Priority) Normalize() (Priority, bool) {
	if p.IsValid() {
		return p, true
	}
	switch fold(string(p)) {
	case "", "low", "none":
		return PriorityLow, true
	case "medium", "normal":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	case "urgent":
		return PriorityUrgent, true
	case "critical":
		return PriorityCritical, true
	}
	return PriorityLow, false
}

// Rank orders priorities from lowest (0) to highest
func (p Priority) Rank() int {
	n, _ := p.Normalize()
	switch n {
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	case PriorityCritical:
		return 4
	}
	return 0
}

// NeedsAttention is true for High, Urgent and Critical priorities
func (p Priority) NeedsAttention() bool {
	return p.Rank() >= PriorityHigh.Rank()
}

// ScheduleStatus classifies a project's dates against its plan
type ScheduleStatus string

const (
	ScheduleEarly     ScheduleStatus = "early"
	ScheduleOnTime    ScheduleStatus = "on-time"
	ScheduleDelayed   ScheduleStatus = "delayed"
	ScheduleCompleted ScheduleStatus = "completed"
)

// IsValid checks if the schedule status is valid
func (s ScheduleStatus) IsValid() bool {
	switch s {
	case ScheduleEarly, ScheduleOnTime, ScheduleDelayed, ScheduleCompleted:
		return true
	}
	return false
}

func fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}
