package models

import "time"

// Project carries the planned dates the engine reconciles against.
// Planned dates are inputs only; delay and completion are derived per run.
type Project struct {
	ID        string     `json:"id" yaml:"id" validate:"required"`
	Name      string     `json:"name" yaml:"name"`
	StartDate *time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`
}

// ProjectProgress reports completed vs total tasks
type ProjectProgress struct {
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	Percentage     float64 `json:"percentage"`
}

// CalculateProgress calculates progress from completed vs total tasks
func CalculateProgress(tasks []Task) ProjectProgress {
	p := ProjectProgress{TotalTasks: len(tasks)}
	for i := range tasks {
		if tasks[i].IsCompleted() {
			p.CompletedTasks++
		}
	}
	if p.TotalTasks > 0 {
		p.Percentage = float64(p.CompletedTasks) / float64(p.TotalTasks) * 100
	}
	return p
}
