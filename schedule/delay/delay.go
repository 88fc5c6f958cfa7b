// Package delay reconciles a project's planned dates against the dates its
// tasks actually carry and reports a single delay figure: the worst of four
// independently computed factors.
package delay

import (
	"sort"
	"time"

	"github.com/csaptu/flow/analytics/common/models"
	"github.com/csaptu/flow/analytics/schedule/calendar"
)

// DefaultAttentionLimit caps the attention list
const DefaultAttentionLimit = 5

// Factor names one of the four delay computations
type Factor string

const (
	FactorSchedule Factor = "schedule"
	FactorProgress Factor = "progress"
	FactorOverdue  Factor = "overdue"
	FactorTasks    Factor = "tasks"
)

// IsValid checks if the factor is valid
func (f Factor) IsValid() bool {
	switch f {
	case FactorSchedule, FactorProgress, FactorOverdue, FactorTasks:
		return true
	}
	return false
}

// Breakdown holds the four delay factors in days and the reported maximum
type Breakdown struct {
	TaskBased      int    `json:"task_based"`
	ScheduleBased  int    `json:"schedule_based"`
	ProgressBased  int    `json:"progress_based"`
	OverdueBased   int    `json:"overdue_based"`
	DominantFactor Factor `json:"dominant_factor"`
	DelayDays      int    `json:"delay_days"`
}

// OverdueTask is an incomplete task whose end date has passed
type OverdueTask struct {
	TaskID      string          `json:"task_id"`
	Title       string          `json:"title"`
	Priority    models.Priority `json:"priority"`
	EndDate     time.Time       `json:"end_date"`
	DaysOverdue int             `json:"days_overdue"`
}

// AttentionTask is an incomplete high-priority task worth surfacing in reports.
// This is an attention list, not the CPM critical path.
type AttentionTask struct {
	TaskID   string            `json:"task_id"`
	Title    string            `json:"title"`
	Priority models.Priority   `json:"priority"`
	Status   models.TaskStatus `json:"status"`
	EndDate  *time.Time        `json:"end_date,omitempty"`
}

// Analysis is the reconciliation of one project at one instant
type Analysis struct {
	ProjectID         string                `json:"project_id"`
	Status            models.ScheduleStatus `json:"status"`
	Breakdown         Breakdown             `json:"breakdown"`
	CompletionPercent float64               `json:"completion_percent"`
	CompletedTasks    int                   `json:"completed_tasks"`
	TotalTasks        int                   `json:"total_tasks"`
	PlannedStart      *time.Time            `json:"planned_start,omitempty"`
	PlannedEnd        *time.Time            `json:"planned_end,omitempty"`
	ActualStart       *time.Time            `json:"actual_start,omitempty"`
	ActualEnd         *time.Time            `json:"actual_end,omitempty"`
	OverdueTasks      []OverdueTask         `json:"overdue_tasks"`
	AttentionTasks    []AttentionTask       `json:"attention_tasks"`
}

// Options tunes the reconciliation
type Options struct {
	AttentionLimit int
}

// Reconcile compares the project's plan with its tasks as of now.
func Reconcile(project models.Project, tasks []models.Task, now time.Time, opts Options) *Analysis {
	a := &Analysis{
		ProjectID:      project.ID,
		PlannedStart:   project.StartDate,
		PlannedEnd:     project.EndDate,
		TotalTasks:     len(tasks),
		OverdueTasks:   []OverdueTask{},
		AttentionTasks: []AttentionTask{},
	}

	a.ActualStart, a.ActualEnd = actualDates(tasks)

	progress := models.CalculateProgress(tasks)
	a.CompletedTasks = progress.CompletedTasks
	a.CompletionPercent = progress.Percentage

	b := &a.Breakdown
	plannedEnd := project.EndDate

	// A: how far the tasks' own dates run past the plan
	if plannedEnd != nil && a.ActualEnd != nil {
		b.TaskBased = nonNegative(calendar.DaysBetween(*plannedEnd, *a.ActualEnd))
	}

	// B: how far the clock has run past the plan
	if plannedEnd != nil {
		b.ScheduleBased = nonNegative(calendar.DaysBetween(*plannedEnd, now))
	}

	// C: remaining time extrapolated from the observed rate of progress
	if plannedEnd != nil && a.ActualStart != nil && a.CompletedTasks < a.TotalTasks {
		elapsed := nonNegative(calendar.DaysBetween(*a.ActualStart, now))
		b.ProgressBased = progressDelay(a.CompletedTasks, a.TotalTasks, elapsed)
	}

	// D: total overdue burden across incomplete tasks
	a.OverdueTasks = overdueTasks(tasks, now)
	for _, o := range a.OverdueTasks {
		b.OverdueBased += o.DaysOverdue
	}

	b.DelayDays, b.DominantFactor = dominant(b)

	switch {
	case a.TotalTasks > 0 && a.CompletedTasks == a.TotalTasks:
		a.Status = models.ScheduleCompleted
	case b.DelayDays > 0:
		a.Status = models.ScheduleDelayed
	case plannedEnd != nil && a.ActualEnd != nil && calendar.DaysBetween(*a.ActualEnd, *plannedEnd) > 0:
		a.Status = models.ScheduleEarly
	default:
		a.Status = models.ScheduleOnTime
	}

	limit := opts.AttentionLimit
	if limit <= 0 {
		limit = DefaultAttentionLimit
	}
	a.AttentionTasks = attentionTasks(tasks, limit)

	return a
}

// actualDates returns the earliest task start and the latest of any task's
// end date or completion time.
func actualDates(tasks []models.Task) (start, end *time.Time) {
	for i := range tasks {
		t := &tasks[i]
		if t.StartDate != nil && (start == nil || t.StartDate.Before(*start)) {
			s := *t.StartDate
			start = &s
		}
		for _, d := range []*time.Time{t.EndDate, t.CompletedAt} {
			if d != nil && (end == nil || d.After(*end)) {
				e := *d
				end = &e
			}
		}
	}
	return start, end
}

// progressDelay computes ceil((100 - c) / max(c, 1) * elapsed) where
// c = 100 * completed / total, in integer arithmetic so that exact ratios
// are not pushed over an integer by rounding. No completed work means
// there is no rate to extrapolate from, so the factor is 0.
func progressDelay(completed, total, elapsed int) int {
	if completed <= 0 || total <= 0 || elapsed <= 0 {
		return 0
	}
	remaining := total - completed
	if 100*completed >= total {
		// c >= 1: (100-c)/c reduces to remaining/completed
		return ceilDiv(remaining*elapsed, completed)
	}
	// 0 < c < 1: divide by 1
	return ceilDiv(100*remaining*elapsed, total)
}

func overdueTasks(tasks []models.Task, now time.Time) []OverdueTask {
	out := []OverdueTask{}
	for i := range tasks {
		t := &tasks[i]
		if !t.IsOverdue(now) {
			continue
		}
		p, _ := t.Priority.Normalize()
		out = append(out, OverdueTask{
			TaskID:      t.ID,
			Title:       t.Title,
			Priority:    p,
			EndDate:     *t.EndDate,
			DaysOverdue: calendar.DaysBetween(*t.EndDate, now),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysOverdue != out[j].DaysOverdue {
			return out[i].DaysOverdue > out[j].DaysOverdue
		}
		return out[i].TaskID < out[j].TaskID
	})
	return out
}

func attentionTasks(tasks []models.Task, limit int) []AttentionTask {
	out := []AttentionTask{}
	for i := range tasks {
		t := &tasks[i]
		if t.IsCompleted() || !t.Priority.NeedsAttention() {
			continue
		}
		p, _ := t.Priority.Normalize()
		s, _ := t.Status.Normalize()
		out = append(out, AttentionTask{TaskID: t.ID, Title: t.Title, Priority: p, Status: s, EndDate: t.EndDate})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		switch {
		case a.EndDate != nil && b.EndDate != nil && !a.EndDate.Equal(*b.EndDate):
			return a.EndDate.Before(*b.EndDate)
		case (a.EndDate == nil) != (b.EndDate == nil):
			return a.EndDate != nil
		}
		return a.TaskID < b.TaskID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// dominant returns the maximum factor; ties go to schedule, progress,
// overdue and tasks in that order.
func dominant(b *Breakdown) (int, Factor) {
	best, factor := b.ScheduleBased, FactorSchedule
	for _, f := range []struct {
		days   int
		factor Factor
	}{
		{b.ProgressBased, FactorProgress},
		{b.OverdueBased, FactorOverdue},
		{b.TaskBased, FactorTasks},
	} {
		if f.days > best {
			best, factor = f.days, f.factor
		}
	}
	return best, factor
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
