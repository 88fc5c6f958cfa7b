// Package schedule is the analysis engine: it runs the critical path,
// date reconciliation, workload, bottleneck and advisor passes over a
// project snapshot and returns one combined report.
package schedule

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/csaptu/flow/analytics/common/errors"
	"github.com/csaptu/flow/analytics/common/models"
	"github.com/csaptu/flow/analytics/schedule/advisor"
	"github.com/csaptu/flow/analytics/schedule/bottleneck"
	"github.com/csaptu/flow/analytics/schedule/cpm"
	"github.com/csaptu/flow/analytics/schedule/delay"
	"github.com/csaptu/flow/analytics/schedule/graph"
	"github.com/csaptu/flow/analytics/schedule/workload"
)

// WarningKind classifies a non-fatal data problem
type WarningKind string

const (
	WarningMissingDates      WarningKind = "missing_dates"
	WarningUnknownStatus     WarningKind = "unknown_status"
	WarningUnknownPriority   WarningKind = "unknown_priority"
	WarningDanglingReference WarningKind = "dangling_dependency"
)

// Warning is a data problem the analysis worked around
type Warning struct {
	Kind    WarningKind `json:"kind"`
	TaskID  string      `json:"task_id"`
	Message string      `json:"message"`
}

// WorkloadReport combines workload samples with the bottleneck picture
type WorkloadReport struct {
	View           workload.View             `json:"view"`
	From           time.Time                 `json:"from"`
	To             time.Time                 `json:"to"`
	Samples        []workload.Sample         `json:"samples"`
	BottleneckDays []time.Time               `json:"bottleneck_days"`
	Days           []bottleneck.Day          `json:"days"`
	Resources      []bottleneck.ResourceDays `json:"resource_bottlenecks"`
	Rollup         []bottleneck.Period       `json:"rollup"`
}

// Report is the full analysis of one project at one instant
type Report struct {
	ProjectID       string                   `json:"project_id"`
	GeneratedAt     time.Time                `json:"generated_at"`
	CriticalPath    *cpm.Result              `json:"critical_path"`
	Delay           *delay.Analysis          `json:"delay"`
	Workload        WorkloadReport           `json:"workload"`
	Recommendations []advisor.Recommendation `json:"recommendations"`
	Warnings        []Warning                `json:"warnings"`
}

// ProjectResult is one entry of a multi-project run
type ProjectResult struct {
	ProjectID string
	Report    *Report
	Err       error
}

// Engine runs analyses under a fixed policy. It holds no per-run state and
// is safe for concurrent use.
type Engine struct {
	policy Policy
	logger zerolog.Logger
}

// NewEngine creates an engine. A nil logger disables logging.
func NewEngine(policy Policy, logger *zerolog.Logger) *Engine {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Engine{policy: policy, logger: l}
}

// Policy returns the engine's policy
func (e *Engine) Policy() Policy {
	return e.policy
}

// Analyze runs every pass over the snapshot. A dependency cycle fails the
// whole report with a *errors.GraphError; undated tasks and unknown enum
// values only produce warnings.
func (e *Engine) Analyze(ctx context.Context, snap Snapshot) (*Report, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if err := snap.ValidateRange(e.policy.MaxRangeDays); err != nil {
		return nil, err
	}
	log := e.logger.With().Str("project_id", snap.Project.ID).Logger()
	started := time.Now()

	report := &Report{
		ProjectID:   snap.Project.ID,
		GeneratedAt: snap.Now,
		Warnings:    inspect(&log, snap.Tasks),
	}

	g, err := graph.Build(snap.Project.ID, snap.Tasks)
	if err != nil {
		log.Warn().Err(err).Msg("Dependency graph rejected")
		return nil, err
	}
	for _, edge := range g.Dangling {
		log.Warn().Str("task_id", edge.From).Str("dependency", edge.To).Msg("Ignoring dependency outside project")
		report.Warnings = append(report.Warnings, Warning{
			Kind:    WarningDanglingReference,
			TaskID:  edge.From,
			Message: "dependency " + edge.To + " is not a task of this project",
		})
	}

	report.CriticalPath, err = cpm.Analyze(g, e.policy.Duration)
	if err != nil {
		return nil, err
	}

	report.Delay = delay.Reconcile(snap.Project, snap.Tasks, snap.Now, delay.Options{AttentionLimit: e.policy.AttentionLimit})

	opts := workload.Options{View: snap.View, Model: e.policy.Duration, Workers: e.policy.Workers, MaxDays: e.policy.MaxRangeDays}
	if snap.From != nil {
		opts.From = *snap.From
	}
	if snap.To != nil {
		opts.To = *snap.To
	}
	wl, err := workload.Aggregate(ctx, snap.Resources, snap.Tasks, opts)
	if err != nil {
		return nil, err
	}
	summary := bottleneck.Analyze(wl.Daily, wl.Activity, e.policy.Thresholds)
	report.Workload = WorkloadReport{
		View:           wl.View,
		From:           wl.From,
		To:             wl.To,
		Samples:        wl.Samples,
		BottleneckDays: summary.BottleneckDays,
		Days:           summary.Days,
		Resources:      summary.Resources,
		Rollup:         summary.Rollup,
	}

	report.Recommendations = advisor.Recommend(advisor.Input{
		CriticalPath: report.CriticalPath,
		Tasks:        snap.Tasks,
		Resources:    snap.Resources,
		Samples:      wl.Daily,
	})

	log.Debug().
		Int("tasks", len(snap.Tasks)).
		Int("duration_days", report.CriticalPath.ProjectDurationDays).
		Int("delay_days", report.Delay.Breakdown.DelayDays).
		Int("bottleneck_days", len(report.Workload.BottleneckDays)).
		Dur("elapsed", time.Since(started)).
		Msg("Project analyzed")

	return report, nil
}

// AnalyzeProjects analyzes snapshots concurrently. Results keep the input
// order and a failing project never affects the others.
func (e *Engine) AnalyzeProjects(ctx context.Context, snaps []Snapshot) []ProjectResult {
	results := make([]ProjectResult, len(snaps))

	var g errgroup.Group
	if e.policy.Workers > 0 {
		g.SetLimit(e.policy.Workers)
	}
	for i := range snaps {
		g.Go(func() error {
			results[i].ProjectID = snaps[i].Project.ID
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Report, results[i].Err = e.Analyze(ctx, snaps[i])
			if results[i].Err != nil {
				e.logger.Error().Err(results[i].Err).Str("project_id", snaps[i].Project.ID).Msg("Project analysis failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// inspect reports the data problems the passes tolerate
func inspect(log *zerolog.Logger, tasks []models.Task) []Warning {
	warnings := []Warning{}
	for i := range tasks {
		t := &tasks[i]
		if _, ok := t.Status.Normalize(); !ok {
			log.Warn().Str("task_id", t.ID).Str("status", string(t.Status)).Msg("Unknown task status, treating as todo")
			warnings = append(warnings, Warning{Kind: WarningUnknownStatus, TaskID: t.ID, Message: "unknown status " + string(t.Status) + " treated as todo"})
		}
		if _, ok := t.Priority.Normalize(); !ok {
			log.Warn().Str("task_id", t.ID).Str("priority", string(t.Priority)).Msg("Unknown task priority, treating as low")
			warnings = append(warnings, Warning{Kind: WarningUnknownPriority, TaskID: t.ID, Message: "unknown priority " + string(t.Priority) + " treated as low"})
		}
		if !t.HasDates() {
			log.Warn().Str("task_id", t.ID).Msg("Task has no dates, excluded from workload")
			warnings = append(warnings, Warning{Kind: WarningMissingDates, TaskID: t.ID, Message: apperrors.ErrMissingDates.Error()})
		}
	}
	return warnings
}
