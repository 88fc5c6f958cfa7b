package cpm

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/csaptu/flow/analytics/common/errors"
	"github.com/csaptu/flow/analytics/common/models"
	"github.com/csaptu/flow/analytics/schedule/duration"
)

func hours(h float64) *float64 { return &h }

func task(id string, h float64, deps ...string) models.Task {
	return models.Task{ID: id, Title: id, Status: models.StatusTodo, EstimatedHours: hours(h), Dependencies: deps}
}

func analyze(t *testing.T, tasks []models.Task) *Result {
	t.Helper()
	result, err := AnalyzeTasks("p", tasks, duration.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func TestAnalyze_ReferenceProject(t *testing.T) {
	// A(1d) -> B(2d) -> D(1d)
	// A(1d) -> C(1d) -> D(1d)
	result := analyze(t, []models.Task{
		task("A", 8),
		task("B", 16, "A"),
		task("C", 8, "A"),
		task("D", 8, "B", "C"),
	})

	if result.ProjectDurationDays != 4 {
		t.Errorf("expected project duration 4, got %d", result.ProjectDurationDays)
	}
	assertPath(t, result.CriticalPathTaskIDs, "A", "B", "D")

	assertSchedule(t, result, "A", 0, 1, 0, 1, 0, true)
	assertSchedule(t, result, "B", 1, 3, 1, 3, 0, true)
	assertSchedule(t, result, "C", 1, 2, 2, 3, 1, false)
	assertSchedule(t, result, "D", 3, 4, 3, 4, 0, true)
}

func TestAnalyze_LinearChain(t *testing.T) {
	result := analyze(t, []models.Task{
		task("a", 8),
		task("b", 8, "a"),
		task("c", 8, "b"),
	})

	if result.ProjectDurationDays != 3 {
		t.Errorf("expected total duration 3, got %d", result.ProjectDurationDays)
	}
	if len(result.CriticalPathTaskIDs) != 3 {
		t.Errorf("expected 3 tasks on critical path, got %v", result.CriticalPathTaskIDs)
	}
	if len(result.Waves) != 3 {
		t.Errorf("expected 3 waves, got %d", len(result.Waves))
	}
}

func TestAnalyze_WithEstimates(t *testing.T) {
	// A(5d) -> B(1d) -> D(1d)
	// A(5d) -> C(10d) -> D(1d)
	result := analyze(t, []models.Task{
		task("a", 40),
		task("b", 8, "a"),
		task("c", 80, "a"),
		task("d", 8, "b", "c"),
	})

	if result.ProjectDurationDays != 16 {
		t.Errorf("expected total duration 16, got %d", result.ProjectDurationDays)
	}
	b, _ := result.Node("b")
	if b.IsCritical || b.Slack != 9 {
		t.Errorf("expected b non-critical with slack 9, got %+v", b)
	}
	assertPath(t, result.CriticalPathTaskIDs, "a", "c", "d")
}

func TestAnalyze_ParallelCriticalBranches(t *testing.T) {
	// Both branches are critical; the path is still a single chain.
	result := analyze(t, []models.Task{
		task("a", 8),
		task("b", 16, "a"),
		task("c", 16, "a"),
		task("d", 8, "b", "c"),
	})

	if len(result.CriticalTaskIDs) != 4 {
		t.Errorf("expected 4 critical tasks, got %v", result.CriticalTaskIDs)
	}
	assertPath(t, result.CriticalPathTaskIDs, "a", "b", "d")
	if got := pathDuration(result); got != result.ProjectDurationDays {
		t.Errorf("critical path duration %d != project duration %d", got, result.ProjectDurationDays)
	}
}

func TestAnalyze_UnestimatedTasksTakeNoTime(t *testing.T) {
	result := analyze(t, []models.Task{
		task("a", 8),
		{ID: "milestone", Dependencies: []string{"a"}},
		task("c", 8, "milestone"),
	})

	m, _ := result.Node("milestone")
	if m.Duration != 0 || m.EarlyStart != 1 || m.EarlyFinish != 1 {
		t.Errorf("unexpected milestone schedule %+v", m)
	}
	if result.ProjectDurationDays != 2 {
		t.Errorf("expected duration 2, got %d", result.ProjectDurationDays)
	}
	assertPath(t, result.CriticalPathTaskIDs, "a", "milestone", "c")
}

func TestAnalyze_UndatedTaskOnChain(t *testing.T) {
	// dates never move the schedule: an undated link still carries its
	// estimate and stays on the critical path between dated neighbours
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	later := monday.AddDate(0, 0, 30)

	a := task("A", 8)
	a.StartDate, a.EndDate = &monday, &monday
	b := task("B", 16, "A")
	c := task("C", 8, "B")
	c.StartDate, c.EndDate = &later, &later

	if b.HasDates() {
		t.Fatal("B should be undated")
	}
	result := analyze(t, []models.Task{a, b, c})

	if result.ProjectDurationDays != 4 {
		t.Errorf("expected project duration 4, got %d", result.ProjectDurationDays)
	}
	assertPath(t, result.CriticalPathTaskIDs, "A", "B", "C")
	assertSchedule(t, result, "B", 1, 3, 1, 3, 0, true)
	assertSchedule(t, result, "C", 3, 4, 3, 4, 0, true)
}

func TestAnalyze_CompletedTasksStillConstrain(t *testing.T) {
	done := task("a", 24)
	done.Status = models.StatusCompleted
	result := analyze(t, []models.Task{done, task("b", 8, "a")})

	b, _ := result.Node("b")
	if b.EarlyStart != 3 {
		t.Errorf("expected b to start after completed a (day 3), got %d", b.EarlyStart)
	}
}

func TestAnalyze_Cycle(t *testing.T) {
	result, err := AnalyzeTasks("p", []models.Task{
		task("a", 8, "b"),
		task("b", 8, "a"),
		task("c", 8),
	}, duration.Default())

	if !errors.Is(err, apperrors.ErrInvalidGraph) {
		t.Fatalf("expected ErrInvalidGraph, got %v", err)
	}
	if result != nil {
		t.Errorf("expected no partial result, got %+v", result)
	}
}

func TestAnalyze_WideDAG(t *testing.T) {
	//     A
	//   / | \
	//  B  C  D
	//   \ | /
	//     E
	result := analyze(t, []models.Task{
		task("a", 8),
		task("b", 8, "a"),
		task("c", 8, "a"),
		task("d", 8, "a"),
		task("e", 8, "b", "c", "d"),
	})

	if len(result.Waves) != 3 {
		t.Fatalf("expected 3 waves, got %d", len(result.Waves))
	}
	if len(result.Waves[1].TaskIDs) != 3 {
		t.Errorf("expected 3 tasks in wave 1, got %v", result.Waves[1].TaskIDs)
	}
	if !result.Waves[1].IsCritical {
		t.Error("expected middle wave to be critical")
	}
}

func TestAnalyze_Empty(t *testing.T) {
	result := analyze(t, nil)
	if result.ProjectDurationDays != 0 || len(result.CriticalPathTaskIDs) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func pathDuration(r *Result) int {
	total := 0
	for _, id := range r.CriticalPathTaskIDs {
		n, _ := r.Node(id)
		total += n.Duration
	}
	return total
}

func assertPath(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected critical path %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected critical path %v, got %v", want, got)
		}
	}
}

func assertSchedule(t *testing.T, r *Result, id string, es, ef, ls, lf, slack int, critical bool) {
	t.Helper()
	n, ok := r.Node(id)
	if !ok {
		t.Fatalf("task %s: missing from result", id)
	}
	if n.EarlyStart != es {
		t.Errorf("task %s: expected ES=%d, got %d", id, es, n.EarlyStart)
	}
	if n.EarlyFinish != ef {
		t.Errorf("task %s: expected EF=%d, got %d", id, ef, n.EarlyFinish)
	}
	if n.LateStart != ls {
		t.Errorf("task %s: expected LS=%d, got %d", id, ls, n.LateStart)
	}
	if n.LateFinish != lf {
		t.Errorf("task %s: expected LF=%d, got %d", id, lf, n.LateFinish)
	}
	if n.Slack != slack {
		t.Errorf("task %s: expected slack=%d, got %d", id, slack, n.Slack)
	}
	if n.IsCritical != critical {
		t.Errorf("task %s: expected critical=%v, got %v", id, critical, n.IsCritical)
	}
}
