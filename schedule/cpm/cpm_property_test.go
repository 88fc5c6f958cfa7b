package cpm

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/csaptu/flow/analytics/common/models"
	"github.com/csaptu/flow/analytics/schedule/duration"
	"github.com/csaptu/flow/analytics/schedule/graph"
)

// randomDAG draws tasks whose dependencies only point at earlier tasks,
// so the graph is acyclic by construction.
func randomDAG(rt *rapid.T) []models.Task {
	n := rapid.IntRange(1, 25).Draw(rt, "n")
	tasks := make([]models.Task, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("t%02d", i)
		tasks[i] = models.Task{ID: id}
		if rapid.Bool().Draw(rt, "estimated_"+id) {
			h := float64(rapid.IntRange(0, 80).Draw(rt, "hours_"+id))
			tasks[i].EstimatedHours = &h
		}
		for j := 0; j < i; j++ {
			if rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("edge_%d_%d", i, j)) == 0 {
				tasks[i].Dependencies = append(tasks[i].Dependencies, fmt.Sprintf("t%02d", j))
			}
		}
	}
	return tasks
}

func TestProperty_NodeTimingInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tasks := randomDAG(rt)
		model := duration.Default()
		result, err := AnalyzeTasks("p", tasks, model)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}

		for i := range tasks {
			n, ok := result.Node(tasks[i].ID)
			if !ok {
				rt.Fatalf("task %s missing from result", tasks[i].ID)
			}
			if n.EarlyFinish-n.EarlyStart != model.Days(&tasks[i]) {
				rt.Errorf("task %s: EF-ES=%d, duration=%d", n.TaskID, n.EarlyFinish-n.EarlyStart, model.Days(&tasks[i]))
			}
			if n.Slack != n.LateStart-n.EarlyStart {
				rt.Errorf("task %s: slack %d != LS-ES %d", n.TaskID, n.Slack, n.LateStart-n.EarlyStart)
			}
			if n.Slack < 0 {
				rt.Errorf("task %s: negative slack %d", n.TaskID, n.Slack)
			}
			if n.IsCritical != (n.Slack == 0) {
				rt.Errorf("task %s: critical flag disagrees with slack", n.TaskID)
			}
		}
	})
}

func TestProperty_CriticalPathSpansProject(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tasks := randomDAG(rt)
		g, err := graph.Build("p", tasks)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		result, err := Analyze(g, duration.Default())
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}

		if got := pathDuration(result); got != result.ProjectDurationDays {
			rt.Fatalf("critical path duration %d != project duration %d (path %v)",
				got, result.ProjectDurationDays, result.CriticalPathTaskIDs)
		}
		for i, id := range result.CriticalPathTaskIDs {
			if !result.IsCritical(id) {
				rt.Errorf("task %s on critical path has slack", id)
			}
			if i == 0 {
				continue
			}
			prev := result.CriticalPathTaskIDs[i-1]
			linked := false
			for _, dep := range g.Deps[id] {
				if dep == prev {
					linked = true
				}
			}
			if !linked {
				rt.Errorf("critical path step %s -> %s is not a dependency edge", prev, id)
			}
		}
	})
}
