// Package cpm computes earliest/latest start and finish times, slack and the
// critical path of a project's dependency graph.
package cpm

import (
	"sort"

	"github.com/csaptu/flow/analytics/common/models"
	"github.com/csaptu/flow/analytics/schedule/duration"
	"github.com/csaptu/flow/analytics/schedule/graph"
)

// AnalyzeTasks builds the project's graph and runs Analyze on it.
// A dependency cycle is returned as a *errors.GraphError and no result.
func AnalyzeTasks(projectID string, tasks []models.Task, model duration.Model) (*Result, error) {
	g, err := graph.Build(projectID, tasks)
	if err != nil {
		return nil, err
	}
	return Analyze(g, model)
}

// Analyze performs critical path method analysis on an acyclic task graph.
// Completed tasks are scheduled like any other; their duration still
// constrains their dependents.
func Analyze(g *graph.Graph, model duration.Model) (*Result, error) {
	order, err := g.TopoOrder()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Nodes: make([]Node, len(order)),
		index: make(map[string]int, len(order)),
	}
	for i, id := range order {
		result.Nodes[i] = Node{
			TaskID:     id,
			Duration:   model.Days(g.Tasks[id]),
			Dependents: append([]string(nil), g.Dependents[id]...),
		}
		result.index[id] = i
	}
	node := func(id string) *Node { return &result.Nodes[result.index[id]] }

	// Forward pass: ES = max(EF of dependencies)
	for i := range result.Nodes {
		n := &result.Nodes[i]
		es := 0
		for _, dep := range g.Deps[n.TaskID] {
			if ef := node(dep).EarlyFinish; ef > es {
				es = ef
			}
		}
		n.EarlyStart = es
		n.EarlyFinish = es + n.Duration
		if n.EarlyFinish > result.ProjectDurationDays {
			result.ProjectDurationDays = n.EarlyFinish
		}
	}

	// Backward pass: LF = min(LS of dependents), or project duration for leaves
	for i := len(result.Nodes) - 1; i >= 0; i-- {
		n := &result.Nodes[i]
		lf := result.ProjectDurationDays
		for _, succ := range g.Dependents[n.TaskID] {
			if ls := node(succ).LateStart; ls < lf {
				lf = ls
			}
		}
		n.LateFinish = lf
		n.LateStart = lf - n.Duration
		n.Slack = n.LateStart - n.EarlyStart
		n.IsCritical = n.Slack == 0
	}

	for i := range result.Nodes {
		if result.Nodes[i].IsCritical {
			result.CriticalTaskIDs = append(result.CriticalTaskIDs, result.Nodes[i].TaskID)
		}
	}
	result.CriticalPathTaskIDs = criticalChain(result, g)
	result.Waves = computeWaves(result)

	return result, nil
}

// criticalChain walks one chain of critical tasks from a task starting at
// day 0 to the project finish, stepping to a critical dependent whose early
// start equals the current early finish. Every critical task has such a
// dependent unless it finishes the project, so the chain's durations sum to
// the project duration.
func criticalChain(result *Result, g *graph.Graph) []string {
	var start *Node
	for i := range result.Nodes {
		n := &result.Nodes[i]
		if n.IsCritical && n.EarlyStart == 0 {
			start = n
			break
		}
	}
	if start == nil {
		return nil
	}

	chain := []string{start.TaskID}
	cur := start
	for {
		var next *Node
		for _, succ := range g.Dependents[cur.TaskID] {
			s, _ := result.Node(succ)
			if !s.IsCritical || s.EarlyStart != cur.EarlyFinish {
				continue
			}
			// Prefer the dependent that comes first in topological order
			if next == nil || result.index[s.TaskID] < result.index[next.TaskID] {
				next = s
			}
		}
		if next == nil {
			return chain
		}
		chain = append(chain, next.TaskID)
		cur = next
	}
}

// computeWaves groups tasks by their earliest start time.
func computeWaves(result *Result) []Wave {
	esGroups := make(map[int][]string)
	for _, n := range result.Nodes {
		esGroups[n.EarlyStart] = append(esGroups[n.EarlyStart], n.TaskID)
	}

	esValues := make([]int, 0, len(esGroups))
	for es := range esGroups {
		esValues = append(esValues, es)
	}
	sort.Ints(esValues)

	waves := make([]Wave, len(esValues))
	for i, es := range esValues {
		taskIDs := esGroups[es]
		sort.Strings(taskIDs)

		hasCritical := false
		for _, id := range taskIDs {
			n, _ := result.Node(id)
			n.Wave = i
			if n.IsCritical {
				hasCritical = true
			}
		}

		// Critical tasks first within a wave
		sort.SliceStable(taskIDs, func(a, b int) bool {
			return result.IsCritical(taskIDs[a]) && !result.IsCritical(taskIDs[b])
		})

		waves[i] = Wave{
			Index:      i,
			EarlyStart: es,
			TaskIDs:    taskIDs,
			IsCritical: hasCritical,
		}
	}

	return waves
}
