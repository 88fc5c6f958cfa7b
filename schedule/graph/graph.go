// Package graph builds the dependency graph of one project's tasks.
package graph

import (
	"fmt"
	"sort"

	apperrors "github.com/csaptu/flow/analytics/common/errors"
	"github.com/csaptu/flow/analytics/common/models"
)

// Graph is a directed acyclic graph of tasks. Edges run from a dependency
// to the task that waits on it.
type Graph struct {
	Tasks      map[string]*models.Task
	IDs        []string            // sorted task ids
	Deps       map[string][]string // task -> tasks it depends on
	Dependents map[string][]string // task -> tasks that depend on it
	Roots      []string            // tasks with no dependencies in the graph
	Leaves     []string            // tasks nothing depends on

	// Dangling lists dependency references to ids outside the task set.
	// They are dropped from the graph.
	Dangling []Edge
}

// Edge is a dependency reference from a task to one it depends on
type Edge struct {
	From string // dependent task
	To   string // dependency
}

// Build constructs the graph for the given tasks and rejects cycles.
// Self-dependencies count as one-node cycles.
func Build(projectID string, tasks []models.Task) (*Graph, error) {
	g := &Graph{
		Tasks:      make(map[string]*models.Task, len(tasks)),
		Deps:       make(map[string][]string),
		Dependents: make(map[string][]string),
	}

	for i := range tasks {
		t := &tasks[i]
		if _, dup := g.Tasks[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate task id %q", apperrors.ErrInvalidSnapshot, t.ID)
		}
		g.Tasks[t.ID] = t
		g.IDs = append(g.IDs, t.ID)
	}
	sort.Strings(g.IDs)

	for _, id := range g.IDs {
		seen := make(map[string]bool)
		for _, dep := range g.Tasks[id].Dependencies {
			if dep == id {
				return nil, &apperrors.GraphError{ProjectID: projectID, Cycle: []string{id, id}}
			}
			if _, ok := g.Tasks[dep]; !ok {
				g.Dangling = append(g.Dangling, Edge{From: id, To: dep})
				continue
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			g.Deps[id] = append(g.Deps[id], dep)
			g.Dependents[dep] = append(g.Dependents[dep], id)
		}
	}

	for k := range g.Deps {
		sort.Strings(g.Deps[k])
	}
	for k := range g.Dependents {
		sort.Strings(g.Dependents[k])
	}

	for _, id := range g.IDs {
		if len(g.Deps[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Dependents[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}

	if cycle := g.DetectCycle(); cycle != nil {
		return nil, &apperrors.GraphError{ProjectID: projectID, Cycle: cycle}
	}

	return g, nil
}

// DetectCycle returns a closed cycle path in execution order (each id is
// followed by a task that depends on it), or nil if the graph is acyclic.
// DFS colouring with an explicit stack, so depth is bounded by memory only.
func (g *Graph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	type frame struct {
		node string
		next int
	}

	color := make(map[string]int, len(g.IDs))
	parent := make(map[string]string)

	for _, root := range g.IDs {
		if color[root] != white {
			continue
		}
		stack := []frame{{node: root}}
		color[root] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succs := g.Dependents[top.node]
			if top.next >= len(succs) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			next := succs[top.next]
			top.next++

			switch color[next] {
			case gray:
				// Walk parents back from the current node to the re-entered one
				cycle := []string{next, top.node}
				for cur := top.node; cur != next; {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			case white:
				parent[next] = top.node
				color[next] = gray
				stack = append(stack, frame{node: next})
			}
		}
	}
	return nil
}

// TopoOrder returns task ids with every dependency before its dependents.
// Kahn's algorithm with sorted ready sets so the order is deterministic.
func (g *Graph) TopoOrder() ([]string, error) {
	inDegree := make(map[string]int, len(g.IDs))
	for _, id := range g.IDs {
		inDegree[id] = len(g.Deps[id])
	}

	queue := append([]string(nil), g.Roots...)

	order := make([]string, 0, len(g.IDs))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var ready []string
		for _, succ := range g.Dependents[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				ready = append(ready, succ)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	if len(order) != len(g.IDs) {
		return nil, fmt.Errorf("%w: topological sort covered %d of %d tasks",
			apperrors.ErrInvalidGraph, len(order), len(g.IDs))
	}
	return order, nil
}

// Len returns the number of tasks in the graph
func (g *Graph) Len() int {
	return len(g.IDs)
}
