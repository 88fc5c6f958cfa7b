// Package advisor proposes ways to shorten a project by looking at the
// tasks on its critical path. Recommendations are advisory only and are not
// checked for mutual compatibility.
package advisor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/csaptu/flow/analytics/common/models"
	"github.com/csaptu/flow/analytics/schedule/cpm"
	"github.com/csaptu/flow/analytics/schedule/workload"
)

// Type is the kind of change a recommendation proposes
type Type string

const (
	TypeReduceDuration     Type = "reduce_duration"
	TypeParallelExecution  Type = "parallel_execution"
	TypeResourceAllocation Type = "resource_allocation"
)

func (t Type) order() int {
	switch t {
	case TypeReduceDuration:
		return 0
	case TypeParallelExecution:
		return 1
	}
	return 2
}

// Effort is a rough cost tier for acting on a recommendation
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

const (
	reduceFactor        = 0.2
	parallelFactor      = 0.5
	resourceFactor      = 0.3
	maxExtraResources   = 2
	resourceMinDuration = 3
)

// Recommendation is one proposed change to a critical-path task
type Recommendation struct {
	Type                 Type     `json:"type"`
	TaskID               string   `json:"task_id"`
	TaskTitle            string   `json:"task_title"`
	EstimatedDaysSaved   float64  `json:"estimated_days_saved"`
	Effort               Effort   `json:"effort"`
	Rationale            string   `json:"rationale"`
	AdditionalResources  int      `json:"additional_resources,omitempty"`
	SuggestedResourceIDs []string `json:"suggested_resource_ids,omitempty"`

	position int
}

// Input bundles what the advisor looks at
type Input struct {
	CriticalPath *cpm.Result
	Tasks        []models.Task
	Resources    []models.Resource
	Samples      []workload.Sample
}

// Recommend walks the critical path and returns recommendations sorted by
// estimated time saved, largest first.
func Recommend(in Input) []Recommendation {
	out := []Recommendation{}
	if in.CriticalPath == nil {
		return out
	}

	tasks := make(map[string]*models.Task, len(in.Tasks))
	for i := range in.Tasks {
		tasks[in.Tasks[i].ID] = &in.Tasks[i]
	}
	free := availableResources(in.Resources, in.Samples)

	for pos, id := range in.CriticalPath.CriticalPathTaskIDs {
		n, ok := in.CriticalPath.Node(id)
		if !ok {
			continue
		}
		title := id
		t := tasks[id]
		if t != nil && t.Title != "" {
			title = t.Title
		}
		d := float64(n.Duration)

		if n.Duration > 1 {
			out = append(out, Recommendation{
				Type:               TypeReduceDuration,
				TaskID:             id,
				TaskTitle:          title,
				EstimatedDaysSaved: round2(reduceFactor * d),
				Effort:             EffortMedium,
				Rationale:          fmt.Sprintf("%q takes %d days on the critical path; trimming scope by 20%% shortens the project directly", title, n.Duration),
				position:           pos,
			})
		}

		if len(n.Dependents) > 1 {
			out = append(out, Recommendation{
				Type:               TypeParallelExecution,
				TaskID:             id,
				TaskTitle:          title,
				EstimatedDaysSaved: round2(parallelFactor * d),
				Effort:             EffortHigh,
				Rationale: fmt.Sprintf("%q gates %d tasks (%s); splitting it so they can start on partial output overlaps the work",
					title, len(n.Dependents), strings.Join(n.Dependents, ", ")),
				position: pos,
			})
		}

		if owner, ok := soleAssignee(t); ok && n.Duration > resourceMinDuration {
			helpers := others(free, owner)
			if len(helpers) > maxExtraResources {
				helpers = helpers[:maxExtraResources]
			}
			if len(helpers) > 0 {
				out = append(out, Recommendation{
					Type:                 TypeResourceAllocation,
					TaskID:               id,
					TaskTitle:            title,
					EstimatedDaysSaved:   round2(resourceFactor * d * float64(len(helpers))),
					Effort:               EffortLow,
					Rationale:            fmt.Sprintf("%q is a %d day task carried by one resource; adding %d more spreads the effort", title, n.Duration, len(helpers)),
					AdditionalResources:  len(helpers),
					SuggestedResourceIDs: helpers,
					position:             pos,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.EstimatedDaysSaved != b.EstimatedDaysSaved {
			return a.EstimatedDaysSaved > b.EstimatedDaysSaved
		}
		if a.position != b.position {
			return a.position < b.position
		}
		return a.Type.order() < b.Type.order()
	})
	return out
}

// availableResources returns resources never overloaded in the samples,
// least loaded first.
func availableResources(resources []models.Resource, samples []workload.Sample) []string {
	type load struct {
		total, n   int
		overloaded bool
	}
	loads := make(map[string]*load, len(resources))
	for _, r := range resources {
		loads[r.ID] = &load{}
	}
	for _, s := range samples {
		l, ok := loads[s.ResourceID]
		if !ok {
			continue
		}
		l.total += s.WorkloadPercent
		l.n++
		l.overloaded = l.overloaded || s.IsOverloaded
	}

	type candidate struct {
		id   string
		mean float64
	}
	var cands []candidate
	for id, l := range loads {
		if l.overloaded {
			continue
		}
		mean := 0.0
		if l.n > 0 {
			mean = float64(l.total) / float64(l.n)
		}
		cands = append(cands, candidate{id, mean})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].mean != cands[j].mean {
			return cands[i].mean < cands[j].mean
		}
		return cands[i].id < cands[j].id
	})

	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.id
	}
	return ids
}

// soleAssignee returns the only distinct assignee of t
func soleAssignee(t *models.Task) (string, bool) {
	if t == nil || len(t.AssigneeIDs) == 0 {
		return "", false
	}
	owner := t.AssigneeIDs[0]
	for _, id := range t.AssigneeIDs[1:] {
		if id != owner {
			return "", false
		}
	}
	return owner, true
}

func others(ids []string, exclude string) []string {
	var out []string
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
