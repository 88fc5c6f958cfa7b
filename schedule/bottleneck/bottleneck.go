// Package bottleneck flags days where a project's resources are contended,
// either by aggregate load or by the number of tasks running at once.
package bottleneck

import (
	"sort"
	"time"

	"github.com/csaptu/flow/analytics/schedule/calendar"
	"github.com/csaptu/flow/analytics/schedule/workload"
)

const (
	DefaultWorkloadPercent = 80.0
	DefaultTaskCount       = 5
)

// Trigger names the metric that made a day a bottleneck
type Trigger string

const (
	TriggerNone     Trigger = ""
	TriggerWorkload Trigger = "workload"
	TriggerDensity  Trigger = "density"
	TriggerBoth     Trigger = "workload+density"
)

// Thresholds are exclusive: a day must exceed them
type Thresholds struct {
	WorkloadPercent float64 `json:"workload_percent"`
	TaskCount       int     `json:"task_count"`
}

// DefaultThresholds returns 80% mean workload and 5 active tasks
func DefaultThresholds() Thresholds {
	return Thresholds{WorkloadPercent: DefaultWorkloadPercent, TaskCount: DefaultTaskCount}
}

func (t Thresholds) orDefault() Thresholds {
	if t.WorkloadPercent <= 0 {
		t.WorkloadPercent = DefaultWorkloadPercent
	}
	if t.TaskCount <= 0 {
		t.TaskCount = DefaultTaskCount
	}
	return t
}

// Verdict is the outcome of checking one day
type Verdict struct {
	IsBottleneck        bool     `json:"is_bottleneck"`
	Trigger             Trigger  `json:"trigger,omitempty"`
	AverageWorkload     float64  `json:"average_workload"`
	TaskCount           int      `json:"task_count"`
	OverloadedResources []string `json:"overloaded_resources,omitempty"`
}

// Day is a dated verdict
type Day struct {
	Date time.Time `json:"date"`
	Verdict
}

// ResourceDays lists the days one resource was over capacity
type ResourceDays struct {
	ResourceID string      `json:"resource_id"`
	Days       []time.Time `json:"days"`
}

// Period counts bottleneck days in one calendar month
type Period struct {
	Month          time.Time `json:"month"`
	BottleneckDays int       `json:"bottleneck_days"`
}

// Summary is the bottleneck picture over a workload grid
type Summary struct {
	Days           []Day          `json:"days"`
	BottleneckDays []time.Time    `json:"bottleneck_days"`
	Resources      []ResourceDays `json:"resources"`
	Rollup         []Period       `json:"rollup"`
}

// Detect checks one day's samples against the thresholds. Either condition
// alone makes the day a project bottleneck; resources above 100% are
// reported independently.
func Detect(samples []workload.Sample, taskCount int, th Thresholds) Verdict {
	th = th.orDefault()
	v := Verdict{TaskCount: taskCount}

	total := 0
	for _, s := range samples {
		total += s.WorkloadPercent
		if s.IsOverloaded {
			v.OverloadedResources = append(v.OverloadedResources, s.ResourceID)
		}
	}
	if len(samples) > 0 {
		v.AverageWorkload = float64(total) / float64(len(samples))
	}

	byLoad := v.AverageWorkload > th.WorkloadPercent
	byDensity := taskCount > th.TaskCount
	switch {
	case byLoad && byDensity:
		v.Trigger = TriggerBoth
	case byLoad:
		v.Trigger = TriggerWorkload
	case byDensity:
		v.Trigger = TriggerDensity
	}
	v.IsBottleneck = byLoad || byDensity
	return v
}

// Analyze runs Detect over every day of a workload grid
func Analyze(daily []workload.Sample, activity []workload.DayActivity, th Thresholds) Summary {
	sum := Summary{Days: []Day{}, BottleneckDays: []time.Time{}, Resources: []ResourceDays{}, Rollup: []Period{}}

	byDate := make(map[time.Time][]workload.Sample)
	for _, s := range daily {
		d := calendar.Day(s.BucketStart)
		byDate[d] = append(byDate[d], s)
	}

	perResource := make(map[string][]time.Time)
	for _, a := range activity {
		date := calendar.Day(a.Date)
		v := Detect(byDate[date], a.ActiveTasks, th)
		sum.Days = append(sum.Days, Day{Date: date, Verdict: v})
		if v.IsBottleneck {
			sum.BottleneckDays = append(sum.BottleneckDays, date)
		}
		for _, id := range v.OverloadedResources {
			perResource[id] = append(perResource[id], date)
		}
	}

	ids := make([]string, 0, len(perResource))
	for id := range perResource {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		sum.Resources = append(sum.Resources, ResourceDays{ResourceID: id, Days: perResource[id]})
	}

	sum.Rollup = Rollup(sum.Days)
	return sum
}

// Rollup counts bottleneck days per calendar month, covering every month
// the days span.
func Rollup(days []Day) []Period {
	out := []Period{}
	index := make(map[time.Time]int)
	for _, d := range days {
		m := calendar.MonthStart(d.Date)
		i, ok := index[m]
		if !ok {
			i = len(out)
			index[m] = i
			out = append(out, Period{Month: m})
		}
		if d.IsBottleneck {
			out[i].BottleneckDays++
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}
