package bottleneck

import (
	"testing"
	"time"

	"github.com/csaptu/flow/analytics/schedule/workload"
)

var first = time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC)

func load(resourceID string, date time.Time, pct int) workload.Sample {
	return workload.Sample{ResourceID: resourceID, BucketStart: date, BucketEnd: date, WorkloadPercent: pct, IsOverloaded: pct > 100}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name       string
		percents   []int
		tasks      int
		want       bool
		trigger    Trigger
		overloaded int
	}{
		{"quiet day", []int{40, 60}, 2, false, TriggerNone, 0},
		{"mean exactly at threshold", []int{80, 80}, 5, false, TriggerNone, 0},
		{"mean above threshold", []int{70, 100}, 1, true, TriggerWorkload, 0},
		{"too many tasks", []int{10}, 6, true, TriggerDensity, 0},
		{"both", []int{120, 90}, 9, true, TriggerBoth, 1},
		{"one overloaded resource below mean", []int{130, 0, 0}, 1, false, TriggerNone, 1},
		{"no resources", nil, 3, false, TriggerNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var samples []workload.Sample
			for i, p := range tt.percents {
				samples = append(samples, load(string(rune('a'+i)), first, p))
			}
			v := Detect(samples, tt.tasks, DefaultThresholds())
			if v.IsBottleneck != tt.want {
				t.Errorf("expected bottleneck=%v, got %v (avg %v)", tt.want, v.IsBottleneck, v.AverageWorkload)
			}
			if v.Trigger != tt.trigger {
				t.Errorf("expected trigger %q, got %q", tt.trigger, v.Trigger)
			}
			if len(v.OverloadedResources) != tt.overloaded {
				t.Errorf("expected %d overloaded resources, got %v", tt.overloaded, v.OverloadedResources)
			}
		})
	}
}

func TestDetect_CustomThresholds(t *testing.T) {
	v := Detect([]workload.Sample{load("a", first, 60)}, 3, Thresholds{WorkloadPercent: 50, TaskCount: 2})
	if v.Trigger != TriggerBoth {
		t.Errorf("expected both thresholds crossed, got %q", v.Trigger)
	}
}

func TestAnalyze_DaysResourcesAndRollup(t *testing.T) {
	// Mar 29 .. Apr 2
	day := func(n int) time.Time { return first.AddDate(0, 0, n) }
	daily := []workload.Sample{
		load("a", day(0), 150), load("b", day(0), 50),
		load("a", day(1), 20), load("b", day(1), 20),
		load("a", day(2), 0), load("b", day(2), 0),
		load("a", day(3), 110), load("b", day(3), 110),
		load("a", day(4), 10), load("b", day(4), 0),
	}
	activity := []workload.DayActivity{
		{Date: day(0), ActiveTasks: 2},
		{Date: day(1), ActiveTasks: 8},
		{Date: day(2), ActiveTasks: 0},
		{Date: day(3), ActiveTasks: 2},
		{Date: day(4), ActiveTasks: 1},
	}

	sum := Analyze(daily, activity, DefaultThresholds())

	if len(sum.Days) != 5 {
		t.Fatalf("expected 5 days, got %d", len(sum.Days))
	}
	want := []time.Time{day(0), day(1), day(3)}
	if len(sum.BottleneckDays) != len(want) {
		t.Fatalf("expected %d bottleneck days, got %v", len(want), sum.BottleneckDays)
	}
	for i, d := range want {
		if !sum.BottleneckDays[i].Equal(d) {
			t.Errorf("bottleneck[%d]: expected %s, got %s", i, d, sum.BottleneckDays[i])
		}
	}

	if len(sum.Resources) != 2 || sum.Resources[0].ResourceID != "a" || len(sum.Resources[0].Days) != 2 {
		t.Errorf("unexpected resource bottlenecks: %+v", sum.Resources)
	}

	if len(sum.Rollup) != 2 {
		t.Fatalf("expected March and April, got %+v", sum.Rollup)
	}
	if sum.Rollup[0].BottleneckDays != 2 || sum.Rollup[1].BottleneckDays != 1 {
		t.Errorf("expected 2 in March and 1 in April, got %+v", sum.Rollup)
	}
	if sum.Rollup[1].Month.Month() != time.April {
		t.Errorf("expected second period to be April, got %s", sum.Rollup[1].Month)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	sum := Analyze(nil, nil, Thresholds{})
	if len(sum.Days) != 0 || len(sum.BottleneckDays) != 0 || len(sum.Rollup) != 0 {
		t.Errorf("expected empty summary, got %+v", sum)
	}
}
