package delay

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/csaptu/flow/analytics/common/models"
)

func TestProperty_DelayIsMaxOfFactors(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(rt, "n")
		tasks := make([]models.Task, n)
		for i := range tasks {
			start := rapid.IntRange(0, 60).Draw(rt, fmt.Sprintf("start_%d", i))
			length := rapid.IntRange(0, 30).Draw(rt, fmt.Sprintf("len_%d", i))
			if rapid.Bool().Draw(rt, fmt.Sprintf("done_%d", i)) {
				tasks[i] = completed(fmt.Sprintf("t%d", i), start, start+length)
			} else {
				tasks[i] = open(fmt.Sprintf("t%d", i), start, start+length)
			}
		}
		now := rapid.IntRange(0, 120).Draw(rt, "now")
		end := rapid.IntRange(1, 90).Draw(rt, "planned_end")

		a := Reconcile(project(0, end), tasks, *day(now), Options{})
		b := a.Breakdown

		for _, f := range []int{b.TaskBased, b.ScheduleBased, b.ProgressBased, b.OverdueBased} {
			if f < 0 {
				rt.Fatalf("negative factor in %+v", b)
			}
			if f > b.DelayDays {
				rt.Fatalf("delay %d below factor %d", b.DelayDays, f)
			}
		}
		byFactor := map[Factor]int{
			FactorTasks:    b.TaskBased,
			FactorSchedule: b.ScheduleBased,
			FactorProgress: b.ProgressBased,
			FactorOverdue:  b.OverdueBased,
		}
		if byFactor[b.DominantFactor] != b.DelayDays {
			rt.Fatalf("dominant factor %s=%d does not equal delay %d", b.DominantFactor, byFactor[b.DominantFactor], b.DelayDays)
		}
		if (a.Status == models.ScheduleDelayed) != (b.DelayDays > 0 && a.Status != models.ScheduleCompleted) {
			rt.Fatalf("status %s inconsistent with delay %d", a.Status, b.DelayDays)
		}
	})
}
