package schedule

import (
	"github.com/csaptu/flow/analytics/schedule/bottleneck"
	"github.com/csaptu/flow/analytics/schedule/delay"
	"github.com/csaptu/flow/analytics/schedule/duration"
	"github.com/csaptu/flow/analytics/schedule/workload"
)

// Policy carries the tunable constants of an analysis run
type Policy struct {
	Duration       duration.Model
	Thresholds     bottleneck.Thresholds
	AttentionLimit int

	// Workers bounds concurrent projects and resources; 0 means unbounded
	Workers int

	// MaxRangeDays bounds the workload range, explicit or derived from task dates
	MaxRangeDays int
}

// DefaultPolicy returns 8h days, a 4h placeholder, 80%/5 task bottleneck
// thresholds, a 5 task attention list and a ten year workload range.
func DefaultPolicy() Policy {
	return Policy{
		Duration:       duration.Default(),
		Thresholds:     bottleneck.DefaultThresholds(),
		AttentionLimit: delay.DefaultAttentionLimit,
		MaxRangeDays:   workload.DefaultMaxDays,
	}
}
