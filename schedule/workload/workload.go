// Package workload aggregates task effort into per-resource load samples
// over daily, weekly or monthly buckets.
package workload

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/csaptu/flow/analytics/common/errors"
	"github.com/csaptu/flow/analytics/common/models"
	"github.com/csaptu/flow/analytics/schedule/calendar"
	"github.com/csaptu/flow/analytics/schedule/duration"
)

// View is the bucket granularity of a workload report
type View string

const (
	ViewDaily   View = "daily"
	ViewWeekly  View = "weekly"
	ViewMonthly View = "monthly"
)

// IsValid checks if the view is valid
func (v View) IsValid() bool {
	switch v {
	case ViewDaily, ViewWeekly, ViewMonthly:
		return true
	}
	return false
}

// Sample is one resource's load over one bucket
type Sample struct {
	ResourceID      string    `json:"resource_id"`
	ResourceName    string    `json:"resource_name,omitempty"`
	BucketStart     time.Time `json:"bucket_start"`
	BucketEnd       time.Time `json:"bucket_end"`
	HoursAllocated  float64   `json:"hours_allocated"`
	HoursAvailable  float64   `json:"hours_available"`
	WorkloadPercent int       `json:"workload_percent"`
	IsOverloaded    bool      `json:"is_overloaded"`
	TaskCount       int       `json:"task_count"`
}

// DayActivity counts the dated tasks whose interval contains a day
type DayActivity struct {
	Date        time.Time `json:"date"`
	ActiveTasks int       `json:"active_tasks"`
}

// DefaultMaxDays caps the resolved range at roughly ten years
const DefaultMaxDays = 3660

// Options selects the view and date range. A zero From/To takes the span
// of all dated tasks. MaxDays bounds the resolved range; 0 means DefaultMaxDays.
type Options struct {
	View    View
	From    time.Time
	To      time.Time
	Model   duration.Model
	Workers int
	MaxDays int
}

// Result holds the samples in the requested view plus the daily grid the
// bottleneck detector consumes.
type Result struct {
	View     View          `json:"view"`
	From     time.Time     `json:"from"`
	To       time.Time     `json:"to"`
	Samples  []Sample      `json:"samples"`
	Daily    []Sample      `json:"-"`
	Activity []DayActivity `json:"-"`

	// Undated lists tasks skipped for having neither start nor end date
	Undated []string `json:"-"`
}

// Percent returns round(100 * allocated / available), 0 when nothing is available
func Percent(allocated, available float64) int {
	if available <= 0 {
		return 0
	}
	return int(math.Round(100 * allocated / available))
}

type bucket struct {
	start, end time.Time
	days       int
}

type span struct {
	task     *models.Task
	from, to int // grid day indexes, inclusive
	daily    float64
}

// Aggregate computes the workload of every resource. Resources are processed
// concurrently. It fails with ErrRangeTooLong before allocating the grid when
// the resolved range exceeds MaxDays, and otherwise only on ctx cancellation.
func Aggregate(ctx context.Context, resources []models.Resource, tasks []models.Task, opts Options) (*Result, error) {
	view := opts.View
	if !view.IsValid() {
		view = ViewDaily
	}
	res := &Result{View: view, Samples: []Sample{}, Daily: []Sample{}, Activity: []DayActivity{}}

	from, to, ok := bounds(tasks, opts.From, opts.To)
	if !ok {
		res.Undated = undated(tasks)
		return res, nil
	}
	limit := opts.MaxDays
	if limit <= 0 {
		limit = DefaultMaxDays
	}
	if n := calendar.SpanDays(from, to); n > limit {
		return nil, fmt.Errorf("%w: %d days from %s to %s, limit %d",
			apperrors.ErrRangeTooLong, n, from.Format(time.DateOnly), to.Format(time.DateOnly), limit)
	}
	res.From, res.To = from, to

	buckets, bucketOf := grid(view, from, to)
	gridStart := buckets[0].start
	days := len(bucketOf)

	// one pass over the tasks: clip each dated interval to the grid
	spans := make([]span, 0, len(tasks))
	activity := make([]int, days)
	for i := range tasks {
		t := &tasks[i]
		start, end, ok := t.Interval()
		if !ok {
			res.Undated = append(res.Undated, t.ID)
			continue
		}
		if calendar.Day(end).Before(calendar.Day(start)) {
			start, end = end, start
		}
		lo := max(calendar.DaysBetween(gridStart, start), 0)
		hi := min(calendar.DaysBetween(gridStart, end), days-1)
		if lo > hi {
			continue
		}
		for d := lo; d <= hi; d++ {
			activity[d]++
		}
		spans = append(spans, span{
			task:  t,
			from:  lo,
			to:    hi,
			daily: opts.Model.DailyHours(t, calendar.SpanDays(start, end)),
		})
	}
	for d := 0; d < days; d++ {
		res.Activity = append(res.Activity, DayActivity{Date: calendar.AddDays(gridStart, d), ActiveTasks: activity[d]})
	}

	ordered := make([]models.Resource, len(resources))
	copy(ordered, resources)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	bucketRows := make([][]Sample, len(ordered))
	dailyRows := make([][]Sample, len(ordered))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i := range ordered {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bucketRows[i], dailyRows[i] = resourceLoad(&ordered[i], spans, gridStart, buckets, bucketOf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range ordered {
		res.Samples = append(res.Samples, bucketRows[i]...)
	}
	// daily grid ordered by date, then resource
	for d := 0; d < days; d++ {
		for i := range ordered {
			res.Daily = append(res.Daily, dailyRows[i][d])
		}
	}
	return res, nil
}

// resourceLoad fills one resource's daily row and sums it into buckets
func resourceLoad(r *models.Resource, spans []span, gridStart time.Time, buckets []bucket, bucketOf []int) ([]Sample, []Sample) {
	days := len(bucketOf)
	alloc := make([]float64, days)
	dayTasks := make([]int, days)
	bucketTasks := make([]int, len(buckets))

	for _, s := range spans {
		if !s.task.AssignedTo(r.ID) {
			continue
		}
		last := -1
		for d := s.from; d <= s.to; d++ {
			alloc[d] += s.daily
			dayTasks[d]++
			if b := bucketOf[d]; b != last {
				bucketTasks[b]++
				last = b
			}
		}
	}

	perDay := r.HoursPerDay()
	daily := make([]Sample, days)
	bucketAlloc := make([]float64, len(buckets))
	for d := 0; d < days; d++ {
		date := calendar.AddDays(gridStart, d)
		available := 0.0
		if r.IsWorkingDay(date) {
			available = perDay
		}
		daily[d] = sample(r, date, date, alloc[d], available, dayTasks[d])
		bucketAlloc[bucketOf[d]] += alloc[d]
	}

	out := make([]Sample, len(buckets))
	for b, bk := range buckets {
		if bk.days == 1 {
			out[b] = daily[b]
			continue
		}
		// calendar days, not working days
		out[b] = sample(r, bk.start, bk.end, bucketAlloc[b], perDay*float64(bk.days), bucketTasks[b])
	}
	return out, daily
}

func sample(r *models.Resource, start, end time.Time, allocated, available float64, tasks int) Sample {
	pct := Percent(allocated, available)
	return Sample{
		ResourceID:      r.ID,
		ResourceName:    r.Name,
		BucketStart:     start,
		BucketEnd:       end,
		HoursAllocated:  round2(allocated),
		HoursAvailable:  available,
		WorkloadPercent: pct,
		IsOverloaded:    pct > 100,
		TaskCount:       tasks,
	}
}

// bounds resolves the requested range, falling back to the dated tasks' span
func bounds(tasks []models.Task, from, to time.Time) (time.Time, time.Time, bool) {
	if from.IsZero() || to.IsZero() {
		var lo, hi time.Time
		found := false
		for i := range tasks {
			start, end, ok := tasks[i].Interval()
			if !ok {
				continue
			}
			if calendar.Day(end).Before(calendar.Day(start)) {
				start, end = end, start
			}
			if !found || start.Before(lo) {
				lo = start
			}
			if !found || end.After(hi) {
				hi = end
			}
			found = true
		}
		if from.IsZero() {
			from = lo
		}
		if to.IsZero() {
			to = hi
		}
		if !found && (from.IsZero() || to.IsZero()) {
			return time.Time{}, time.Time{}, false
		}
	}
	from, to = calendar.Day(from), calendar.Day(to)
	if to.Before(from) {
		from, to = to, from
	}
	return from, to, true
}

// grid lays out the buckets covering [from, to] and maps each grid day to
// its bucket. Weekly and monthly grids widen to whole buckets.
func grid(view View, from, to time.Time) ([]bucket, []int) {
	var buckets []bucket
	switch view {
	case ViewWeekly:
		for s := calendar.WeekStart(from); !s.After(to); s = s.AddDate(0, 0, 7) {
			buckets = append(buckets, bucket{start: s, end: s.AddDate(0, 0, 6), days: 7})
		}
	case ViewMonthly:
		for s := calendar.MonthStart(from); !s.After(to); s = s.AddDate(0, 1, 0) {
			n := calendar.DaysInMonth(s)
			buckets = append(buckets, bucket{start: s, end: s.AddDate(0, 0, n-1), days: n})
		}
	default:
		calendar.Each(from, to, func(d time.Time) {
			buckets = append(buckets, bucket{start: d, end: d, days: 1})
		})
	}

	var bucketOf []int
	for b, bk := range buckets {
		for i := 0; i < bk.days; i++ {
			bucketOf = append(bucketOf, b)
		}
	}
	return buckets, bucketOf
}

func undated(tasks []models.Task) []string {
	var ids []string
	for i := range tasks {
		if !tasks[i].HasDates() {
			ids = append(ids, tasks[i].ID)
		}
	}
	return ids
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
