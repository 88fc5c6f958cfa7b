package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/csaptu/flow/analytics/common/dto"
	apperrors "github.com/csaptu/flow/analytics/common/errors"
	"github.com/csaptu/flow/analytics/pkg/httputil"
	"github.com/csaptu/flow/analytics/pkg/middleware"
	"github.com/csaptu/flow/analytics/schedule"
	"github.com/csaptu/flow/analytics/schedule/bottleneck"
	"github.com/csaptu/flow/analytics/schedule/calendar"
	"github.com/csaptu/flow/analytics/schedule/workload"
)

// Store loads project schedules and persists analysis results
type Store interface {
	IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	LoadProject(ctx context.Context, projectID uuid.UUID) (*ProjectData, error)
	SaveAnalysis(ctx context.Context, projectID uuid.UUID, report *schedule.Report) error
}

// Cache holds computed reports between requests
type Cache interface {
	Get(ctx context.Context, key ReportKey) (*schedule.Report, bool, error)
	Set(ctx context.Context, key ReportKey, report *schedule.Report) error
	Invalidate(ctx context.Context, projectID uuid.UUID) error
}

// AnalysisHandler serves the schedule analysis endpoints
type AnalysisHandler struct {
	store  Store
	cache  Cache
	engine *schedule.Engine
	clock  func() time.Time
}

// NewAnalysisHandler creates a new analysis handler. cache may be nil.
func NewAnalysisHandler(store Store, cache Cache, engine *schedule.Engine) *AnalysisHandler {
	return &AnalysisHandler{store: store, cache: cache, engine: engine, clock: time.Now}
}

// BottleneckResponse is the bottleneck slice of a report
type BottleneckResponse struct {
	Thresholds     bottleneck.Thresholds     `json:"thresholds"`
	BottleneckDays []time.Time               `json:"bottleneck_days"`
	Days           []bottleneck.Day          `json:"days"`
	Resources      []bottleneck.ResourceDays `json:"resource_bottlenecks"`
	Rollup         []bottleneck.Period       `json:"rollup"`
}

// request is a parsed analysis request
type request struct {
	projectID uuid.UUID
	now       time.Time
	view      workload.View
	from, to  *time.Time
	query     dto.AnalysisQuery
}

func (r *request) key() ReportKey {
	return ReportKey{
		ProjectID: r.projectID,
		Day:       time.Date(r.now.Year(), r.now.Month(), r.now.Day(), 0, 0, 0, 0, time.UTC),
		View:      string(r.view),
		From:      r.query.From,
		To:        r.query.To,
	}
}

// Analysis returns the full report
func (h *AnalysisHandler) Analysis(c *fiber.Ctx) error {
	return h.serve(c, func(r *schedule.Report) any { return r })
}

// CriticalPath returns the CPM schedule
func (h *AnalysisHandler) CriticalPath(c *fiber.Ctx) error {
	return h.serve(c, func(r *schedule.Report) any { return r.CriticalPath })
}

// Delay returns the date reconciliation
func (h *AnalysisHandler) Delay(c *fiber.Ctx) error {
	return h.serve(c, func(r *schedule.Report) any { return r.Delay })
}

// Workload returns the workload samples in the requested view
func (h *AnalysisHandler) Workload(c *fiber.Ctx) error {
	return h.serve(c, func(r *schedule.Report) any { return r.Workload })
}

// Bottlenecks returns the bottleneck days and roll-ups
func (h *AnalysisHandler) Bottlenecks(c *fiber.Ctx) error {
	thresholds := h.engine.Policy().Thresholds
	return h.serve(c, func(r *schedule.Report) any {
		return BottleneckResponse{
			Thresholds:     thresholds,
			BottleneckDays: r.Workload.BottleneckDays,
			Days:           r.Workload.Days,
			Resources:      r.Workload.Resources,
			Rollup:         r.Workload.Rollup,
		}
	})
}

// Recommendations returns the advisor output
func (h *AnalysisHandler) Recommendations(c *fiber.Ctx) error {
	return h.serve(c, func(r *schedule.Report) any { return r.Recommendations })
}

// Refresh re-analyzes the project, persists critical flags and bottleneck
// days, and drops cached reports.
func (h *AnalysisHandler) Refresh(c *fiber.Ctx) error {
	req, err := h.parse(c)
	if err != nil {
		return h.fail(c, err)
	}
	log := middleware.LoggerWithFields(c)

	report, err := h.analyze(c.Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.store.SaveAnalysis(c.Context(), req.projectID, report); err != nil {
		log.Error().Err(err).Msg("Failed to save analysis")
		return httputil.InternalError(c, "failed to save analysis")
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(c.Context(), req.projectID); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate report cache")
		}
	}
	c.Locals("cacheStatus", "bypass")

	return httputil.Success(c, dto.RefreshResponse{
		ProjectID:      report.ProjectID,
		GeneratedAt:    report.GeneratedAt,
		CriticalTasks:  len(report.CriticalPath.CriticalTaskIDs),
		BottleneckDays: len(report.Workload.BottleneckDays),
		DurationDays:   report.CriticalPath.ProjectDurationDays,
	})
}

func (h *AnalysisHandler) serve(c *fiber.Ctx, pick func(*schedule.Report) any) error {
	req, err := h.parse(c)
	if err != nil {
		return h.fail(c, err)
	}
	log := middleware.LoggerWithFields(c)
	key := req.key()

	status := "miss"
	var report *schedule.Report
	if h.cache != nil {
		cached, ok, err := h.cache.Get(c.Context(), key)
		if err != nil {
			log.Warn().Err(err).Msg("Report cache unavailable")
		}
		if ok {
			report, status = cached, "hit"
		}
	}

	if report == nil {
		report, err = h.analyze(c.Context(), req)
		if err != nil {
			return h.fail(c, err)
		}
		if h.cache != nil {
			if err := h.cache.Set(c.Context(), key, report); err != nil {
				log.Warn().Err(err).Msg("Failed to cache report")
			}
		}
	}

	c.Set("X-Cache", status)
	c.Locals("cacheStatus", status)
	return httputil.Success(c, pick(report))
}

func (h *AnalysisHandler) analyze(ctx context.Context, req *request) (*schedule.Report, error) {
	data, err := h.store.LoadProject(ctx, req.projectID)
	if err != nil {
		return nil, err
	}
	snap := data.Snapshot(req.now)
	snap.View = req.view
	snap.From, snap.To = req.from, req.to
	return h.engine.Analyze(ctx, snap)
}

// parse authenticates the caller, checks membership and reads the query
func (h *AnalysisHandler) parse(c *fiber.Ctx) (*request, error) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return nil, err
	}

	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, apperrors.BadRequest("invalid project ID")
	}

	member, err := h.store.IsMember(c.Context(), projectID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, apperrors.ErrNotProjectMember
	}

	req := &request{projectID: projectID, now: h.clock().UTC(), view: workload.ViewDaily}
	if err := c.QueryParser(&req.query); err != nil {
		return nil, apperrors.BadRequest("invalid query parameters")
	}
	q := req.query

	if q.Now != "" {
		now, err := time.Parse(time.RFC3339, q.Now)
		if err != nil {
			return nil, apperrors.ValidationError("validation failed", map[string]string{"now": "must be RFC3339"})
		}
		req.now = now
	}
	if q.View != "" {
		req.view = workload.View(q.View)
		if !req.view.IsValid() {
			return nil, apperrors.ValidationError("validation failed", map[string]string{"view": "must be daily, weekly or monthly"})
		}
	}
	if req.from, err = parseDay(q.From); err != nil {
		return nil, apperrors.ValidationError("validation failed", map[string]string{"from": "must be YYYY-MM-DD"})
	}
	if req.to, err = parseDay(q.To); err != nil {
		return nil, apperrors.ValidationError("validation failed", map[string]string{"to": "must be YYYY-MM-DD"})
	}
	if limit := h.engine.Policy().MaxRangeDays; limit > 0 && req.from != nil && req.to != nil {
		if calendar.SpanDays(*req.from, *req.to) > limit {
			return nil, apperrors.ValidationError("validation failed", map[string]string{"to": fmt.Sprintf("range must not exceed %d days", limit)})
		}
	}
	return req, nil
}

// fail writes err as an API error. Cycles carry their path in details.
func (h *AnalysisHandler) fail(c *fiber.Ctx, err error) error {
	var ge *apperrors.GraphError
	if apperrors.As(err, &ge) {
		return httputil.Error(c, apperrors.InvalidGraph(ge))
	}
	if apperrors.HTTPStatusCode(err) == fiber.StatusInternalServerError {
		log := middleware.LoggerWithFields(c)
		log.Error().Err(err).Msg("Analysis request failed")
		return httputil.InternalError(c, "")
	}
	return httputil.Error(c, err)
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
