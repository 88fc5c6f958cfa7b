package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/csaptu/flow/analytics/schedule"
)

const cachePrefix = "analytics:report:"

// ReportKey identifies a cached report. Reports only depend on the
// calendar day of the reference time, so Day is date-only.
type ReportKey struct {
	ProjectID uuid.UUID
	Day       time.Time
	View      string
	From      string
	To        string
}

func (k ReportKey) String() string {
	return fmt.Sprintf("%s%s:%s:%s:%s:%s", cachePrefix, k.ProjectID, k.Day.Format(time.DateOnly), k.View, k.From, k.To)
}

// ReportCache stores serialized reports in Redis
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a new report cache. A non-positive ttl disables it.
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

// Get returns the cached report, or ok=false on a miss
func (c *ReportCache) Get(ctx context.Context, key ReportKey) (*schedule.Report, bool, error) {
	if c.ttl <= 0 {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var report schedule.Report
	if err := json.Unmarshal(data, &report); err != nil {
		// stale layout; treat as a miss and let Set overwrite it
		return nil, false, nil
	}
	return &report, true, nil
}

// Set stores the report under key for the configured TTL
func (c *ReportCache) Set(ctx context.Context, key ReportKey, report *schedule.Report) error {
	if c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key.String(), data, c.ttl).Err()
}

// Invalidate drops every cached report of the project
func (c *ReportCache) Invalidate(ctx context.Context, projectID uuid.UUID) error {
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("%s%s:*", cachePrefix, projectID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
