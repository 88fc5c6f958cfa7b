package dto

import "time"

// AnalysisQuery holds the query parameters shared by the analysis endpoints
type AnalysisQuery struct {
	Now  string `query:"now"`  // RFC3339, defaults to the request time
	View string `query:"view"` // daily, weekly, monthly
	From string `query:"from"` // YYYY-MM-DD
	To   string `query:"to"`   // YYYY-MM-DD
}

// RefreshResponse reports what a forced re-analysis persisted
type RefreshResponse struct {
	ProjectID      string    `json:"project_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	CriticalTasks  int       `json:"critical_tasks"`
	BottleneckDays int       `json:"bottleneck_days"`
	DurationDays   int       `json:"project_duration_days"`
}
