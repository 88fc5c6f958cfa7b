package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/csaptu/flow/analytics/schedule"
)

const websiteYAML = `
project:
  id: website
  name: Website relaunch
  start_date: 2024-03-04T00:00:00Z
  end_date: 2024-03-14T00:00:00Z
now: 2024-03-06T09:00:00Z
resources:
  - id: ana
    name: Ana
    max_hours_per_day: 8
tasks:
  - id: wireframes
    title: Wireframes
    status: completed
    priority: high
    estimated_hours: 12
    start_date: 2024-03-04T00:00:00Z
    end_date: 2024-03-05T00:00:00Z
    assignee_ids: [ana]
  - id: build
    title: Build pages
    status: in_progress
    estimated_hours: 30
    start_date: 2024-03-06T00:00:00Z
    end_date: 2024-03-11T00:00:00Z
    dependencies: [wireframes]
    assignee_ids: [ana]
`

const cyclicYAML = `
project:
  id: loop
now: 2024-03-06T09:00:00Z
tasks:
  - id: a
    dependencies: [b]
  - id: b
    dependencies: [a]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ENVIRONMENT", "development")
	cmd := rootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRun_SingleSnapshot(t *testing.T) {
	path := writeFile(t, "website.yaml", websiteYAML)

	out, err := execute(t, "run", path, "--view", "weekly")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var report schedule.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid report JSON: %v\n%s", err, out)
	}
	if report.ProjectID != "website" {
		t.Errorf("expected website, got %s", report.ProjectID)
	}
	if report.CriticalPath.ProjectDurationDays != 6 {
		t.Errorf("expected 6 days, got %d", report.CriticalPath.ProjectDurationDays)
	}
	if report.Workload.View != "weekly" {
		t.Errorf("expected weekly view from the flag, got %s", report.Workload.View)
	}
}

func TestRun_NowOverride(t *testing.T) {
	path := writeFile(t, "website.yaml", websiteYAML)

	out, err := execute(t, "run", path, "--now", "2024-03-20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var report schedule.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatal(err)
	}
	if got := report.GeneratedAt.Format("2006-01-02"); got != "2024-03-20" {
		t.Errorf("expected report at 2024-03-20, got %s", got)
	}
	if report.Delay.Breakdown.DelayDays == 0 {
		t.Error("expected a delay after the planned end")
	}
}

func TestRun_MultipleSnapshots(t *testing.T) {
	good := writeFile(t, "website.yaml", websiteYAML)
	bad := writeFile(t, "loop.yaml", cyclicYAML)

	out, err := execute(t, "run", good, bad)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 projects failed") {
		t.Fatalf("expected one failed project, got %v", err)
	}
	var reports []schedule.Report
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(reports) != 1 || reports[0].ProjectID != "website" {
		t.Errorf("expected only the website report, got %d reports", len(reports))
	}
}

func TestRun_InvalidFlags(t *testing.T) {
	path := writeFile(t, "website.yaml", websiteYAML)

	if _, err := execute(t, "run", path, "--from", "March"); err == nil {
		t.Error("expected error for bad --from")
	}
	if _, err := execute(t, "run", path, "--view", "hourly"); err == nil {
		t.Error("expected error for bad --view")
	}
	if _, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", writeFile(t, "website.yaml", websiteYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "ok: 2 tasks, 1 dependencies, 1 resources") {
		t.Errorf("unexpected output: %s", out)
	}

	out, err = execute(t, "validate", writeFile(t, "loop.yaml", cyclicYAML))
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !strings.Contains(out, "cycle:") {
		t.Errorf("expected cycle in output, got %s", out)
	}
}
