package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port == 0 {
		t.Error("expected a default port")
	}
	if cfg.Cache.ReportTTL != 15*time.Minute {
		t.Errorf("expected 15m report TTL, got %s", cfg.Cache.ReportTTL)
	}

	p := cfg.EnginePolicy()
	if p.Duration.HoursPerDay != 8 || p.Duration.PlaceholderHours != 4 {
		t.Errorf("expected 8h days and 4h placeholder, got %+v", p.Duration)
	}
	if p.Thresholds.WorkloadPercent != 80 || p.Thresholds.TaskCount != 5 {
		t.Errorf("expected 80%%/5 thresholds, got %+v", p.Thresholds)
	}
	if p.AttentionLimit != 5 {
		t.Errorf("expected attention limit 5, got %d", p.AttentionLimit)
	}
	if p.MaxRangeDays != 3660 {
		t.Errorf("expected a 3660 day range limit, got %d", p.MaxRangeDays)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("HOURS_PER_DAY", "6")
	t.Setenv("BOTTLENECK_TASK_COUNT", "3")
	t.Setenv("ANALYTICS_WORKERS", "4")
	t.Setenv("MAX_RANGE_DAYS", "400")
	t.Setenv("REPORT_TTL", "1h")
	t.Setenv("ANALYTICS_DB_URL", "postgres://analytics")
	t.Setenv("DATABASE_URL", "postgres://generic")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.DSN() != "postgres://analytics" {
		t.Errorf("expected service database url to win, got %s", cfg.Database.DSN())
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Cache.ReportTTL != time.Hour {
		t.Errorf("expected 1h TTL, got %s", cfg.Cache.ReportTTL)
	}

	p := cfg.EnginePolicy()
	if p.Duration.HoursPerDay != 6 || p.Thresholds.TaskCount != 3 || p.Workers != 4 || p.MaxRangeDays != 400 {
		t.Errorf("expected overrides in policy, got %+v", p)
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET in production")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsProduction() || cfg.IsDevelopment() {
		t.Error("expected production mode")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "flow", Password: "pw", Name: "projects", SSLMode: "disable"}
	if got := c.DSN(); got != "postgres://flow:pw@db:5432/projects?sslmode=disable" {
		t.Errorf("unexpected dsn %s", got)
	}
}
