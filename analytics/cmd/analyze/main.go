package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/csaptu/flow/analytics/analytics"
	apperrors "github.com/csaptu/flow/analytics/common/errors"
	"github.com/csaptu/flow/analytics/pkg/config"
	"github.com/csaptu/flow/analytics/pkg/middleware"
	"github.com/csaptu/flow/analytics/schedule"
	"github.com/csaptu/flow/analytics/schedule/graph"
	"github.com/csaptu/flow/analytics/schedule/workload"
)

var (
	flagNow     string
	flagView    string
	flagFrom    string
	flagTo      string
	flagOutput  string
	flagVerbose bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "analyze",
		Short: "Schedule analysis for flow projects",
		Long: `Analyze computes critical paths, delay, workload, bottlenecks and
optimization recommendations for project snapshots, either from YAML files
or straight from the projects database.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.TimeFieldFormat = time.RFC3339
			level := zerolog.InfoLevel
			if flagVerbose {
				level = zerolog.DebugLevel
			}
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(level)
		},
	}

	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(runCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(refreshCmd())
	root.AddCommand(tokenCmd())
	return root
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <snapshot.yaml> [snapshot.yaml...]",
		Short: "Analyze snapshot files and print the reports as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snaps := make([]schedule.Snapshot, 0, len(args))
			for _, path := range args {
				snap, err := schedule.LoadSnapshot(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := applyFlags(snap); err != nil {
					return err
				}
				snaps = append(snaps, *snap)
			}

			policy, err := enginePolicy()
			if err != nil {
				return err
			}
			engine := schedule.NewEngine(policy, &log.Logger)

			out := cmd.OutOrStdout()
			if flagOutput != "" {
				f, err := os.Create(flagOutput)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			if len(snaps) == 1 {
				report, err := engine.Analyze(cmd.Context(), snaps[0])
				if err != nil {
					return err
				}
				return writeJSON(out, report)
			}

			results := engine.AnalyzeProjects(cmd.Context(), snaps)
			reports := make([]*schedule.Report, 0, len(results))
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					continue
				}
				reports = append(reports, r.Report)
			}
			if err := writeJSON(out, reports); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d projects failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagNow, "now", "", "Reference time (RFC3339 or YYYY-MM-DD), overrides the snapshot")
	cmd.Flags().StringVar(&flagView, "view", "", "Workload view: daily, weekly or monthly")
	cmd.Flags().StringVar(&flagFrom, "from", "", "Workload range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flagTo, "to", "", "Workload range end (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write the JSON to a file")

	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <snapshot.yaml>",
		Short: "Check a snapshot's fields and dependency graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := schedule.LoadSnapshot(args[0])
			if err != nil {
				return err
			}
			if snap.Now.IsZero() {
				snap.Now = time.Now().UTC()
			}
			if err := snap.Validate(); err != nil {
				return err
			}

			g, err := graph.Build(snap.Project.ID, snap.Tasks)
			if err != nil {
				var ge *apperrors.GraphError
				if apperrors.As(err, &ge) {
					fmt.Fprintf(cmd.OutOrStdout(), "cycle: %v\n", ge.Cycle)
				}
				return err
			}

			edges := 0
			for _, deps := range g.Deps {
				edges += len(deps)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d tasks, %d dependencies, %d resources\n", len(snap.Tasks), edges, len(snap.Resources))
			for _, e := range g.Dangling {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s depends on unknown task %s\n", e.From, e.To)
			}
			return nil
		},
	}
}

func refreshCmd() *cobra.Command {
	var projectIDs []string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-analyze projects in the database and store critical flags and bottleneck days",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			db, err := analytics.InitDatabase(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			repo := analytics.NewRepository(db)
			return refreshProjects(cmd.Context(), repo, schedule.NewEngine(cfg.EnginePolicy(), &log.Logger), projectIDs)
		},
	}

	cmd.Flags().StringSliceVar(&projectIDs, "project", nil, "Project ids (default: every active project)")
	return cmd
}

func refreshProjects(ctx context.Context, repo *analytics.Repository, engine *schedule.Engine, ids []string) error {
	var projects []uuid.UUID
	if len(ids) == 0 {
		var err error
		if projects, err = repo.ActiveProjects(ctx); err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
	}
	for _, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("invalid project id %q", id)
		}
		projects = append(projects, u)
	}

	now := time.Now().UTC()
	snaps := make([]schedule.Snapshot, 0, len(projects))
	for _, id := range projects {
		data, err := repo.LoadProject(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("project_id", id.String()).Msg("Failed to load project")
			continue
		}
		snaps = append(snaps, data.Snapshot(now))
	}

	failed := len(projects) - len(snaps)
	for _, r := range engine.AnalyzeProjects(ctx, snaps) {
		if r.Err != nil {
			failed++
			continue
		}
		if err := repo.SaveAnalysis(ctx, uuid.MustParse(r.ProjectID), r.Report); err != nil {
			log.Error().Err(err).Str("project_id", r.ProjectID).Msg("Failed to save analysis")
			failed++
			continue
		}
		log.Info().
			Str("project_id", r.ProjectID).
			Int("critical_tasks", len(r.Report.CriticalPath.CriticalTaskIDs)).
			Int("bottleneck_days", len(r.Report.Workload.BottleneckDays)).
			Msg("Project refreshed")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d projects failed", failed, len(projects))
	}
	return nil
}

func tokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development access token for the analysis API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to sign tokens in production")
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid user id %q", userID)
			}
			if ttl <= 0 {
				ttl = cfg.Auth.JWTExpiry()
			}
			token, expires, err := middleware.GenerateAccessToken(id, email, cfg.Auth.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			log.Info().Time("expires_at", expires).Msg("Token signed")
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id (uuid)")
	cmd.Flags().StringVar(&email, "email", "dev@localhost", "Email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: JWT_EXPIRY_MINUTES)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// applyFlags overrides the snapshot's reference time, view and range
func applyFlags(snap *schedule.Snapshot) error {
	if flagNow != "" {
		now, err := parseTime(flagNow)
		if err != nil {
			return fmt.Errorf("invalid --now: %w", err)
		}
		snap.Now = now
	}
	if snap.Now.IsZero() {
		snap.Now = time.Now().UTC()
	}
	if flagView != "" {
		snap.View = workload.View(flagView)
	}
	if flagFrom != "" {
		d, err := time.Parse(time.DateOnly, flagFrom)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		snap.From = &d
	}
	if flagTo != "" {
		d, err := time.Parse(time.DateOnly, flagTo)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
		snap.To = &d
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// enginePolicy reads the engine section of the service configuration
func enginePolicy() (schedule.Policy, error) {
	cfg, err := config.Load()
	if err != nil {
		return schedule.Policy{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg.EnginePolicy(), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
