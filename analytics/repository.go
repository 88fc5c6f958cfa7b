package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/csaptu/flow/analytics/common/errors"
	"github.com/csaptu/flow/analytics/common/models"
	"github.com/csaptu/flow/analytics/schedule"
)

// ProjectData is everything the engine needs about one project, minus the
// per-request reference time and view.
type ProjectData struct {
	Project   models.Project
	Tasks     []models.Task
	Resources []models.Resource
}

// Snapshot turns the loaded data into an engine input at the given instant
func (d *ProjectData) Snapshot(now time.Time) schedule.Snapshot {
	return schedule.Snapshot{
		Project:   d.Project,
		Tasks:     d.Tasks,
		Resources: d.Resources,
		Now:       now,
	}
}

// Repository reads project schedules from the projects database and writes
// analysis results back onto it.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// IsMember reports whether the user is an active member of the project
func (r *Repository) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2 AND left_at IS NULL)",
		projectID, userID,
	).Scan(&exists)
	return exists, err
}

// ActiveProjects lists the ids of projects that are not archived or deleted
func (r *Repository) ActiveProjects(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		"SELECT id FROM projects WHERE deleted_at IS NULL AND status IN ('planning', 'active', 'on_hold') ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

// LoadProject reads the project's leaf WBS nodes, their dependencies and
// assignments, and the member resource profiles.
func (r *Repository) LoadProject(ctx context.Context, projectID uuid.UUID) (*ProjectData, error) {
	data := &ProjectData{}

	var name string
	var start, target *time.Time
	err := r.db.QueryRow(ctx,
		"SELECT name, start_date, target_date FROM projects WHERE id = $1 AND deleted_at IS NULL",
		projectID,
	).Scan(&name, &start, &target)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	data.Project = models.Project{ID: projectID.String(), Name: name, StartDate: start, EndDate: target}

	if data.Tasks, err = r.loadTasks(ctx, projectID); err != nil {
		return nil, err
	}
	if data.Resources, err = r.loadResources(ctx, projectID); err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Repository) loadTasks(ctx context.Context, projectID uuid.UUID) ([]models.Task, error) {
	// Only leaf nodes are scheduled; summary nodes roll up their children.
	rows, err := r.db.Query(ctx, `
		SELECT n.id, n.title, n.status, n.priority, n.estimated_hours,
		       n.planned_start, n.planned_end, COALESCE(n.completed_at, n.actual_end), n.assignee_id
		FROM wbs_nodes n
		WHERE n.project_id = $1 AND n.deleted_at IS NULL
		  AND n.status NOT IN ('cancelled', 'archived')
		  AND NOT EXISTS (SELECT 1 FROM wbs_nodes c WHERE c.parent_id = n.id AND c.deleted_at IS NULL)
		ORDER BY n.path`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load wbs nodes: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			id         uuid.UUID
			t          models.Task
			status     string
			priority   int
			assigneeID *uuid.UUID
		)
		if err := rows.Scan(&id, &t.Title, &status, &priority, &t.EstimatedHours,
			&t.StartDate, &t.EndDate, &t.CompletedAt, &assigneeID); err != nil {
			return nil, fmt.Errorf("failed to scan wbs node: %w", err)
		}
		t.ID = id.String()
		t.ProjectID = projectID.String()
		t.Status = models.TaskStatus(status)
		t.Priority = priorityFromLevel(priority)
		if assigneeID != nil {
			t.AssigneeIDs = []string{assigneeID.String()}
		}
		index[id] = len(tasks)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	depRows, err := r.db.Query(ctx,
		"SELECT predecessor_id, successor_id FROM wbs_dependencies WHERE project_id = $1 ORDER BY created_at",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}
	defer depRows.Close()
	for depRows.Next() {
		var pred, succ uuid.UUID
		if err := depRows.Scan(&pred, &succ); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		// edges into summary nodes are dropped with them
		if i, ok := index[succ]; ok {
			tasks[i].Dependencies = append(tasks[i].Dependencies, pred.String())
		}
	}
	if err := depRows.Err(); err != nil {
		return nil, err
	}

	asgRows, err := r.db.Query(ctx, `
		SELECT a.node_id, a.user_id
		FROM wbs_node_assignees a
		JOIN wbs_nodes n ON n.id = a.node_id
		WHERE n.project_id = $1 AND n.deleted_at IS NULL
		ORDER BY a.node_id, a.user_id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	defer asgRows.Close()
	for asgRows.Next() {
		var nodeID, userID uuid.UUID
		if err := asgRows.Scan(&nodeID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		i, ok := index[nodeID]
		if !ok || tasks[i].AssignedTo(userID.String()) {
			continue
		}
		tasks[i].AssigneeIDs = append(tasks[i].AssigneeIDs, userID.String())
	}
	return tasks, asgRows.Err()
}

func (r *Repository) loadResources(ctx context.Context, projectID uuid.UUID) ([]models.Resource, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.user_id, COALESCE(p.display_name, ''), COALESCE(p.max_hours_per_day, 0), COALESCE(p.working_days, '{}')
		FROM project_members m
		LEFT JOIN resource_profiles p ON p.project_id = m.project_id AND p.user_id = m.user_id
		WHERE m.project_id = $1 AND m.left_at IS NULL
		ORDER BY m.user_id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load resources: %w", err)
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		var (
			userID uuid.UUID
			res    models.Resource
			days   []int16
		)
		if err := rows.Scan(&userID, &res.Name, &res.MaxHoursPerDay, &days); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		res.ID = userID.String()
		for _, d := range days {
			res.WorkingDays = append(res.WorkingDays, time.Weekday(d))
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

// SaveAnalysis flags the zero-slack nodes as critical and replaces the
// project's stored bottleneck days, in one transaction.
func (r *Repository) SaveAnalysis(ctx context.Context, projectID uuid.UUID, report *schedule.Report) error {
	critical := make([]string, 0, len(report.CriticalPath.CriticalTaskIDs))
	for _, id := range report.CriticalPath.CriticalTaskIDs {
		if _, err := uuid.Parse(id); err == nil {
			critical = append(critical, id)
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE wbs_nodes SET is_critical = (id = ANY($2::uuid[]))
		 WHERE project_id = $1 AND deleted_at IS NULL AND is_critical <> (id = ANY($2::uuid[]))`,
		projectID, critical,
	); err != nil {
		return fmt.Errorf("failed to update critical flags: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM project_bottleneck_days WHERE project_id = $1", projectID); err != nil {
		return fmt.Errorf("failed to clear bottleneck days: %w", err)
	}

	var rows [][]any
	for _, d := range report.Workload.Days {
		if !d.IsBottleneck {
			continue
		}
		rows = append(rows, []any{
			projectID, d.Date, string(d.Trigger), d.AverageWorkload, d.TaskCount, report.GeneratedAt,
		})
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"project_bottleneck_days"},
			[]string{"project_id", "day", "trigger", "average_workload", "task_count", "analyzed_at"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("failed to store bottleneck days: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// priorityFromLevel maps the WBS integer priority (0 none .. 4 urgent)
// onto the engine's names. Out-of-range levels pass through so the engine
// can warn about them.
func priorityFromLevel(level int) models.Priority {
	switch level {
	case 0, 1:
		return models.PriorityLow
	case 2:
		return models.PriorityMedium
	case 3:
		return models.PriorityHigh
	case 4:
		return models.PriorityUrgent
	}
	return models.Priority(fmt.Sprintf("level_%d", level))
}
