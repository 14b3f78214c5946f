package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anchorworks/sprintflow/internal/domain/apperr"
	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/task"
	"github.com/anchorworks/sprintflow/internal/domain/repository"
	"github.com/anchorworks/sprintflow/internal/infrastructure/transaction"
)

// dbExecutor is an interface for executing database queries
// Both *sql.DB and *sql.Tx implement this interface
type dbExecutor interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const taskColumns = `id, key, number, project_id, title, description, status, priority,
	       position, team, sprint_id, split_from_id, assignee, created_by,
	       created_at, updated_at`

// TaskRepositoryImpl implements repository.TaskRepository with SQLite
type TaskRepositoryImpl struct {
	db *sql.DB
}

// NewTaskRepository creates a new SQLite-based task repository
func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

// getDB returns the appropriate database executor from context
func (r *TaskRepositoryImpl) getDB(ctx context.Context) dbExecutor {
	if tx, ok := transaction.GetTxFromContext(ctx); ok {
		return tx
	}
	return r.db
}

// Find retrieves a task by its ID
func (r *TaskRepositoryImpl) Find(ctx context.Context, id model.TaskID) (*task.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = ?", taskColumns)
	db := r.getDB(ctx)
	t, err := scanTask(db.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("task %s", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("find task failed: %w", err)
	}
	return t, nil
}

// FindByKey retrieves a task by its human-readable key
func (r *TaskRepositoryImpl) FindByKey(ctx context.Context, key string) (*task.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE key = ?", taskColumns)
	db := r.getDB(ctx)
	t, err := scanTask(db.QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("task %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("find task by key failed: %w", err)
	}
	return t, nil
}

// Save persists a task entity
func (r *TaskRepositoryImpl) Save(ctx context.Context, t *task.Task) error {
	var description interface{}
	if t.Description() != nil {
		description = *t.Description()
	}
	var sprintID interface{}
	if t.SprintID() != nil {
		sprintID = t.SprintID().String()
	}
	var splitFromID interface{}
	if t.SplitFromID() != nil {
		splitFromID = t.SplitFromID().String()
	}
	var assignee interface{}
	if t.Assignee() != nil {
		assignee = *t.Assignee()
	}

	query := `
		INSERT INTO tasks (id, key, number, project_id, title, description, status, priority,
		                   position, team, sprint_id, split_from_id, assignee, created_by,
		                   created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			priority = excluded.priority,
			position = excluded.position,
			team = excluded.team,
			sprint_id = excluded.sprint_id,
			assignee = excluded.assignee,
			updated_at = excluded.updated_at
	`

	db := r.getDB(ctx)
	_, err := db.ExecContext(ctx, query,
		t.ID().String(), t.Key(), t.Number(), t.ProjectID().String(),
		t.Title(), description, string(t.Status()), string(t.Priority()),
		t.Position(), t.Team(), sprintID, splitFromID, assignee, t.CreatedBy(),
		t.CreatedAt().Value(), t.UpdatedAt().Value(),
	)
	if err != nil {
		return fmt.Errorf("save task failed: %w", err)
	}

	return nil
}

// List retrieves tasks by filter
func (r *TaskRepositoryImpl) List(ctx context.Context, filter repository.TaskFilter) ([]*task.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE 1=1", taskColumns)
	var args []interface{}

	if filter.ProjectID != nil {
		query += " AND project_id = ?"
		args = append(args, filter.ProjectID.String())
	}
	if filter.InSprint {
		if filter.SprintID != nil {
			query += " AND sprint_id = ?"
			args = append(args, filter.SprintID.String())
		} else {
			query += " AND sprint_id IS NULL"
		}
	}
	if len(filter.Statuses) > 0 {
		query += " AND status IN ("
		for i, s := range filter.Statuses {
			if i > 0 {
				query += ", "
			}
			query += "?"
			args = append(args, string(s))
		}
		query += ")"
	}

	query += " ORDER BY position ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	db := r.getDB(ctx)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks failed: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListByContainer retrieves the tasks of one container ordered by position
func (r *TaskRepositoryImpl) ListByContainer(ctx context.Context, c repository.Container) ([]*task.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE project_id = ? AND %s ORDER BY position ASC",
		taskColumns, containerPredicate(c))
	args := containerArgs(c)

	db := r.getDB(ctx)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list container tasks failed: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// MaxPosition returns the highest position in a container, or -1 if empty
func (r *TaskRepositoryImpl) MaxPosition(ctx context.Context, c repository.Container) (int, error) {
	query := fmt.Sprintf("SELECT COALESCE(MAX(position), -1) FROM tasks WHERE project_id = ? AND %s",
		containerPredicate(c))

	var max int
	db := r.getDB(ctx)
	if err := db.QueryRowContext(ctx, query, containerArgs(c)...).Scan(&max); err != nil {
		return 0, fmt.Errorf("max position failed: %w", err)
	}
	return max, nil
}

// ShiftPositions adds delta to positions in [lo, hi] within a container.
// A negative hi means no upper bound.
func (r *TaskRepositoryImpl) ShiftPositions(ctx context.Context, c repository.Container, lo, hi, delta int) error {
	query := fmt.Sprintf("UPDATE tasks SET position = position + ? WHERE project_id = ? AND %s AND position >= ?",
		containerPredicate(c))
	args := append([]interface{}{delta}, containerArgs(c)...)
	args = append(args, lo)
	if hi >= 0 {
		query += " AND position <= ?"
		args = append(args, hi)
	}

	db := r.getDB(ctx)
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("shift positions failed: %w", err)
	}
	return nil
}

// FindChildren retrieves the tasks split from the given task
func (r *TaskRepositoryImpl) FindChildren(ctx context.Context, parentID model.TaskID) ([]*task.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE split_from_id = ? ORDER BY created_at ASC, number ASC", taskColumns)

	db := r.getDB(ctx)
	rows, err := db.QueryContext(ctx, query, parentID.String())
	if err != nil {
		return nil, fmt.Errorf("find children failed: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// containerPredicate returns the sprint part of a container WHERE clause
func containerPredicate(c repository.Container) string {
	if c.SprintID != nil {
		return "sprint_id = ?"
	}
	return "sprint_id IS NULL"
}

// containerArgs returns the arguments matching containerPredicate
func containerArgs(c repository.Container) []interface{} {
	args := []interface{}{c.ProjectID.String()}
	if c.SprintID != nil {
		args = append(args, c.SprintID.String())
	}
	return args
}

// rowScanner abstracts sql.Row and sql.Rows for scanning
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanTask scans a single task row
func scanTask(row rowScanner) (*task.Task, error) {
	var (
		id, key, projectID, title, status, priority, team, createdBy string
		number, position                                             int
		description, sprintID, splitFromID, assignee                 sql.NullString
		createdAt, updatedAt                                         time.Time
	)

	err := row.Scan(
		&id, &key, &number, &projectID, &title, &description, &status, &priority,
		&position, &team, &sprintID, &splitFromID, &assignee, &createdBy,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	taskID, err := model.NewTaskIDFromString(id)
	if err != nil {
		return nil, err
	}
	pID, err := model.NewProjectIDFromString(projectID)
	if err != nil {
		return nil, err
	}

	var descPtr *string
	if description.Valid {
		descPtr = &description.String
	}
	var sprintPtr *model.SprintID
	if sprintID.Valid {
		sID, err := model.NewSprintIDFromString(sprintID.String)
		if err != nil {
			return nil, err
		}
		sprintPtr = &sID
	}
	var splitPtr *model.TaskID
	if splitFromID.Valid {
		sfID, err := model.NewTaskIDFromString(splitFromID.String)
		if err != nil {
			return nil, err
		}
		splitPtr = &sfID
	}
	var assigneePtr *string
	if assignee.Valid {
		assigneePtr = &assignee.String
	}

	return task.ReconstructTask(
		taskID, key, number, pID, title, descPtr,
		model.Status(status), model.Priority(priority), position, team,
		sprintPtr, splitPtr, assigneePtr, createdBy,
		createdAt, updatedAt,
	), nil
}

// collectTasks scans all rows into tasks
func collectTasks(rows *sql.Rows) ([]*task.Task, error) {
	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task failed: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks failed: %w", err)
	}
	return tasks, nil
}
