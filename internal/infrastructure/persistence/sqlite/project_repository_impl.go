package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anchorworks/sprintflow/internal/domain/apperr"
	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/project"
	"github.com/anchorworks/sprintflow/internal/domain/repository"
	"github.com/anchorworks/sprintflow/internal/infrastructure/transaction"
)

const projectColumns = `id, key, name, task_counter, created_at, updated_at`

// ProjectRepositoryImpl implements repository.ProjectRepository with SQLite
type ProjectRepositoryImpl struct {
	db *sql.DB
}

// NewProjectRepository creates a new SQLite-based project repository
func NewProjectRepository(db *sql.DB) repository.ProjectRepository {
	return &ProjectRepositoryImpl{db: db}
}

// getDB returns the appropriate database executor from context
func (r *ProjectRepositoryImpl) getDB(ctx context.Context) dbExecutor {
	if tx, ok := transaction.GetTxFromContext(ctx); ok {
		return tx
	}
	return r.db
}

// Find retrieves a project by its ID
func (r *ProjectRepositoryImpl) Find(ctx context.Context, id model.ProjectID) (*project.Project, error) {
	query := fmt.Sprintf("SELECT %s FROM projects WHERE id = ?", projectColumns)
	db := r.getDB(ctx)
	p, err := scanProject(db.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("project %s", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("find project failed: %w", err)
	}
	return p, nil
}

// FindByKey retrieves a project by its key
func (r *ProjectRepositoryImpl) FindByKey(ctx context.Context, key string) (*project.Project, error) {
	query := fmt.Sprintf("SELECT %s FROM projects WHERE key = ?", projectColumns)
	db := r.getDB(ctx)
	p, err := scanProject(db.QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("project %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("find project by key failed: %w", err)
	}
	return p, nil
}

// Save persists a project entity
func (r *ProjectRepositoryImpl) Save(ctx context.Context, p *project.Project) error {
	query := `
		INSERT INTO projects (id, key, name, task_counter, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at
	`

	db := r.getDB(ctx)
	_, err := db.ExecContext(ctx, query,
		p.ID().String(), p.Key(), p.Name(), p.TaskCounter(),
		p.CreatedAt().Value(), p.UpdatedAt().Value(),
	)
	if err != nil {
		return fmt.Errorf("save project failed: %w", err)
	}

	return nil
}

// List retrieves all projects ordered by key
func (r *ProjectRepositoryImpl) List(ctx context.Context) ([]*project.Project, error) {
	query := fmt.Sprintf("SELECT %s FROM projects ORDER BY key ASC", projectColumns)

	db := r.getDB(ctx)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects failed: %w", err)
	}
	defer rows.Close()

	var projects []*project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project failed: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects failed: %w", err)
	}
	return projects, nil
}

// IncrementTaskCounter atomically increments and returns the task counter.
// The UPDATE and SELECT run against the same executor, so inside a
// transaction the increment-and-read pair is isolated from other writers.
func (r *ProjectRepositoryImpl) IncrementTaskCounter(ctx context.Context, id model.ProjectID) (int, error) {
	db := r.getDB(ctx)

	result, err := db.ExecContext(ctx,
		"UPDATE projects SET task_counter = task_counter + 1, updated_at = ? WHERE id = ?",
		time.Now(), id.String())
	if err != nil {
		return 0, fmt.Errorf("increment task counter failed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected failed: %w", err)
	}
	if rows == 0 {
		return 0, apperr.NotFound("project %s", id.String())
	}

	var counter int
	err = db.QueryRowContext(ctx, "SELECT task_counter FROM projects WHERE id = ?", id.String()).Scan(&counter)
	if err != nil {
		return 0, fmt.Errorf("read task counter failed: %w", err)
	}
	return counter, nil
}

// scanProject scans a single project row
func scanProject(row rowScanner) (*project.Project, error) {
	var (
		id, key, name        string
		taskCounter          int
		createdAt, updatedAt time.Time
	)

	err := row.Scan(&id, &key, &name, &taskCounter, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	projectID, err := model.NewProjectIDFromString(id)
	if err != nil {
		return nil, err
	}

	return project.ReconstructProject(projectID, key, name, taskCounter, createdAt, updatedAt), nil
}
