package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anchorworks/sprintflow/internal/domain/apperr"
	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/sprint"
	"github.com/anchorworks/sprintflow/internal/domain/repository"
	"github.com/anchorworks/sprintflow/internal/infrastructure/transaction"
)

const sprintColumns = `id, project_id, name, status, position, start_date, end_date, created_at, updated_at`

// SprintRepositoryImpl implements repository.SprintRepository with SQLite
type SprintRepositoryImpl struct {
	db *sql.DB
}

// NewSprintRepository creates a new SQLite-based sprint repository
func NewSprintRepository(db *sql.DB) repository.SprintRepository {
	return &SprintRepositoryImpl{db: db}
}

// getDB returns the appropriate database executor from context
func (r *SprintRepositoryImpl) getDB(ctx context.Context) dbExecutor {
	if tx, ok := transaction.GetTxFromContext(ctx); ok {
		return tx
	}
	return r.db
}

// Find retrieves a sprint by its ID
func (r *SprintRepositoryImpl) Find(ctx context.Context, id model.SprintID) (*sprint.Sprint, error) {
	query := fmt.Sprintf("SELECT %s FROM sprints WHERE id = ?", sprintColumns)
	db := r.getDB(ctx)
	s, err := scanSprint(db.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("sprint %s", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("find sprint failed: %w", err)
	}
	return s, nil
}

// Save persists a sprint entity
func (r *SprintRepositoryImpl) Save(ctx context.Context, s *sprint.Sprint) error {
	var startDate, endDate interface{}
	if s.StartDate() != nil {
		startDate = *s.StartDate()
	}
	if s.EndDate() != nil {
		endDate = *s.EndDate()
	}

	query := `
		INSERT INTO sprints (id, project_id, name, status, position, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			position = excluded.position,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at
	`

	db := r.getDB(ctx)
	_, err := db.ExecContext(ctx, query,
		s.ID().String(), s.ProjectID().String(), s.Name(), string(s.Status()),
		s.Position(), startDate, endDate, s.CreatedAt().Value(), s.UpdatedAt().Value(),
	)
	if err != nil {
		return fmt.Errorf("save sprint failed: %w", err)
	}

	return nil
}

// ListByProject retrieves a project's sprints ordered by position
func (r *SprintRepositoryImpl) ListByProject(ctx context.Context, projectID model.ProjectID) ([]*sprint.Sprint, error) {
	query := fmt.Sprintf("SELECT %s FROM sprints WHERE project_id = ? ORDER BY position ASC", sprintColumns)

	db := r.getDB(ctx)
	rows, err := db.QueryContext(ctx, query, projectID.String())
	if err != nil {
		return nil, fmt.Errorf("list sprints failed: %w", err)
	}
	defer rows.Close()

	var sprints []*sprint.Sprint
	for rows.Next() {
		s, err := scanSprint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sprint failed: %w", err)
		}
		sprints = append(sprints, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sprints failed: %w", err)
	}
	return sprints, nil
}

// FindActive retrieves the project's ACTIVE sprint
func (r *SprintRepositoryImpl) FindActive(ctx context.Context, projectID model.ProjectID) (*sprint.Sprint, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM sprints WHERE project_id = ? AND status = ? ORDER BY position ASC LIMIT 1",
		sprintColumns)

	db := r.getDB(ctx)
	s, err := scanSprint(db.QueryRowContext(ctx, query, projectID.String(), string(model.SprintActive)))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("active sprint in project %s", projectID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("find active sprint failed: %w", err)
	}
	return s, nil
}

// FindNextPlanned retrieves the lowest-position PLANNED sprint of a project
func (r *SprintRepositoryImpl) FindNextPlanned(ctx context.Context, projectID model.ProjectID) (*sprint.Sprint, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM sprints WHERE project_id = ? AND status = ? ORDER BY position ASC LIMIT 1",
		sprintColumns)

	db := r.getDB(ctx)
	s, err := scanSprint(db.QueryRowContext(ctx, query, projectID.String(), string(model.SprintPlanned)))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("planned sprint in project %s", projectID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("find planned sprint failed: %w", err)
	}
	return s, nil
}

// MaxPosition returns the highest sprint position in a project, or -1
func (r *SprintRepositoryImpl) MaxPosition(ctx context.Context, projectID model.ProjectID) (int, error) {
	var max int
	db := r.getDB(ctx)
	err := db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), -1) FROM sprints WHERE project_id = ?",
		projectID.String()).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max sprint position failed: %w", err)
	}
	return max, nil
}

// scanSprint scans a single sprint row
func scanSprint(row rowScanner) (*sprint.Sprint, error) {
	var (
		id, projectID, name, status string
		position                    int
		startDate, endDate          sql.NullTime
		createdAt, updatedAt        time.Time
	)

	err := row.Scan(&id, &projectID, &name, &status, &position, &startDate, &endDate, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	sprintID, err := model.NewSprintIDFromString(id)
	if err != nil {
		return nil, err
	}
	pID, err := model.NewProjectIDFromString(projectID)
	if err != nil {
		return nil, err
	}

	var startPtr, endPtr *time.Time
	if startDate.Valid {
		startPtr = &startDate.Time
	}
	if endDate.Valid {
		endPtr = &endDate.Time
	}

	return sprint.ReconstructSprint(
		sprintID, pID, name, model.SprintStatus(status), position,
		startPtr, endPtr, createdAt, updatedAt,
	), nil
}
