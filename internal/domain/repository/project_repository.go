package repository

import (
	"context"

	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/project"
)

// ProjectRepository manages project entities
type ProjectRepository interface {
	// Find retrieves a project by its ID
	Find(ctx context.Context, id model.ProjectID) (*project.Project, error)

	// FindByKey retrieves a project by its key
	FindByKey(ctx context.Context, key string) (*project.Project, error)

	// Save persists a project entity (insert or update)
	Save(ctx context.Context, p *project.Project) error

	// List retrieves all projects ordered by key
	List(ctx context.Context) ([]*project.Project, error)

	// IncrementTaskCounter atomically increments the project's task counter
	// and returns the new value. Must be called inside the transaction that
	// creates the task consuming the number.
	IncrementTaskCounter(ctx context.Context, id model.ProjectID) (int, error)
}
