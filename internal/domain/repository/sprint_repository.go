package repository

import (
	"context"

	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/sprint"
)

// SprintRepository manages sprint entities
type SprintRepository interface {
	// Find retrieves a sprint by its ID
	Find(ctx context.Context, id model.SprintID) (*sprint.Sprint, error)

	// Save persists a sprint entity (insert or update)
	Save(ctx context.Context, s *sprint.Sprint) error

	// ListByProject retrieves a project's sprints ordered by position
	ListByProject(ctx context.Context, projectID model.ProjectID) ([]*sprint.Sprint, error)

	// FindActive retrieves the project's ACTIVE sprint, if any
	FindActive(ctx context.Context, projectID model.ProjectID) (*sprint.Sprint, error)

	// FindNextPlanned retrieves the lowest-position PLANNED sprint of the
	// project, used as the default destination for bulk move/split
	FindNextPlanned(ctx context.Context, projectID model.ProjectID) (*sprint.Sprint, error)

	// MaxPosition returns the highest sprint position in the project, or
	// -1 when the project has no sprints
	MaxPosition(ctx context.Context, projectID model.ProjectID) (int, error)
}
