package repository

import (
	"context"

	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/task"
)

// Container identifies the ordered list a task lives in: a sprint, or the
// project backlog when SprintID is nil. Position values within one
// container are dense and zero-based.
type Container struct {
	ProjectID model.ProjectID
	SprintID  *model.SprintID
}

// NewSprintContainer builds a container for a sprint
func NewSprintContainer(projectID model.ProjectID, sprintID model.SprintID) Container {
	return Container{ProjectID: projectID, SprintID: &sprintID}
}

// NewBacklogContainer builds a container for the project backlog
func NewBacklogContainer(projectID model.ProjectID) Container {
	return Container{ProjectID: projectID}
}

// Equals checks if two containers refer to the same list
func (c Container) Equals(other Container) bool {
	if !c.ProjectID.Equals(other.ProjectID) {
		return false
	}
	if (c.SprintID == nil) != (other.SprintID == nil) {
		return false
	}
	return c.SprintID == nil || c.SprintID.Equals(*other.SprintID)
}

// TaskFilter defines criteria for listing tasks
type TaskFilter struct {
	ProjectID *model.ProjectID
	SprintID  *model.SprintID // only meaningful with InSprint
	InSprint  bool            // true: filter by SprintID (nil = backlog)
	Statuses  []model.Status
	Limit     int
	Offset    int
}

// TaskRepository manages task entities
type TaskRepository interface {
	// Find retrieves a task by its ID
	Find(ctx context.Context, id model.TaskID) (*task.Task, error)

	// FindByKey retrieves a task by its human-readable key
	FindByKey(ctx context.Context, key string) (*task.Task, error)

	// Save persists a task entity (insert or update)
	Save(ctx context.Context, t *task.Task) error

	// List retrieves tasks by filter, ordered by position
	List(ctx context.Context, filter TaskFilter) ([]*task.Task, error)

	// ListByContainer retrieves the tasks of one container ordered by
	// position ascending
	ListByContainer(ctx context.Context, c Container) ([]*task.Task, error)

	// MaxPosition returns the highest position in a container, or -1 when
	// the container is empty
	MaxPosition(ctx context.Context, c Container) (int, error)

	// ShiftPositions adds delta to the position of every task in the
	// container with lo <= position <= hi. A negative hi means unbounded.
	ShiftPositions(ctx context.Context, c Container, lo, hi, delta int) error

	// FindChildren retrieves the tasks split from the given task, ordered
	// by creation time
	FindChildren(ctx context.Context, parentID model.TaskID) ([]*task.Task, error)
}
