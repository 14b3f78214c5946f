package repository

import (
	"context"

	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/activity"
)

// ActivityRepository manages the append-only audit log. There is no update
// or delete on purpose.
type ActivityRepository interface {
	// Append persists an activity record
	Append(ctx context.Context, a *activity.Activity) error

	// ListByTask retrieves a task's activities ordered by creation time
	ListByTask(ctx context.Context, taskID model.TaskID) ([]*activity.Activity, error)
}
