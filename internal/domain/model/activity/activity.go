package activity

import (
	"errors"
	"time"

	"github.com/anchorworks/sprintflow/internal/domain/model"
)

// Activity is an append-only audit record for a task mutation. Records are
// written in the same transaction as the mutation they describe and are
// never updated or deleted.
type Activity struct {
	id        string
	taskID    model.TaskID
	actor     string
	kind      model.ActivityType
	metadata  map[string]interface{}
	createdAt model.Timestamp
}

// NewActivity creates an audit record for a task mutation
func NewActivity(taskID model.TaskID, actor string, kind model.ActivityType, metadata map[string]interface{}) (*Activity, error) {
	if !kind.IsValid() {
		return nil, errors.New("invalid activity type")
	}
	if actor == "" {
		return nil, errors.New("activity actor cannot be empty")
	}
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	return &Activity{
		id:        model.NewULID(),
		taskID:    taskID,
		actor:     actor,
		kind:      kind,
		metadata:  metadata,
		createdAt: model.NewTimestamp(),
	}, nil
}

// ReconstructActivity reconstructs an activity from stored data
func ReconstructActivity(id string, taskID model.TaskID, actor string, kind model.ActivityType, metadata map[string]interface{}, createdAt time.Time) *Activity {
	return &Activity{
		id:        id,
		taskID:    taskID,
		actor:     actor,
		kind:      kind,
		metadata:  metadata,
		createdAt: model.NewTimestampFromTime(createdAt),
	}
}

// ID returns the activity ID
func (a *Activity) ID() string {
	return a.id
}

// TaskID returns the task the activity belongs to
func (a *Activity) TaskID() model.TaskID {
	return a.taskID
}

// Actor returns the acting user's name
func (a *Activity) Actor() string {
	return a.actor
}

// Type returns the activity type
func (a *Activity) Type() model.ActivityType {
	return a.kind
}

// Metadata returns the structured payload
func (a *Activity) Metadata() map[string]interface{} {
	return a.metadata
}

// CreatedAt returns the creation timestamp
func (a *Activity) CreatedAt() model.Timestamp {
	return a.createdAt
}
