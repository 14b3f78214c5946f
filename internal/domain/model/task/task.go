package task

import (
	"errors"
	"time"

	"github.com/anchorworks/sprintflow/internal/domain/model"
)

// Task is a unit of work within a project. A task lives in exactly one
// container: a sprint (sprintID set) or the project backlog (sprintID nil).
// Position values within a container form a dense zero-based sequence.
//
// A task created by splitting another carries splitFromID; the relation is
// acyclic by construction because a split always creates a fresh task and
// parent pointers are never re-targeted afterwards.
type Task struct {
	id          model.TaskID
	key         string
	number      int
	projectID   model.ProjectID
	title       string
	description *string
	status      model.Status
	priority    model.Priority
	position    int
	team        string
	sprintID    *model.SprintID
	splitFromID *model.TaskID
	assignee    *string
	createdBy   string
	createdAt   model.Timestamp
	updatedAt   model.Timestamp
}

// NewTaskParams carries the fields required to create a task
type NewTaskParams struct {
	Key         string
	Number      int
	ProjectID   model.ProjectID
	Title       string
	Description *string
	Priority    model.Priority
	Position    int
	Team        string
	SprintID    *model.SprintID
	SplitFromID *model.TaskID
	Assignee    *string
	CreatedBy   string
}

// NewTask creates a new task in TODO state
func NewTask(p NewTaskParams) (*Task, error) {
	if p.Title == "" {
		return nil, errors.New("title cannot be empty")
	}
	if p.Key == "" {
		return nil, errors.New("task key cannot be empty")
	}
	if !p.Priority.IsValid() {
		return nil, errors.New("invalid priority")
	}
	if p.Position < 0 {
		return nil, errors.New("position cannot be negative")
	}

	now := model.NewTimestamp()
	return &Task{
		id:          model.NewTaskID(),
		key:         p.Key,
		number:      p.Number,
		projectID:   p.ProjectID,
		title:       p.Title,
		description: p.Description,
		status:      model.StatusTodo,
		priority:    p.Priority,
		position:    p.Position,
		team:        p.Team,
		sprintID:    p.SprintID,
		splitFromID: p.SplitFromID,
		assignee:    p.Assignee,
		createdBy:   p.CreatedBy,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructTask reconstructs a task from stored data
func ReconstructTask(
	id model.TaskID,
	key string,
	number int,
	projectID model.ProjectID,
	title string,
	description *string,
	status model.Status,
	priority model.Priority,
	position int,
	team string,
	sprintID *model.SprintID,
	splitFromID *model.TaskID,
	assignee *string,
	createdBy string,
	createdAt time.Time,
	updatedAt time.Time,
) *Task {
	return &Task{
		id:          id,
		key:         key,
		number:      number,
		projectID:   projectID,
		title:       title,
		description: description,
		status:      status,
		priority:    priority,
		position:    position,
		team:        team,
		sprintID:    sprintID,
		splitFromID: splitFromID,
		assignee:    assignee,
		createdBy:   createdBy,
		createdAt:   model.NewTimestampFromTime(createdAt),
		updatedAt:   model.NewTimestampFromTime(updatedAt),
	}
}

// ID returns the task ID
func (t *Task) ID() model.TaskID {
	return t.id
}

// Key returns the human-readable task key ("KEY-001")
func (t *Task) Key() string {
	return t.key
}

// Number returns the per-project task number
func (t *Task) Number() int {
	return t.number
}

// ProjectID returns the owning project ID
func (t *Task) ProjectID() model.ProjectID {
	return t.projectID
}

// Title returns the task title
func (t *Task) Title() string {
	return t.title
}

// Description returns the optional description
func (t *Task) Description() *string {
	return t.description
}

// Status returns the current status
func (t *Task) Status() model.Status {
	return t.status
}

// Priority returns the task priority
func (t *Task) Priority() model.Priority {
	return t.priority
}

// Position returns the task's position within its container
func (t *Task) Position() int {
	return t.position
}

// Team returns the free-form team label
func (t *Task) Team() string {
	return t.team
}

// SprintID returns the containing sprint ID (nil = backlog)
func (t *Task) SprintID() *model.SprintID {
	return t.sprintID
}

// SplitFromID returns the parent task ID in a split chain (nil = chain root
// or standalone task)
func (t *Task) SplitFromID() *model.TaskID {
	return t.splitFromID
}

// Assignee returns the optional assignee name
func (t *Task) Assignee() *string {
	return t.assignee
}

// CreatedBy returns the creating actor's name
func (t *Task) CreatedBy() string {
	return t.createdBy
}

// CreatedAt returns the creation timestamp
func (t *Task) CreatedAt() model.Timestamp {
	return t.createdAt
}

// UpdatedAt returns the last update timestamp
func (t *Task) UpdatedAt() model.Timestamp {
	return t.updatedAt
}

// UpdateStatus transitions to a new status
func (t *Task) UpdateStatus(next model.Status) error {
	if !next.IsValid() {
		return errors.New("invalid status")
	}
	if !t.status.CanTransitionTo(next) {
		return errors.New("invalid status transition from " + t.status.String() + " to " + next.String())
	}
	t.status = next
	t.updatedAt = model.NewTimestamp()
	return nil
}

// ForceStatus sets the status without transition validation. Used by the
// sprint UAT bulk close, which closes BLOCKED and IN_PROGRESS work alike.
func (t *Task) ForceStatus(next model.Status) error {
	if !next.IsValid() {
		return errors.New("invalid status")
	}
	t.status = next
	t.updatedAt = model.NewTimestamp()
	return nil
}

// UpdateTitle updates the task title
func (t *Task) UpdateTitle(title string) error {
	if title == "" {
		return errors.New("title cannot be empty")
	}
	t.title = title
	t.updatedAt = model.NewTimestamp()
	return nil
}

// UpdateDescription updates the task description
func (t *Task) UpdateDescription(description *string) {
	t.description = description
	t.updatedAt = model.NewTimestamp()
}

// Assign sets the assignee (nil unassigns)
func (t *Task) Assign(assignee *string) {
	t.assignee = assignee
	t.updatedAt = model.NewTimestamp()
}

// Relocate places the task into a container at a position. Position
// bookkeeping for surrounding tasks is the reorder service's concern.
func (t *Task) Relocate(sprintID *model.SprintID, position int) error {
	if position < 0 {
		return errors.New("position cannot be negative")
	}
	t.sprintID = sprintID
	t.position = position
	t.updatedAt = model.NewTimestamp()
	return nil
}

// InSprint reports whether the task is in the given sprint
func (t *Task) InSprint(id model.SprintID) bool {
	return t.sprintID != nil && t.sprintID.Equals(id)
}

// InBacklog reports whether the task sits in the project backlog
func (t *Task) InBacklog() bool {
	return t.sprintID == nil
}
