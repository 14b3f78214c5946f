// Package dto defines the request and response shapes exchanged between
// the interface layer and the use cases.
package dto

import "time"

// ProjectDTO is the external representation of a project
type ProjectDTO struct {
	ID          string
	Key         string
	Name        string
	TaskCounter int
	CreatedAt   time.Time
}

// TaskDTO is the external representation of a task
type TaskDTO struct {
	ID          string
	Key         string
	Number      int
	ProjectID   string
	Title       string
	Description *string
	Status      string
	Priority    string
	Position    int
	Team        string
	SprintID    *string
	SplitFromID *string
	Assignee    *string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SprintDTO is the external representation of a sprint
type SprintDTO struct {
	ID        string
	ProjectID string
	Name      string
	Status    string
	Position  int
	StartDate *time.Time
	EndDate   *time.Time
	Tasks     []TaskDTO
}

// CommentDTO is the external representation of a comment
type CommentDTO struct {
	ID        string
	TaskID    string
	Author    string
	Body      string
	Mentions  []string
	CreatedAt time.Time
}

// ActivityDTO is the external representation of an audit entry
type ActivityDTO struct {
	ID        string
	TaskID    string
	Actor     string
	Type      string
	Metadata  map[string]interface{}
	CreatedAt time.Time
}

// ChainNodeDTO is one link of a split lineage prepared for display
type ChainNodeDTO struct {
	ID           string
	Key          string
	Title        string
	Status       string
	Priority     string
	Sprint       string
	Assignee     string
	CommentCount int
	CreatedAt    time.Time
	Depth        int
	IsRoot       bool
	IsCurrent    bool
}

// ChainDTO is a full split lineage plus the number of distinct containers
// it has passed through
type ChainDTO struct {
	Nodes       []ChainNodeDTO
	SprintCount int
}

// CreateProjectRequest creates a new project
type CreateProjectRequest struct {
	Key  string
	Name string
}

// CreateSprintRequest creates a new sprint in PLANNED state
type CreateSprintRequest struct {
	ProjectKey string
	Name       string
	StartDate  *time.Time
	EndDate    *time.Time
}

// CreateTaskRequest creates a new task at the end of its container
type CreateTaskRequest struct {
	ProjectKey  string
	Title       string
	Description *string
	Priority    string
	Team        string
	SprintID    *string // nil = backlog
	Assignee    *string
}

// MoveTaskRequest repositions a task, possibly across containers
type MoveTaskRequest struct {
	TaskKey  string
	SprintID *string // nil = backlog
	Position int
}

// SplitTaskRequest splits a task into a successor
type SplitTaskRequest struct {
	TaskKey             string
	TargetSprintID      *string // nil = stay in the source task's container
	TransferComments    bool
	TransferDescription bool
}

// UATAction selects the bulk treatment of unfinished work on UAT entry
type UATAction string

const (
	UATCloseAll UATAction = "close_all"
	UATMoveAll  UATAction = "move_all"
	UATSplitAll UATAction = "split_all"
)

// IsValid validates the UAT action
func (a UATAction) IsValid() bool {
	switch a {
	case UATCloseAll, UATMoveAll, UATSplitAll:
		return true
	default:
		return false
	}
}

// TransitionToUATRequest moves a sprint into UAT, applying Action to every
// unfinished task in it
type TransitionToUATRequest struct {
	SprintID       string
	Action         UATAction
	TargetSprintID *string // move_all/split_all destination; nil = next planned sprint
}
