package project

import (
	"errors"
	"fmt"
	"time"

	"github.com/anchorworks/sprintflow/internal/domain/model"
)

// Project is the top-level container for sprints and tasks. Each project
// owns a short key and a monotonically increasing task counter from which
// human-readable task keys ("KEY-001") are derived.
type Project struct {
	id          model.ProjectID
	key         string
	name        string
	taskCounter int
	createdAt   model.Timestamp
	updatedAt   model.Timestamp
}

// NewProject creates a new project with a zero task counter
func NewProject(key, name string) (*Project, error) {
	if key == "" {
		return nil, errors.New("project key cannot be empty")
	}
	if name == "" {
		return nil, errors.New("project name cannot be empty")
	}

	now := model.NewTimestamp()
	return &Project{
		id:          model.NewProjectID(),
		key:         key,
		name:        name,
		taskCounter: 0,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructProject reconstructs a project from stored data
func ReconstructProject(
	id model.ProjectID,
	key string,
	name string,
	taskCounter int,
	createdAt time.Time,
	updatedAt time.Time,
) *Project {
	return &Project{
		id:          id,
		key:         key,
		name:        name,
		taskCounter: taskCounter,
		createdAt:   model.NewTimestampFromTime(createdAt),
		updatedAt:   model.NewTimestampFromTime(updatedAt),
	}
}

// ID returns the project ID
func (p *Project) ID() model.ProjectID {
	return p.id
}

// Key returns the project key
func (p *Project) Key() string {
	return p.key
}

// Name returns the project name
func (p *Project) Name() string {
	return p.name
}

// TaskCounter returns the last assigned task number
func (p *Project) TaskCounter() int {
	return p.taskCounter
}

// CreatedAt returns the creation timestamp
func (p *Project) CreatedAt() model.Timestamp {
	return p.createdAt
}

// UpdatedAt returns the last update timestamp
func (p *Project) UpdatedAt() model.Timestamp {
	return p.updatedAt
}

// Rename updates the project name
func (p *Project) Rename(name string) error {
	if name == "" {
		return errors.New("project name cannot be empty")
	}
	p.name = name
	p.updatedAt = model.NewTimestamp()
	return nil
}

// TaskKey formats a task key for the given task number
func TaskKey(projectKey string, number int) string {
	return fmt.Sprintf("%s-%03d", projectKey, number)
}
