package sprint

import (
	"errors"
	"time"

	"github.com/anchorworks/sprintflow/internal/domain/model"
)

// Sprint is an ordered iteration within a project. Its status walks
// PLANNED -> ACTIVE -> UAT -> COMPLETED; reactivation back to ACTIVE is an
// admin-only escape hatch.
type Sprint struct {
	id        model.SprintID
	projectID model.ProjectID
	name      string
	status    model.SprintStatus
	position  int
	startDate *time.Time
	endDate   *time.Time
	createdAt model.Timestamp
	updatedAt model.Timestamp
}

// NewSprint creates a new sprint in PLANNED state at the given position
func NewSprint(projectID model.ProjectID, name string, position int) (*Sprint, error) {
	if name == "" {
		return nil, errors.New("sprint name cannot be empty")
	}
	if position < 0 {
		return nil, errors.New("sprint position cannot be negative")
	}

	now := model.NewTimestamp()
	return &Sprint{
		id:        model.NewSprintID(),
		projectID: projectID,
		name:      name,
		status:    model.SprintPlanned,
		position:  position,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructSprint reconstructs a sprint from stored data
func ReconstructSprint(
	id model.SprintID,
	projectID model.ProjectID,
	name string,
	status model.SprintStatus,
	position int,
	startDate *time.Time,
	endDate *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) *Sprint {
	return &Sprint{
		id:        id,
		projectID: projectID,
		name:      name,
		status:    status,
		position:  position,
		startDate: startDate,
		endDate:   endDate,
		createdAt: model.NewTimestampFromTime(createdAt),
		updatedAt: model.NewTimestampFromTime(updatedAt),
	}
}

// ID returns the sprint ID
func (s *Sprint) ID() model.SprintID {
	return s.id
}

// ProjectID returns the owning project ID
func (s *Sprint) ProjectID() model.ProjectID {
	return s.projectID
}

// Name returns the sprint name
func (s *Sprint) Name() string {
	return s.name
}

// Status returns the current sprint status
func (s *Sprint) Status() model.SprintStatus {
	return s.status
}

// Position returns the sprint's position within the project
func (s *Sprint) Position() int {
	return s.position
}

// StartDate returns the optional start date
func (s *Sprint) StartDate() *time.Time {
	return s.startDate
}

// EndDate returns the optional end date
func (s *Sprint) EndDate() *time.Time {
	return s.endDate
}

// CreatedAt returns the creation timestamp
func (s *Sprint) CreatedAt() model.Timestamp {
	return s.createdAt
}

// UpdatedAt returns the last update timestamp
func (s *Sprint) UpdatedAt() model.Timestamp {
	return s.updatedAt
}

// SetDates sets the sprint date range
func (s *Sprint) SetDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return errors.New("sprint end date before start date")
	}
	s.startDate = start
	s.endDate = end
	s.updatedAt = model.NewTimestamp()
	return nil
}

// UpdateStatus transitions to a new sprint status
func (s *Sprint) UpdateStatus(next model.SprintStatus) error {
	if !next.IsValid() {
		return errors.New("invalid sprint status")
	}
	if !s.status.CanTransitionTo(next) {
		return errors.New("invalid sprint transition from " + s.status.String() + " to " + next.String())
	}
	s.status = next
	s.updatedAt = model.NewTimestamp()
	return nil
}

// Reactivate moves a UAT or COMPLETED sprint back to ACTIVE. The caller is
// responsible for the admin-role check.
func (s *Sprint) Reactivate() error {
	if s.status != model.SprintUAT && s.status != model.SprintCompleted {
		return errors.New("only UAT or COMPLETED sprints can be reactivated")
	}
	s.status = model.SprintActive
	s.updatedAt = model.NewTimestamp()
	return nil
}
