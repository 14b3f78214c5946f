package model

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// TaskID represents a unique identifier for a task
type TaskID struct {
	value string
}

// NewTaskID creates a new TaskID
func NewTaskID() TaskID {
	return TaskID{value: uuid.New().String()}
}

// NewTaskIDFromString creates a TaskID from an existing string
func NewTaskIDFromString(id string) (TaskID, error) {
	if id == "" {
		return TaskID{}, errors.New("task ID cannot be empty")
	}
	return TaskID{value: id}, nil
}

// String returns the string representation
func (t TaskID) String() string {
	return t.value
}

// Equals checks if two TaskIDs are equal
func (t TaskID) Equals(other TaskID) bool {
	return t.value == other.value
}

// ProjectID represents a unique identifier for a project
type ProjectID struct {
	value string
}

// NewProjectID creates a new ProjectID using ULID
func NewProjectID() ProjectID {
	return ProjectID{value: newULID()}
}

// NewProjectIDFromString creates a ProjectID from an existing string
func NewProjectIDFromString(id string) (ProjectID, error) {
	if id == "" {
		return ProjectID{}, errors.New("project ID cannot be empty")
	}
	return ProjectID{value: id}, nil
}

// String returns the string representation
func (p ProjectID) String() string {
	return p.value
}

// Equals checks if two ProjectIDs are equal
func (p ProjectID) Equals(other ProjectID) bool {
	return p.value == other.value
}

// SprintID represents a unique identifier for a sprint
type SprintID struct {
	value string
}

// NewSprintID creates a new SprintID using ULID
func NewSprintID() SprintID {
	return SprintID{value: newULID()}
}

// NewSprintIDFromString creates a SprintID from an existing string
func NewSprintIDFromString(id string) (SprintID, error) {
	if id == "" {
		return SprintID{}, errors.New("sprint ID cannot be empty")
	}
	return SprintID{value: id}, nil
}

// String returns the string representation
func (s SprintID) String() string {
	return s.value
}

// Equals checks if two SprintIDs are equal
func (s SprintID) Equals(other SprintID) bool {
	return s.value == other.value
}

// newULID generates a monotonic ULID string
func newULID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewULID generates a ULID string for entities that use plain string ids
// (comments, activities)
func NewULID() string {
	return newULID()
}

// Status represents the current status of a task
type Status string

const (
	StatusTodo        Status = "TODO"
	StatusInProgress  Status = "IN_PROGRESS"
	StatusReadyToTest Status = "READY_TO_TEST"
	StatusBlocked     Status = "BLOCKED"
	StatusDone        Status = "DONE"
	StatusLive        Status = "LIVE"
)

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReadyToTest, StatusBlocked, StatusDone, StatusLive:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the status counts as unfinished work for the
// sprint UAT transition (DONE, LIVE and READY_TO_TEST are left in place)
func (s Status) IsOpen() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusBlocked:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a status transition is valid
func (s Status) CanTransitionTo(next Status) bool {
	validTransitions := map[Status][]Status{
		StatusTodo:        {StatusInProgress, StatusBlocked, StatusDone},
		StatusInProgress:  {StatusTodo, StatusReadyToTest, StatusBlocked, StatusDone},
		StatusReadyToTest: {StatusInProgress, StatusBlocked, StatusDone},
		StatusBlocked:     {StatusTodo, StatusInProgress, StatusDone},
		StatusDone:        {StatusLive, StatusTodo},
		StatusLive:        {},
	}

	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}

	for _, allowedStatus := range allowed {
		if allowedStatus == next {
			return true
		}
	}
	return false
}

// Priority represents the urgency of a task
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// String returns the string representation
func (p Priority) String() string {
	return string(p)
}

// IsValid validates the priority
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// SprintStatus represents the lifecycle stage of a sprint
type SprintStatus string

const (
	SprintPlanned   SprintStatus = "PLANNED"
	SprintActive    SprintStatus = "ACTIVE"
	SprintUAT       SprintStatus = "UAT"
	SprintCompleted SprintStatus = "COMPLETED"
)

// String returns the string representation
func (s SprintStatus) String() string {
	return string(s)
}

// IsValid validates the sprint status
func (s SprintStatus) IsValid() bool {
	switch s {
	case SprintPlanned, SprintActive, SprintUAT, SprintCompleted:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a sprint status transition is valid.
// Reactivation (UAT/COMPLETED back to ACTIVE) is admin-only and handled
// separately by the sprint entity.
func (s SprintStatus) CanTransitionTo(next SprintStatus) bool {
	validTransitions := map[SprintStatus][]SprintStatus{
		SprintPlanned:   {SprintActive},
		SprintActive:    {SprintUAT},
		SprintUAT:       {SprintCompleted},
		SprintCompleted: {},
	}

	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}

	for _, allowedStatus := range allowed {
		if allowedStatus == next {
			return true
		}
	}
	return false
}

// ActivityType classifies an audit log entry
type ActivityType string

const (
	ActivityCreated       ActivityType = "CREATED"
	ActivityStatusChanged ActivityType = "STATUS_CHANGED"
	ActivitySplit         ActivityType = "SPLIT"
	ActivityMovedToSprint ActivityType = "MOVED_TO_SPRINT"
	ActivityAssigned      ActivityType = "ASSIGNED"
	ActivityCommented     ActivityType = "COMMENTED"
)

// String returns the string representation
func (a ActivityType) String() string {
	return string(a)
}

// IsValid validates the activity type
func (a ActivityType) IsValid() bool {
	switch a {
	case ActivityCreated, ActivityStatusChanged, ActivitySplit, ActivityMovedToSprint, ActivityAssigned, ActivityCommented:
		return true
	default:
		return false
	}
}

// Timestamp represents a point in time
type Timestamp struct {
	value time.Time
}

// NewTimestamp creates a new Timestamp with current time
func NewTimestamp() Timestamp {
	return Timestamp{value: time.Now()}
}

// NewTimestampFromTime creates a Timestamp from a time.Time value
func NewTimestampFromTime(t time.Time) Timestamp {
	return Timestamp{value: t}
}

// Value returns the time.Time value
func (t Timestamp) Value() time.Time {
	return t.value
}

// Before checks if this timestamp is before another
func (t Timestamp) Before(other Timestamp) bool {
	return t.value.Before(other.value)
}

// After checks if this timestamp is after another
func (t Timestamp) After(other Timestamp) bool {
	return t.value.After(other.value)
}

// String returns the string representation
func (t Timestamp) String() string {
	return t.value.Format(time.RFC3339)
}
