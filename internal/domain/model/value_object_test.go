package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskID(t *testing.T) {
	t.Run("new IDs are unique", func(t *testing.T) {
		a := NewTaskID()
		b := NewTaskID()
		assert.NotEqual(t, a.String(), b.String())
	})

	t.Run("from string round-trips", func(t *testing.T) {
		id, err := NewTaskIDFromString("some-id")
		require.NoError(t, err)
		assert.Equal(t, "some-id", id.String())
	})

	t.Run("empty string rejected", func(t *testing.T) {
		_, err := NewTaskIDFromString("")
		assert.Error(t, err)
	})

	t.Run("equals", func(t *testing.T) {
		a, _ := NewTaskIDFromString("x")
		b, _ := NewTaskIDFromString("x")
		c, _ := NewTaskIDFromString("y")
		assert.True(t, a.Equals(b))
		assert.False(t, a.Equals(c))
	})
}

func TestNewULID(t *testing.T) {
	a := NewULID()
	b := NewULID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}

func TestStatus_IsValid(t *testing.T) {
	for _, s := range []Status{StatusTodo, StatusInProgress, StatusReadyToTest, StatusBlocked, StatusDone, StatusLive} {
		assert.True(t, s.IsValid(), s.String())
	}
	assert.False(t, Status("ARCHIVED").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestStatus_IsOpen(t *testing.T) {
	tests := []struct {
		status Status
		open   bool
	}{
		{StatusTodo, true},
		{StatusInProgress, true},
		{StatusBlocked, true},
		{StatusReadyToTest, false},
		{StatusDone, false},
		{StatusLive, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.open, tt.status.IsOpen(), tt.status.String())
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"todo to in progress", StatusTodo, StatusInProgress, true},
		{"todo to done", StatusTodo, StatusDone, true},
		{"todo to ready to test", StatusTodo, StatusReadyToTest, false},
		{"in progress to ready to test", StatusInProgress, StatusReadyToTest, true},
		{"in progress back to todo", StatusInProgress, StatusTodo, true},
		{"ready to test back to in progress", StatusReadyToTest, StatusInProgress, true},
		{"blocked to in progress", StatusBlocked, StatusInProgress, true},
		{"blocked to live", StatusBlocked, StatusLive, false},
		{"done to live", StatusDone, StatusLive, true},
		{"done reopened", StatusDone, StatusTodo, true},
		{"live is terminal", StatusLive, StatusDone, false},
		{"no self transition", StatusTodo, StatusTodo, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPriority_IsValid(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent} {
		assert.True(t, p.IsValid(), p.String())
	}
	assert.False(t, Priority("CRITICAL").IsValid())
}

func TestSprintStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    SprintStatus
		to      SprintStatus
		allowed bool
	}{
		{"planned to active", SprintPlanned, SprintActive, true},
		{"active to uat", SprintActive, SprintUAT, true},
		{"uat to completed", SprintUAT, SprintCompleted, true},
		{"planned to uat skips active", SprintPlanned, SprintUAT, false},
		{"active straight to completed", SprintActive, SprintCompleted, false},
		{"completed is terminal", SprintCompleted, SprintActive, false},
		{"uat back to active only via reactivate", SprintUAT, SprintActive, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestActivityType_IsValid(t *testing.T) {
	for _, a := range []ActivityType{ActivityCreated, ActivityStatusChanged, ActivitySplit, ActivityMovedToSprint, ActivityAssigned, ActivityCommented} {
		assert.True(t, a.IsValid(), a.String())
	}
	assert.False(t, ActivityType("DELETED").IsValid())
}
