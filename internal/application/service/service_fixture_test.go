package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/comment"
	"github.com/anchorworks/sprintflow/internal/domain/model/project"
	"github.com/anchorworks/sprintflow/internal/domain/model/sprint"
	"github.com/anchorworks/sprintflow/internal/domain/model/task"
	"github.com/anchorworks/sprintflow/internal/domain/repository"
	"github.com/anchorworks/sprintflow/internal/infrastructure/persistence/sqlite"
	"github.com/anchorworks/sprintflow/internal/infrastructure/transaction"
)

// fixture wires SQLite-backed repositories around a migrated in-memory
// database for service tests
type fixture struct {
	db           *sql.DB
	project      *project.Project
	projectRepo  repository.ProjectRepository
	taskRepo     repository.TaskRepository
	sprintRepo   repository.SprintRepository
	commentRepo  repository.CommentRepository
	activityRepo repository.ActivityRepository
	txManager    *transaction.SQLiteTransactionManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, sqlite.NewMigrator(db).Migrate())

	f := &fixture{
		db:           db,
		projectRepo:  sqlite.NewProjectRepository(db),
		taskRepo:     sqlite.NewTaskRepository(db),
		sprintRepo:   sqlite.NewSprintRepository(db),
		commentRepo:  sqlite.NewCommentRepository(db),
		activityRepo: sqlite.NewActivityRepository(db),
		txManager:    transaction.NewSQLiteTransactionManager(db),
	}

	p, err := project.NewProject("APP", "Application")
	require.NoError(t, err)
	require.NoError(t, f.projectRepo.Save(context.Background(), p))
	f.project = p

	return f
}

// addSprint creates and saves a sprint at the next position
func (f *fixture) addSprint(t *testing.T, name string, status model.SprintStatus) *sprint.Sprint {
	t.Helper()
	ctx := context.Background()

	max, err := f.sprintRepo.MaxPosition(ctx, f.project.ID())
	require.NoError(t, err)

	sp, err := sprint.NewSprint(f.project.ID(), name, max+1)
	require.NoError(t, err)
	switch status {
	case model.SprintActive:
		require.NoError(t, sp.UpdateStatus(model.SprintActive))
	case model.SprintUAT:
		require.NoError(t, sp.UpdateStatus(model.SprintActive))
		require.NoError(t, sp.UpdateStatus(model.SprintUAT))
	}
	require.NoError(t, f.sprintRepo.Save(ctx, sp))
	return sp
}

// addTask creates and saves a task at the end of the given container
func (f *fixture) addTask(t *testing.T, title string, sprintID *model.SprintID) *task.Task {
	t.Helper()
	ctx := context.Background()

	counter, err := f.projectRepo.IncrementTaskCounter(ctx, f.project.ID())
	require.NoError(t, err)

	max, err := f.taskRepo.MaxPosition(ctx, repository.Container{ProjectID: f.project.ID(), SprintID: sprintID})
	require.NoError(t, err)

	tk, err := task.NewTask(task.NewTaskParams{
		Key:       project.TaskKey(f.project.Key(), counter),
		Number:    counter,
		ProjectID: f.project.ID(),
		Title:     title,
		Priority:  model.PriorityMedium,
		Position:  max + 1,
		SprintID:  sprintID,
		CreatedBy: "alice",
	})
	require.NoError(t, err)
	require.NoError(t, f.taskRepo.Save(ctx, tk))
	return tk
}

// addComment attaches a comment to a task
func addComment(t *testing.T, f *fixture, tk *task.Task, author, body string) {
	t.Helper()
	c, err := comment.NewComment(tk.ID(), author, body)
	require.NoError(t, err)
	require.NoError(t, f.commentRepo.Save(context.Background(), c))
}

// keys returns the task keys of a container in position order
func (f *fixture) keys(t *testing.T, sprintID *model.SprintID) []string {
	t.Helper()
	tasks, err := f.taskRepo.ListByContainer(context.Background(),
		repository.Container{ProjectID: f.project.ID(), SprintID: sprintID})
	require.NoError(t, err)

	var keys []string
	for _, tk := range tasks {
		keys = append(keys, tk.Key())
	}
	return keys
}

// requireDense asserts the container's positions are exactly 0..n-1
func (f *fixture) requireDense(t *testing.T, sprintID *model.SprintID) {
	t.Helper()
	tasks, err := f.taskRepo.ListByContainer(context.Background(),
		repository.Container{ProjectID: f.project.ID(), SprintID: sprintID})
	require.NoError(t, err)

	for i, tk := range tasks {
		require.Equal(t, i, tk.Position(), fmt.Sprintf("task %s should sit at position %d", tk.Key(), i))
	}
}
