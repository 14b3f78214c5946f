package sprint

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchorworks/sprintflow/internal/application/dto"
	"github.com/anchorworks/sprintflow/internal/application/port/output"
	"github.com/anchorworks/sprintflow/internal/application/service"
	"github.com/anchorworks/sprintflow/internal/domain/apperr"
	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/comment"
	"github.com/anchorworks/sprintflow/internal/domain/model/project"
	domainsprint "github.com/anchorworks/sprintflow/internal/domain/model/sprint"
	domaintask "github.com/anchorworks/sprintflow/internal/domain/model/task"
	"github.com/anchorworks/sprintflow/internal/domain/repository"
	"github.com/anchorworks/sprintflow/internal/infrastructure/auth"
	"github.com/anchorworks/sprintflow/internal/infrastructure/persistence/sqlite"
	"github.com/anchorworks/sprintflow/internal/infrastructure/transaction"
)

type sprintNotifier struct {
	events []output.Event
	fail   error
}

func (n *sprintNotifier) Notify(event output.Event) error {
	if n.fail != nil {
		return n.fail
	}
	n.events = append(n.events, event)
	return nil
}

// sprintTestEnv wires the sprint use case against an in-memory database,
// pre-seeded with an "APP" project
type sprintTestEnv struct {
	uc           *SprintUseCaseImpl
	notifier     *sprintNotifier
	project      *project.Project
	projectRepo  repository.ProjectRepository
	taskRepo     repository.TaskRepository
	sprintRepo   repository.SprintRepository
	commentRepo  repository.CommentRepository
	activityRepo repository.ActivityRepository
}

func newSprintTestEnv(t *testing.T, role output.Role) *sprintTestEnv {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, sqlite.NewMigrator(db).Migrate())

	env := &sprintTestEnv{
		notifier:     &sprintNotifier{},
		projectRepo:  sqlite.NewProjectRepository(db),
		taskRepo:     sqlite.NewTaskRepository(db),
		sprintRepo:   sqlite.NewSprintRepository(db),
		commentRepo:  sqlite.NewCommentRepository(db),
		activityRepo: sqlite.NewActivityRepository(db),
	}

	chainSvc := service.NewChainService(env.taskRepo, env.sprintRepo, env.commentRepo)
	splitSvc := service.NewSplitService(env.projectRepo, env.taskRepo, env.sprintRepo, env.commentRepo, env.activityRepo, chainSvc)

	env.uc = NewSprintUseCaseImpl(
		env.projectRepo, env.taskRepo, env.sprintRepo, env.activityRepo,
		splitSvc, transaction.NewSQLiteTransactionManager(db),
		auth.NewStaticAuth("alice", role), env.notifier,
	)

	p, err := project.NewProject("APP", "Application")
	require.NoError(t, err)
	require.NoError(t, env.projectRepo.Save(context.Background(), p))
	env.project = p

	return env
}

// addSprint saves a sprint at the next position, walked to the given status
func (e *sprintTestEnv) addSprint(t *testing.T, name string, status model.SprintStatus) *domainsprint.Sprint {
	t.Helper()
	ctx := context.Background()

	max, err := e.sprintRepo.MaxPosition(ctx, e.project.ID())
	require.NoError(t, err)

	sp, err := domainsprint.NewSprint(e.project.ID(), name, max+1)
	require.NoError(t, err)
	switch status {
	case model.SprintActive:
		require.NoError(t, sp.UpdateStatus(model.SprintActive))
	case model.SprintUAT:
		require.NoError(t, sp.UpdateStatus(model.SprintActive))
		require.NoError(t, sp.UpdateStatus(model.SprintUAT))
	}
	require.NoError(t, e.sprintRepo.Save(ctx, sp))
	return sp
}

// addTask saves a task at the end of the given container with the given status
func (e *sprintTestEnv) addTask(t *testing.T, title string, sprintID *model.SprintID, status model.Status) *domaintask.Task {
	t.Helper()
	ctx := context.Background()

	counter, err := e.projectRepo.IncrementTaskCounter(ctx, e.project.ID())
	require.NoError(t, err)

	max, err := e.taskRepo.MaxPosition(ctx, repository.Container{ProjectID: e.project.ID(), SprintID: sprintID})
	require.NoError(t, err)

	tk, err := domaintask.NewTask(domaintask.NewTaskParams{
		Key:       project.TaskKey(e.project.Key(), counter),
		Number:    counter,
		ProjectID: e.project.ID(),
		Title:     title,
		Priority:  model.PriorityMedium,
		Position:  max + 1,
		SprintID:  sprintID,
		CreatedBy: "alice",
	})
	require.NoError(t, err)
	if status != model.StatusTodo {
		require.NoError(t, tk.ForceStatus(status))
	}
	require.NoError(t, e.taskRepo.Save(ctx, tk))
	return tk
}

// sprintTasks returns a container's tasks in position order
func (e *sprintTestEnv) sprintTasks(t *testing.T, sprintID *model.SprintID) []*domaintask.Task {
	t.Helper()
	tasks, err := e.taskRepo.ListByContainer(context.Background(),
		repository.Container{ProjectID: e.project.ID(), SprintID: sprintID})
	require.NoError(t, err)
	return tasks
}

func TestSprintUseCaseImpl_CreateSprint(t *testing.T) {
	env := newSprintTestEnv(t, output.RoleMember)
	ctx := context.Background()

	first, err := env.uc.CreateSprint(ctx, dto.CreateSprintRequest{ProjectKey: "APP", Name: "Sprint 1"})
	require.NoError(t, err)
	assert.Equal(t, "PLANNED", first.Status)
	assert.Equal(t, 0, first.Position)

	second, err := env.uc.CreateSprint(ctx, dto.CreateSprintRequest{ProjectKey: "APP", Name: "Sprint 2"})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Position)

	_, err = env.uc.CreateSprint(ctx, dto.CreateSprintRequest{ProjectKey: "APP", Name: ""})
	assert.Error(t, err)
}

func TestSprintUseCaseImpl_StartSprint(t *testing.T) {
	env := newSprintTestEnv(t, output.RoleMember)
	ctx := context.Background()

	first := env.addSprint(t, "Sprint 1", model.SprintPlanned)
	second := env.addSprint(t, "Sprint 2", model.SprintPlanned)

	started, err := env.uc.StartSprint(ctx, first.ID().String())
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", started.Status)

	// Only one sprint may run at a time
	_, err = env.uc.StartSprint(ctx, second.ID().String())
	assert.True(t, errors.Is(err, apperr.ErrPrecondition))
}

func TestSprintUseCaseImpl_CompleteSprint(t *testing.T) {
	env := newSprintTestEnv(t, output.RoleMember)
	ctx := context.Background()

	active := env.addSprint(t, "Sprint 1", model.SprintActive)
	_, err := env.uc.CompleteSprint(ctx, active.ID().String())
	assert.True(t, errors.Is(err, apperr.ErrConflict), "ACTIVE must pass through UAT first")

	uat := env.addSprint(t, "Sprint 2", model.SprintUAT)
	completed, err := env.uc.CompleteSprint(ctx, uat.ID().String())
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", completed.Status)
}

func TestSprintUseCaseImpl_ReactivateSprint(t *testing.T) {
	t.Run("member forbidden", func(t *testing.T) {
		env := newSprintTestEnv(t, output.RoleMember)
		sp := env.addSprint(t, "Sprint 1", model.SprintUAT)

		_, err := env.uc.ReactivateSprint(context.Background(), sp.ID().String())
		assert.True(t, errors.Is(err, apperr.ErrForbidden))
	})

	t.Run("admin reactivates a UAT sprint", func(t *testing.T) {
		env := newSprintTestEnv(t, output.RoleAdmin)
		sp := env.addSprint(t, "Sprint 1", model.SprintUAT)

		reactivated, err := env.uc.ReactivateSprint(context.Background(), sp.ID().String())
		require.NoError(t, err)
		assert.Equal(t, "ACTIVE", reactivated.Status)
	})

	t.Run("blocked while another sprint is active", func(t *testing.T) {
		env := newSprintTestEnv(t, output.RoleAdmin)
		env.addSprint(t, "Sprint 1", model.SprintActive)
		uat := env.addSprint(t, "Sprint 2", model.SprintUAT)

		_, err := env.uc.ReactivateSprint(context.Background(), uat.ID().String())
		assert.True(t, errors.Is(err, apperr.ErrPrecondition))
	})
}

func TestSprintUseCaseImpl_ListSprints(t *testing.T) {
	env := newSprintTestEnv(t, output.RoleMember)

	env.addSprint(t, "Sprint 1", model.SprintActive)
	env.addSprint(t, "Sprint 2", model.SprintPlanned)

	sprints, err := env.uc.ListSprints(context.Background(), "APP")
	require.NoError(t, err)
	require.Len(t, sprints, 2)
	assert.Equal(t, "Sprint 1", sprints[0].Name)
	assert.Equal(t, "Sprint 2", sprints[1].Name)
}

func TestSprintUseCaseImpl_TransitionToUATRequiresAdmin(t *testing.T) {
	env := newSprintTestEnv(t, output.RoleMember)
	sp := env.addSprint(t, "Sprint 1", model.SprintActive)

	_, err := env.uc.TransitionToUAT(context.Background(), dto.TransitionToUATRequest{
		SprintID: sp.ID().String(),
		Action:   dto.UATCloseAll,
	})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
}

func TestSprintUseCaseImpl_TransitionToUATInvalidAction(t *testing.T) {
	env := newSprintTestEnv(t, output.RoleAdmin)
	sp := env.addSprint(t, "Sprint 1", model.SprintActive)

	_, err := env.uc.TransitionToUAT(context.Background(), dto.TransitionToUATRequest{
		SprintID: sp.ID().String(),
		Action:   dto.UATAction("archive_all"),
	})
	assert.Error(t, err)
}

func TestSprintUseCaseImpl_TransitionToUATRequiresActiveSprint(t *testing.T) {
	env := newSprintTestEnv(t, output.RoleAdmin)
	sp := env.addSprint(t, "Sprint 1", model.SprintPlanned)

	_, err := env.uc.TransitionToUAT(context.Background(), dto.TransitionToUATRequest{
		SprintID: sp.ID().String(),
		Action:   dto.UATCloseAll,
	})
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestSprintUseCaseImpl_TransitionToUATCloseAll(t *testing.T) {
	env := newSprintTestEnv(t, output.RoleAdmin)
	ctx := context.Background()

	sp := env.addSprint(t, "Sprint 1", model.SprintActive)
	spID := sp.ID()

	todo := env.addTask(t, "open todo", &spID, model.StatusTodo)
	blocked := env.addTask(t, "stuck", &spID, model.StatusBlocked)
	ready := env.addTask(t, "under test", &spID, model.StatusReadyToTest)
	done := env.addTask(t, "shipped", &spID, model.StatusDone)

	result, err := env.uc.TransitionToUAT(ctx, dto.TransitionToUATRequest{
		SprintID: spID.String(),
		Action:   dto.UATCloseAll,
	})
	require.NoError(t, err)
	assert.Equal(t, "UAT", result.Status)
	require.Len(t, result.Tasks, 4)

	for _, id := range []model.TaskID{todo.ID(), blocked.ID()} {
		closed, err := env.taskRepo.Find(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusDone, closed.Status())

		log, err := env.activityRepo.ListByTask(ctx, id)
		require.NoError(t, err)
		require.Len(t, log, 1)
		assert.Equal(t, model.ActivityStatusChanged, log[0].Type())
		assert.Equal(t, "Sprint moved to UAT", log[0].Metadata()["reason"])
	}

	// Finished and in-test work is left alone
	untouched, err := env.taskRepo.Find(ctx, ready.ID())
	require.NoError(t, err)
	assert.Equal(t, model.StatusReadyToTest, untouched.Status())
	untouched, err = env.taskRepo.Find(ctx, done.ID())
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, untouched.Status())

	require.Len(t, env.notifier.events, 1)
	assert.Equal(t, output.EventSprintTransition, env.notifier.events[0].Type)
	assert.Equal(t, "Sprint 1", env.notifier.events[0].Sprint)
}

func TestSprintUseCaseImpl_TransitionToUATMoveAll(t *testing.T) {
	env := newSprintTestEnv(t, output.RoleAdmin)
	ctx := context.Background()

	sp := env.addSprint(t, "Sprint 1", model.SprintActive)
	next := env.addSprint(t, "Sprint 2", model.SprintPlanned)
	spID, nextID := sp.ID(), next.ID()

	// Source: APP-001 (open), APP-002 (done), APP-003 (open)
	env.addTask(t, "first open", &spID, model.StatusInProgress)
	env.addTask(t, "finished", &spID, model.StatusDone)
	env.addTask(t, "second open", &spID, model.StatusBlocked)
	// Destination already holds one task
	env.addTask(t, "queued", &nextID, model.StatusTodo)

	result, err := env.uc.TransitionToUAT(ctx, dto.TransitionToUATRequest{
		SprintID: spID.String(),
		Action:   dto.UATMoveAll,
	})
	require.NoError(t, err)
	assert.Equal(t, "UAT", result.Status)

	// Open tasks are appended behind the destination's own work, source order
	// preserved
	dest := env.sprintTasks(t, &nextID)
	require.Len(t, dest, 3)
	assert.Equal(t, "APP-004", dest[0].Key())
	assert.Equal(t, "APP-001", dest[1].Key())
	assert.Equal(t, "APP-003", dest[2].Key())
	for i, tk := range dest {
		assert.Equal(t, i, tk.Position())
	}

	moved := dest[1]
	assert.Equal(t, model.StatusInProgress, moved.Status(), "moving preserves status")
	log, err := env.activityRepo.ListByTask(ctx, moved.ID())
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, model.ActivityMovedToSprint, log[0].Type())
	assert.Equal(t, "Sprint 1", log[0].Metadata()["from"])
	assert.Equal(t, "Sprint 2", log[0].Metadata()["to"])

	// Source keeps only the finished task, renumbered to position 0
	remaining := env.sprintTasks(t, &spID)
	require.Len(t, remaining, 1)
	assert.Equal(t, "APP-002", remaining[0].Key())
	assert.Equal(t, 0, remaining[0].Position())
}

func TestSprintUseCaseImpl_TransitionToUATSplitAll(t *testing.T) {
	env := newSprintTestEnv(t, output.RoleAdmin)
	ctx := context.Background()

	sp := env.addSprint(t, "Sprint 1", model.SprintActive)
	next := env.addSprint(t, "Sprint 2", model.SprintPlanned)
	spID, nextID := sp.ID(), next.ID()

	open := env.addTask(t, "Unfinished work", &spID, model.StatusInProgress)
	desc := "details worth carrying"
	open.UpdateDescription(&desc)
	require.NoError(t, env.taskRepo.Save(ctx, open))

	c, err := comment.NewComment(open.ID(), "bob", "context for @carol")
	require.NoError(t, err)
	require.NoError(t, env.commentRepo.Save(ctx, c))

	result, err := env.uc.TransitionToUAT(ctx, dto.TransitionToUATRequest{
		SprintID: spID.String(),
		Action:   dto.UATSplitAll,
	})
	require.NoError(t, err)
	assert.Equal(t, "UAT", result.Status)

	// Source task is closed in place
	closed, err := env.taskRepo.Find(ctx, open.ID())
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, closed.Status())
	assert.True(t, closed.InSprint(spID))

	// Its successor lands in the destination with the context carried over
	dest := env.sprintTasks(t, &nextID)
	require.Len(t, dest, 1)
	successor := dest[0]
	assert.Equal(t, "Unfinished work #2", successor.Title())
	assert.Equal(t, model.StatusTodo, successor.Status())
	require.NotNil(t, successor.SplitFromID())
	assert.True(t, successor.SplitFromID().Equals(open.ID()))
	require.NotNil(t, successor.Description())
	assert.Equal(t, desc, *successor.Description())

	copied, err := env.commentRepo.ListByTask(ctx, successor.ID())
	require.NoError(t, err)
	require.Len(t, copied, 1)
	assert.Equal(t, "bob", copied[0].Author())
	assert.Equal(t, []string{"carol"}, copied[0].Mentions())
}

func TestSprintUseCaseImpl_TransitionToUATNotifierFailureDoesNotFail(t *testing.T) {
	env := newSprintTestEnv(t, output.RoleAdmin)
	env.notifier.fail = errors.New("digest dir unwritable")

	sp := env.addSprint(t, "Sprint 1", model.SprintActive)

	result, err := env.uc.TransitionToUAT(context.Background(), dto.TransitionToUATRequest{
		SprintID: sp.ID().String(),
		Action:   dto.UATCloseAll,
	})
	require.NoError(t, err)
	assert.Equal(t, "UAT", result.Status)
}

func TestSprintUseCaseImpl_TransitionToUATNoTargetRollsBack(t *testing.T) {
	env := newSprintTestEnv(t, output.RoleAdmin)
	ctx := context.Background()

	sp := env.addSprint(t, "Sprint 1", model.SprintActive)
	spID := sp.ID()
	open := env.addTask(t, "stranded", &spID, model.StatusInProgress)

	for _, action := range []dto.UATAction{dto.UATMoveAll, dto.UATSplitAll} {
		_, err := env.uc.TransitionToUAT(ctx, dto.TransitionToUATRequest{
			SprintID: spID.String(),
			Action:   action,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrPrecondition))
		assert.Contains(t, err.Error(), "no target sprint")
	}

	// Nothing moved, nothing closed, the sprint is still running
	reloaded, err := env.sprintRepo.Find(ctx, spID)
	require.NoError(t, err)
	assert.Equal(t, model.SprintActive, reloaded.Status())

	tk, err := env.taskRepo.Find(ctx, open.ID())
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, tk.Status())
	assert.True(t, tk.InSprint(spID))

	assert.Empty(t, env.notifier.events)
}

func TestSprintUseCaseImpl_TransitionToUATExplicitTargetValidation(t *testing.T) {
	env := newSprintTestEnv(t, output.RoleAdmin)
	ctx := context.Background()

	sp := env.addSprint(t, "Sprint 1", model.SprintActive)
	spID := sp.ID()

	t.Run("self as target", func(t *testing.T) {
		self := spID.String()
		_, err := env.uc.TransitionToUAT(ctx, dto.TransitionToUATRequest{
			SprintID:       self,
			Action:         dto.UATMoveAll,
			TargetSprintID: &self,
		})
		assert.True(t, errors.Is(err, apperr.ErrPrecondition))
	})

	t.Run("foreign project target", func(t *testing.T) {
		foreign, err := domainsprint.NewSprint(model.NewProjectID(), "Foreign", 0)
		require.NoError(t, err)
		require.NoError(t, env.sprintRepo.Save(ctx, foreign))

		foreignID := foreign.ID().String()
		_, err = env.uc.TransitionToUAT(ctx, dto.TransitionToUATRequest{
			SprintID:       spID.String(),
			Action:         dto.UATMoveAll,
			TargetSprintID: &foreignID,
		})
		assert.True(t, errors.Is(err, apperr.ErrPrecondition))
	})

	// Both rejections leave the sprint running
	reloaded, err := env.sprintRepo.Find(ctx, spID)
	require.NoError(t, err)
	assert.Equal(t, model.SprintActive, reloaded.Status())
}
