package task

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/anchorworks/sprintflow/internal/application/dto"
	"github.com/anchorworks/sprintflow/internal/application/port/output"
	"github.com/anchorworks/sprintflow/internal/application/service"
	"github.com/anchorworks/sprintflow/internal/domain/apperr"
	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/activity"
	"github.com/anchorworks/sprintflow/internal/domain/model/comment"
	"github.com/anchorworks/sprintflow/internal/domain/model/project"
	domaintask "github.com/anchorworks/sprintflow/internal/domain/model/task"
	"github.com/anchorworks/sprintflow/internal/domain/repository"
)

// TaskUseCaseImpl orchestrates task mutations: creation, status and
// assignee changes, repositioning, splitting, comments and history.
type TaskUseCaseImpl struct {
	projectRepo  repository.ProjectRepository
	taskRepo     repository.TaskRepository
	sprintRepo   repository.SprintRepository
	commentRepo  repository.CommentRepository
	activityRepo repository.ActivityRepository
	chainSvc     *service.ChainService
	reorderSvc   *service.ReorderService
	splitSvc     *service.SplitService
	txManager    output.TransactionManager
	auth         output.AuthPort
	notifier     output.Notifier
}

// NewTaskUseCaseImpl creates a new task use case implementation
func NewTaskUseCaseImpl(
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	sprintRepo repository.SprintRepository,
	commentRepo repository.CommentRepository,
	activityRepo repository.ActivityRepository,
	chainSvc *service.ChainService,
	reorderSvc *service.ReorderService,
	splitSvc *service.SplitService,
	txManager output.TransactionManager,
	auth output.AuthPort,
	notifier output.Notifier,
) *TaskUseCaseImpl {
	return &TaskUseCaseImpl{
		projectRepo:  projectRepo,
		taskRepo:     taskRepo,
		sprintRepo:   sprintRepo,
		commentRepo:  commentRepo,
		activityRepo: activityRepo,
		chainSvc:     chainSvc,
		reorderSvc:   reorderSvc,
		splitSvc:     splitSvc,
		txManager:    txManager,
		auth:         auth,
		notifier:     notifier,
	}
}

// CreateTask creates a task at the end of its container and records a
// CREATED activity
func (uc *TaskUseCaseImpl) CreateTask(ctx context.Context, req dto.CreateTaskRequest) (*dto.TaskDTO, error) {
	if req.Title == "" {
		return nil, errors.New("title is required")
	}
	priority := model.Priority(req.Priority)
	if req.Priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("invalid priority: %s", req.Priority)
	}

	actor, err := uc.auth.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}

	var created *domaintask.Task
	err = uc.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		proj, err := uc.projectRepo.FindByKey(txCtx, req.ProjectKey)
		if err != nil {
			return err
		}

		sprintID, err := uc.resolveSprint(txCtx, proj.ID(), req.SprintID)
		if err != nil {
			return err
		}

		counter, err := uc.projectRepo.IncrementTaskCounter(txCtx, proj.ID())
		if err != nil {
			return err
		}

		container := repository.Container{ProjectID: proj.ID(), SprintID: sprintID}
		max, err := uc.taskRepo.MaxPosition(txCtx, container)
		if err != nil {
			return err
		}

		created, err = domaintask.NewTask(domaintask.NewTaskParams{
			Key:         project.TaskKey(proj.Key(), counter),
			Number:      counter,
			ProjectID:   proj.ID(),
			Title:       req.Title,
			Description: req.Description,
			Priority:    priority,
			Position:    max + 1,
			Team:        req.Team,
			SprintID:    sprintID,
			Assignee:    req.Assignee,
			CreatedBy:   actor.Name,
		})
		if err != nil {
			return err
		}
		if err := uc.taskRepo.Save(txCtx, created); err != nil {
			return err
		}

		a, err := activity.NewActivity(created.ID(), actor.Name, model.ActivityCreated, map[string]interface{}{
			"title": created.Title(),
		})
		if err != nil {
			return err
		}
		return uc.activityRepo.Append(txCtx, a)
	})
	if err != nil {
		return nil, err
	}

	if created.Assignee() != nil {
		uc.notifyBestEffort(output.Event{
			Type:      output.EventAssigned,
			Actor:     actor.Name,
			Recipient: *created.Assignee(),
			TaskKey:   created.Key(),
			Message:   fmt.Sprintf("%s assigned you %s: %s", actor.Name, created.Key(), created.Title()),
		})
	}

	return taskToDTO(created), nil
}

// MoveTask repositions a task within or across containers, preserving the
// dense position sequence on both sides, and records a MOVED_TO_SPRINT
// activity when the container changed
func (uc *TaskUseCaseImpl) MoveTask(ctx context.Context, req dto.MoveTaskRequest) (*dto.TaskDTO, error) {
	actor, err := uc.auth.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}

	var moved *domaintask.Task
	err = uc.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		t, err := uc.taskRepo.FindByKey(txCtx, req.TaskKey)
		if err != nil {
			return err
		}

		sprintID, err := uc.resolveSprint(txCtx, t.ProjectID(), req.SprintID)
		if err != nil {
			return err
		}

		source := repository.Container{ProjectID: t.ProjectID(), SprintID: t.SprintID()}
		target := repository.Container{ProjectID: t.ProjectID(), SprintID: sprintID}

		if err := uc.reorderSvc.ReorderInTx(txCtx, t.ID(), sprintID, req.Position); err != nil {
			return err
		}

		if !source.Equals(target) {
			from, err := uc.containerName(txCtx, source.SprintID)
			if err != nil {
				return err
			}
			to, err := uc.containerName(txCtx, target.SprintID)
			if err != nil {
				return err
			}
			a, err := activity.NewActivity(t.ID(), actor.Name, model.ActivityMovedToSprint, map[string]interface{}{
				"from": from,
				"to":   to,
			})
			if err != nil {
				return err
			}
			if err := uc.activityRepo.Append(txCtx, a); err != nil {
				return err
			}
		}

		moved, err = uc.taskRepo.Find(txCtx, t.ID())
		return err
	})
	if err != nil {
		return nil, err
	}

	return taskToDTO(moved), nil
}

// SplitTask creates a successor task in the lineage of the source task.
// With no explicit target sprint the successor stays in the source task's
// container.
func (uc *TaskUseCaseImpl) SplitTask(ctx context.Context, req dto.SplitTaskRequest) (*dto.TaskDTO, error) {
	actor, err := uc.auth.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}

	var successor *domaintask.Task
	err = uc.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		source, err := uc.taskRepo.FindByKey(txCtx, req.TaskKey)
		if err != nil {
			return err
		}

		dest := source.SprintID()
		if req.TargetSprintID != nil {
			resolved, err := uc.resolveSprint(txCtx, source.ProjectID(), req.TargetSprintID)
			if err != nil {
				return err
			}
			dest = resolved
		}

		successor, err = uc.splitSvc.SplitInTx(txCtx, source, dest, service.SplitOptions{
			TransferComments:    req.TransferComments,
			TransferDescription: req.TransferDescription,
		}, actor.Name)
		return err
	})
	if err != nil {
		return nil, err
	}

	if successor.Assignee() != nil {
		uc.notifyBestEffort(output.Event{
			Type:      output.EventTaskSplit,
			Actor:     actor.Name,
			Recipient: *successor.Assignee(),
			TaskKey:   successor.Key(),
			Message:   fmt.Sprintf("%s split %s into %s", actor.Name, req.TaskKey, successor.Key()),
		})
	}

	return taskToDTO(successor), nil
}

// UpdateStatus transitions a task's status and records a STATUS_CHANGED
// activity
func (uc *TaskUseCaseImpl) UpdateStatus(ctx context.Context, taskKey string, status string) (*dto.TaskDTO, error) {
	next := model.Status(status)
	if !next.IsValid() {
		return nil, fmt.Errorf("invalid status: %s", status)
	}

	actor, err := uc.auth.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}

	var updated *domaintask.Task
	err = uc.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		t, err := uc.taskRepo.FindByKey(txCtx, taskKey)
		if err != nil {
			return err
		}

		from := t.Status()
		if err := t.UpdateStatus(next); err != nil {
			return apperr.Conflict("%s", err.Error())
		}
		if err := uc.taskRepo.Save(txCtx, t); err != nil {
			return err
		}

		a, err := activity.NewActivity(t.ID(), actor.Name, model.ActivityStatusChanged, map[string]interface{}{
			"from": from.String(),
			"to":   next.String(),
		})
		if err != nil {
			return err
		}
		if err := uc.activityRepo.Append(txCtx, a); err != nil {
			return err
		}

		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return taskToDTO(updated), nil
}

// Assign sets or clears the assignee and records an ASSIGNED activity
func (uc *TaskUseCaseImpl) Assign(ctx context.Context, taskKey string, assignee *string) (*dto.TaskDTO, error) {
	actor, err := uc.auth.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}

	var updated *domaintask.Task
	err = uc.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		t, err := uc.taskRepo.FindByKey(txCtx, taskKey)
		if err != nil {
			return err
		}

		t.Assign(assignee)
		if err := uc.taskRepo.Save(txCtx, t); err != nil {
			return err
		}

		name := ""
		if assignee != nil {
			name = *assignee
		}
		a, err := activity.NewActivity(t.ID(), actor.Name, model.ActivityAssigned, map[string]interface{}{
			"assignee": name,
		})
		if err != nil {
			return err
		}
		if err := uc.activityRepo.Append(txCtx, a); err != nil {
			return err
		}

		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if assignee != nil {
		uc.notifyBestEffort(output.Event{
			Type:      output.EventAssigned,
			Actor:     actor.Name,
			Recipient: *assignee,
			TaskKey:   updated.Key(),
			Message:   fmt.Sprintf("%s assigned you %s: %s", actor.Name, updated.Key(), updated.Title()),
		})
	}

	return taskToDTO(updated), nil
}

// AddComment attaches a comment to a task, records a COMMENTED activity
// and notifies mentioned users best-effort
func (uc *TaskUseCaseImpl) AddComment(ctx context.Context, taskKey string, body string) (*dto.CommentDTO, error) {
	actor, err := uc.auth.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}

	var added *comment.Comment
	var addedTaskKey string
	err = uc.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		t, err := uc.taskRepo.FindByKey(txCtx, taskKey)
		if err != nil {
			return err
		}
		addedTaskKey = t.Key()

		added, err = comment.NewComment(t.ID(), actor.Name, body)
		if err != nil {
			return err
		}
		if err := uc.commentRepo.Save(txCtx, added); err != nil {
			return err
		}

		a, err := activity.NewActivity(t.ID(), actor.Name, model.ActivityCommented, map[string]interface{}{
			"comment_id": added.ID(),
		})
		if err != nil {
			return err
		}
		return uc.activityRepo.Append(txCtx, a)
	})
	if err != nil {
		return nil, err
	}

	for _, name := range added.Mentions() {
		uc.notifyBestEffort(output.Event{
			Type:      output.EventMentioned,
			Actor:     actor.Name,
			Recipient: name,
			TaskKey:   addedTaskKey,
			Message:   fmt.Sprintf("%s mentioned you on %s", actor.Name, addedTaskKey),
		})
	}

	return commentToDTO(added), nil
}

// GetTask retrieves a task by key
func (uc *TaskUseCaseImpl) GetTask(ctx context.Context, taskKey string) (*dto.TaskDTO, error) {
	t, err := uc.taskRepo.FindByKey(ctx, taskKey)
	if err != nil {
		return nil, err
	}
	return taskToDTO(t), nil
}

// GetChain materializes the split lineage of a task for display
func (uc *TaskUseCaseImpl) GetChain(ctx context.Context, taskKey string) (*dto.ChainDTO, error) {
	t, err := uc.taskRepo.FindByKey(ctx, taskKey)
	if err != nil {
		return nil, err
	}

	chain, err := uc.chainSvc.MaterializeChain(ctx, t.ID())
	if err != nil {
		return nil, err
	}
	return chainToDTO(chain), nil
}

// ListTasks retrieves tasks of one container ordered by position
func (uc *TaskUseCaseImpl) ListTasks(ctx context.Context, projectKey string, sprintID *string) ([]dto.TaskDTO, error) {
	proj, err := uc.projectRepo.FindByKey(ctx, projectKey)
	if err != nil {
		return nil, err
	}

	resolved, err := uc.resolveSprint(ctx, proj.ID(), sprintID)
	if err != nil {
		return nil, err
	}

	tasks, err := uc.taskRepo.ListByContainer(ctx, repository.Container{ProjectID: proj.ID(), SprintID: resolved})
	if err != nil {
		return nil, err
	}

	dtos := make([]dto.TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		dtos = append(dtos, *taskToDTO(t))
	}
	return dtos, nil
}

// History retrieves the audit log of a task
func (uc *TaskUseCaseImpl) History(ctx context.Context, taskKey string) ([]dto.ActivityDTO, error) {
	t, err := uc.taskRepo.FindByKey(ctx, taskKey)
	if err != nil {
		return nil, err
	}

	activities, err := uc.activityRepo.ListByTask(ctx, t.ID())
	if err != nil {
		return nil, err
	}

	dtos := make([]dto.ActivityDTO, 0, len(activities))
	for _, a := range activities {
		dtos = append(dtos, dto.ActivityDTO{
			ID:        a.ID(),
			TaskID:    a.TaskID().String(),
			Actor:     a.Actor(),
			Type:      a.Type().String(),
			Metadata:  a.Metadata(),
			CreatedAt: a.CreatedAt().Value(),
		})
	}
	return dtos, nil
}

// resolveSprint validates a sprint reference and checks project ownership.
// A nil id resolves to the backlog.
func (uc *TaskUseCaseImpl) resolveSprint(ctx context.Context, projectID model.ProjectID, sprintID *string) (*model.SprintID, error) {
	if sprintID == nil {
		return nil, nil
	}
	id, err := model.NewSprintIDFromString(*sprintID)
	if err != nil {
		return nil, err
	}
	sp, err := uc.sprintRepo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sp.ProjectID().Equals(projectID) {
		return nil, apperr.Precondition("sprint %s belongs to a different project", *sprintID)
	}
	resolved := sp.ID()
	return &resolved, nil
}

func (uc *TaskUseCaseImpl) containerName(ctx context.Context, sprintID *model.SprintID) (string, error) {
	if sprintID == nil {
		return "Backlog", nil
	}
	sp, err := uc.sprintRepo.Find(ctx, *sprintID)
	if err != nil {
		return "", err
	}
	return sp.Name(), nil
}

// notifyBestEffort delivers an event, logging delivery failures instead of
// failing the committed mutation
func (uc *TaskUseCaseImpl) notifyBestEffort(event output.Event) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Notify(event); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s notification not delivered: %v\n", event.Type, err)
	}
}
