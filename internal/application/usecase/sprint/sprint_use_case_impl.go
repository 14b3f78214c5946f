package sprint

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
	domainsprint "github.com/anchorworks/sprintflow/internal/domain/model/sprint"
	domaintask "github.com/anchorworks/sprintflow/internal/domain/model/task"
	"github.com/anchorworks/sprintflow/internal/domain/repository"
)

// uatCloseReason is recorded on STATUS_CHANGED activities written by the
// bulk close and split paths
const uatCloseReason = "Sprint moved to UAT"

// SprintUseCaseImpl orchestrates sprint lifecycle operations, including the
// bulk UAT transition that closes, moves or splits every unfinished task.
type SprintUseCaseImpl struct {
	projectRepo  repository.ProjectRepository
	taskRepo     repository.TaskRepository
	sprintRepo   repository.SprintRepository
	activityRepo repository.ActivityRepository
	splitSvc     *service.SplitService
	txManager    output.TransactionManager
	auth         output.AuthPort
	notifier     output.Notifier
}

// NewSprintUseCaseImpl creates a new sprint use case implementation
func NewSprintUseCaseImpl(
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	sprintRepo repository.SprintRepository,
	activityRepo repository.ActivityRepository,
	splitSvc *service.SplitService,
	txManager output.TransactionManager,
	auth output.AuthPort,
	notifier output.Notifier,
) *SprintUseCaseImpl {
	return &SprintUseCaseImpl{
		projectRepo:  projectRepo,
		taskRepo:     taskRepo,
		sprintRepo:   sprintRepo,
		activityRepo: activityRepo,
		splitSvc:     splitSvc,
		txManager:    txManager,
		auth:         auth,
		notifier:     notifier,
	}
}

// CreateSprint creates a PLANNED sprint at the end of the project's sprint
// sequence
func (uc *SprintUseCaseImpl) CreateSprint(ctx context.Context, req dto.CreateSprintRequest) (*dto.SprintDTO, error) {
	if req.Name == "" {
		return nil, errors.New("sprint name is required")
	}
	if _, err := uc.auth.CurrentActor(ctx); err != nil {
		return nil, err
	}

	var created *domainsprint.Sprint
	err := uc.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		proj, err := uc.projectRepo.FindByKey(txCtx, req.ProjectKey)
		if err != nil {
			return err
		}

		max, err := uc.sprintRepo.MaxPosition(txCtx, proj.ID())
		if err != nil {
			return err
		}

		created, err = domainsprint.NewSprint(proj.ID(), req.Name, max+1)
		if err != nil {
			return err
		}
		if err := created.SetDates(req.StartDate, req.EndDate); err != nil {
			return err
		}
		return uc.sprintRepo.Save(txCtx, created)
	})
	if err != nil {
		return nil, err
	}

	return uc.sprintToDTO(ctx, created, false)
}

// StartSprint activates a PLANNED sprint. At most one sprint per project
// may be ACTIVE, since the active sprint anchors the next-planned
// resolution used by the UAT bulk actions.
func (uc *SprintUseCaseImpl) StartSprint(ctx context.Context, sprintID string) (*dto.SprintDTO, error) {
	if _, err := uc.auth.CurrentActor(ctx); err != nil {
		return nil, err
	}

	id, err := model.NewSprintIDFromString(sprintID)
	if err != nil {
		return nil, err
	}

	var started *domainsprint.Sprint
	err = uc.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		sp, err := uc.sprintRepo.Find(txCtx, id)
		if err != nil {
			return err
		}

		active, err := uc.sprintRepo.FindActive(txCtx, sp.ProjectID())
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		if active != nil && !active.ID().Equals(sp.ID()) {
			return apperr.Precondition("sprint %s is already active", active.Name())
		}

		if err := sp.UpdateStatus(model.SprintActive); err != nil {
			return apperr.Conflict("%s", err.Error())
		}
		if err := uc.sprintRepo.Save(txCtx, sp); err != nil {
			return err
		}
		started = sp
		return nil
	})
	if err != nil {
		return nil, err
	}

	return uc.sprintToDTO(ctx, started, false)
}

// CompleteSprint closes out a UAT sprint
func (uc *SprintUseCaseImpl) CompleteSprint(ctx context.Context, sprintID string) (*dto.SprintDTO, error) {
	if _, err := uc.auth.CurrentActor(ctx); err != nil {
		return nil, err
	}

	id, err := model.NewSprintIDFromString(sprintID)
	if err != nil {
		return nil, err
	}

	var completed *domainsprint.Sprint
	err = uc.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		sp, err := uc.sprintRepo.Find(txCtx, id)
		if err != nil {
			return err
		}
		if err := sp.UpdateStatus(model.SprintCompleted); err != nil {
			return apperr.Conflict("%s", err.Error())
		}
		if err := uc.sprintRepo.Save(txCtx, sp); err != nil {
			return err
		}
		completed = sp
		return nil
	})
	if err != nil {
		return nil, err
	}

	return uc.sprintToDTO(ctx, completed, false)
}

// ReactivateSprint moves a UAT or COMPLETED sprint back to ACTIVE.
// Admin only.
func (uc *SprintUseCaseImpl) ReactivateSprint(ctx context.Context, sprintID string) (*dto.SprintDTO, error) {
	actor, err := uc.auth.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("sprint reactivation requires the admin role")
	}

	id, err := model.NewSprintIDFromString(sprintID)
	if err != nil {
		return nil, err
	}

	var reactivated *domainsprint.Sprint
	err = uc.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		sp, err := uc.sprintRepo.Find(txCtx, id)
		if err != nil {
			return err
		}

		active, err := uc.sprintRepo.FindActive(txCtx, sp.ProjectID())
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		if active != nil && !active.ID().Equals(sp.ID()) {
			return apperr.Precondition("sprint %s is already active", active.Name())
		}

		if err := sp.Reactivate(); err != nil {
			return apperr.Conflict("%s", err.Error())
		}
		if err := uc.sprintRepo.Save(txCtx, sp); err != nil {
			return err
		}
		reactivated = sp
		return nil
	})
	if err != nil {
		return nil, err
	}

	return uc.sprintToDTO(ctx, reactivated, false)
}

// ListSprints retrieves a project's sprints ordered by position
func (uc *SprintUseCaseImpl) ListSprints(ctx context.Context, projectKey string) ([]dto.SprintDTO, error) {
	proj, err := uc.projectRepo.FindByKey(ctx, projectKey)
	if err != nil {
		return nil, err
	}

	sprints, err := uc.sprintRepo.ListByProject(ctx, proj.ID())
	if err != nil {
		return nil, err
	}

	dtos := make([]dto.SprintDTO, 0, len(sprints))
	for _, sp := range sprints {
		d, err := uc.sprintToDTO(ctx, sp, false)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *d)
	}
	return dtos, nil
}

// TransitionToUAT moves an ACTIVE sprint into UAT, applying the requested
// action to every task still in TODO, IN_PROGRESS or BLOCKED. Tasks in
// READY_TO_TEST, DONE or LIVE stay untouched. The destination sprint for
// move_all/split_all is resolved before anything mutates; when none can be
// resolved the whole call fails and the sprint is left unmodified.
func (uc *SprintUseCaseImpl) TransitionToUAT(ctx context.Context, req dto.TransitionToUATRequest) (*dto.SprintDTO, error) {
	actor, err := uc.auth.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("the UAT transition requires the admin role")
	}
	if !req.Action.IsValid() {
		return nil, fmt.Errorf("invalid UAT action: %s", req.Action)
	}

	id, err := model.NewSprintIDFromString(req.SprintID)
	if err != nil {
		return nil, err
	}

	var transitioned *domainsprint.Sprint
	err = uc.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		sp, err := uc.sprintRepo.Find(txCtx, id)
		if err != nil {
			return err
		}
		if sp.Status() != model.SprintActive {
			return apperr.Conflict("sprint %s is %s, only an ACTIVE sprint can enter UAT", sp.Name(), sp.Status())
		}

		container := repository.NewSprintContainer(sp.ProjectID(), sp.ID())
		all, err := uc.taskRepo.ListByContainer(txCtx, container)
		if err != nil {
			return err
		}
		var open []*domaintask.Task
		for _, t := range all {
			if t.Status().IsOpen() {
				open = append(open, t)
			}
		}

		var dest *domainsprint.Sprint
		if req.Action == dto.UATMoveAll || req.Action == dto.UATSplitAll {
			dest, err = uc.resolveDestination(txCtx, sp, req.TargetSprintID)
			if err != nil {
				return err
			}
		}

		switch req.Action {
		case dto.UATCloseAll:
			err = uc.closeAll(txCtx, open, actor.Name)
		case dto.UATMoveAll:
			err = uc.moveAll(txCtx, sp, dest, open, actor.Name)
		case dto.UATSplitAll:
			err = uc.splitAll(txCtx, dest, open, actor.Name)
		}
		if err != nil {
			return err
		}

		if err := sp.UpdateStatus(model.SprintUAT); err != nil {
			return apperr.Conflict("%s", err.Error())
		}
		if err := uc.sprintRepo.Save(txCtx, sp); err != nil {
			return err
		}
		transitioned = sp
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.notifyBestEffort(output.Event{
		Type:    output.EventSprintTransition,
		Actor:   actor.Name,
		Sprint:  transitioned.Name(),
		Message: fmt.Sprintf("%s moved sprint %q to UAT (%s)", actor.Name, transitioned.Name(), req.Action),
	})

	return uc.sprintToDTO(ctx, transitioned, true)
}

// resolveDestination picks the move/split destination: the explicit target
// if given, else the lowest-position PLANNED sprint of the project
func (uc *SprintUseCaseImpl) resolveDestination(ctx context.Context, sp *domainsprint.Sprint, targetSprintID *string) (*domainsprint.Sprint, error) {
	if targetSprintID != nil {
		targetID, err := model.NewSprintIDFromString(*targetSprintID)
		if err != nil {
			return nil, err
		}
		dest, err := uc.sprintRepo.Find(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if !dest.ProjectID().Equals(sp.ProjectID()) {
			return nil, apperr.Precondition("sprint %s belongs to a different project", *targetSprintID)
		}
		if dest.ID().Equals(sp.ID()) {
			return nil, apperr.Precondition("target sprint is the sprint being transitioned")
		}
		return dest, nil
	}

	dest, err := uc.sprintRepo.FindNextPlanned(ctx, sp.ProjectID())
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Precondition("no target sprint: no PLANNED sprint exists and none was specified")
	}
	if err != nil {
		return nil, err
	}
	return dest, nil
}

// closeAll marks every open task DONE with a STATUS_CHANGED activity
func (uc *SprintUseCaseImpl) closeAll(ctx context.Context, open []*domaintask.Task, actor string) error {
	for _, t := range open {
		if err := uc.closeTask(ctx, t, actor); err != nil {
			return err
		}
	}
	return nil
}

func (uc *SprintUseCaseImpl) closeTask(ctx context.Context, t *domaintask.Task, actor string) error {
	from := t.Status()
	if err := t.ForceStatus(model.StatusDone); err != nil {
		return err
	}
	if err := uc.taskRepo.Save(ctx, t); err != nil {
		return err
	}

	a, err := activity.NewActivity(t.ID(), actor, model.ActivityStatusChanged, map[string]interface{}{
		"from":   from.String(),
		"to":     model.StatusDone.String(),
		"reason": uatCloseReason,
	})
	if err != nil {
		return err
	}
	return uc.activityRepo.Append(ctx, a)
}

// moveAll reassigns every open task to the destination sprint, appending in
// source order behind the destination's existing tasks, then renumbers the
// source sprint so its remaining tasks stay dense
func (uc *SprintUseCaseImpl) moveAll(ctx context.Context, sp, dest *domainsprint.Sprint, open []*domaintask.Task, actor string) error {
	destContainer := repository.NewSprintContainer(dest.ProjectID(), dest.ID())
	next, err := uc.taskRepo.MaxPosition(ctx, destContainer)
	if err != nil {
		return err
	}
	next++

	destID := dest.ID()
	for _, t := range open {
		if err := t.Relocate(&destID, next); err != nil {
			return err
		}
		next++
		if err := uc.taskRepo.Save(ctx, t); err != nil {
			return err
		}

		a, err := activity.NewActivity(t.ID(), actor, model.ActivityMovedToSprint, map[string]interface{}{
			"from":   sp.Name(),
			"to":     dest.Name(),
			"reason": uatCloseReason,
		})
		if err != nil {
			return err
		}
		if err := uc.activityRepo.Append(ctx, a); err != nil {
			return err
		}
	}

	return uc.renumber(ctx, repository.NewSprintContainer(sp.ProjectID(), sp.ID()))
}

// splitAll closes every open task and creates its successor in the
// destination sprint, comments copied unconditionally
func (uc *SprintUseCaseImpl) splitAll(ctx context.Context, dest *domainsprint.Sprint, open []*domaintask.Task, actor string) error {
	destID := dest.ID()
	for _, t := range open {
		if err := uc.closeTask(ctx, t, actor); err != nil {
			return err
		}
		_, err := uc.splitSvc.SplitInTx(ctx, t, &destID, service.SplitOptions{
			TransferComments:    true,
			TransferDescription: true,
		}, actor)
		if err != nil {
			return err
		}
	}
	return nil
}

// renumber rewrites a container's positions as 0..n-1 in current order
func (uc *SprintUseCaseImpl) renumber(ctx context.Context, c repository.Container) error {
	remaining, err := uc.taskRepo.ListByContainer(ctx, c)
	if err != nil {
		return err
	}
	for i, t := range remaining {
		if t.Position() == i {
			continue
		}
		if err := t.Relocate(c.SprintID, i); err != nil {
			return err
		}
		if err := uc.taskRepo.Save(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (uc *SprintUseCaseImpl) sprintToDTO(ctx context.Context, sp *domainsprint.Sprint, withTasks bool) (*dto.SprintDTO, error) {
	d := &dto.SprintDTO{
		ID:        sp.ID().String(),
		ProjectID: sp.ProjectID().String(),
		Name:      sp.Name(),
		Status:    sp.Status().String(),
		Position:  sp.Position(),
		StartDate: sp.StartDate(),
		EndDate:   sp.EndDate(),
	}

	if withTasks {
		tasks, err := uc.taskRepo.ListByContainer(ctx, repository.NewSprintContainer(sp.ProjectID(), sp.ID()))
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			var sprintID *string
			if t.SprintID() != nil {
				s := t.SprintID().String()
				sprintID = &s
			}
			var splitFromID *string
			if t.SplitFromID() != nil {
				s := t.SplitFromID().String()
				splitFromID = &s
			}
			d.Tasks = append(d.Tasks, dto.TaskDTO{
				ID:          t.ID().String(),
				Key:         t.Key(),
				Number:      t.Number(),
				ProjectID:   t.ProjectID().String(),
				Title:       t.Title(),
				Description: t.Description(),
				Status:      t.Status().String(),
				Priority:    t.Priority().String(),
				Position:    t.Position(),
				Team:        t.Team(),
				SprintID:    sprintID,
				SplitFromID: splitFromID,
				Assignee:    t.Assignee(),
				CreatedBy:   t.CreatedBy(),
				CreatedAt:   t.CreatedAt().Value(),
				UpdatedAt:   t.UpdatedAt().Value(),
			})
		}
	}

	return d, nil
}

// notifyBestEffort delivers an event, logging delivery failures instead of
// failing the committed mutation
func (uc *SprintUseCaseImpl) notifyBestEffort(event output.Event) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Notify(event); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s notification not delivered: %v\n", event.Type, err)
	}
}
