package service

import (
	"context"

	"github.com/anchorworks/sprintflow/internal/application/port/output"
	"github.com/anchorworks/sprintflow/internal/domain/apperr"
	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/repository"
)

// ReorderService maintains the dense-position invariant when a task moves
// within a container or between two containers. All row shifts and the
// final task move commit as one transaction; a partial application is never
// observable.
//
// This primitive emits no activity records. Callers that need an audit
// trail record it themselves.
type ReorderService struct {
	taskRepo   repository.TaskRepository
	sprintRepo repository.SprintRepository
	txManager  output.TransactionManager
}

// NewReorderService creates a new reorder service
func NewReorderService(
	taskRepo repository.TaskRepository,
	sprintRepo repository.SprintRepository,
	txManager output.TransactionManager,
) *ReorderService {
	return &ReorderService{
		taskRepo:   taskRepo,
		sprintRepo: sprintRepo,
		txManager:  txManager,
	}
}

// Reorder moves a task to newPosition within the target container
// (targetSprintID nil = project backlog).
func (s *ReorderService) Reorder(ctx context.Context, taskID model.TaskID, targetSprintID *model.SprintID, newPosition int) error {
	return s.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		return s.reorderInTx(txCtx, taskID, targetSprintID, newPosition)
	})
}

// ReorderInTx runs the reorder inside an already-open transaction. Used by
// workflows that compose the reorder with other mutations.
func (s *ReorderService) ReorderInTx(ctx context.Context, taskID model.TaskID, targetSprintID *model.SprintID, newPosition int) error {
	return s.reorderInTx(ctx, taskID, targetSprintID, newPosition)
}

func (s *ReorderService) reorderInTx(ctx context.Context, taskID model.TaskID, targetSprintID *model.SprintID, newPosition int) error {
	t, err := s.taskRepo.Find(ctx, taskID)
	if err != nil {
		return err
	}

	source := repository.Container{ProjectID: t.ProjectID(), SprintID: t.SprintID()}
	target := repository.Container{ProjectID: t.ProjectID(), SprintID: targetSprintID}

	// A sprint from another project cannot serve as a target container.
	if targetSprintID != nil {
		sp, err := s.sprintRepo.Find(ctx, *targetSprintID)
		if err != nil {
			return err
		}
		if !sp.ProjectID().Equals(t.ProjectID()) {
			return apperr.Precondition("sprint %s belongs to a different project", targetSprintID.String())
		}
	}

	if newPosition < 0 {
		return apperr.Precondition("position %d is negative", newPosition)
	}

	if source.Equals(target) {
		return s.moveWithinContainer(ctx, t.ID(), source, t.Position(), newPosition)
	}
	return s.moveAcrossContainers(ctx, t.ID(), source, target, t.Position(), newPosition)
}

// moveWithinContainer shifts the tasks between the old and new position by
// one and drops the task into the freed slot.
func (s *ReorderService) moveWithinContainer(ctx context.Context, id model.TaskID, c repository.Container, oldPos, newPos int) error {
	if oldPos == newPos {
		return nil
	}

	max, err := s.taskRepo.MaxPosition(ctx, c)
	if err != nil {
		return err
	}
	if newPos > max {
		return apperr.Precondition("position %d out of range [0, %d]", newPos, max)
	}

	if newPos > oldPos {
		// Moving down: everything in (oldPos, newPos] steps up by one.
		if err := s.taskRepo.ShiftPositions(ctx, c, oldPos+1, newPos, -1); err != nil {
			return err
		}
	} else {
		// Moving up: everything in [newPos, oldPos) steps down by one.
		if err := s.taskRepo.ShiftPositions(ctx, c, newPos, oldPos-1, +1); err != nil {
			return err
		}
	}

	return s.relocate(ctx, id, c.SprintID, newPos)
}

// moveAcrossContainers closes the gap left in the source container and
// opens a slot in the target container.
func (s *ReorderService) moveAcrossContainers(ctx context.Context, id model.TaskID, source, target repository.Container, oldPos, newPos int) error {
	targetMax, err := s.taskRepo.MaxPosition(ctx, target)
	if err != nil {
		return err
	}
	if newPos > targetMax+1 {
		return apperr.Precondition("position %d out of range [0, %d]", newPos, targetMax+1)
	}

	if err := s.taskRepo.ShiftPositions(ctx, source, oldPos+1, -1, -1); err != nil {
		return err
	}
	if err := s.taskRepo.ShiftPositions(ctx, target, newPos, -1, +1); err != nil {
		return err
	}

	return s.relocate(ctx, id, target.SprintID, newPos)
}

func (s *ReorderService) relocate(ctx context.Context, id model.TaskID, sprintID *model.SprintID, position int) error {
	// Reload after the shifts so the save does not clobber them with a
	// stale position snapshot.
	t, err := s.taskRepo.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := t.Relocate(sprintID, position); err != nil {
		return err
	}
	return s.taskRepo.Save(ctx, t)
}
