package service

import (
	"context"
	"fmt"

	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/activity"
	"github.com/anchorworks/sprintflow/internal/domain/model/project"
	"github.com/anchorworks/sprintflow/internal/domain/model/task"
	"github.com/anchorworks/sprintflow/internal/domain/repository"
)

// SplitOptions controls what a split carries over to the successor task
type SplitOptions struct {
	TransferComments    bool
	TransferDescription bool
}

// SplitService creates a successor task in a split lineage. It must run
// inside a transaction opened by the caller: the counter increment, task
// insert, comment copies and the activity pair all commit or roll back
// together, so a failed split never leaves a half-created task or a
// consumed-but-unused task number observable.
type SplitService struct {
	projectRepo  repository.ProjectRepository
	taskRepo     repository.TaskRepository
	sprintRepo   repository.SprintRepository
	commentRepo  repository.CommentRepository
	activityRepo repository.ActivityRepository
	chainSvc     *ChainService
}

// NewSplitService creates a new split service
func NewSplitService(
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	sprintRepo repository.SprintRepository,
	commentRepo repository.CommentRepository,
	activityRepo repository.ActivityRepository,
	chainSvc *ChainService,
) *SplitService {
	return &SplitService{
		projectRepo:  projectRepo,
		taskRepo:     taskRepo,
		sprintRepo:   sprintRepo,
		commentRepo:  commentRepo,
		activityRepo: activityRepo,
		chainSvc:     chainSvc,
	}
}

// SplitInTx splits source into a new task appended at the end of the
// destination container (destSprintID nil = backlog). The sequence number
// and title are computed before the successor exists. The source task's
// own status and title are untouched.
func (s *SplitService) SplitInTx(ctx context.Context, source *task.Task, destSprintID *model.SprintID, opts SplitOptions, actor string) (*task.Task, error) {
	seq, err := s.chainSvc.NextSequenceNumber(ctx, source.ID())
	if err != nil {
		return nil, err
	}
	newTitle := fmt.Sprintf("%s #%d", BaseTitle(source.Title()), seq)

	proj, err := s.projectRepo.Find(ctx, source.ProjectID())
	if err != nil {
		return nil, err
	}
	counter, err := s.projectRepo.IncrementTaskCounter(ctx, proj.ID())
	if err != nil {
		return nil, err
	}
	newKey := project.TaskKey(proj.Key(), counter)

	dest := repository.Container{ProjectID: source.ProjectID(), SprintID: destSprintID}
	max, err := s.taskRepo.MaxPosition(ctx, dest)
	if err != nil {
		return nil, err
	}

	var description *string
	if opts.TransferDescription {
		description = source.Description()
	}

	sourceID := source.ID()
	successor, err := task.NewTask(task.NewTaskParams{
		Key:         newKey,
		Number:      counter,
		ProjectID:   source.ProjectID(),
		Title:       newTitle,
		Description: description,
		Priority:    source.Priority(),
		Position:    max + 1,
		Team:        source.Team(),
		SprintID:    destSprintID,
		SplitFromID: &sourceID,
		Assignee:    source.Assignee(),
		CreatedBy:   actor,
	})
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Save(ctx, successor); err != nil {
		return nil, err
	}

	copied := 0
	if opts.TransferComments {
		comments, err := s.commentRepo.ListByTask(ctx, source.ID())
		if err != nil {
			return nil, err
		}
		for _, c := range comments {
			if err := s.commentRepo.Save(ctx, c.CopyTo(successor.ID())); err != nil {
				return nil, err
			}
		}
		copied = len(comments)
	}

	destName, err := s.containerName(ctx, destSprintID)
	if err != nil {
		return nil, err
	}
	sourceName, err := s.containerName(ctx, source.SprintID())
	if err != nil {
		return nil, err
	}

	splitActivity, err := activity.NewActivity(source.ID(), actor, model.ActivitySplit, map[string]interface{}{
		"new_task_id":     successor.ID().String(),
		"new_task_key":    successor.Key(),
		"new_task_title":  successor.Title(),
		"sequence":        seq,
		"target_sprint":   destName,
		"comments_copied": copied,
	})
	if err != nil {
		return nil, err
	}
	if err := s.activityRepo.Append(ctx, splitActivity); err != nil {
		return nil, err
	}

	createdActivity, err := activity.NewActivity(successor.ID(), actor, model.ActivityCreated, map[string]interface{}{
		"split_from_id":  source.ID().String(),
		"split_from_key": source.Key(),
		"source_sprint":  sourceName,
		"sequence":       seq,
	})
	if err != nil {
		return nil, err
	}
	if err := s.activityRepo.Append(ctx, createdActivity); err != nil {
		return nil, err
	}

	return successor, nil
}

func (s *SplitService) containerName(ctx context.Context, sprintID *model.SprintID) (string, error) {
	if sprintID == nil {
		return backlogContainerName, nil
	}
	sp, err := s.sprintRepo.Find(ctx, *sprintID)
	if err != nil {
		return "", err
	}
	return sp.Name(), nil
}
