package service

import (
	"context"
	"regexp"
	"time"

	"github.com/anchorworks/sprintflow/internal/domain/apperr"
	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/task"
	"github.com/anchorworks/sprintflow/internal/domain/repository"
)

// backlogContainerName is the sprint name reported for backlog residency
const backlogContainerName = "Backlog"

var titleSuffixPattern = regexp.MustCompile(` #\d+$`)

// ChainNode is one task in a materialized split chain
type ChainNode struct {
	ID           string
	Key          string
	Title        string
	Status       model.Status
	Priority     model.Priority
	Sprint       string
	Assignee     string
	CommentCount int
	CreatedAt    time.Time
	Depth        int
	IsRoot       bool
	IsCurrent    bool
}

// Chain is a split lineage materialized for display: the root first, then
// descendants in pre-order, plus the number of distinct containers
// (sprints or backlog) the chain has passed through.
type Chain struct {
	Nodes       []ChainNode
	SprintCount int
}

// ChainService navigates and summarizes the split lineage forest. Each
// task has at most one split parent, so lineages form trees; cycles are
// impossible by construction but FindRoot still guards against one rather
// than looping forever on corrupt data.
type ChainService struct {
	taskRepo    repository.TaskRepository
	sprintRepo  repository.SprintRepository
	commentRepo repository.CommentRepository
}

// NewChainService creates a new chain service
func NewChainService(
	taskRepo repository.TaskRepository,
	sprintRepo repository.SprintRepository,
	commentRepo repository.CommentRepository,
) *ChainService {
	return &ChainService{
		taskRepo:    taskRepo,
		sprintRepo:  sprintRepo,
		commentRepo: commentRepo,
	}
}

// FindRoot walks split parent pointers up to the chain root
func (s *ChainService) FindRoot(ctx context.Context, taskID model.TaskID) (*task.Task, error) {
	visited := map[string]bool{}

	t, err := s.taskRepo.Find(ctx, taskID)
	if err != nil {
		return nil, err
	}

	for t.SplitFromID() != nil {
		if visited[t.ID().String()] {
			return nil, apperr.Conflict("split chain cycle at task %s", t.Key())
		}
		visited[t.ID().String()] = true

		parent, err := s.taskRepo.Find(ctx, *t.SplitFromID())
		if err != nil {
			return nil, err
		}
		t = parent
	}

	return t, nil
}

// NextSequenceNumber returns the ordinal suffix for the next split of the
// chain containing taskID: the chain size (root included) plus one.
// Recomputed over the whole chain on every call; chains are expected to
// stay single-digit deep.
func (s *ChainService) NextSequenceNumber(ctx context.Context, taskID model.TaskID) (int, error) {
	root, err := s.FindRoot(ctx, taskID)
	if err != nil {
		return 0, err
	}

	count, err := s.countChain(ctx, root.ID())
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}

// countChain counts the tasks in the subtree rooted at id, including id
func (s *ChainService) countChain(ctx context.Context, id model.TaskID) (int, error) {
	children, err := s.taskRepo.FindChildren(ctx, id)
	if err != nil {
		return 0, err
	}

	count := 1
	for _, child := range children {
		sub, err := s.countChain(ctx, child.ID())
		if err != nil {
			return 0, err
		}
		count += sub
	}
	return count, nil
}

// BaseTitle strips a single trailing " #<digits>" suffix, recovering the
// display title shared by all members of a chain
func BaseTitle(title string) string {
	return titleSuffixPattern.ReplaceAllString(title, "")
}

// MaterializeChain returns the full chain containing taskID, root first,
// descendants in pre-order creation order
func (s *ChainService) MaterializeChain(ctx context.Context, taskID model.TaskID) (*Chain, error) {
	root, err := s.FindRoot(ctx, taskID)
	if err != nil {
		return nil, err
	}

	chain := &Chain{}
	sprintNames := map[string]string{}
	containers := map[string]bool{}

	var walk func(t *task.Task, depth int) error
	walk = func(t *task.Task, depth int) error {
		node, err := s.buildNode(ctx, t, depth, taskID, sprintNames)
		if err != nil {
			return err
		}
		containers[containerKey(t)] = true
		chain.Nodes = append(chain.Nodes, node)

		children, err := s.taskRepo.FindChildren(ctx, t.ID())
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := walk(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, 0); err != nil {
		return nil, err
	}

	chain.SprintCount = len(containers)
	return chain, nil
}

func (s *ChainService) buildNode(ctx context.Context, t *task.Task, depth int, current model.TaskID, sprintNames map[string]string) (ChainNode, error) {
	sprintName := backlogContainerName
	if t.SprintID() != nil {
		id := t.SprintID().String()
		name, ok := sprintNames[id]
		if !ok {
			sp, err := s.sprintRepo.Find(ctx, *t.SprintID())
			if err != nil {
				return ChainNode{}, err
			}
			name = sp.Name()
			sprintNames[id] = name
		}
		sprintName = name
	}

	commentCount, err := s.commentRepo.CountByTask(ctx, t.ID())
	if err != nil {
		return ChainNode{}, err
	}

	assignee := ""
	if t.Assignee() != nil {
		assignee = *t.Assignee()
	}

	return ChainNode{
		ID:           t.ID().String(),
		Key:          t.Key(),
		Title:        t.Title(),
		Status:       t.Status(),
		Priority:     t.Priority(),
		Sprint:       sprintName,
		Assignee:     assignee,
		CommentCount: commentCount,
		CreatedAt:    t.CreatedAt().Value(),
		Depth:        depth,
		IsRoot:       t.SplitFromID() == nil,
		IsCurrent:    t.ID().Equals(current),
	}, nil
}

func containerKey(t *task.Task) string {
	if t.SprintID() == nil {
		return backlogContainerName
	}
	return t.SprintID().String()
}
