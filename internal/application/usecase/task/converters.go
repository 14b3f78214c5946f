package task

import (
	"github.com/anchorworks/sprintflow/internal/application/dto"
	"github.com/anchorworks/sprintflow/internal/application/service"
	"github.com/anchorworks/sprintflow/internal/domain/model/comment"
	domaintask "github.com/anchorworks/sprintflow/internal/domain/model/task"
)

func taskToDTO(t *domaintask.Task) *dto.TaskDTO {
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

	return &dto.TaskDTO{
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
	}
}

func commentToDTO(c *comment.Comment) *dto.CommentDTO {
	return &dto.CommentDTO{
		ID:        c.ID(),
		TaskID:    c.TaskID().String(),
		Author:    c.Author(),
		Body:      c.Body(),
		Mentions:  c.Mentions(),
		CreatedAt: c.CreatedAt().Value(),
	}
}

func chainToDTO(chain *service.Chain) *dto.ChainDTO {
	out := &dto.ChainDTO{SprintCount: chain.SprintCount}
	for _, n := range chain.Nodes {
		out.Nodes = append(out.Nodes, dto.ChainNodeDTO{
			ID:           n.ID,
			Key:          n.Key,
			Title:        n.Title,
			Status:       n.Status.String(),
			Priority:     n.Priority.String(),
			Sprint:       n.Sprint,
			Assignee:     n.Assignee,
			CommentCount: n.CommentCount,
			CreatedAt:    n.CreatedAt,
			Depth:        n.Depth,
			IsRoot:       n.IsRoot,
			IsCurrent:    n.IsCurrent,
		})
	}
	return out
}
