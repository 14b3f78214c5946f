package repository

import (
	"context"

	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/comment"
)

// CommentRepository manages task comments
type CommentRepository interface {
	// Save persists a comment
	Save(ctx context.Context, c *comment.Comment) error

	// ListByTask retrieves a task's comments ordered by creation time
	ListByTask(ctx context.Context, taskID model.TaskID) ([]*comment.Comment, error)

	// CountByTask returns the number of comments on a task
	CountByTask(ctx context.Context, taskID model.TaskID) (int, error)
}
