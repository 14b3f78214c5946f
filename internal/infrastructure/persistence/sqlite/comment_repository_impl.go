package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/comment"
	"github.com/anchorworks/sprintflow/internal/domain/repository"
	"github.com/anchorworks/sprintflow/internal/infrastructure/transaction"
)

// CommentRepositoryImpl implements repository.CommentRepository with SQLite
type CommentRepositoryImpl struct {
	db *sql.DB
}

// NewCommentRepository creates a new SQLite-based comment repository
func NewCommentRepository(db *sql.DB) repository.CommentRepository {
	return &CommentRepositoryImpl{db: db}
}

// getDB returns the appropriate database executor from context
func (r *CommentRepositoryImpl) getDB(ctx context.Context) dbExecutor {
	if tx, ok := transaction.GetTxFromContext(ctx); ok {
		return tx
	}
	return r.db
}

// Save persists a comment
func (r *CommentRepositoryImpl) Save(ctx context.Context, c *comment.Comment) error {
	mentions := c.Mentions()
	if mentions == nil {
		mentions = []string{}
	}
	mentionsJSON, err := json.Marshal(mentions)
	if err != nil {
		return fmt.Errorf("marshal mentions failed: %w", err)
	}

	query := `
		INSERT INTO comments (id, task_id, author, body, mentions, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	db := r.getDB(ctx)
	_, err = db.ExecContext(ctx, query,
		c.ID(), c.TaskID().String(), c.Author(), c.Body(), string(mentionsJSON), c.CreatedAt().Value(),
	)
	if err != nil {
		return fmt.Errorf("save comment failed: %w", err)
	}

	return nil
}

// ListByTask retrieves a task's comments ordered by creation time
func (r *CommentRepositoryImpl) ListByTask(ctx context.Context, taskID model.TaskID) ([]*comment.Comment, error) {
	query := `
		SELECT id, task_id, author, body, mentions, created_at
		FROM comments
		WHERE task_id = ?
		ORDER BY created_at ASC, id ASC
	`

	db := r.getDB(ctx)
	rows, err := db.QueryContext(ctx, query, taskID.String())
	if err != nil {
		return nil, fmt.Errorf("list comments failed: %w", err)
	}
	defer rows.Close()

	var comments []*comment.Comment
	for rows.Next() {
		var (
			id, tID, author, body, mentionsJSON string
			createdAt                           time.Time
		)
		if err := rows.Scan(&id, &tID, &author, &body, &mentionsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan comment failed: %w", err)
		}

		var mentions []string
		if err := json.Unmarshal([]byte(mentionsJSON), &mentions); err != nil {
			return nil, fmt.Errorf("unmarshal mentions failed: %w", err)
		}

		cTaskID, err := model.NewTaskIDFromString(tID)
		if err != nil {
			return nil, err
		}

		comments = append(comments, comment.ReconstructComment(id, cTaskID, author, body, mentions, createdAt))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments failed: %w", err)
	}
	return comments, nil
}

// CountByTask returns the number of comments on a task
func (r *CommentRepositoryImpl) CountByTask(ctx context.Context, taskID model.TaskID) (int, error) {
	var count int
	db := r.getDB(ctx)
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments WHERE task_id = ?", taskID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count comments failed: %w", err)
	}
	return count, nil
}
