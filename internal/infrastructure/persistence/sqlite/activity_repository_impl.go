package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/activity"
	"github.com/anchorworks/sprintflow/internal/domain/repository"
	"github.com/anchorworks/sprintflow/internal/infrastructure/transaction"
)

// ActivityRepositoryImpl implements repository.ActivityRepository with SQLite
type ActivityRepositoryImpl struct {
	db *sql.DB
}

// NewActivityRepository creates a new SQLite-based activity repository
func NewActivityRepository(db *sql.DB) repository.ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

// getDB returns the appropriate database executor from context
func (r *ActivityRepositoryImpl) getDB(ctx context.Context) dbExecutor {
	if tx, ok := transaction.GetTxFromContext(ctx); ok {
		return tx
	}
	return r.db
}

// Append persists an activity record
func (r *ActivityRepositoryImpl) Append(ctx context.Context, a *activity.Activity) error {
	metadataJSON, err := json.Marshal(a.Metadata())
	if err != nil {
		return fmt.Errorf("marshal activity metadata failed: %w", err)
	}

	query := `
		INSERT INTO activities (id, task_id, actor, type, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	db := r.getDB(ctx)
	_, err = db.ExecContext(ctx, query,
		a.ID(), a.TaskID().String(), a.Actor(), string(a.Type()), string(metadataJSON), a.CreatedAt().Value(),
	)
	if err != nil {
		return fmt.Errorf("append activity failed: %w", err)
	}

	return nil
}

// ListByTask retrieves a task's activities ordered by creation time
func (r *ActivityRepositoryImpl) ListByTask(ctx context.Context, taskID model.TaskID) ([]*activity.Activity, error) {
	query := `
		SELECT id, task_id, actor, type, metadata, created_at
		FROM activities
		WHERE task_id = ?
		ORDER BY created_at ASC, id ASC
	`

	db := r.getDB(ctx)
	rows, err := db.QueryContext(ctx, query, taskID.String())
	if err != nil {
		return nil, fmt.Errorf("list activities failed: %w", err)
	}
	defer rows.Close()

	var activities []*activity.Activity
	for rows.Next() {
		var (
			id, tID, actor, kind, metadataJSON string
			createdAt                          time.Time
		)
		if err := rows.Scan(&id, &tID, &actor, &kind, &metadataJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan activity failed: %w", err)
		}

		var metadata map[string]interface{}
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal activity metadata failed: %w", err)
		}

		aTaskID, err := model.NewTaskIDFromString(tID)
		if err != nil {
			return nil, err
		}

		activities = append(activities, activity.ReconstructActivity(id, aTaskID, actor, model.ActivityType(kind), metadata, createdAt))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities failed: %w", err)
	}
	return activities, nil
}
