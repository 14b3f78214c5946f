package sqlite

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/comment"
)

// setupTestDBForComment creates an in-memory SQLite database for testing
func setupTestDBForComment(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)

	err = NewMigrator(db).Migrate()
	require.NoError(t, err)

	return db
}

func TestCommentRepositoryImpl_SaveAndListByTask(t *testing.T) {
	db := setupTestDBForComment(t)
	defer db.Close()

	repo := NewCommentRepository(db)
	ctx := context.Background()
	taskID := model.NewTaskID()

	first, err := comment.NewComment(taskID, "alice", "needs input from @bob")
	require.NoError(t, err)
	second, err := comment.NewComment(taskID, "bob", "on it")
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	comments, err := repo.ListByTask(ctx, taskID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "alice", comments[0].Author())
	assert.Equal(t, []string{"bob"}, comments[0].Mentions())
	assert.Equal(t, "bob", comments[1].Author())
	assert.Empty(t, comments[1].Mentions())
}

func TestCommentRepositoryImpl_ListByTaskEmpty(t *testing.T) {
	db := setupTestDBForComment(t)
	defer db.Close()

	repo := NewCommentRepository(db)
	ctx := context.Background()

	comments, err := repo.ListByTask(ctx, model.NewTaskID())
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestCommentRepositoryImpl_CountByTask(t *testing.T) {
	db := setupTestDBForComment(t)
	defer db.Close()

	repo := NewCommentRepository(db)
	ctx := context.Background()
	taskID := model.NewTaskID()
	other := model.NewTaskID()

	count, err := repo.CountByTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for i := 0; i < 3; i++ {
		c, err := comment.NewComment(taskID, "alice", "note")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))
	}

	count, err = repo.CountByTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = repo.CountByTask(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
