package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchorworks/sprintflow/internal/domain/apperr"
	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/model/project"
)

// setupTestDBForProject creates an in-memory SQLite database for testing
func setupTestDBForProject(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)

	err = NewMigrator(db).Migrate()
	require.NoError(t, err)

	return db
}

func TestProjectRepositoryImpl_SaveAndFind(t *testing.T) {
	db := setupTestDBForProject(t)
	defer db.Close()

	repo := NewProjectRepository(db)
	ctx := context.Background()

	p, err := project.NewProject("APP", "Application")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p))

	found, err := repo.Find(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, "APP", found.Key())
	assert.Equal(t, "Application", found.Name())
	assert.Equal(t, 0, found.TaskCounter())

	byKey, err := repo.FindByKey(ctx, "APP")
	require.NoError(t, err)
	assert.True(t, byKey.ID().Equals(p.ID()))
}

func TestProjectRepositoryImpl_FindNotFound(t *testing.T) {
	db := setupTestDBForProject(t)
	defer db.Close()

	repo := NewProjectRepository(db)
	ctx := context.Background()

	id, _ := model.NewProjectIDFromString("missing")
	_, err := repo.Find(ctx, id)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = repo.FindByKey(ctx, "NOPE")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestProjectRepositoryImpl_SaveUpdatesName(t *testing.T) {
	db := setupTestDBForProject(t)
	defer db.Close()

	repo := NewProjectRepository(db)
	ctx := context.Background()

	p, _ := project.NewProject("APP", "Application")
	require.NoError(t, repo.Save(ctx, p))

	require.NoError(t, p.Rename("Renamed"))
	require.NoError(t, repo.Save(ctx, p))

	found, err := repo.Find(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", found.Name())
}

func TestProjectRepositoryImpl_IncrementTaskCounter(t *testing.T) {
	db := setupTestDBForProject(t)
	defer db.Close()

	repo := NewProjectRepository(db)
	ctx := context.Background()

	p, _ := project.NewProject("APP", "Application")
	require.NoError(t, repo.Save(ctx, p))

	first, err := repo.IncrementTaskCounter(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := repo.IncrementTaskCounter(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, second)

	// The persisted counter reflects the increments
	found, err := repo.Find(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, found.TaskCounter())
}

func TestProjectRepositoryImpl_IncrementTaskCounterMissingProject(t *testing.T) {
	db := setupTestDBForProject(t)
	defer db.Close()

	repo := NewProjectRepository(db)
	ctx := context.Background()

	id, _ := model.NewProjectIDFromString("missing")
	_, err := repo.IncrementTaskCounter(ctx, id)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestProjectRepositoryImpl_List(t *testing.T) {
	db := setupTestDBForProject(t)
	defer db.Close()

	repo := NewProjectRepository(db)
	ctx := context.Background()

	b, _ := project.NewProject("BETA", "Beta")
	a, _ := project.NewProject("ALPHA", "Alpha")
	require.NoError(t, repo.Save(ctx, b))
	require.NoError(t, repo.Save(ctx, a))

	projects, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "ALPHA", projects[0].Key())
	assert.Equal(t, "BETA", projects[1].Key())
}
