package project

import (
	"context"
	"errors"

	"github.com/anchorworks/sprintflow/internal/application/dto"
	"github.com/anchorworks/sprintflow/internal/application/port/output"
	"github.com/anchorworks/sprintflow/internal/domain/apperr"
	domainproject "github.com/anchorworks/sprintflow/internal/domain/model/project"
	"github.com/anchorworks/sprintflow/internal/domain/repository"
	"github.com/anchorworks/sprintflow/internal/pkg/keyutil"
)

// ProjectUseCaseImpl orchestrates project creation and lookup
type ProjectUseCaseImpl struct {
	projectRepo repository.ProjectRepository
	txManager   output.TransactionManager
	auth        output.AuthPort
}

// NewProjectUseCaseImpl creates a new project use case implementation
func NewProjectUseCaseImpl(
	projectRepo repository.ProjectRepository,
	txManager output.TransactionManager,
	auth output.AuthPort,
) *ProjectUseCaseImpl {
	return &ProjectUseCaseImpl{
		projectRepo: projectRepo,
		txManager:   txManager,
		auth:        auth,
	}
}

// CreateProject creates a project with a normalized key
func (uc *ProjectUseCaseImpl) CreateProject(ctx context.Context, req dto.CreateProjectRequest) (*dto.ProjectDTO, error) {
	if req.Name == "" {
		return nil, errors.New("project name is required")
	}
	if _, err := uc.auth.CurrentActor(ctx); err != nil {
		return nil, err
	}

	key, err := keyutil.Normalize(req.Key)
	if err != nil {
		return nil, err
	}

	var created *domainproject.Project
	err = uc.txManager.InTransaction(ctx, func(txCtx context.Context) error {
		if _, err := uc.projectRepo.FindByKey(txCtx, key); err == nil {
			return apperr.Conflict("project key %s is already taken", key)
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}

		created, err = domainproject.NewProject(key, req.Name)
		if err != nil {
			return err
		}
		return uc.projectRepo.Save(txCtx, created)
	})
	if err != nil {
		return nil, err
	}

	return projectToDTO(created), nil
}

// GetProject retrieves a project by key
func (uc *ProjectUseCaseImpl) GetProject(ctx context.Context, key string) (*dto.ProjectDTO, error) {
	p, err := uc.projectRepo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return projectToDTO(p), nil
}

// ListProjects retrieves all projects ordered by key
func (uc *ProjectUseCaseImpl) ListProjects(ctx context.Context) ([]dto.ProjectDTO, error) {
	projects, err := uc.projectRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]dto.ProjectDTO, 0, len(projects))
	for _, p := range projects {
		dtos = append(dtos, *projectToDTO(p))
	}
	return dtos, nil
}

func projectToDTO(p *domainproject.Project) *dto.ProjectDTO {
	return &dto.ProjectDTO{
		ID:          p.ID().String(),
		Key:         p.Key(),
		Name:        p.Name(),
		TaskCounter: p.TaskCounter(),
		CreatedAt:   p.CreatedAt().Value(),
	}
}
