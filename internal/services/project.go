package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/repos"
	"github.com/XrOne/studio-jenial-sub004/internal/types"
)

type CreateProjectInput struct {
	Name      string `json:"name"`
	FrameRate int    `json:"frame_rate,omitempty"`
}

type ProjectService interface {
	Create(ctx context.Context, input CreateProjectInput) (*types.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Project, error)
	List(ctx context.Context) ([]*types.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CreateTrack(ctx context.Context, projectID uuid.UUID, kind types.TrackKind) (*types.Track, error)
	ListTracks(ctx context.Context, projectID uuid.UUID) ([]*types.Track, error)
}

type projectService struct {
	log      *logger.Logger
	projects repos.ProjectRepo
	tracks   repos.TrackRepo
}

func NewProjectService(log *logger.Logger, projects repos.ProjectRepo, tracks repos.TrackRepo) ProjectService {
	return &projectService{
		log:      log.With("service", "ProjectService"),
		projects: projects,
		tracks:   tracks,
	}
}

func (s *projectService) Create(ctx context.Context, input CreateProjectInput) (*types.Project, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("project name required")
	}
	project := &types.Project{Name: input.Name, FrameRate: input.FrameRate}
	return s.projects.Create(ctx, nil, project)
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*types.Project, error) {
	project, err := s.projects.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, &NotFoundError{Entity: "project", ID: id}
	}
	return project, nil
}

func (s *projectService) List(ctx context.Context) ([]*types.Project, error) {
	return s.projects.List(ctx, nil)
}

func (s *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.projects.Delete(ctx, nil, id)
}

func (s *projectService) CreateTrack(ctx context.Context, projectID uuid.UUID, kind types.TrackKind) (*types.Track, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}
	if kind == "" {
		kind = types.TrackKindVideo
	}
	return s.tracks.Create(ctx, nil, &types.Track{ProjectID: projectID, Kind: kind})
}

func (s *projectService) ListTracks(ctx context.Context, projectID uuid.UUID) ([]*types.Track, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.tracks.ListByProject(ctx, nil, projectID)
}
