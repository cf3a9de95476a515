package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/teamtask-api/internal/metrics"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/realtime"
	"github.com/yukikurage/teamtask-api/internal/repository"
	"gorm.io/gorm"
)

// ProjectService provides business logic for project operations.
type ProjectService struct {
	projectRepo    repository.ProjectRepository
	userRepo       repository.UserRepository
	membershipRepo repository.MembershipRepository
	publisher      realtime.Publisher
}

// NewProjectService creates a new ProjectService.
func NewProjectService(
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	membershipRepo repository.MembershipRepository,
	publisher realtime.Publisher,
) *ProjectService {
	return &ProjectService{
		projectRepo:    projectRepo,
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		publisher:      publisher,
	}
}

// ProjectSummary is a project with its task completion counts
type ProjectSummary struct {
	Project  models.Project
	Progress repository.TaskCounts
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Name        string
	Description string
	Domain      models.Domain
	LeaderID    uint64
	Deadline    *time.Time
}

// CreateProject creates a project led by a leader of the same domain.
func (s *ProjectService) CreateProject(actor *models.User, input CreateProjectInput) (*models.Project, error) {
	if err := AuthorizeRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, ErrDescriptionRequired
	}
	if !input.Domain.Valid() {
		return nil, ErrInvalidDomain
	}
	if input.Deadline == nil || input.Deadline.IsZero() {
		return nil, ErrDeadlineRequired
	}

	leader, err := s.userRepo.FindByID(input.LeaderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidLeader
		}
		return nil, fmt.Errorf("failed to find leader: %w", err)
	}
	if leader.Role != models.RoleLeader || !leader.IsActive {
		return nil, ErrInvalidLeader
	}
	if leader.DomainValue() != input.Domain {
		return nil, fmt.Errorf("%w: leader is %q, project is %q", ErrLeaderDomain, leader.DomainValue(), input.Domain)
	}

	project := &models.Project{
		Name:        name,
		Description: input.Description,
		Domain:      input.Domain,
		LeaderID:    leader.ID,
		Deadline:    *input.Deadline,
		Status:      models.ProjectStatusActive,
		CreatedByID: actor.ID,
	}
	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.projectRepo.FindByID(project.ID, "Leader", "Members.User")
}

// ListProjects returns every project for admins and the led projects for leaders.
func (s *ProjectService) ListProjects(actor *models.User) ([]ProjectSummary, error) {
	filter := repository.ProjectFilter{}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleLeader:
		filter.LeaderID = &actor.ID
	default:
		return nil, ErrForbidden
	}
	return s.list(filter)
}

// MyProjects returns the projects a leader runs, or the project an employee works on.
func (s *ProjectService) MyProjects(actor *models.User) ([]ProjectSummary, error) {
	switch actor.Role {
	case models.RoleLeader:
		return s.list(repository.ProjectFilter{LeaderID: &actor.ID})
	case models.RoleEmployee:
		membership, err := s.membershipRepo.FindByUserID(actor.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []ProjectSummary{}, nil
			}
			return nil, fmt.Errorf("failed to find membership: %w", err)
		}
		return s.list(repository.ProjectFilter{IDs: []uint64{membership.ProjectID}})
	default:
		return nil, ErrForbidden
	}
}

// GetProject returns a project visible to actor.
func (s *ProjectService) GetProject(actor *models.User, id uint64) (*ProjectSummary, error) {
	project, err := s.find(id, "Leader", "Members.User")
	if err != nil {
		return nil, err
	}
	if err := CanViewProject(actor, project); err != nil {
		return nil, err
	}

	progress, err := s.projectRepo.TaskProgress([]uint64{project.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load project progress: %w", err)
	}
	return &ProjectSummary{Project: *project, Progress: progress[project.ID]}, nil
}

// UpdateProjectInput represents the editable project fields
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Deadline    *time.Time
	Status      *models.ProjectStatus
}

// UpdateProject edits a project owned by actor (or any project for admins).
func (s *ProjectService) UpdateProject(ctx context.Context, actor *models.User, id uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if err := CanManageProject(actor, project); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Deadline != nil {
		if input.Deadline.IsZero() {
			return nil, ErrDeadlineRequired
		}
		project.Deadline = *input.Deadline
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		project.Status = *input.Status
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	publish(ctx, s.publisher, projectRooms(project.ID, project.LeaderID), realtime.Event{
		Type:          realtime.EventProjectUpdated,
		Action:        ActionUpdated,
		ProjectID:     project.ID,
		UpdatedBy:     actor.ID,
		ProjectStatus: string(project.Status),
	})

	return s.projectRepo.FindByID(project.ID, "Leader", "Members.User")
}

// DeleteProject removes a project with its tasks and team in one transaction.
func (s *ProjectService) DeleteProject(ctx context.Context, actor *models.User, id uint64) (*repository.ProjectDeleteResult, error) {
	project, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if err := CanManageProject(actor, project); err != nil {
		return nil, err
	}

	result, err := s.projectRepo.DeleteWithCascade(project.ID)
	metrics.ObserveCascade("delete_project", err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to delete project: %w", err)
	}

	publish(ctx, s.publisher, projectRooms(project.ID, project.LeaderID, result.MemberIDs...), realtime.Event{
		Type:      realtime.EventProjectUpdated,
		Action:    ActionDeleted,
		ProjectID: project.ID,
		UpdatedBy: actor.ID,
	})

	return result, nil
}

// RealtimeRooms lists the websocket rooms actor may join: their own room,
// the admin room for admins and the rooms of the projects they can view.
func (s *ProjectService) RealtimeRooms(actor *models.User) ([]string, error) {
	rooms := []string{realtime.UserRoom(actor.ID)}
	switch actor.Role {
	case models.RoleAdmin:
		rooms = append(rooms, realtime.AdminRoom)
	case models.RoleLeader:
		projects, err := s.projectRepo.List(repository.ProjectFilter{LeaderID: &actor.ID})
		if err != nil {
			return nil, fmt.Errorf("failed to list led projects: %w", err)
		}
		for _, p := range projects {
			rooms = append(rooms, realtime.ProjectRoom(p.ID))
		}
	case models.RoleEmployee:
		membership, err := s.membershipRepo.FindByUserID(actor.ID)
		switch {
		case err == nil:
			rooms = append(rooms, realtime.ProjectRoom(membership.ProjectID))
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("failed to find membership: %w", err)
		}
	}
	return rooms, nil
}

func (s *ProjectService) find(id uint64, preload ...string) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(id, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

func (s *ProjectService) list(filter repository.ProjectFilter) ([]ProjectSummary, error) {
	projects, err := s.projectRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	ids := make([]uint64, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	progress, err := s.projectRepo.TaskProgress(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load project progress: %w", err)
	}

	summaries := make([]ProjectSummary, len(projects))
	for i, p := range projects {
		summaries[i] = ProjectSummary{Project: p, Progress: progress[p.ID]}
	}
	return summaries, nil
}
