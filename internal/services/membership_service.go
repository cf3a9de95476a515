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

// MembershipService manages project teams and the reporting line derived from them.
type MembershipService struct {
	projectRepo    repository.ProjectRepository
	userRepo       repository.UserRepository
	membershipRepo repository.MembershipRepository
	notifier       Notifier
	publisher      realtime.Publisher
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	membershipRepo repository.MembershipRepository,
	notifier Notifier,
	publisher realtime.Publisher,
) *MembershipService {
	return &MembershipService{
		projectRepo:    projectRepo,
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		notifier:       notifier,
		publisher:      publisher,
	}
}

// AddTeamMemberInput identifies the candidate and the target project
type AddTeamMemberInput struct {
	Name      string
	Email     string
	Domain    models.Domain
	ProjectID uint64
}

// AddTeamMemberResult is the updated project and the member that joined it
type AddTeamMemberResult struct {
	Project *models.Project
	Member  *models.User
}

// AddTeamMember puts an employee on the team of a project led by actor.
// Every check runs before the single membership insert.
func (s *MembershipService) AddTeamMember(ctx context.Context, actor *models.User, input AddTeamMemberInput) (*AddTeamMemberResult, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrNameRequired
	}
	emailAddr, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if !input.Domain.Valid() {
		return nil, ErrInvalidDomain
	}

	project, err := s.projectRepo.FindByID(input.ProjectID, "Members")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if actor.Role != models.RoleLeader || project.LeaderID != actor.ID {
		return nil, ErrForbidden
	}

	candidate, err := s.userRepo.FindByEmailAndDomain(emailAddr, input.Domain)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSuchEmployee
		}
		return nil, fmt.Errorf("failed to find employee: %w", err)
	}

	if project.HasMember(candidate.ID) {
		return nil, ErrAlreadyMember
	}

	if _, err := s.membershipRepo.FindByUserID(candidate.ID); err == nil {
		return nil, ErrAlreadyAssigned
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	if candidate.ID == actor.ID {
		return nil, ErrSelfAssignment
	}
	if candidate.Role != models.RoleEmployee || !candidate.IsActive {
		return nil, ErrNoSuchEmployee
	}

	err = s.membershipRepo.Add(&models.TeamMembership{
		UserID:    candidate.ID,
		ProjectID: project.ID,
		AddedByID: actor.ID,
		JoinedAt:  time.Now(),
	})
	metrics.ObserveCascade("add_member", err)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipExists) {
			return nil, ErrAlreadyAssigned
		}
		return nil, fmt.Errorf("failed to add team member: %w", err)
	}

	projectID := project.ID
	actorID := actor.ID
	s.notifier.Notify(ctx, models.Notification{
		UserID:           candidate.ID,
		Type:             models.NotificationProjectAssigned,
		Message:          fmt.Sprintf("You have been added to project %q by %s", project.Name, actor.Name),
		RelatedProjectID: &projectID,
		RelatedUserID:    &actorID,
	})

	publish(ctx, s.publisher, projectRooms(project.ID, project.LeaderID, candidate.ID), realtime.Event{
		Type:      realtime.EventProjectUpdated,
		Action:    ActionMemberAdded,
		ProjectID: project.ID,
		UpdatedBy: actor.ID,
	})

	updated, err := s.projectRepo.FindByID(project.ID, "Leader", "Members.User")
	if err != nil {
		return nil, fmt.Errorf("failed to reload project: %w", err)
	}

	return &AddTeamMemberResult{Project: updated, Member: candidate}, nil
}

// RemoveTeamMemberResult summarizes a member removal
type RemoveTeamMemberResult struct {
	Project      *models.Project
	DeletedTasks []models.Task
}

// RemoveTeamMember takes memberID off the team it belongs to. A leader may
// only remove members of projects they lead; admins may remove anyone.
// Every task of that project assigned to the member is deleted.
func (s *MembershipService) RemoveTeamMember(ctx context.Context, actor *models.User, memberID uint64) (*RemoveTeamMemberResult, error) {
	if err := AuthorizeRole(actor, models.RoleAdmin, models.RoleLeader); err != nil {
		return nil, err
	}

	var (
		membership *models.TeamMembership
		err        error
	)
	if actor.Role == models.RoleAdmin {
		membership, err = s.membershipRepo.FindByUserID(memberID)
	} else {
		membership, err = s.membershipRepo.FindInLedProjects(actor.ID, memberID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find team member: %w", err)
	}

	removal, err := s.membershipRepo.RemoveWithCascade(membership.ProjectID, memberID)
	metrics.ObserveCascade("remove_member", err)
	if err != nil {
		return nil, fmt.Errorf("failed to remove team member: %w", err)
	}

	for i := range removal.DeletedTasks {
		task := &removal.DeletedTasks[i]
		publish(ctx, s.publisher, taskRooms(task, memberID), realtime.Event{
			Type:      realtime.EventTaskUpdated,
			Action:    ActionDeleted,
			TaskID:    task.ID,
			ProjectID: task.ProjectID,
			UpdatedBy: actor.ID,
		})
	}
	publish(ctx, s.publisher, projectRooms(membership.ProjectID, membership.Project.LeaderID, memberID), realtime.Event{
		Type:      realtime.EventProjectUpdated,
		Action:    ActionMemberRemoved,
		ProjectID: membership.ProjectID,
		UpdatedBy: actor.ID,
	})

	project, err := s.projectRepo.FindByID(membership.ProjectID, "Leader", "Members.User")
	if err != nil {
		return nil, fmt.Errorf("failed to reload project: %w", err)
	}

	return &RemoveTeamMemberResult{
		Project:      project,
		DeletedTasks: removal.DeletedTasks,
	}, nil
}

// MyTeam lists the active employees on every project the leader runs
func (s *MembershipService) MyTeam(actor *models.User) ([]models.TeamMembership, error) {
	if err := AuthorizeRole(actor, models.RoleLeader); err != nil {
		return nil, err
	}

	memberships, err := s.membershipRepo.ListByLeader(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team: %w", err)
	}

	team := make([]models.TeamMembership, 0, len(memberships))
	for _, m := range memberships {
		if m.User.IsActive && m.User.Role == models.RoleEmployee {
			team = append(team, m)
		}
	}
	return team, nil
}

// Employees lists active employees: all of them for admins, the leader's own team otherwise
func (s *MembershipService) Employees(actor *models.User) ([]models.User, error) {
	if err := AuthorizeRole(actor, models.RoleAdmin, models.RoleLeader); err != nil {
		return nil, err
	}

	if actor.Role == models.RoleAdmin {
		role := models.RoleEmployee
		active := true
		users, err := s.userRepo.List(repository.UserFilter{Role: &role, IsActive: &active})
		if err != nil {
			return nil, fmt.Errorf("failed to list employees: %w", err)
		}
		return users, nil
	}

	team, err := s.MyTeam(actor)
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(team))
	for _, m := range team {
		users = append(users, m.User)
	}
	return users, nil
}
