package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/teamtask-api/internal/metrics"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/repository"
	"gorm.io/gorm"
)

// UserService covers user administration, profiles and the admin dashboard.
type UserService struct {
	userRepo       repository.UserRepository
	projectRepo    repository.ProjectRepository
	membershipRepo repository.MembershipRepository
	taskRepo       repository.TaskRepository
	now            func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
	membershipRepo repository.MembershipRepository,
	taskRepo repository.TaskRepository,
) *UserService {
	return &UserService{
		userRepo:       userRepo,
		projectRepo:    projectRepo,
		membershipRepo: membershipRepo,
		taskRepo:       taskRepo,
		now:            time.Now,
	}
}

// UserProfile is a user with the relations derived from team membership
type UserProfile struct {
	User        *models.User
	ReportingTo *models.User
	Project     *models.Project
	LedProjects []models.Project
}

// DashboardStats summarizes every project for admins
type DashboardStats struct {
	TotalProjects     int64 `json:"total_projects"`
	ActiveProjects    int64 `json:"active_projects"`
	CompletedProjects int64 `json:"completed_projects"`
	TotalLeaders      int64 `json:"total_leaders"`
	LateProjects      int64 `json:"late_projects"`
	AvgProgress       int   `json:"avg_progress"`
}

// LeaderStats holds per leader counters
type LeaderStats struct {
	TeamCount      int   `json:"team_count"`
	ProjectCount   int   `json:"project_count"`
	TotalTasks     int64 `json:"total_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
}

// LeaderOverview is a leader with led projects, team and stats
type LeaderOverview struct {
	Leader   models.User
	Projects []models.Project
	Team     []models.User
	Stats    LeaderStats
}

// ListUsersInput represents filters for listing users
type ListUsersInput struct {
	Role     *models.Role
	Domain   *models.Domain
	IsActive *bool
}

// ListUsers lists users for admins
func (s *UserService) ListUsers(actor *models.User, input ListUsersInput) ([]models.User, error) {
	if err := AuthorizeRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if input.Role != nil && !input.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if input.Domain != nil && !input.Domain.Valid() {
		return nil, ErrInvalidDomain
	}

	users, err := s.userRepo.List(repository.UserFilter{
		Role:     input.Role,
		Domain:   input.Domain,
		IsActive: input.IsActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// DashboardStats computes project and leader counters for admins
func (s *UserService) DashboardStats(actor *models.User) (*DashboardStats, error) {
	if err := AuthorizeRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	projects, err := s.projectRepo.List(repository.ProjectFilter{})
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

	role := models.RoleLeader
	active := true
	leaders, err := s.userRepo.List(repository.UserFilter{Role: &role, IsActive: &active})
	if err != nil {
		return nil, fmt.Errorf("failed to list leaders: %w", err)
	}

	stats := &DashboardStats{
		TotalProjects: int64(len(projects)),
		TotalLeaders:  int64(len(leaders)),
	}
	now := s.now()
	var totalProgress float64
	for _, p := range projects {
		switch p.Status {
		case models.ProjectStatusActive:
			stats.ActiveProjects++
		case models.ProjectStatusCompleted:
			stats.CompletedProjects++
		}
		if p.Deadline.Before(now) &&
			p.Status != models.ProjectStatusCompleted &&
			p.Status != models.ProjectStatusCancelled {
			stats.LateProjects++
		}
		if counts := progress[p.ID]; counts.Total > 0 {
			totalProgress += float64(counts.Completed) / float64(counts.Total) * 100
		}
	}
	if len(projects) > 0 {
		stats.AvgProgress = int(totalProgress/float64(len(projects)) + 0.5)
	}
	return stats, nil
}

// Leaders lists active leaders with their stats
func (s *UserService) Leaders(actor *models.User) ([]LeaderOverview, error) {
	if err := AuthorizeRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	role := models.RoleLeader
	active := true
	leaders, err := s.userRepo.List(repository.UserFilter{Role: &role, IsActive: &active})
	if err != nil {
		return nil, fmt.Errorf("failed to list leaders: %w", err)
	}

	overviews := make([]LeaderOverview, 0, len(leaders))
	for _, leader := range leaders {
		overview, err := s.leaderOverview(leader)
		if err != nil {
			return nil, err
		}
		overviews = append(overviews, *overview)
	}
	return overviews, nil
}

// LeaderDetails returns one leader with projects, team and stats
func (s *UserService) LeaderDetails(actor *models.User, leaderID uint64) (*LeaderOverview, error) {
	if err := AuthorizeRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	leader, err := s.userRepo.FindByID(leaderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaderNotFound
		}
		return nil, fmt.Errorf("failed to find leader: %w", err)
	}
	if leader.Role != models.RoleLeader {
		return nil, ErrLeaderNotFound
	}
	return s.leaderOverview(*leader)
}

// Profile returns a user with the reporting line and project relations
func (s *UserService) Profile(userID uint64) (*UserProfile, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	profile := &UserProfile{User: user}

	switch user.Role {
	case models.RoleEmployee:
		membership, err := s.membershipRepo.FindByUserID(user.ID)
		switch {
		case err == nil:
			project := membership.Project
			profile.Project = &project
			leader, err := s.userRepo.FindByID(project.LeaderID)
			if err == nil {
				profile.ReportingTo = leader
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to find leader: %w", err)
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("failed to find membership: %w", err)
		}
	case models.RoleLeader:
		projects, err := s.projectRepo.List(repository.ProjectFilter{LeaderID: &user.ID})
		if err != nil {
			return nil, fmt.Errorf("failed to list led projects: %w", err)
		}
		profile.LedProjects = projects
	}

	return profile, nil
}

// GetUser returns a profile visible to actor: admins, the user themself,
// the user's leader and, for employees, the leader they report to.
func (s *UserService) GetUser(actor *models.User, userID uint64) (*UserProfile, error) {
	profile, err := s.Profile(userID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.Role == models.RoleAdmin, actor.ID == userID:
		return profile, nil
	case profile.ReportingTo != nil && profile.ReportingTo.ID == actor.ID:
		return profile, nil
	}

	if actor.Role == models.RoleEmployee && profile.User.Role == models.RoleLeader {
		leader, _, err := s.reportingLeader(actor.ID)
		if err != nil {
			return nil, err
		}
		if leader != nil && *leader == profile.User.ID {
			return profile, nil
		}
	}
	return nil, ErrForbidden
}

// UpdateProfileInput represents the self-editable profile fields
type UpdateProfileInput struct {
	Name   *string
	Email  *string
	Domain *models.Domain
}

// UpdateProfile edits the caller's own name, email or domain
func (s *UserService) UpdateProfile(actor *models.User, input UpdateProfileInput) (*UserProfile, error) {
	user, err := s.userRepo.FindByID(actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		user.Name = name
	}
	if input.Email != nil {
		emailAddr, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		if emailAddr != user.Email {
			if _, err := s.userRepo.FindByEmail(emailAddr); err == nil {
				return nil, ErrEmailTaken
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
		}
		user.Email = emailAddr
	}
	if input.Domain != nil {
		if !input.Domain.Valid() {
			return nil, ErrInvalidDomain
		}
		domain := *input.Domain
		user.Domain = &domain
	}

	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.Profile(user.ID)
}

// SetActive activates or deactivates a user. Deactivation takes effect on the user's next request.
func (s *UserService) SetActive(actor *models.User, userID uint64, active bool) (*models.User, error) {
	if err := AuthorizeRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if actor.ID == userID && !active {
		return nil, ErrCannotDeactivateSelf
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.IsActive = active
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeleteUser removes a user's team membership and task assignments, then soft deletes the user.
func (s *UserService) DeleteUser(actor *models.User, userID uint64) (*repository.UserDeleteResult, error) {
	if err := AuthorizeRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if actor.ID == userID {
		return nil, ErrCannotDeleteSelf
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.Role == models.RoleLeader {
		led, err := s.projectRepo.List(repository.ProjectFilter{LeaderID: &user.ID})
		if err != nil {
			return nil, fmt.Errorf("failed to list led projects: %w", err)
		}
		if len(led) > 0 {
			return nil, ErrUserLeadsProjects
		}
	}

	result, err := s.userRepo.DeleteWithCascade(user.ID)
	metrics.ObserveCascade("delete_user", err)
	if err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return result, nil
}

func (s *UserService) leaderOverview(leader models.User) (*LeaderOverview, error) {
	projects, err := s.projectRepo.List(repository.ProjectFilter{LeaderID: &leader.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list led projects: %w", err)
	}

	memberships, err := s.membershipRepo.ListByLeader(leader.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team: %w", err)
	}
	team := make([]models.User, 0, len(memberships))
	for _, m := range memberships {
		if m.User.IsActive && m.User.Role == models.RoleEmployee {
			team = append(team, m.User)
		}
	}

	counts, err := s.taskRepo.CountAssignedBy(leader.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	return &LeaderOverview{
		Leader:   leader,
		Projects: projects,
		Team:     team,
		Stats: LeaderStats{
			TeamCount:      len(team),
			ProjectCount:   len(projects),
			TotalTasks:     counts.Total,
			CompletedTasks: counts.Completed,
		},
	}, nil
}

// reportingLeader returns the id of the leader userID reports to, if any
func (s *UserService) reportingLeader(userID uint64) (*uint64, *models.TeamMembership, error) {
	membership, err := s.membershipRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to find membership: %w", err)
	}
	leaderID := membership.Project.LeaderID
	return &leaderID, membership, nil
}
