package dto

import (
	"time"

	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/services"
)

// ProjectSummaryDTO is the minimal project shape embedded in other resources
type ProjectSummaryDTO struct {
	ID       uint64               `json:"id"`
	Name     string               `json:"name"`
	Domain   models.Domain        `json:"domain"`
	Status   models.ProjectStatus `json:"status"`
	Deadline time.Time            `json:"deadline"`
}

// TeamMemberDTO is one employee on a project team
type TeamMemberDTO struct {
	UserSummaryDTO
	IsActive  bool      `json:"is_active"`
	ProjectID uint64    `json:"project_id"`
	JoinedAt  time.Time `json:"joined_at"`
}

// ProgressDTO holds task completion counts
type ProgressDTO struct {
	TotalTasks     int64 `json:"total_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
	Percent        int   `json:"percent"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Domain      models.Domain        `json:"domain"`
	LeaderID    uint64               `json:"leader_id"`
	Deadline    time.Time            `json:"deadline"`
	Status      models.ProjectStatus `json:"status"`
	CreatedByID uint64               `json:"created_by_id"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Leader      *UserSummaryDTO      `json:"leader,omitempty"`
	TeamMembers []TeamMemberDTO      `json:"team_members"`
	Progress    *ProgressDTO         `json:"progress,omitempty"`
}

// ToProjectSummaryDTO converts a Project model to ProjectSummaryDTO
func ToProjectSummaryDTO(project models.Project) ProjectSummaryDTO {
	return ProjectSummaryDTO{
		ID:       project.ID,
		Name:     project.Name,
		Domain:   project.Domain,
		Status:   project.Status,
		Deadline: project.Deadline,
	}
}

// ToTeamMemberDTO converts a membership with preloaded user
func ToTeamMemberDTO(membership models.TeamMembership) TeamMemberDTO {
	return TeamMemberDTO{
		UserSummaryDTO: ToUserSummaryDTO(membership.User),
		IsActive:       membership.User.IsActive,
		ProjectID:      membership.ProjectID,
		JoinedAt:       membership.JoinedAt,
	}
}

// ToTeamMemberDTOs converts a slice of memberships
func ToTeamMemberDTOs(memberships []models.TeamMembership) []TeamMemberDTO {
	result := make([]TeamMemberDTO, len(memberships))
	for i, m := range memberships {
		result[i] = ToTeamMemberDTO(m)
	}
	return result
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Domain:      project.Domain,
		LeaderID:    project.LeaderID,
		Deadline:    project.Deadline,
		Status:      project.Status,
		CreatedByID: project.CreatedByID,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
		TeamMembers: ToTeamMemberDTOs(project.Members),
	}

	// Include leader if preloaded
	if project.Leader.ID != 0 {
		leader := ToUserSummaryDTO(project.Leader)
		dto.Leader = &leader
	}

	return dto
}

// ToProjectSummaryWithProgress converts a ProjectSummary including its progress
func ToProjectSummaryWithProgress(summary services.ProjectSummary) ProjectDTO {
	dto := ToProjectDTO(summary.Project)
	progress := ProgressDTO{
		TotalTasks:     summary.Progress.Total,
		CompletedTasks: summary.Progress.Completed,
	}
	if progress.TotalTasks > 0 {
		progress.Percent = int(progress.CompletedTasks * 100 / progress.TotalTasks)
	}
	dto.Progress = &progress
	return dto
}

// ToProjectDTOs converts a slice of project summaries
func ToProjectDTOs(summaries []services.ProjectSummary) []ProjectDTO {
	result := make([]ProjectDTO, len(summaries))
	for i, s := range summaries {
		result[i] = ToProjectSummaryWithProgress(s)
	}
	return result
}
