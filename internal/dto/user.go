package dto

import (
	"time"

	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/services"
)

// UserSummaryDTO is the minimal user shape embedded in other resources
type UserSummaryDTO struct {
	ID     uint64         `json:"id"`
	Name   string         `json:"name"`
	Email  string         `json:"email"`
	Role   models.Role    `json:"role"`
	Domain *models.Domain `json:"domain,omitempty"`
}

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          uint64              `json:"id"`
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Role        models.Role         `json:"role"`
	Domain      *models.Domain      `json:"domain,omitempty"`
	PhoneNumber string              `json:"phone_number,omitempty"`
	IsActive    bool                `json:"is_active"`
	CreatedAt   time.Time           `json:"created_at"`
	ReportingTo *UserSummaryDTO     `json:"reporting_to,omitempty"`
	Project     *ProjectSummaryDTO  `json:"project,omitempty"`
	LedProjects []ProjectSummaryDTO `json:"led_projects,omitempty"`
}

// LeaderOverviewDTO is a leader with the projects they lead and their team
type LeaderOverviewDTO struct {
	UserDTO
	Projects []ProjectSummaryDTO  `json:"projects"`
	Team     []UserSummaryDTO     `json:"team"`
	Stats    services.LeaderStats `json:"stats"`
}

// ToUserSummaryDTO converts a User model to UserSummaryDTO
func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		Domain: user.Domain,
	}
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		Domain:      user.Domain,
		PhoneNumber: user.PhoneNumber,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	result := make([]UserDTO, len(users))
	for i, user := range users {
		result[i] = ToUserDTO(user)
	}
	return result
}

// ToProfileDTO converts a UserProfile, including the membership derived relations
func ToProfileDTO(profile services.UserProfile) UserDTO {
	dto := ToUserDTO(*profile.User)
	if profile.ReportingTo != nil {
		leader := ToUserSummaryDTO(*profile.ReportingTo)
		dto.ReportingTo = &leader
	}
	if profile.Project != nil {
		project := ToProjectSummaryDTO(*profile.Project)
		dto.Project = &project
	}
	if len(profile.LedProjects) > 0 {
		dto.LedProjects = make([]ProjectSummaryDTO, len(profile.LedProjects))
		for i, p := range profile.LedProjects {
			dto.LedProjects[i] = ToProjectSummaryDTO(p)
		}
	}
	return dto
}

// ToLeaderOverviewDTO converts a LeaderOverview
func ToLeaderOverviewDTO(overview services.LeaderOverview) LeaderOverviewDTO {
	dto := LeaderOverviewDTO{
		UserDTO:  ToUserDTO(overview.Leader),
		Projects: make([]ProjectSummaryDTO, len(overview.Projects)),
		Team:     make([]UserSummaryDTO, len(overview.Team)),
		Stats:    overview.Stats,
	}
	for i, p := range overview.Projects {
		dto.Projects[i] = ToProjectSummaryDTO(p)
	}
	for i, u := range overview.Team {
		dto.Team[i] = ToUserSummaryDTO(u)
	}
	return dto
}
