package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/teamtask-api/internal/dto"
	apierrors "github.com/yukikurage/teamtask-api/internal/errors"
	"github.com/yukikurage/teamtask-api/internal/middleware"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/services"
)

// UserHandler serves user administration and team membership endpoints.
type UserHandler struct {
	userService       *services.UserService
	membershipService *services.MembershipService
}

func NewUserHandler(userService *services.UserService, membershipService *services.MembershipService) *UserHandler {
	return &UserHandler{
		userService:       userService,
		membershipService: membershipService,
	}
}

// AddTeamMember puts an employee, found by email and domain, on the caller's project.
func (h *UserHandler) AddTeamMember(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	type AddTeamMemberRequest struct {
		Name      string        `json:"name" binding:"required"`
		Email     string        `json:"email" binding:"required"`
		Domain    models.Domain `json:"domain" binding:"required,domain"`
		ProjectID uint64        `json:"project_id" binding:"required"`
	}

	var req AddTeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.membershipService.AddTeamMember(c.Request.Context(), actor, services.AddTeamMemberInput{
		Name:      req.Name,
		Email:     req.Email,
		Domain:    req.Domain,
		ProjectID: req.ProjectID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Team member added successfully", gin.H{
		"project": dto.ToProjectDTO(*result.Project),
		"member":  dto.ToUserDTO(*result.Member),
	})
}

// RemoveTeamMember takes an employee off their team and deletes their tasks in that project.
func (h *UserHandler) RemoveTeamMember(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	type RemoveTeamMemberRequest struct {
		MemberID uint64 `json:"member_id" binding:"required"`
	}

	var req RemoveTeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.membershipService.RemoveTeamMember(c.Request.Context(), actor, req.MemberID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Team member removed successfully", gin.H{
		"project":       dto.ToProjectDTO(*result.Project),
		"deleted_tasks": len(result.DeletedTasks),
	})
}

// MyTeam lists the employees on the caller's projects.
func (h *UserHandler) MyTeam(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	team, err := h.membershipService.MyTeam(actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"count":   len(team),
		"members": dto.ToTeamMemberDTOs(team),
	})
}

// Employees lists the employees the caller may assign work to.
func (h *UserHandler) Employees(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	employees, err := h.membershipService.Employees(actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"count":     len(employees),
		"employees": dto.ToUserDTOs(employees),
	})
}

// ListUsers lists users filtered by role, domain and active flag.
func (h *UserHandler) ListUsers(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var input services.ListUsersInput
	if v := c.Query("role"); v != "" {
		role := models.Role(v)
		if !role.Valid() {
			apierrors.BadRequest(c, "Invalid role")
			return
		}
		input.Role = &role
	}
	if v := c.Query("domain"); v != "" {
		domain := models.Domain(v)
		if !domain.Valid() {
			apierrors.BadRequest(c, "Invalid domain")
			return
		}
		input.Domain = &domain
	}
	if v := c.Query("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			apierrors.BadRequest(c, "Invalid is_active")
			return
		}
		input.IsActive = &active
	}

	users, err := h.userService.ListUsers(actor, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"count": len(users),
		"users": dto.ToUserDTOs(users),
	})
}

// DashboardStats summarizes projects and leaders for admins.
func (h *UserHandler) DashboardStats(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.userService.DashboardStats(actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{"stats": stats})
}

// Leaders lists every leader with their projects, team and counters.
func (h *UserHandler) Leaders(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	leaders, err := h.userService.Leaders(actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := make([]dto.LeaderOverviewDTO, len(leaders))
	for i, l := range leaders {
		result[i] = dto.ToLeaderOverviewDTO(l)
	}
	respondSuccess(c, http.StatusOK, "", gin.H{
		"count":   len(result),
		"leaders": result,
	})
}

// LeaderDetails returns one leader with their projects, team and counters.
func (h *UserHandler) LeaderDetails(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	overview, err := h.userService.LeaderDetails(actor, middleware.GetIDParam(c, "id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{"leader": dto.ToLeaderOverviewDTO(*overview)})
}

// GetUser returns a user profile the caller is allowed to see.
func (h *UserHandler) GetUser(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := h.userService.GetUser(actor, middleware.GetIDParam(c, "id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{"user": dto.ToProfileDTO(*profile)})
}

// UpdateProfile edits the caller's own name, email or domain.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	type UpdateProfileRequest struct {
		Name   *string        `json:"name"`
		Email  *string        `json:"email"`
		Domain *models.Domain `json:"domain" binding:"omitempty,domain"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	profile, err := h.userService.UpdateProfile(actor, services.UpdateProfileInput{
		Name:   req.Name,
		Email:  req.Email,
		Domain: req.Domain,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Profile updated successfully", gin.H{"user": dto.ToProfileDTO(*profile)})
}

// SetActive activates or deactivates a user.
func (h *UserHandler) SetActive(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	type SetActiveRequest struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.SetActive(actor, middleware.GetIDParam(c, "id"), *req.IsActive)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	message := "User deactivated successfully"
	if user.IsActive {
		message = "User activated successfully"
	}
	respondSuccess(c, http.StatusOK, message, gin.H{"user": dto.ToUserDTO(*user)})
}

// DeleteUser removes a user and their team and task links.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.userService.DeleteUser(actor, middleware.GetIDParam(c, "id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "User deleted successfully", gin.H{
		"deleted_tasks":      result.DeletedTasks,
		"removed_from_tasks": result.RemovedFromTasks,
	})
}
