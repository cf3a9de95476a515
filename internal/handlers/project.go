package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/teamtask-api/internal/dto"
	"github.com/yukikurage/teamtask-api/internal/middleware"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/services"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// CreateProject creates a project led by a leader of the same domain.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	type CreateProjectRequest struct {
		Name        string        `json:"name" binding:"required"`
		Description string        `json:"description" binding:"required"`
		Domain      models.Domain `json:"domain" binding:"required,domain"`
		LeaderID    uint64        `json:"leader_id" binding:"required"`
		Deadline    *time.Time    `json:"deadline" binding:"required"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	project, err := h.projectService.CreateProject(actor, services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Domain:      req.Domain,
		LeaderID:    req.LeaderID,
		Deadline:    req.Deadline,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Project created successfully", gin.H{
		"project": dto.ToProjectDTO(*project),
	})
}

// ListProjects returns every project for admins and the led projects for leaders.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListProjects(actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"count":    len(projects),
		"projects": dto.ToProjectDTOs(projects),
	})
}

// MyProjects returns the caller's led projects or team project.
func (h *ProjectHandler) MyProjects(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	projects, err := h.projectService.MyProjects(actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"count":    len(projects),
		"projects": dto.ToProjectDTOs(projects),
	})
}

// GetProject returns one project with its team and progress.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.projectService.GetProject(actor, middleware.GetIDParam(c, "id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"project": dto.ToProjectSummaryWithProgress(*summary),
	})
}

// UpdateProject edits the name, description, deadline or status of a project.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	type UpdateProjectRequest struct {
		Name        *string               `json:"name"`
		Description *string               `json:"description"`
		Deadline    *time.Time            `json:"deadline"`
		Status      *models.ProjectStatus `json:"status" binding:"omitempty,project_status"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), actor, middleware.GetIDParam(c, "id"), services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Deadline:    req.Deadline,
		Status:      req.Status,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Project updated successfully", gin.H{
		"project": dto.ToProjectDTO(*project),
	})
}

// DeleteProject removes a project with its tasks and team.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.projectService.DeleteProject(c.Request.Context(), actor, middleware.GetIDParam(c, "id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Project deleted successfully", gin.H{
		"deleted_tasks":   result.DeletedTasks,
		"cleared_members": result.ClearedMembers,
	})
}
