package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/teamtask-api/internal/dto"
	apierrors "github.com/yukikurage/teamtask-api/internal/errors"
	"github.com/yukikurage/teamtask-api/internal/middleware"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/services"
	"github.com/yukikurage/teamtask-api/internal/utils"
)

const aiRequestTimeout = 60 * time.Second

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the caller's role-scoped tasks.
// Can filter by status, priority and project_id; paginates when page, limit or skip is given.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var input services.ListTasksInput
	if v := c.Query("status"); v != "" {
		status := models.TaskStatus(v)
		input.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := models.TaskPriority(v)
		input.Priority = &priority
	}
	if v := c.Query("project_id"); v != "" {
		projectID, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project_id")
			return
		}
		input.ProjectID = &projectID
	}

	paginate := c.Query("page") != "" || c.Query("limit") != "" || c.Query("skip") != ""
	params := utils.GetPaginationParams(c)
	if paginate {
		input.Pagination = &params
	}

	tasks, total, err := h.taskService.ListTasks(actor, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	payload := gin.H{
		"count": len(tasks),
		"tasks": dto.ToTaskDTOs(tasks),
	}
	if paginate {
		payload["pagination"] = utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		}
	}
	respondSuccess(c, http.StatusOK, "", payload)
}

// MyTasks returns the caller's tasks without filters.
func (h *TaskHandler) MyTasks(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.MyTasks(actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"count": len(tasks),
		"tasks": dto.ToTaskDTOs(tasks),
	})
}

// GetTask returns a specific task with comments and attachments.
func (h *TaskHandler) GetTask(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(actor, middleware.GetIDParam(c, "id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{"task": dto.ToTaskDTO(*task)})
}

// CreateTask creates a new task and notifies its assignees.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description" binding:"required"`
		ProjectID   uint64              `json:"project_id" binding:"required"`
		AssignedTo  []uint64            `json:"assigned_to" binding:"required,min=1"`
		Departments []models.Department `json:"departments" binding:"omitempty,dive,department"`
		StartDate   *time.Time          `json:"start_date"`
		DueDate     *time.Time          `json:"due_date" binding:"required"`
		Priority    models.TaskPriority `json:"priority" binding:"omitempty,task_priority"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), actor, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   req.ProjectID,
		AssigneeIDs: req.AssignedTo,
		Departments: req.Departments,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Task created successfully", gin.H{"task": dto.ToTaskDTO(*task)})
}

// UpdateTask edits an existing task. Omitted fields are left untouched.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title       *string              `json:"title"`
		Description *string              `json:"description"`
		DueDate     *time.Time           `json:"due_date"`
		Priority    *models.TaskPriority `json:"priority" binding:"omitempty,task_priority"`
		Status      *models.TaskStatus   `json:"status" binding:"omitempty,task_status"`
		AssignedTo  []uint64             `json:"assigned_to"`
		Departments *[]models.Department `json:"departments" binding:"omitempty,dive,department"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), actor, middleware.GetIDParam(c, "id"), services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Status:      req.Status,
		AssigneeIDs: req.AssignedTo,
		Departments: req.Departments,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Task updated successfully", gin.H{"task": dto.ToTaskDTO(*task)})
}

// UpdateTaskStatus moves a task to a new status and re-derives the project status.
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	type UpdateStatusRequest struct {
		Status models.TaskStatus `json:"status" binding:"required,task_status"`
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.taskService.UpdateTaskStatus(c.Request.Context(), actor, middleware.GetIDParam(c, "id"), req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Task status updated successfully", gin.H{"task": dto.ToTaskDTO(*task)})
}

// DeleteTask deletes a task with its assignments, comments and attachments.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), actor, middleware.GetIDParam(c, "id")); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Task deleted successfully", nil)
}

// AddComment appends a comment and returns the full comment list.
func (h *TaskHandler) AddComment(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	type AddCommentRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	comments, err := h.taskService.AddComment(c.Request.Context(), actor, middleware.GetIDParam(c, "id"), req.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Comment added successfully", gin.H{"comments": dto.ToCommentDTOs(comments)})
}

// ListComments returns a task's comments oldest first.
func (h *TaskHandler) ListComments(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	comments, err := h.taskService.ListComments(actor, middleware.GetIDParam(c, "id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"count":    len(comments),
		"comments": dto.ToCommentDTOs(comments),
	})
}

// AddAttachment records attachment metadata for an already uploaded file.
func (h *TaskHandler) AddAttachment(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	type AddAttachmentRequest struct {
		FileName string `json:"file_name" binding:"required"`
		FileURL  string `json:"file_url" binding:"required,url"`
	}

	var req AddAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	attachment, err := h.taskService.AddAttachment(c.Request.Context(), actor, middleware.GetIDParam(c, "id"), services.AddAttachmentInput{
		FileName: req.FileName,
		FileURL:  req.FileURL,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Attachment added successfully", gin.H{"attachment": dto.ToAttachmentDTO(*attachment)})
}

// GenerateTasks generates task suggestions from text using AI
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), aiRequestTimeout)
	defer cancel()

	drafts, err := h.taskService.GenerateTaskDrafts(ctx, actor, req.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"count": len(drafts),
		"tasks": drafts,
	})
}
