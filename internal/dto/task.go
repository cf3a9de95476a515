package dto

import (
	"time"

	"github.com/yukikurage/teamtask-api/internal/models"
)

// CommentDTO represents a task comment in API responses
type CommentDTO struct {
	ID        uint64          `json:"id"`
	Text      string          `json:"text"`
	User      *UserSummaryDTO `json:"user,omitempty"`
	UserID    uint64          `json:"user_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// AttachmentDTO represents attachment metadata in API responses
type AttachmentDTO struct {
	ID           uint64    `json:"id"`
	FileName     string    `json:"file_name"`
	FileURL      string    `json:"file_url"`
	UploadedByID uint64    `json:"uploaded_by_id"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID           uint64              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	ProjectID    uint64              `json:"project_id"`
	AssignedByID uint64              `json:"assigned_by_id"`
	Departments  []models.Department `json:"departments"`
	StartDate    time.Time           `json:"start_date"`
	DueDate      time.Time           `json:"due_date"`
	Status       models.TaskStatus   `json:"status"`
	Priority     models.TaskPriority `json:"priority"`
	CompletedAt  *time.Time          `json:"completed_at"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Project      *ProjectSummaryDTO  `json:"project,omitempty"`
	AssignedBy   *UserSummaryDTO     `json:"assigned_by,omitempty"`
	AssignedTo   []UserSummaryDTO    `json:"assigned_to"`
	Comments     []CommentDTO        `json:"comments,omitempty"`
	Attachments  []AttachmentDTO     `json:"attachments,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// ToCommentDTO converts a TaskComment model to CommentDTO
func ToCommentDTO(comment models.TaskComment) CommentDTO {
	dto := CommentDTO{
		ID:        comment.ID,
		Text:      comment.Text,
		UserID:    comment.UserID,
		CreatedAt: comment.CreatedAt,
	}
	if comment.User.ID != 0 {
		user := ToUserSummaryDTO(comment.User)
		dto.User = &user
	}
	return dto
}

// ToCommentDTOs converts a slice of comments
func ToCommentDTOs(comments []models.TaskComment) []CommentDTO {
	result := make([]CommentDTO, len(comments))
	for i, c := range comments {
		result[i] = ToCommentDTO(c)
	}
	return result
}

// ToAttachmentDTO converts a TaskAttachment model to AttachmentDTO
func ToAttachmentDTO(attachment models.TaskAttachment) AttachmentDTO {
	return AttachmentDTO{
		ID:           attachment.ID,
		FileName:     attachment.FileName,
		FileURL:      attachment.FileURL,
		UploadedByID: attachment.UploadedByID,
		UploadedAt:   attachment.UploadedAt,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		ProjectID:    task.ProjectID,
		AssignedByID: task.AssignedByID,
		Departments:  []models.Department(task.Departments),
		StartDate:    task.StartDate,
		DueDate:      task.DueDate,
		Status:       task.Status,
		Priority:     task.Priority,
		CompletedAt:  task.CompletedAt,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
		AssignedTo:   make([]UserSummaryDTO, 0, len(task.Assignments)),
	}
	if dto.Departments == nil {
		dto.Departments = []models.Department{}
	}

	// Include project if preloaded
	if task.Project.ID != 0 {
		project := ToProjectSummaryDTO(task.Project)
		dto.Project = &project
	}

	// Include assigner if preloaded
	if task.AssignedBy.ID != 0 {
		assignedBy := ToUserSummaryDTO(task.AssignedBy)
		dto.AssignedBy = &assignedBy
	}

	for _, assignment := range task.Assignments {
		if assignment.User.ID != 0 {
			dto.AssignedTo = append(dto.AssignedTo, ToUserSummaryDTO(assignment.User))
		} else {
			dto.AssignedTo = append(dto.AssignedTo, UserSummaryDTO{ID: assignment.UserID})
		}
	}

	if len(task.Comments) > 0 {
		dto.Comments = ToCommentDTOs(task.Comments)
	}
	if len(task.Attachments) > 0 {
		dto.Attachments = make([]AttachmentDTO, len(task.Attachments))
		for i, a := range task.Attachments {
			dto.Attachments[i] = ToAttachmentDTO(a)
		}
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	result := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		result[i] = ToTaskDTO(task)
	}
	return result
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	}
	return TaskListResponse{
		Tasks:      ToTaskDTOs(tasks),
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
