package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/teamtask-api/internal/constants"
	"github.com/yukikurage/teamtask-api/internal/metrics"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/realtime"
	"github.com/yukikurage/teamtask-api/internal/repository"
	"github.com/yukikurage/teamtask-api/internal/utils"
	"gorm.io/gorm"
)

var taskDetailPreloads = []string{"Project", "AssignedBy", "Assignments.User"}

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	access      *AccessPolicy
	notifier    Notifier
	publisher   realtime.Publisher
	aiService   *AIService
	logger      *slog.Logger
	now         func() time.Time
}

// NewTaskService creates a new TaskService. publisher and aiService may be nil.
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	access *AccessPolicy,
	notifier Notifier,
	publisher realtime.Publisher,
	aiService *AIService,
	logger *slog.Logger,
) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		access:      access,
		notifier:    notifier,
		publisher:   publisher,
		aiService:   aiService,
		logger:      logger,
		now:         time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status    *models.TaskStatus
	Priority  *models.TaskPriority
	ProjectID *uint64
	// Pagination is nil for an unpaginated listing
	Pagination *utils.PaginationParams
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	ProjectID   uint64
	AssigneeIDs []uint64
	Departments []models.Department
	StartDate   *time.Time
	DueDate     *time.Time
	Priority    models.TaskPriority
}

// UpdateTaskInput carries the editable task fields. Nil fields are left untouched.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *models.TaskPriority
	Status      *models.TaskStatus
	AssigneeIDs []uint64
	Departments *[]models.Department
}

// ListTasks scopes tasks by role: everything for admins, tasks a leader
// assigned, tasks assigned to an employee.
func (s *TaskService) ListTasks(actor *models.User, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		ProjectID: input.ProjectID,
		Status:    input.Status,
		Priority:   input.Priority,
		Pagination: input.Pagination,
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, 0, ErrInvalidPriority
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleLeader:
		filter.AssignedByID = &actor.ID
	default:
		filter.AssignedUserID = &actor.ID
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// MyTasks returns the caller's role-scoped tasks without extra filters
func (s *TaskService) MyTasks(actor *models.User) ([]models.Task, error) {
	tasks, _, err := s.ListTasks(actor, ListTasksInput{})
	return tasks, err
}

// GetTask returns a task with related data if actor may read it
func (s *TaskService) GetTask(actor *models.User, taskID uint64) (*models.Task, error) {
	task, err := s.find(taskID, append(taskDetailPreloads, "Comments.User", "Attachments")...)
	if err != nil {
		return nil, err
	}
	if err := CanViewTask(actor, task); err != nil {
		return nil, err
	}
	return task, nil
}

// CreateTask creates a task in a project the actor may manage and notifies every assignee
func (s *TaskService) CreateTask(ctx context.Context, actor *models.User, input CreateTaskInput) (*models.Task, error) {
	if err := AuthorizeRole(actor, models.RoleAdmin, models.RoleLeader); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, ErrDescriptionRequired
	}
	if input.DueDate == nil || input.DueDate.IsZero() {
		return nil, ErrDueDateRequired
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if err := validateDepartments(input.Departments); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.FindByID(input.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	if err := CanManageProject(actor, project); err != nil {
		return nil, err
	}

	assigneeIDs, err := s.checkAssignees(actor, input.AssigneeIDs)
	if err != nil {
		return nil, err
	}

	startDate := s.now()
	if input.StartDate != nil && !input.StartDate.IsZero() {
		startDate = *input.StartDate
	}
	departments := input.Departments
	if departments == nil {
		departments = []models.Department{}
	}

	task := &models.Task{
		Title:        title,
		Description:  input.Description,
		ProjectID:    project.ID,
		AssignedByID: actor.ID,
		Departments:  departments,
		StartDate:    startDate,
		DueDate:      *input.DueDate,
		Status:       models.TaskStatusPending,
		Priority:     input.Priority,
	}

	if err := s.taskRepo.Create(task, assigneeIDs); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	notifications := make([]models.Notification, 0, len(assigneeIDs))
	for _, userID := range assigneeIDs {
		notifications = append(notifications, s.taskNotification(task, userID, actor.ID,
			models.NotificationTaskAssigned,
			fmt.Sprintf("You have been assigned a new task: %q", task.Title)))
	}
	s.notifier.Notify(ctx, notifications...)

	created, err := s.find(task.ID, taskDetailPreloads...)
	if err != nil {
		return nil, err
	}
	s.publishTask(ctx, created, ActionCreated, actor.ID)
	return created, nil
}

// UpdateTask applies the allow-listed fields of input. Only the assigner or an admin may edit.
func (s *TaskService) UpdateTask(ctx context.Context, actor *models.User, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.find(taskID, "Assignments")
	if err != nil {
		return nil, err
	}
	if err := CanEditTask(actor, task); err != nil {
		return nil, err
	}
	previousAssignees := task.AssigneeIDs()

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		task.Title = title
	}
	descriptionChanged := false
	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, ErrDescriptionRequired
		}
		descriptionChanged = *input.Description != task.Description
		task.Description = *input.Description
	}
	if input.DueDate != nil {
		if input.DueDate.IsZero() {
			return nil, ErrDueDateRequired
		}
		task.DueDate = *input.DueDate
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.Departments != nil {
		if err := validateDepartments(*input.Departments); err != nil {
			return nil, err
		}
		task.Departments = *input.Departments
	}
	statusWrite := false
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		statusWrite = true
		s.applyStatus(task, *input.Status)
	}

	var assigneeIDs []uint64
	if input.AssigneeIDs != nil {
		assigneeIDs, err = s.checkAssignees(actor, input.AssigneeIDs)
		if err != nil {
			return nil, err
		}
	}

	change, err := s.taskRepo.Update(repository.TaskUpdate{
		Task:             task,
		AssigneeIDs:      assigneeIDs,
		RecomputeProject: statusWrite,
	})
	if statusWrite {
		metrics.ObserveCascade("task_status", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	updated, err := s.find(task.ID, taskDetailPreloads...)
	if err != nil {
		return nil, err
	}

	if descriptionChanged {
		notifications := make([]models.Notification, 0, len(updated.Assignments))
		for _, userID := range updated.AssigneeIDs() {
			if userID == actor.ID {
				continue
			}
			notifications = append(notifications, s.taskNotification(updated, userID, actor.ID,
				models.NotificationTaskUpdated,
				fmt.Sprintf("Task %q description has been updated", updated.Title)))
		}
		s.notifier.Notify(ctx, notifications...)
	}

	s.publishTask(ctx, updated, ActionUpdated, actor.ID, previousAssignees...)
	s.publishProjectStatus(ctx, change, actor.ID)
	return updated, nil
}

// UpdateTaskStatus writes a new status, re-derives the project status and
// notifies the assigner.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, actor *models.User, taskID uint64, status models.TaskStatus) (*models.Task, error) {
	if status == "" {
		return nil, fmt.Errorf("%w: status is required", ErrInvalidStatus)
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	task, err := s.find(taskID, "Assignments")
	if err != nil {
		return nil, err
	}
	if err := CanUpdateTaskStatus(actor, task); err != nil {
		return nil, err
	}

	s.applyStatus(task, status)

	change, err := s.taskRepo.Update(repository.TaskUpdate{Task: task, RecomputeProject: true})
	metrics.ObserveCascade("task_status", err)
	if err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	if status == models.TaskStatusCompleted {
		s.notifier.Notify(ctx, s.taskNotification(task, task.AssignedByID, actor.ID,
			models.NotificationTaskCompleted,
			fmt.Sprintf("Task %q has been completed by %s", task.Title, actor.Name)))
	} else {
		s.notifier.Notify(ctx, s.taskNotification(task, task.AssignedByID, actor.ID,
			models.NotificationTaskStatusUpdated,
			fmt.Sprintf("Task %q status updated to %s by %s", task.Title, status, actor.Name)))
	}

	s.publishTask(ctx, task, ActionStatusChanged, actor.ID)
	s.publishProjectStatus(ctx, change, actor.ID)

	return s.find(task.ID, taskDetailPreloads...)
}

// DeleteTask hard deletes a task if actor is an admin or its assigner
func (s *TaskService) DeleteTask(ctx context.Context, actor *models.User, taskID uint64) error {
	task, err := s.find(taskID, "Assignments")
	if err != nil {
		return err
	}
	if err := CanEditTask(actor, task); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.publishTask(ctx, task, ActionDeleted, actor.ID)
	return nil
}

// AddComment appends a comment and returns the task's full comment log
func (s *TaskService) AddComment(ctx context.Context, actor *models.User, taskID uint64, text string) ([]models.TaskComment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentRequired
	}

	task, err := s.find(taskID, "Assignments")
	if err != nil {
		return nil, err
	}
	if err := CanViewTask(actor, task); err != nil {
		return nil, err
	}

	comment := &models.TaskComment{
		TaskID:    task.ID,
		UserID:    actor.ID,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.taskRepo.AddComment(comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	s.publishTask(ctx, task, ActionCommented, actor.ID)
	return s.listComments(task.ID)
}

// ListComments returns the comment log of a task visible to actor
func (s *TaskService) ListComments(actor *models.User, taskID uint64) ([]models.TaskComment, error) {
	task, err := s.find(taskID, "Assignments")
	if err != nil {
		return nil, err
	}
	if err := CanViewTask(actor, task); err != nil {
		return nil, err
	}
	return s.listComments(task.ID)
}

// AddAttachmentInput describes uploaded file metadata
type AddAttachmentInput struct {
	FileName string
	FileURL  string
}

// AddAttachment records attachment metadata on a task visible to actor
func (s *TaskService) AddAttachment(ctx context.Context, actor *models.User, taskID uint64, input AddAttachmentInput) (*models.TaskAttachment, error) {
	if strings.TrimSpace(input.FileName) == "" || strings.TrimSpace(input.FileURL) == "" {
		return nil, ErrAttachmentRequired
	}

	task, err := s.find(taskID, "Assignments")
	if err != nil {
		return nil, err
	}
	if err := CanViewTask(actor, task); err != nil {
		return nil, err
	}

	attachment := &models.TaskAttachment{
		TaskID:       task.ID,
		FileName:     strings.TrimSpace(input.FileName),
		FileURL:      strings.TrimSpace(input.FileURL),
		UploadedByID: actor.ID,
	}
	if err := s.taskRepo.AddAttachment(attachment); err != nil {
		return nil, fmt.Errorf("failed to add attachment: %w", err)
	}

	s.publishTask(ctx, task, ActionUpdated, actor.ID)
	return attachment, nil
}

// GenerateTaskDrafts uses AI to suggest tasks from free text. Nothing is persisted.
func (s *TaskService) GenerateTaskDrafts(ctx context.Context, actor *models.User, text string) ([]GeneratedTask, error) {
	if err := AuthorizeRole(actor, models.RoleAdmin, models.RoleLeader); err != nil {
		return nil, err
	}
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrAITextRequired
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		if strings.TrimSpace(aiTask.Title) == "" {
			continue
		}
		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}
		if aiTask.Priority != "" && !aiTask.Priority.Valid() {
			aiTask.Priority = models.TaskPriorityMedium
		}
		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// applyStatus keeps completedAt set exactly while the task is completed
func (s *TaskService) applyStatus(task *models.Task, status models.TaskStatus) {
	if status == models.TaskStatusCompleted {
		if task.Status != models.TaskStatusCompleted || task.CompletedAt == nil {
			now := s.now()
			task.CompletedAt = &now
		}
	} else {
		task.CompletedAt = nil
	}
	task.Status = status
}

// checkAssignees requires a non-empty set of existing users the actor may assign
func (s *TaskService) checkAssignees(actor *models.User, ids []uint64) ([]uint64, error) {
	unique := uniqueUint64(ids)
	if len(unique) == 0 {
		return nil, ErrNoAssignees
	}

	count, err := s.userRepo.CountByIDs(unique)
	if err != nil {
		return nil, fmt.Errorf("failed to verify assignees: %w", err)
	}
	if int(count) != len(unique) {
		return nil, ErrInvalidAssignee
	}

	if err := s.access.CanAssignTask(actor, unique); err != nil {
		return nil, err
	}
	return unique, nil
}

func (s *TaskService) find(taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) listComments(taskID uint64) ([]models.TaskComment, error) {
	comments, err := s.taskRepo.ListComments(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (s *TaskService) taskNotification(task *models.Task, userID, actorID uint64, kind models.NotificationType, message string) models.Notification {
	taskID := task.ID
	projectID := task.ProjectID
	return models.Notification{
		UserID:           userID,
		Type:             kind,
		Message:          message,
		RelatedTaskID:    &taskID,
		RelatedProjectID: &projectID,
		RelatedUserID:    &actorID,
	}
}

func (s *TaskService) publishTask(ctx context.Context, task *models.Task, action string, actorID uint64, extraUsers ...uint64) {
	publish(ctx, s.publisher, taskRooms(task, extraUsers...), realtime.Event{
		Type:      realtime.EventTaskUpdated,
		Action:    action,
		TaskID:    task.ID,
		ProjectID: task.ProjectID,
		UpdatedBy: actorID,
	})
}

func (s *TaskService) publishProjectStatus(ctx context.Context, change *repository.ProjectStatusChange, actorID uint64) {
	if !change.Changed() {
		return
	}
	project, err := s.projectRepo.FindByID(change.ProjectID)
	if err != nil {
		s.logger.Warn("failed to load project for status event",
			slog.Uint64("project_id", change.ProjectID),
			slog.Any("error", err),
		)
		return
	}
	publish(ctx, s.publisher, projectRooms(project.ID, project.LeaderID), realtime.Event{
		Type:          realtime.EventProjectUpdated,
		Action:        ActionStatusChanged,
		ProjectID:     project.ID,
		UpdatedBy:     actorID,
		ProjectStatus: string(change.Current),
	})
}

func validateDepartments(departments []models.Department) error {
	for _, d := range departments {
		if !d.Valid() {
			return fmt.Errorf("%w: %s", ErrInvalidDepartment, d)
		}
	}
	return nil
}
