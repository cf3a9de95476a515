package repository

import (
	"time"

	"github.com/yukikurage/teamtask-api/internal/database"
	"github.com/yukikurage/teamtask-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a task and its assignments in one transaction
func (r *GormTaskRepository) Create(task *models.Task, assigneeIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return err
		}
		return assignUsersTx(tx, task.ID, assigneeIDs)
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{})

	if filter.ProjectID != nil {
		query = query.Where("tasks.project_id = ?", *filter.ProjectID)
	}
	if filter.AssignedByID != nil {
		query = query.Where("tasks.assigned_by_id = ?", *filter.AssignedByID)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.AssignedUserID != nil {
		assignmentSubQuery := r.db.Model(&models.TaskAssignment{}).
			Select("1").
			Where("task_assignments.task_id = tasks.id").
			Where("task_assignments.user_id = ?", *filter.AssignedUserID)
		query = query.Where("EXISTS (?)", assignmentSubQuery)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Scopes(database.Newest("tasks"))
	if filter.Pagination != nil {
		listQuery = listQuery.Scopes(database.Paginate(*filter.Pagination))
	}

	if err := listQuery.
		Preload("Project").
		Preload("AssignedBy").
		Preload("Assignments.User").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update saves the task row, replaces assignees when requested and
// re-derives the project status, all in one transaction.
func (r *GormTaskRepository) Update(update TaskUpdate) (*ProjectStatusChange, error) {
	var change *ProjectStatusChange

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(update.Task).Error; err != nil {
			return err
		}

		if update.AssigneeIDs != nil {
			if err := tx.Where("task_id = ?", update.Task.ID).
				Delete(&models.TaskAssignment{}).Error; err != nil {
				return err
			}
			if err := assignUsersTx(tx, update.Task.ID, update.AssigneeIDs); err != nil {
				return err
			}
		}

		if update.RecomputeProject {
			var err error
			change, err = recomputeProjectStatusTx(tx, update.Task.ProjectID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

// Delete deletes a task with its assignments, comments and attachments
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return deleteTasksTx(tx, []uint64{id})
	})
}

// AddComment appends a comment
func (r *GormTaskRepository) AddComment(comment *models.TaskComment) error {
	return r.db.Omit(clause.Associations).Create(comment).Error
}

// ListComments returns a task's comments oldest first
func (r *GormTaskRepository) ListComments(taskID uint64) ([]models.TaskComment, error) {
	var comments []models.TaskComment
	if err := r.db.Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// AddAttachment records attachment metadata
func (r *GormTaskRepository) AddAttachment(attachment *models.TaskAttachment) error {
	return r.db.Create(attachment).Error
}

// CountAssignedBy returns total and completed counts of tasks created by userID
func (r *GormTaskRepository) CountAssignedBy(userID uint64) (TaskCounts, error) {
	var counts TaskCounts
	err := r.db.Model(&models.Task{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed", models.TaskStatusCompleted).
		Where("assigned_by_id = ?", userID).
		Scan(&counts).Error
	return counts, err
}

// ListForReport returns tasks with assignments for performance reporting
func (r *GormTaskRepository) ListForReport() ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Preload("Assignments").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListAssignmentsOutsideTeam lists assignments on leader-created tasks whose
// user is not a member of the task's project
func (r *GormTaskRepository) ListAssignmentsOutsideTeam() ([]models.TaskAssignment, error) {
	var assignments []models.TaskAssignment
	err := r.db.
		Preload("Task").
		Joins("JOIN tasks ON tasks.id = task_assignments.task_id").
		Joins("JOIN users assigners ON assigners.id = tasks.assigned_by_id").
		Joins("LEFT JOIN team_memberships ON team_memberships.user_id = task_assignments.user_id AND team_memberships.project_id = tasks.project_id").
		Where("assigners.role = ? AND team_memberships.user_id IS NULL", models.RoleLeader).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func assignUsersTx(tx *gorm.DB, taskID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	now := time.Now()
	assignments := make([]models.TaskAssignment, len(userIDs))
	for i, userID := range userIDs {
		assignments[i] = models.TaskAssignment{TaskID: taskID, UserID: userID, CreatedAt: now}
	}
	return tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&assignments).Error
}

// deleteTasksTx hard deletes tasks and every row hanging off them.
func deleteTasksTx(tx *gorm.DB, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("task_id IN ?", ids).Delete(&models.TaskAssignment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("task_id IN ?", ids).Delete(&models.TaskComment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("task_id IN ?", ids).Delete(&models.TaskAttachment{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&models.Task{}).Error
}

// tasksWithoutAssigneesTx returns the subset of ids that no longer have any assignee.
func tasksWithoutAssigneesTx(tx *gorm.DB, ids []uint64) ([]uint64, error) {
	var orphaned []uint64
	if len(ids) == 0 {
		return orphaned, nil
	}
	assigned := tx.Model(&models.TaskAssignment{}).Select("task_id").Where("task_id IN ?", ids)
	err := tx.Model(&models.Task{}).
		Where("id IN ? AND id NOT IN (?)", ids, assigned).
		Pluck("id", &orphaned).Error
	return orphaned, err
}

// recomputeProjectStatusTx sets the project to completed when every task is
// completed and back to active otherwise.
func recomputeProjectStatusTx(tx *gorm.DB, projectID uint64) (*ProjectStatusChange, error) {
	var project models.Project
	if err := tx.Select("id", "status").First(&project, projectID).Error; err != nil {
		return nil, err
	}

	var total, completed int64
	if err := tx.Model(&models.Task{}).Where("project_id = ?", projectID).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Task{}).
		Where("project_id = ? AND status = ?", projectID, models.TaskStatusCompleted).
		Count(&completed).Error; err != nil {
		return nil, err
	}

	derived := models.ProjectStatusActive
	if total > 0 && completed == total {
		derived = models.ProjectStatusCompleted
	}

	change := &ProjectStatusChange{ProjectID: projectID, Previous: project.Status, Current: derived}
	if change.Changed() {
		if err := tx.Model(&models.Project{}).
			Where("id = ?", projectID).
			Update("status", derived).Error; err != nil {
			return nil, err
		}
	}
	return change, nil
}
