package repository

import (
	"github.com/yukikurage/teamtask-api/internal/database"
	"github.com/yukikurage/teamtask-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(project *models.Project) error {
	return r.db.Omit(clause.Associations).Create(project).Error
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&project, id).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// List lists projects matching the filter, newest first
func (r *GormProjectRepository) List(filter ProjectFilter) ([]models.Project, error) {
	query := r.db.Model(&models.Project{})
	if filter.LeaderID != nil {
		query = query.Where("leader_id = ?", *filter.LeaderID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return []models.Project{}, nil
		}
		query = query.Where("id IN ?", filter.IDs)
	}

	var projects []models.Project
	if err := query.
		Preload("Leader").
		Preload("Members.User").
		Scopes(database.Newest("projects")).
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Update saves project fields
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Omit(clause.Associations).Save(project).Error
}

// DeleteWithCascade deletes the project's tasks and memberships, then the project
func (r *GormProjectRepository) DeleteWithCascade(id uint64) (*ProjectDeleteResult, error) {
	result := &ProjectDeleteResult{}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		taskIDs := func() *gorm.DB {
			return tx.Model(&models.Task{}).Select("id").Where("project_id = ?", id)
		}

		if err := tx.Where("task_id IN (?)", taskIDs()).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id IN (?)", taskIDs()).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id IN (?)", taskIDs()).Delete(&models.TaskAttachment{}).Error; err != nil {
			return err
		}

		tasks := tx.Where("project_id = ?", id).Delete(&models.Task{})
		if tasks.Error != nil {
			return tasks.Error
		}
		result.DeletedTasks = tasks.RowsAffected

		if err := tx.Model(&models.TeamMembership{}).
			Where("project_id = ?", id).
			Pluck("user_id", &result.MemberIDs).Error; err != nil {
			return err
		}

		members := tx.Where("project_id = ?", id).Delete(&models.TeamMembership{})
		if members.Error != nil {
			return members.Error
		}
		result.ClearedMembers = members.RowsAffected

		project := tx.Delete(&models.Project{}, id)
		if project.Error != nil {
			return project.Error
		}
		if project.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TaskProgress returns total and completed task counts per project
func (r *GormProjectRepository) TaskProgress(projectIDs []uint64) (map[uint64]TaskCounts, error) {
	progress := make(map[uint64]TaskCounts, len(projectIDs))
	if len(projectIDs) == 0 {
		return progress, nil
	}

	var rows []struct {
		ProjectID uint64
		Total     int64
		Completed int64
	}
	if err := r.db.Model(&models.Task{}).
		Select("project_id, COUNT(*) AS total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed", models.TaskStatusCompleted).
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		progress[row.ProjectID] = TaskCounts{Total: row.Total, Completed: row.Completed}
	}
	return progress, nil
}
