package repository

import (
	"errors"

	"github.com/yukikurage/teamtask-api/internal/models"
	"gorm.io/gorm"
)

// GormMembershipRepository is a GORM implementation of MembershipRepository
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &GormMembershipRepository{db: db}
}

// Add inserts a membership. The user_id primary key rejects a second team.
func (r *GormMembershipRepository) Add(membership *models.TeamMembership) error {
	if err := r.db.Create(membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrMembershipExists
		}
		return err
	}
	return nil
}

// FindByUserID finds the employee's membership with its project
func (r *GormMembershipRepository) FindByUserID(userID uint64) (*models.TeamMembership, error) {
	var membership models.TeamMembership
	if err := r.db.Preload("Project").Where("user_id = ?", userID).First(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

// FindInLedProjects finds the membership of userID in any project led by leaderID
func (r *GormMembershipRepository) FindInLedProjects(leaderID, userID uint64) (*models.TeamMembership, error) {
	var membership models.TeamMembership
	if err := r.db.
		Preload("Project").
		Joins("JOIN projects ON projects.id = team_memberships.project_id").
		Where("projects.leader_id = ? AND team_memberships.user_id = ?", leaderID, userID).
		First(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

// ListByProject lists the members of a project
func (r *GormMembershipRepository) ListByProject(projectID uint64) ([]models.TeamMembership, error) {
	var memberships []models.TeamMembership
	if err := r.db.Preload("User").
		Where("project_id = ?", projectID).
		Order("joined_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListByLeader lists the members of every project led by leaderID
func (r *GormMembershipRepository) ListByLeader(leaderID uint64) ([]models.TeamMembership, error) {
	var memberships []models.TeamMembership
	if err := r.db.
		Preload("User").
		Preload("Project").
		Joins("JOIN projects ON projects.id = team_memberships.project_id").
		Where("projects.leader_id = ?", leaderID).
		Order("team_memberships.joined_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// CountReportingTo counts how many of userIDs report to leaderID
func (r *GormMembershipRepository) CountReportingTo(leaderID uint64, userIDs []uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.TeamMembership{}).
		Joins("JOIN projects ON projects.id = team_memberships.project_id").
		Where("projects.leader_id = ? AND team_memberships.user_id IN ?", leaderID, userIDs).
		Count(&count).Error
	return count, err
}

// RemoveWithCascade deletes the member's tasks in the project and the membership atomically
func (r *GormMembershipRepository) RemoveWithCascade(projectID, userID uint64) (*MemberRemovalResult, error) {
	var result *MemberRemovalResult
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = removeMemberTx(tx, projectID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListAll lists every membership with user and project
func (r *GormMembershipRepository) ListAll() ([]models.TeamMembership, error) {
	var memberships []models.TeamMembership
	if err := r.db.Preload("User").Preload("Project").Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// Delete removes a membership row without touching tasks
func (r *GormMembershipRepository) Delete(userID uint64) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.TeamMembership{}).Error
}

// removeMemberTx deletes every task of the project assigned to userID, shared
// tasks included, then drops the membership. No task of the project can still
// reference userID afterwards.
func removeMemberTx(tx *gorm.DB, projectID, userID uint64) (*MemberRemovalResult, error) {
	assigned := tx.Model(&models.TaskAssignment{}).
		Select("task_id").
		Where("user_id = ?", userID)

	var tasks []models.Task
	if err := tx.Where("project_id = ? AND id IN (?)", projectID, assigned).
		Find(&tasks).Error; err != nil {
		return nil, err
	}

	ids := make([]uint64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	if err := deleteTasksTx(tx, ids); err != nil {
		return nil, err
	}

	if err := tx.Where("user_id = ? AND project_id = ?", userID, projectID).
		Delete(&models.TeamMembership{}).Error; err != nil {
		return nil, err
	}

	return &MemberRemovalResult{DeletedTasks: tasks}, nil
}
