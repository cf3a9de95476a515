package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/teamtask-api/internal/database"
	"github.com/yukikurage/teamtask-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by lowercased email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmailAndDomain finds a user by exact email and domain
func (r *GormUserRepository) FindByEmailAndDomain(email string, domain models.Domain) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ? AND domain = ?", email, domain).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByResetTokenHash finds a user holding an unexpired reset token
func (r *GormUserRepository) FindByResetTokenHash(hash string, now time.Time) (*models.User, error) {
	var user models.User
	if err := r.db.
		Where("reset_token_hash = ? AND reset_token_expires_at > ?", hash, now).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves all user fields
func (r *GormUserRepository) Update(user *models.User) error {
	if err := r.db.Omit(clause.Associations).Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// List lists users matching the filter
func (r *GormUserRepository) List(filter UserFilter) ([]models.User, error) {
	query := r.db.Model(&models.User{})
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Domain != nil {
		query = query.Where("domain = ?", *filter.Domain)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return []models.User{}, nil
		}
		query = query.Where("id IN ?", filter.IDs)
	}

	var users []models.User
	if err := query.Scopes(database.Newest("users")).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CountByIDs counts how many of the given user IDs exist
func (r *GormUserRepository) CountByIDs(ids []uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

// DeleteWithCascade removes the user's membership and assignments in one transaction
func (r *GormUserRepository) DeleteWithCascade(id uint64) (*UserDeleteResult, error) {
	result := &UserDeleteResult{}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var membership models.TeamMembership
		err := tx.Where("user_id = ?", id).First(&membership).Error
		switch {
		case err == nil:
			removal, err := removeMemberTx(tx, membership.ProjectID, id)
			if err != nil {
				return err
			}
			result.DeletedTasks += int64(len(removal.DeletedTasks))
			projectID := membership.ProjectID
			result.LeftProjectID = &projectID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		// Assignments outside the former team
		var taskIDs []uint64
		if err := tx.Model(&models.TaskAssignment{}).
			Where("user_id = ?", id).
			Pluck("task_id", &taskIDs).Error; err != nil {
			return err
		}

		removed := tx.Where("user_id = ?", id).Delete(&models.TaskAssignment{})
		if removed.Error != nil {
			return removed.Error
		}
		result.RemovedFromTasks += removed.RowsAffected

		if len(taskIDs) > 0 {
			orphaned, err := tasksWithoutAssigneesTx(tx, taskIDs)
			if err != nil {
				return err
			}
			if err := deleteTasksTx(tx, orphaned); err != nil {
				return err
			}
			result.DeletedTasks += int64(len(orphaned))
		}

		// hard delete frees the email for re-registration
		return tx.Unscoped().Delete(&models.User{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
