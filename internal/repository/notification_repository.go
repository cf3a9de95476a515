package repository

import (
	"time"

	"github.com/yukikurage/teamtask-api/internal/database"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/utils"
	"gorm.io/gorm"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// List returns a page of the user's notifications, newest first, with the filtered total
func (r *GormNotificationRepository) List(filter NotificationFilter) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{}).Where("user_id = ?", filter.UserID)
	if filter.Read != nil {
		query = query.Where("is_read = ?", *filter.Read)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	listQuery := query.Scopes(database.Newest("notifications"))
	if filter.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Limit:  filter.Limit,
			Offset: filter.Offset,
		}))
	} else {
		listQuery = listQuery.Offset(filter.Offset)
	}
	if err := listQuery.Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *GormNotificationRepository) CountUnread(userID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification owned by userID as read
func (r *GormNotificationRepository) MarkRead(id, userID uint64) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&notification).Error; err != nil {
		return nil, err
	}
	if notification.Read {
		return &notification, nil
	}

	now := time.Now()
	if err := r.db.Model(&notification).Updates(map[string]interface{}{
		"is_read": true,
		"read_at": now,
	}).Error; err != nil {
		return nil, err
	}
	notification.Read = true
	notification.ReadAt = &now
	return &notification, nil
}

func (r *GormNotificationRepository) MarkAllRead(userID uint64) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()})
	return result.RowsAffected, result.Error
}

func (r *GormNotificationRepository) Delete(id, userID uint64) (int64, error) {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

func (r *GormNotificationRepository) DeleteRead(userID uint64) (int64, error) {
	result := r.db.Where("user_id = ? AND is_read = ?", userID, true).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

// PurgeOlderThan deletes read and unread notifications created before cutoff
func (r *GormNotificationRepository) PurgeOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
