package dto

import (
	"time"

	"github.com/yukikurage/teamtask-api/internal/models"
)

// NotificationDTO represents a notification in API responses
type NotificationDTO struct {
	ID               uint64                  `json:"id"`
	Type             models.NotificationType `json:"type"`
	Message          string                  `json:"message"`
	Read             bool                    `json:"read"`
	ReadAt           *time.Time              `json:"read_at,omitempty"`
	RelatedTaskID    *uint64                 `json:"related_task_id,omitempty"`
	RelatedProjectID *uint64                 `json:"related_project_id,omitempty"`
	RelatedUserID    *uint64                 `json:"related_user_id,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
}

// ToNotificationDTO converts a Notification model to NotificationDTO
func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:               n.ID,
		Type:             n.Type,
		Message:          n.Message,
		Read:             n.Read,
		ReadAt:           n.ReadAt,
		RelatedTaskID:    n.RelatedTaskID,
		RelatedProjectID: n.RelatedProjectID,
		RelatedUserID:    n.RelatedUserID,
		CreatedAt:        n.CreatedAt,
	}
}

// ToNotificationDTOs converts a slice of notifications
func ToNotificationDTOs(notifications []models.Notification) []NotificationDTO {
	result := make([]NotificationDTO, len(notifications))
	for i, n := range notifications {
		result[i] = ToNotificationDTO(n)
	}
	return result
}
