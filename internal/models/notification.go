package models

import "time"

type NotificationType string

const (
	NotificationTaskAssigned      NotificationType = "task_assigned"
	NotificationTaskStatusUpdated NotificationType = "task_status_updated"
	NotificationTaskCompleted     NotificationType = "task_completed"
	NotificationProjectAssigned   NotificationType = "project_assigned"
	NotificationTeamMemberAdded   NotificationType = "team_member_added"
	NotificationDeadlineReminder  NotificationType = "deadline_reminder"
	NotificationTaskUpdated       NotificationType = "task_updated"
)

type Notification struct {
	ID               uint64           `gorm:"primarykey" json:"id"`
	UserID           uint64           `gorm:"not null;index:idx_notifications_user_read_created,priority:1" json:"user_id"`
	Type             NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Message          string           `gorm:"type:text;not null" json:"message"`
	Read             bool             `gorm:"column:is_read;not null;default:false;index:idx_notifications_user_read_created,priority:2" json:"read"`
	ReadAt           *time.Time       `json:"read_at,omitempty"`
	RelatedTaskID    *uint64          `json:"related_task_id,omitempty"`
	RelatedProjectID *uint64          `json:"related_project_id,omitempty"`
	RelatedUserID    *uint64          `json:"related_user_id,omitempty"`
	CreatedAt        time.Time        `gorm:"index:idx_notifications_user_read_created,priority:3;index" json:"created_at"`
}
