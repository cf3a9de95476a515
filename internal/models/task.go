package models

import (
	"time"

	"gorm.io/datatypes"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusBlocked    TaskStatus = "blocked"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusBlocked:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

type Task struct {
	ID           uint64                         `gorm:"primarykey" json:"id"`
	Title        string                         `gorm:"type:varchar(255);not null" json:"title"`
	Description  string                         `gorm:"type:text;not null" json:"description"`
	ProjectID    uint64                         `gorm:"not null;index" json:"project_id"`
	AssignedByID uint64                         `gorm:"not null;index" json:"assigned_by_id"`
	Departments  datatypes.JSONSlice[Department] `json:"departments"`
	StartDate    time.Time                      `json:"start_date"`
	DueDate      time.Time                      `gorm:"not null;index" json:"due_date"`
	Status       TaskStatus                     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Priority     TaskPriority                   `gorm:"type:varchar(20);not null;default:'medium';index" json:"priority"`
	CompletedAt  *time.Time                     `json:"completed_at"`
	CreatedAt    time.Time                      `json:"created_at"`
	UpdatedAt    time.Time                      `json:"updated_at"`

	// Relations
	Project     Project          `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	AssignedBy  User             `gorm:"foreignKey:AssignedByID" json:"assigned_by,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
	Comments    []TaskComment    `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Attachments []TaskAttachment `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
}

// AssigneeIDs returns the ids of the assigned users. Assignments must be preloaded.
func (t *Task) AssigneeIDs() []uint64 {
	ids := make([]uint64, 0, len(t.Assignments))
	for _, a := range t.Assignments {
		ids = append(ids, a.UserID)
	}
	return ids
}

// IsAssignedTo reports whether userID is among the assignees. Assignments must be preloaded.
func (t *Task) IsAssignedTo(userID uint64) bool {
	for _, a := range t.Assignments {
		if a.UserID == userID {
			return true
		}
	}
	return false
}
