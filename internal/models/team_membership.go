package models

import "time"

// TeamMembership is the single record tying an employee to a project team.
// UserID is the primary key, so an employee can belong to at most one team;
// the employee's reporting leader is the leader of ProjectID.
type TeamMembership struct {
	UserID    uint64    `gorm:"primarykey;autoIncrement:false" json:"user_id"`
	ProjectID uint64    `gorm:"not null;index" json:"project_id"`
	AddedByID uint64    `gorm:"not null" json:"added_by_id"`
	JoinedAt  time.Time `json:"joined_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
