package models

import "time"

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusOnHold    ProjectStatus = "on-hold"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusOnHold, ProjectStatusCancelled:
		return true
	}
	return false
}

type Project struct {
	ID          uint64        `gorm:"primarykey" json:"id"`
	Name        string        `gorm:"type:varchar(255);not null" json:"name"`
	Description string        `gorm:"type:text;not null" json:"description"`
	Domain      Domain        `gorm:"type:varchar(64);not null;index" json:"domain"`
	LeaderID    uint64        `gorm:"not null;index" json:"leader_id"`
	Deadline    time.Time     `gorm:"not null" json:"deadline"`
	Status      ProjectStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedByID uint64        `gorm:"not null" json:"created_by_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Relations
	Leader    User             `gorm:"foreignKey:LeaderID" json:"leader,omitempty"`
	CreatedBy User             `gorm:"foreignKey:CreatedByID" json:"-"`
	Members   []TeamMembership `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Tasks     []Task           `gorm:"foreignKey:ProjectID" json:"-"`
}

// HasMember reports whether userID is on the project's team. Members must be preloaded.
func (p *Project) HasMember(userID uint64) bool {
	for _, m := range p.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
