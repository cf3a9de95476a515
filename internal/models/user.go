package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleLeader   Role = "leader"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLeader, RoleEmployee:
		return true
	}
	return false
}

// RequiresDomain reports whether users with this role must belong to a domain.
func (r Role) RequiresDomain() bool {
	return r == RoleLeader || r == RoleEmployee
}

// RequiresAccessKey reports whether users with this role log in with an access key.
func (r Role) RequiresAccessKey() bool {
	return r == RoleAdmin || r == RoleLeader
}

type User struct {
	ID                  uint64         `gorm:"primarykey" json:"id"`
	Name                string         `gorm:"type:varchar(255);not null" json:"name"`
	Email               string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash        string         `gorm:"type:varchar(255);not null" json:"-"`
	Role                Role           `gorm:"type:varchar(20);not null;default:'employee';index" json:"role"`
	Domain              *Domain        `gorm:"type:varchar(64);index" json:"domain,omitempty"`
	AccessKeyHash       string         `gorm:"type:varchar(255)" json:"-"`
	PhoneNumber         string         `gorm:"type:varchar(32)" json:"phone_number,omitempty"`
	IsActive            bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedByID         *uint64        `json:"created_by_id,omitempty"`
	ResetTokenHash      *string        `gorm:"type:varchar(64);index" json:"-"`
	ResetTokenExpiresAt *time.Time     `json:"-"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Membership  *TeamMembership  `gorm:"foreignKey:UserID" json:"-"`
	LedProjects []Project        `gorm:"foreignKey:LeaderID" json:"-"`
	Assignments []TaskAssignment `gorm:"foreignKey:UserID" json:"-"`
}

// DomainValue returns the user's domain or an empty string.
func (u *User) DomainValue() Domain {
	if u.Domain == nil {
		return ""
	}
	return *u.Domain
}
