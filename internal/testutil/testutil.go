// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/teamtask-api/internal/database"
	"github.com/yukikurage/teamtask-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DefaultPassword is the password given to fixture users.
const DefaultPassword = "supersecret"

// NewDB opens a migrated in-memory sqlite database and installs it with database.SetDB.
// A single connection keeps every query on the same in-memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(database.Models()...))
	require.NoError(t, database.MigrateDatabase(db))
	database.SetDB(db)

	return db
}

// UserOption customizes a fixture user.
type UserOption func(*models.User)

// WithDomain sets the user's domain.
func WithDomain(domain models.Domain) UserOption {
	return func(u *models.User) {
		u.Domain = &domain
	}
}

// WithAccessKey stores a hashed access key on the user.
func WithAccessKey(key string) UserOption {
	return func(u *models.User) {
		hash, _ := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
		u.AccessKeyHash = string(hash)
	}
}

// Inactive creates the user deactivated.
func Inactive() UserOption {
	return func(u *models.User) {
		u.IsActive = false
	}
}

// CreateUser inserts a user named name with email <name>@example.com.
// Leaders and employees default to the Full Stack Development domain.
func CreateUser(t testing.TB, db *gorm.DB, role models.Role, name string, opts ...UserOption) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Name:         name,
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if role.RequiresDomain() {
		domain := models.DomainFullStackDevelopment
		user.Domain = &domain
	}
	for _, opt := range opts {
		opt(user)
	}
	inactive := !user.IsActive

	// the column default backfills a zero bool on insert
	require.NoError(t, db.Omit(clause.Associations).Create(user).Error)
	if inactive {
		require.NoError(t, db.Model(user).Update("is_active", false).Error)
		user.IsActive = false
	}
	return user
}

// CreateProject inserts an active project led by leader in the leader's domain.
func CreateProject(t testing.TB, db *gorm.DB, leader *models.User, name string) *models.Project {
	t.Helper()

	project := &models.Project{
		Name:        name,
		Description: fmt.Sprintf("%s description", name),
		Domain:      leader.DomainValue(),
		LeaderID:    leader.ID,
		Deadline:    time.Now().Add(30 * 24 * time.Hour),
		Status:      models.ProjectStatusActive,
		CreatedByID: leader.ID,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(project).Error)
	return project
}

// AddMember puts user on project's team.
func AddMember(t testing.TB, db *gorm.DB, project *models.Project, user *models.User) {
	t.Helper()

	require.NoError(t, db.Omit(clause.Associations).Create(&models.TeamMembership{
		UserID:    user.ID,
		ProjectID: project.ID,
		AddedByID: project.LeaderID,
		JoinedAt:  time.Now(),
	}).Error)
}

// CreateTask inserts a task in project assigned by assignedBy to assignees.
func CreateTask(t testing.TB, db *gorm.DB, project *models.Project, assignedBy *models.User, status models.TaskStatus, assignees ...*models.User) *models.Task {
	t.Helper()

	now := time.Now()
	task := &models.Task{
		Title:        "Task for " + project.Name,
		Description:  "Do the work",
		ProjectID:    project.ID,
		AssignedByID: assignedBy.ID,
		StartDate:    now,
		DueDate:      now.Add(7 * 24 * time.Hour),
		Status:       status,
		Priority:     models.TaskPriorityMedium,
	}
	if status == models.TaskStatusCompleted {
		task.CompletedAt = &now
	}
	require.NoError(t, db.Omit(clause.Associations).Create(task).Error)

	for _, user := range assignees {
		require.NoError(t, db.Omit(clause.Associations).Create(&models.TaskAssignment{
			TaskID: task.ID,
			UserID: user.ID,
		}).Error)
	}
	return task
}
