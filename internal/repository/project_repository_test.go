package repository

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/testutil"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestProjectRepository_ListByLeader(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewProjectRepository(db)

	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	other := testutil.CreateUser(t, db, models.RoleLeader, "Other")
	testutil.CreateProject(t, db, leader, "Apollo")
	testutil.CreateProject(t, db, leader, "Gemini")
	testutil.CreateProject(t, db, other, "Mercury")

	projects, err := repo.List(ProjectFilter{LeaderID: &leader.ID})
	require.NoError(t, err)
	require.Len(t, projects, 2)
	for _, p := range projects {
		assert.Equal(t, leader.ID, p.LeaderID)
		assert.Equal(t, "Leader", p.Leader.Name)
	}

	projects, err = repo.List(ProjectFilter{IDs: []uint64{}})
	require.NoError(t, err)
	assert.Empty(t, projects)

	projects, err = repo.List(ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, projects, 3)
}

func TestProjectRepository_TaskProgress(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewProjectRepository(db)

	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	alice := testutil.CreateUser(t, db, models.RoleEmployee, "Alice")
	apollo := testutil.CreateProject(t, db, leader, "Apollo")
	empty := testutil.CreateProject(t, db, leader, "Empty")
	testutil.CreateTask(t, db, apollo, leader, models.TaskStatusCompleted, alice)
	testutil.CreateTask(t, db, apollo, leader, models.TaskStatusCompleted, alice)
	testutil.CreateTask(t, db, apollo, leader, models.TaskStatusBlocked, alice)

	progress, err := repo.TaskProgress([]uint64{apollo.ID, empty.ID})
	require.NoError(t, err)
	assert.Equal(t, TaskCounts{Total: 3, Completed: 2}, progress[apollo.ID])
	assert.Equal(t, TaskCounts{}, progress[empty.ID])
}

func TestProjectRepository_DeleteWithCascade(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewProjectRepository(db)

	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	alice := testutil.CreateUser(t, db, models.RoleEmployee, "Alice")
	bob := testutil.CreateUser(t, db, models.RoleEmployee, "Bob")
	apollo := testutil.CreateProject(t, db, leader, "Apollo")
	gemini := testutil.CreateProject(t, db, leader, "Gemini")
	testutil.AddMember(t, db, apollo, alice)
	testutil.AddMember(t, db, gemini, bob)

	doomed := testutil.CreateTask(t, db, apollo, leader, models.TaskStatusPending, alice)
	testutil.CreateTask(t, db, apollo, leader, models.TaskStatusCompleted, alice)
	kept := testutil.CreateTask(t, db, gemini, leader, models.TaskStatusPending, bob)
	require.NoError(t, db.Create(&models.TaskComment{TaskID: doomed.ID, UserID: leader.ID, Text: "soon"}).Error)

	result, err := repo.DeleteWithCascade(apollo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.DeletedTasks)
	assert.Equal(t, int64(1), result.ClearedMembers)
	assert.Equal(t, []uint64{alice.ID}, result.MemberIDs)

	_, err = repo.FindByID(apollo.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var taskIDs []uint64
	require.NoError(t, db.Model(&models.Task{}).Pluck("id", &taskIDs).Error)
	assert.Equal(t, []uint64{kept.ID}, taskIDs)

	var comments int64
	require.NoError(t, db.Model(&models.TaskComment{}).Count(&comments).Error)
	assert.Zero(t, comments)

	_, err = repo.DeleteWithCascade(apollo.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProjectRepository_DeleteWithCascadeRollsBack(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "task_assignments"`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "task_comments"`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	repo := NewProjectRepository(db)
	_, err = repo.DeleteWithCascade(7)
	assert.EqualError(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
