package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/testutil"
	"gorm.io/gorm"
)

func TestMembershipRepository_AddRejectsSecondTeam(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMembershipRepository(db)

	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	other := testutil.CreateUser(t, db, models.RoleLeader, "Other")
	employee := testutil.CreateUser(t, db, models.RoleEmployee, "Employee")
	first := testutil.CreateProject(t, db, leader, "First")
	second := testutil.CreateProject(t, db, other, "Second")

	require.NoError(t, repo.Add(&models.TeamMembership{
		UserID: employee.ID, ProjectID: first.ID, AddedByID: leader.ID, JoinedAt: time.Now(),
	}))

	err := repo.Add(&models.TeamMembership{
		UserID: employee.ID, ProjectID: second.ID, AddedByID: other.ID, JoinedAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrMembershipExists)

	membership, err := repo.FindByUserID(employee.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, membership.ProjectID)
	assert.Equal(t, leader.ID, membership.Project.LeaderID)
}

func TestMembershipRepository_FindInLedProjects(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMembershipRepository(db)

	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	stranger := testutil.CreateUser(t, db, models.RoleLeader, "Stranger")
	employee := testutil.CreateUser(t, db, models.RoleEmployee, "Employee")
	project := testutil.CreateProject(t, db, leader, "Apollo")
	testutil.AddMember(t, db, project, employee)

	membership, err := repo.FindInLedProjects(leader.ID, employee.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, membership.ProjectID)

	_, err = repo.FindInLedProjects(stranger.ID, employee.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMembershipRepository_CountReportingTo(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMembershipRepository(db)

	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	other := testutil.CreateUser(t, db, models.RoleLeader, "Other")
	alice := testutil.CreateUser(t, db, models.RoleEmployee, "Alice")
	bob := testutil.CreateUser(t, db, models.RoleEmployee, "Bob")
	carol := testutil.CreateUser(t, db, models.RoleEmployee, "Carol")

	apollo := testutil.CreateProject(t, db, leader, "Apollo")
	gemini := testutil.CreateProject(t, db, leader, "Gemini")
	mercury := testutil.CreateProject(t, db, other, "Mercury")
	testutil.AddMember(t, db, apollo, alice)
	testutil.AddMember(t, db, gemini, bob)
	testutil.AddMember(t, db, mercury, carol)

	count, err := repo.CountReportingTo(leader.ID, []uint64{alice.ID, bob.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountReportingTo(leader.ID, []uint64{alice.ID, carol.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	team, err := repo.ListByLeader(leader.ID)
	require.NoError(t, err)
	assert.Len(t, team, 2)
}

func TestMembershipRepository_RemoveWithCascade(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMembershipRepository(db)

	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	alice := testutil.CreateUser(t, db, models.RoleEmployee, "Alice")
	bob := testutil.CreateUser(t, db, models.RoleEmployee, "Bob")
	project := testutil.CreateProject(t, db, leader, "Apollo")
	testutil.AddMember(t, db, project, alice)
	testutil.AddMember(t, db, project, bob)

	solo := testutil.CreateTask(t, db, project, leader, models.TaskStatusPending, alice)
	shared := testutil.CreateTask(t, db, project, leader, models.TaskStatusInProgress, alice, bob)
	untouched := testutil.CreateTask(t, db, project, leader, models.TaskStatusPending, bob)
	require.NoError(t, db.Create(&models.TaskComment{TaskID: solo.ID, UserID: alice.ID, Text: "on it"}).Error)

	result, err := repo.RemoveWithCascade(project.ID, alice.ID)
	require.NoError(t, err)
	assert.Len(t, result.DeletedTasks, 2)

	var remaining []uint64
	require.NoError(t, db.Model(&models.Task{}).Order("id").Pluck("id", &remaining).Error)
	assert.Equal(t, []uint64{untouched.ID}, remaining)

	var orphanRows int64
	require.NoError(t, db.Model(&models.TaskAssignment{}).Where("task_id IN ?", []uint64{solo.ID, shared.ID}).Count(&orphanRows).Error)
	assert.Zero(t, orphanRows)
	require.NoError(t, db.Model(&models.TaskComment{}).Where("task_id = ?", solo.ID).Count(&orphanRows).Error)
	assert.Zero(t, orphanRows)

	var aliceRows int64
	require.NoError(t, db.Model(&models.TaskAssignment{}).Where("user_id = ?", alice.ID).Count(&aliceRows).Error)
	assert.Zero(t, aliceRows)

	_, err = repo.FindByUserID(alice.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Bob keeps his membership and task
	_, err = repo.FindByUserID(bob.ID)
	assert.NoError(t, err)
}

func TestMembershipRepository_RemoveThenReAdd(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMembershipRepository(db)

	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	other := testutil.CreateUser(t, db, models.RoleLeader, "Other")
	employee := testutil.CreateUser(t, db, models.RoleEmployee, "Employee")
	first := testutil.CreateProject(t, db, leader, "First")
	second := testutil.CreateProject(t, db, other, "Second")
	testutil.AddMember(t, db, first, employee)

	_, err := repo.RemoveWithCascade(first.ID, employee.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Add(&models.TeamMembership{
		UserID: employee.ID, ProjectID: second.ID, AddedByID: other.ID, JoinedAt: time.Now(),
	}))

	membership, err := repo.FindByUserID(employee.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, membership.ProjectID)
}
