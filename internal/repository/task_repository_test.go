package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/testutil"
	"github.com/yukikurage/teamtask-api/internal/utils"
)

func TestTaskRepository_CreateAndFind(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTaskRepository(db)

	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	alice := testutil.CreateUser(t, db, models.RoleEmployee, "Alice")
	bob := testutil.CreateUser(t, db, models.RoleEmployee, "Bob")
	project := testutil.CreateProject(t, db, leader, "Apollo")

	task := &models.Task{
		Title:        "Build login",
		Description:  "Form and API",
		ProjectID:    project.ID,
		AssignedByID: leader.ID,
		Departments:  []models.Department{"Frontend", "Backend"},
		Status:       models.TaskStatusPending,
		Priority:     models.TaskPriorityHigh,
	}
	require.NoError(t, repo.Create(task, []uint64{alice.ID, bob.ID, alice.ID}))

	found, err := repo.FindByID(task.ID, "Assignments.User", "Project")
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{alice.ID, bob.ID}, found.AssigneeIDs())
	assert.Equal(t, "Apollo", found.Project.Name)
	assert.Equal(t, []models.Department{"Frontend", "Backend"}, []models.Department(found.Departments))
}

func TestTaskRepository_ListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTaskRepository(db)

	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	other := testutil.CreateUser(t, db, models.RoleLeader, "Other")
	alice := testutil.CreateUser(t, db, models.RoleEmployee, "Alice")
	bob := testutil.CreateUser(t, db, models.RoleEmployee, "Bob")
	apollo := testutil.CreateProject(t, db, leader, "Apollo")
	mercury := testutil.CreateProject(t, db, other, "Mercury")

	testutil.CreateTask(t, db, apollo, leader, models.TaskStatusPending, alice)
	testutil.CreateTask(t, db, apollo, leader, models.TaskStatusCompleted, alice, bob)
	testutil.CreateTask(t, db, mercury, other, models.TaskStatusPending, bob)

	tasks, total, err := repo.List(TaskFilter{AssignedByID: &leader.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, tasks, 2)

	tasks, total, err = repo.List(TaskFilter{AssignedUserID: &bob.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, task := range tasks {
		assert.True(t, task.IsAssignedTo(bob.ID))
	}

	completed := models.TaskStatusCompleted
	tasks, total, err = repo.List(TaskFilter{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, models.TaskStatusCompleted, tasks[0].Status)

	tasks, total, err = repo.List(TaskFilter{Pagination: &utils.PaginationParams{Page: 2, Limit: 2, Offset: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, tasks, 1)
}

func TestTaskRepository_ListHonoursOffset(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTaskRepository(db)

	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	alice := testutil.CreateUser(t, db, models.RoleEmployee, "Alice")
	project := testutil.CreateProject(t, db, leader, "Apollo")
	testutil.AddMember(t, db, project, alice)

	var created []*models.Task
	for i := 0; i < 4; i++ {
		created = append(created, testutil.CreateTask(t, db, project, leader, models.TaskStatusPending, alice))
	}

	// newest first: created[3], created[2], created[1], created[0]
	tasks, total, err := repo.List(TaskFilter{Pagination: &utils.PaginationParams{Page: 1, Limit: 2, Offset: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, tasks, 2)
	assert.Equal(t, created[2].ID, tasks[0].ID)
	assert.Equal(t, created[1].ID, tasks[1].ID)
}

func TestTaskRepository_UpdateRecomputesProjectStatus(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTaskRepository(db)

	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	alice := testutil.CreateUser(t, db, models.RoleEmployee, "Alice")
	project := testutil.CreateProject(t, db, leader, "Apollo")
	first := testutil.CreateTask(t, db, project, leader, models.TaskStatusCompleted, alice)
	second := testutil.CreateTask(t, db, project, leader, models.TaskStatusInProgress, alice)

	second.Status = models.TaskStatusCompleted
	change, err := repo.Update(TaskUpdate{Task: second, RecomputeProject: true})
	require.NoError(t, err)
	assert.True(t, change.Changed())
	assert.Equal(t, models.ProjectStatusCompleted, change.Current)

	first.Status = models.TaskStatusBlocked
	change, err = repo.Update(TaskUpdate{Task: first, RecomputeProject: true})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCompleted, change.Previous)
	assert.Equal(t, models.ProjectStatusActive, change.Current)

	var stored models.Project
	require.NoError(t, db.First(&stored, project.ID).Error)
	assert.Equal(t, models.ProjectStatusActive, stored.Status)
}

func TestTaskRepository_UpdateReplacesAssignees(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTaskRepository(db)

	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	alice := testutil.CreateUser(t, db, models.RoleEmployee, "Alice")
	bob := testutil.CreateUser(t, db, models.RoleEmployee, "Bob")
	project := testutil.CreateProject(t, db, leader, "Apollo")
	task := testutil.CreateTask(t, db, project, leader, models.TaskStatusPending, alice)

	change, err := repo.Update(TaskUpdate{Task: task, AssigneeIDs: []uint64{bob.ID}})
	require.NoError(t, err)
	assert.Nil(t, change)

	found, err := repo.FindByID(task.ID, "Assignments")
	require.NoError(t, err)
	assert.Equal(t, []uint64{bob.ID}, found.AssigneeIDs())
}

func TestTaskRepository_Comments(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTaskRepository(db)

	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	alice := testutil.CreateUser(t, db, models.RoleEmployee, "Alice")
	project := testutil.CreateProject(t, db, leader, "Apollo")
	task := testutil.CreateTask(t, db, project, leader, models.TaskStatusPending, alice)

	require.NoError(t, repo.AddComment(&models.TaskComment{TaskID: task.ID, UserID: leader.ID, Text: "first"}))
	require.NoError(t, repo.AddComment(&models.TaskComment{TaskID: task.ID, UserID: alice.ID, Text: "second"}))

	comments, err := repo.ListComments(task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "Leader", comments[0].User.Name)
	assert.Equal(t, "second", comments[1].Text)

	require.NoError(t, repo.Delete(task.ID))
	comments, err = repo.ListComments(task.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestTaskRepository_CountAssignedBy(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTaskRepository(db)

	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	alice := testutil.CreateUser(t, db, models.RoleEmployee, "Alice")
	project := testutil.CreateProject(t, db, leader, "Apollo")
	testutil.CreateTask(t, db, project, leader, models.TaskStatusCompleted, alice)
	testutil.CreateTask(t, db, project, leader, models.TaskStatusPending, alice)

	counts, err := repo.CountAssignedBy(leader.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskCounts{Total: 2, Completed: 1}, counts)

	counts, err = repo.CountAssignedBy(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskCounts{}, counts)
}

func TestTaskRepository_ListAssignmentsOutsideTeam(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTaskRepository(db)

	admin := testutil.CreateUser(t, db, models.RoleAdmin, "Admin")
	leader := testutil.CreateUser(t, db, models.RoleLeader, "Leader")
	member := testutil.CreateUser(t, db, models.RoleEmployee, "Member")
	outsider := testutil.CreateUser(t, db, models.RoleEmployee, "Outsider")
	project := testutil.CreateProject(t, db, leader, "Apollo")
	testutil.AddMember(t, db, project, member)

	stray := testutil.CreateTask(t, db, project, leader, models.TaskStatusPending, member, outsider)
	testutil.CreateTask(t, db, project, admin, models.TaskStatusPending, outsider)

	assignments, err := repo.ListAssignmentsOutsideTeam()
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, outsider.ID, assignments[0].UserID)
	assert.Equal(t, stray.ID, assignments[0].TaskID)
	assert.Equal(t, project.ID, assignments[0].Task.ProjectID)
}
