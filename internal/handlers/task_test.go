package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/testutil"
)

// TaskHandlerTestSuite defines the test suite for the task routes
type TaskHandlerTestSuite struct {
	suite.Suite
	env *apiEnv

	admin    *models.User
	leader   *models.User
	rival    *models.User
	erin     *models.User
	sam      *models.User
	outsider *models.User
	project  *models.Project
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	suite.env = newAPIEnv(suite.T())
	db := suite.env.db

	suite.admin = testutil.CreateUser(suite.T(), db, models.RoleAdmin, "ada")
	suite.leader = testutil.CreateUser(suite.T(), db, models.RoleLeader, "lena")
	suite.rival = testutil.CreateUser(suite.T(), db, models.RoleLeader, "rita")
	suite.erin = testutil.CreateUser(suite.T(), db, models.RoleEmployee, "erin")
	suite.sam = testutil.CreateUser(suite.T(), db, models.RoleEmployee, "sam")
	suite.outsider = testutil.CreateUser(suite.T(), db, models.RoleEmployee, "omar")

	suite.project = testutil.CreateProject(suite.T(), db, suite.leader, "Apollo")
	testutil.AddMember(suite.T(), db, suite.project, suite.erin)
	testutil.AddMember(suite.T(), db, suite.project, suite.sam)
	testutil.AddMember(suite.T(), db, testutil.CreateProject(suite.T(), db, suite.rival, "Zeus"), suite.outsider)
}

func (suite *TaskHandlerTestSuite) token(user *models.User) string {
	return suite.env.tokenFor(suite.T(), user)
}

func (suite *TaskHandlerTestSuite) createBody(assignees ...*models.User) map[string]interface{} {
	ids := make([]uint64, 0, len(assignees))
	for _, u := range assignees {
		ids = append(ids, u.ID)
	}
	return map[string]interface{}{
		"title":       "Build login page",
		"description": "Form, validation and error states",
		"project_id":  suite.project.ID,
		"assigned_to": ids,
		"departments": []string{"Frontend"},
		"due_date":    time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	}
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Success() {
	w := suite.env.do(suite.T(), http.MethodPost, "/api/tasks", suite.token(suite.leader),
		suite.createBody(suite.erin, suite.sam, suite.erin))

	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	body := decode(suite.T(), w)
	suite.Equal("Task created successfully", body["message"])

	task := body["task"].(map[string]interface{})
	suite.Equal("pending", task["status"])
	suite.Equal("medium", task["priority"])
	suite.Equal(float64(suite.leader.ID), task["assigned_by_id"])
	suite.Len(task["assigned_to"], 2)

	var unread int64
	suite.Require().NoError(suite.env.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", suite.erin.ID, false).Count(&unread).Error)
	suite.Equal(int64(1), unread)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_EmployeeForbidden() {
	w := suite.env.do(suite.T(), http.MethodPost, "/api/tasks", suite.token(suite.erin), suite.createBody(suite.sam))

	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal("Role 'employee' is not authorized to access this route", decode(suite.T(), w)["message"])
}

func (suite *TaskHandlerTestSuite) TestCreateTask_InvalidRequest() {
	body := suite.createBody(suite.erin)
	delete(body, "due_date")
	body["priority"] = "whenever"

	w := suite.env.do(suite.T(), http.MethodPost, "/api/tasks", suite.token(suite.leader), body)

	suite.Require().Equal(http.StatusBadRequest, w.Code)
	resp := decode(suite.T(), w)
	suite.Equal("INVALID_INPUT", resp["code"])
	details := resp["details"].(map[string]interface{})
	suite.Equal("required", details["DueDate"])
	suite.Equal("task_priority", details["Priority"])
}

func (suite *TaskHandlerTestSuite) TestCreateTask_AssigneeOutsideTeam() {
	w := suite.env.do(suite.T(), http.MethodPost, "/api/tasks", suite.token(suite.leader),
		suite.createBody(suite.erin, suite.outsider))

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_RivalProject() {
	w := suite.env.do(suite.T(), http.MethodPost, "/api/tasks", suite.token(suite.rival),
		suite.createBody(suite.outsider))

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_UnknownAssignee() {
	body := suite.createBody()
	body["assigned_to"] = []uint64{9999}

	w := suite.env.do(suite.T(), http.MethodPost, "/api/tasks", suite.token(suite.leader), body)

	suite.Require().Equal(http.StatusBadRequest, w.Code)
	suite.Equal("one or more assigned users do not exist", decode(suite.T(), w)["message"])
}

func (suite *TaskHandlerTestSuite) TestListTasks_ScopedByRole() {
	testutil.CreateTask(suite.T(), suite.env.db, suite.project, suite.leader, models.TaskStatusPending, suite.erin)
	testutil.CreateTask(suite.T(), suite.env.db, suite.project, suite.leader, models.TaskStatusPending, suite.sam)
	testutil.CreateTask(suite.T(), suite.env.db, suite.project, suite.leader, models.TaskStatusCompleted, suite.erin, suite.sam)

	tests := []struct {
		name  string
		user  *models.User
		query string
		want  int
	}{
		{"admin sees all", suite.admin, "", 3},
		{"leader sees assigned by them", suite.leader, "", 3},
		{"rival sees none", suite.rival, "", 0},
		{"employee sees own", suite.erin, "", 2},
		{"status filter", suite.erin, "?status=completed", 1},
		{"project filter", suite.admin, fmt.Sprintf("?project_id=%d", suite.project.ID), 3},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.env.do(suite.T(), http.MethodGet, "/api/tasks"+tt.query, suite.token(tt.user), nil)

			suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
			body := decode(suite.T(), w)
			suite.Equal(float64(tt.want), body["count"])
			suite.NotContains(body, "pagination")
		})
	}
}

func (suite *TaskHandlerTestSuite) TestListTasks_Paginated() {
	for i := 0; i < 3; i++ {
		testutil.CreateTask(suite.T(), suite.env.db, suite.project, suite.leader, models.TaskStatusPending, suite.erin)
	}

	w := suite.env.do(suite.T(), http.MethodGet, "/api/tasks?page=2&limit=2", suite.token(suite.leader), nil)

	suite.Require().Equal(http.StatusOK, w.Code)
	body := decode(suite.T(), w)
	suite.Equal(float64(1), body["count"])
	pagination := body["pagination"].(map[string]interface{})
	suite.Equal(float64(2), pagination["page"])
	suite.Equal(float64(2), pagination["limit"])
	suite.Equal(float64(3), pagination["total"])
}

func (suite *TaskHandlerTestSuite) TestListTasks_Skip() {
	var created []*models.Task
	for i := 0; i < 4; i++ {
		created = append(created, testutil.CreateTask(suite.T(), suite.env.db, suite.project, suite.leader, models.TaskStatusPending, suite.erin))
	}

	w := suite.env.do(suite.T(), http.MethodGet, "/api/tasks?limit=2&skip=3", suite.token(suite.leader), nil)

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	body := decode(suite.T(), w)
	suite.Equal(float64(1), body["count"])
	tasks := body["tasks"].([]interface{})
	suite.Require().Len(tasks, 1)
	// newest first, so skipping three leaves the oldest
	suite.Equal(float64(created[0].ID), tasks[0].(map[string]interface{})["id"])
	pagination := body["pagination"].(map[string]interface{})
	suite.Equal(float64(4), pagination["total"])
}

func (suite *TaskHandlerTestSuite) TestListTasks_InvalidFilters() {
	w := suite.env.do(suite.T(), http.MethodGet, "/api/tasks?status=someday", suite.token(suite.admin), nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.env.do(suite.T(), http.MethodGet, "/api/tasks?project_id=abc", suite.token(suite.admin), nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestGetTask() {
	task := testutil.CreateTask(suite.T(), suite.env.db, suite.project, suite.leader, models.TaskStatusPending, suite.erin)
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := suite.env.do(suite.T(), http.MethodGet, path, suite.token(suite.erin), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(float64(task.ID), decode(suite.T(), w)["task"].(map[string]interface{})["id"])

	w = suite.env.do(suite.T(), http.MethodGet, path, suite.token(suite.sam), nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.env.do(suite.T(), http.MethodGet, "/api/tasks/9999", suite.token(suite.admin), nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.env.do(suite.T(), http.MethodGet, "/api/tasks/abc", suite.token(suite.admin), nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestUpdateTaskStatus_CompletesProject() {
	first := testutil.CreateTask(suite.T(), suite.env.db, suite.project, suite.leader, models.TaskStatusCompleted, suite.sam)
	second := testutil.CreateTask(suite.T(), suite.env.db, suite.project, suite.leader, models.TaskStatusInProgress, suite.erin)
	_ = first

	w := suite.env.do(suite.T(), http.MethodPatch, fmt.Sprintf("/api/tasks/%d/status", second.ID),
		suite.token(suite.erin), map[string]interface{}{"status": "completed"})

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	task := decode(suite.T(), w)["task"].(map[string]interface{})
	suite.Equal("completed", task["status"])
	suite.NotNil(task["completed_at"])

	var project models.Project
	suite.Require().NoError(suite.env.db.First(&project, suite.project.ID).Error)
	suite.Equal(models.ProjectStatusCompleted, project.Status)
}

func (suite *TaskHandlerTestSuite) TestUpdateTaskStatus_Rejected() {
	task := testutil.CreateTask(suite.T(), suite.env.db, suite.project, suite.leader, models.TaskStatusPending, suite.erin)
	path := fmt.Sprintf("/api/tasks/%d/status", task.ID)

	w := suite.env.do(suite.T(), http.MethodPatch, path, suite.token(suite.sam), map[string]interface{}{"status": "completed"})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.env.do(suite.T(), http.MethodPatch, path, suite.token(suite.erin), map[string]interface{}{"status": "done"})
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	suite.Equal("task_status", decode(suite.T(), w)["details"].(map[string]interface{})["Status"])
}

func (suite *TaskHandlerTestSuite) TestUpdateTask() {
	task := testutil.CreateTask(suite.T(), suite.env.db, suite.project, suite.leader, models.TaskStatusPending, suite.erin)
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := suite.env.do(suite.T(), http.MethodPut, path, suite.token(suite.leader), map[string]interface{}{
		"title":       "Renamed",
		"priority":    "urgent",
		"assigned_to": []uint64{suite.sam.ID},
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	updated := decode(suite.T(), w)["task"].(map[string]interface{})
	suite.Equal("Renamed", updated["title"])
	suite.Equal("urgent", updated["priority"])
	assignees := updated["assigned_to"].([]interface{})
	suite.Require().Len(assignees, 1)
	suite.Equal(float64(suite.sam.ID), assignees[0].(map[string]interface{})["id"])

	w = suite.env.do(suite.T(), http.MethodPut, path, suite.token(suite.rival), map[string]interface{}{"title": "Mine now"})
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask() {
	task := testutil.CreateTask(suite.T(), suite.env.db, suite.project, suite.leader, models.TaskStatusPending, suite.erin)
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := suite.env.do(suite.T(), http.MethodDelete, path, suite.token(suite.rival), nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.env.do(suite.T(), http.MethodDelete, path, suite.token(suite.leader), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("Task deleted successfully", decode(suite.T(), w)["message"])

	w = suite.env.do(suite.T(), http.MethodGet, path, suite.token(suite.admin), nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestComments() {
	task := testutil.CreateTask(suite.T(), suite.env.db, suite.project, suite.leader, models.TaskStatusPending, suite.erin)
	path := fmt.Sprintf("/api/tasks/%d/comments", task.ID)

	w := suite.env.do(suite.T(), http.MethodPost, path, suite.token(suite.erin), map[string]interface{}{"text": "Started"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.env.do(suite.T(), http.MethodPost, path, suite.token(suite.leader), map[string]interface{}{"text": "Thanks"})
	suite.Require().Equal(http.StatusCreated, w.Code)
	suite.Len(decode(suite.T(), w)["comments"], 2)

	w = suite.env.do(suite.T(), http.MethodPost, path, suite.token(suite.erin), map[string]interface{}{"text": ""})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.env.do(suite.T(), http.MethodGet, path, suite.token(suite.sam), nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.env.do(suite.T(), http.MethodGet, path, suite.token(suite.erin), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	body := decode(suite.T(), w)
	suite.Equal(float64(2), body["count"])
	first := body["comments"].([]interface{})[0].(map[string]interface{})
	suite.Equal("Started", first["text"])
}

func (suite *TaskHandlerTestSuite) TestGenerateTasks_NotConfigured() {
	w := suite.env.do(suite.T(), http.MethodPost, "/api/tasks/generate", suite.token(suite.leader),
		map[string]interface{}{"text": "Build the billing page"})

	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

func (suite *TaskHandlerTestSuite) TestUnauthenticated() {
	w := suite.env.do(suite.T(), http.MethodGet, "/api/tasks", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

// TestTaskHandlerTestSuite runs the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
