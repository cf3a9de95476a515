package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/constants"
	"github.com/yukikurage/teamtask-api/internal/email"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/realtime"
	"github.com/yukikurage/teamtask-api/internal/repository"
	"github.com/yukikurage/teamtask-api/internal/services"
	"github.com/yukikurage/teamtask-api/internal/testutil"
	"gorm.io/gorm"
)

const (
	testAdminKey  = "admin-key"
	testLeaderKey = "leader-key"
)

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, []string, realtime.Event) {}

// apiEnv is a fully wired /api router backed by an in-memory database.
type apiEnv struct {
	db     *gorm.DB
	router *gin.Engine
	tokens *auth.TokenManager
}

func newAPIEnv(t testing.TB) *apiEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())

	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	projects := repository.NewProjectRepository(db)
	memberships := repository.NewMembershipRepository(db)
	tasks := repository.NewTaskRepository(db)
	notifications := repository.NewNotificationRepository(db)
	publisher := discardPublisher{}

	renderer, err := email.NewRenderer()
	require.NoError(t, err)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	authService := services.NewAuthService(users, tokens, email.NewLogMailer(nil), renderer, services.AuthSettings{
		AdminAccessKey:  testAdminKey,
		LeaderAccessKey: testLeaderKey,
		FrontendURL:     "http://localhost:5173",
	}, nil)
	notifier := services.NewNotificationService(notifications, publisher, nil)
	projectService := services.NewProjectService(projects, users, memberships, publisher)
	membershipService := services.NewMembershipService(projects, users, memberships, notifier, publisher)
	taskService := services.NewTaskService(tasks, projects, users, services.NewAccessPolicy(memberships),
		notifier, publisher, nil, nil)
	userService := services.NewUserService(users, projects, memberships, tasks)
	reportService := services.NewReportService(users, memberships, tasks)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-session-secret"))))
	Routes{
		DB:            db,
		Resolver:      authService,
		Auth:          NewAuthHandler(authService),
		Projects:      NewProjectHandler(projectService),
		Users:         NewUserHandler(userService, membershipService),
		Tasks:         NewTaskHandler(taskService),
		Notifications: NewNotificationHandler(notifier),
		Reports:       NewReportHandler(reportService),
	}.Register(r.Group("/api"))

	return &apiEnv{db: db, router: r, tokens: tokens}
}

// tokenFor issues a bearer token for user.
func (e *apiEnv) tokenFor(t testing.TB, user *models.User) string {
	t.Helper()

	token, err := e.tokens.Generate(user.ID)
	require.NoError(t, err)
	return token
}

// do sends a JSON request, authenticated with token when it is not empty.
func (e *apiEnv) do(t testing.TB, method, path, token string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals a response body into a generic map.
func decode(t testing.TB, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
