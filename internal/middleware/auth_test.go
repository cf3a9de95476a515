package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/constants"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/services"
)

type fakeResolver struct {
	users  map[uint64]*models.User
	tokens map[string]uint64
	err    error
}

func (r *fakeResolver) Authenticate(token string) (*models.User, error) {
	id, ok := r.tokens[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return r.GetUser(id)
}

func (r *fakeResolver) GetUser(id uint64) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	user, ok := r.users[id]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return user, nil
}

func newResolver() *fakeResolver {
	return &fakeResolver{
		users: map[uint64]*models.User{
			1: {ID: 1, Name: "Admin", Role: models.RoleAdmin, IsActive: true},
			2: {ID: 2, Name: "Employee", Role: models.RoleEmployee, IsActive: true},
			3: {ID: 3, Name: "Idle", Role: models.RoleEmployee, IsActive: false},
		},
		tokens: map[string]uint64{
			"admin-token":    1,
			"employee-token": 2,
			"idle-token":     3,
			"ghost-token":    99,
		},
	}
}

func newAuthRouter(resolver UserResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-secret"))))

	r.POST("/login/:id", RequireIDParam("id"), func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(constants.ContextKeyUserID, GetIDParam(c, "id"))
		if err := session.Save(); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.GET("/me", RequireAuth(resolver), func(c *gin.Context) {
		user, ok := GetCurrentUser(c)
		if !ok {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "user_id": userID})
	})

	r.GET("/admin", RequireAuth(resolver), RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequireAuth_BearerToken(t *testing.T) {
	router := newAuthRouter(newResolver())

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{name: "valid", header: "Bearer employee-token", wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer employee-token", wantStatus: http.StatusOK},
		{name: "missing", header: "", wantStatus: http.StatusUnauthorized, wantMsg: "Not authorized to access this route. Please login."},
		{name: "unknown token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantMsg: "Invalid or expired token"},
		{name: "deleted user", header: "Bearer ghost-token", wantStatus: http.StatusUnauthorized, wantMsg: "User not found"},
		{name: "inactive user", header: "Bearer idle-token", wantStatus: http.StatusUnauthorized, wantMsg: "Your account has been deactivated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody(t, w)
			if tt.wantMsg != "" {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.wantMsg, body["message"])
				return
			}
			assert.Equal(t, float64(2), body["id"])
			assert.Equal(t, float64(2), body["user_id"])
		})
	}
}

func TestRequireAuth_Session(t *testing.T) {
	router := newAuthRouter(newResolver())

	login := httptest.NewRecorder()
	router.ServeHTTP(login, httptest.NewRequest(http.MethodPost, "/login/2", nil))
	require.Equal(t, http.StatusNoContent, login.Code)
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decodeBody(t, w)["id"])
}

func TestRequireAuth_ResolverFailure(t *testing.T) {
	resolver := newResolver()
	resolver.err = errors.New("db down")
	router := newAuthRouter(resolver)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeBody(t, w)["code"])
}

func TestRequireRole(t *testing.T) {
	router := newAuthRouter(newResolver())

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer employee-token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Role 'employee' is not authorized to access this route", decodeBody(t, w)["message"])
}

func TestRequireIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/tasks/:id", RequireIDParam("id"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetIDParam(c, "id")})
	})

	for path, want := range map[string]int{
		"/tasks/42":  http.StatusOK,
		"/tasks/0":   http.StatusBadRequest,
		"/tasks/-1":  http.StatusBadRequest,
		"/tasks/abc": http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks/42", nil))
	assert.Equal(t, float64(42), decodeBody(t, w)["id"])
}
