package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/services"
)

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"short password", services.ErrPasswordTooShort, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"bad access key", services.ErrInvalidAccessKey, http.StatusForbidden, "INVALID_ACCESS_KEY"},
		{"bad token", auth.ErrInvalidToken, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", services.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"ai disabled", services.ErrAIServiceNotConfigured, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"wrapped validation", fmt.Errorf("%w: leader is x", services.ErrLeaderDomain), http.StatusBadRequest, "INVALID_INPUT"},
		{"not found", services.ErrTaskNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"conflict", services.ErrAlreadyAssigned, http.StatusBadRequest, "CONFLICT"},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondServiceError(c, tt.err)

			require.Equal(t, tt.wantStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantCode, body["code"])
			assert.NotContains(t, body, "error")
		})
	}
}

func TestRespondSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondSuccess(c, http.StatusCreated, "Created", gin.H{"id": 7})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Created","id":7}`, w.Body.String())
}
