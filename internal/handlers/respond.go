package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/constants"
	apierrors "github.com/yukikurage/teamtask-api/internal/errors"
	"github.com/yukikurage/teamtask-api/internal/middleware"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/services"
)

var validationErrors = []error{
	services.ErrNameRequired,
	services.ErrInvalidEmail,
	services.ErrInvalidRole,
	services.ErrDomainRequired,
	services.ErrInvalidDomain,
	services.ErrAccessKeyRequired,
	services.ErrInvalidLeader,
	services.ErrLeaderDomain,
	services.ErrDeadlineRequired,
	services.ErrInvalidStatus,
	services.ErrInvalidPriority,
	services.ErrInvalidDepartment,
	services.ErrTitleRequired,
	services.ErrDescriptionRequired,
	services.ErrDueDateRequired,
	services.ErrNoAssignees,
	services.ErrInvalidAssignee,
	services.ErrCommentRequired,
	services.ErrAttachmentRequired,
	services.ErrCannotDeleteSelf,
	services.ErrCannotDeactivateSelf,
	services.ErrInvalidResetToken,
	services.ErrAITextRequired,
	services.ErrAINoTasksGenerated,
	services.ErrAINoValidTasks,
}

var notFoundErrors = []error{
	services.ErrUserNotFound,
	services.ErrLeaderNotFound,
	services.ErrProjectNotFound,
	services.ErrTaskNotFound,
	services.ErrMemberNotFound,
	services.ErrNoSuchEmployee,
	services.ErrNotificationNotFound,
}

var conflictErrors = []error{
	services.ErrEmailTaken,
	services.ErrAlreadyAssigned,
	services.ErrAlreadyMember,
	services.ErrSelfAssignment,
	services.ErrUserLeadsProjects,
}

// respondSuccess writes the {success, message, ...payload} envelope.
func respondSuccess(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// respondServiceError maps service sentinels onto the failure envelope.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, services.ErrInvalidAccessKey):
		apierrors.InvalidAccessKey(c, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		apierrors.Unauthorized(c, "Invalid or expired token")
	case errors.Is(err, services.ErrForbidden):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case matchesAny(err, validationErrors):
		apierrors.BadRequest(c, err.Error())
	case matchesAny(err, notFoundErrors):
		apierrors.NotFound(c, err.Error())
	case matchesAny(err, conflictErrors):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error", err)
	}
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondBindError reports malformed request bodies, listing failed fields when known.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		apierrors.BadRequestWithDetails(c, "Invalid request body", details)
		return
	}
	apierrors.BadRequest(c, "Invalid request body")
}

// currentUser returns the authenticated user or writes a 401.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return nil, false
	}
	return user, true
}
