package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/constants"
	apierrors "github.com/yukikurage/teamtask-api/internal/errors"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/services"
)

// UserResolver turns credentials into the current user record.
type UserResolver interface {
	Authenticate(token string) (*models.User, error)
	GetUser(id uint64) (*models.User, error)
}

// RequireAuth accepts a bearer token or, failing that, a login session.
// The user is reloaded on every request so deactivation applies immediately.
func RequireAuth(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			user *models.User
			err  error
		)

		if token := BearerToken(c); token != "" {
			user, err = resolver.Authenticate(token)
		} else if userID, ok := sessionUserID(c); ok {
			user, err = resolver.GetUser(userID)
		} else {
			apierrors.Unauthorized(c, "Not authorized to access this route. Please login.")
			c.Abort()
			return
		}

		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidToken):
				apierrors.Unauthorized(c, "Invalid or expired token")
			case errors.Is(err, services.ErrUserNotFound):
				apierrors.Unauthorized(c, "User not found")
			default:
				apierrors.InternalError(c, "Server error in authentication", err)
			}
			c.Abort()
			return
		}

		if !user.IsActive {
			apierrors.Unauthorized(c, "Your account has been deactivated")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyCurrentUser, user)
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Next()
	}
}

// RequireRole rejects users whose role is not listed. Must run after RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetCurrentUser(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		if services.AuthorizeRole(user, roles...) != nil {
			apierrors.Forbidden(c, fmt.Sprintf("Role '%s' is not authorized to access this route", user.Role))
			c.Abort()
			return
		}
		c.Next()
	}
}

// BearerToken extracts the token from the Authorization header
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// GetCurrentUser retrieves the authenticated user from context
func GetCurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(constants.ContextKeyCurrentUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUint64(userID)
}

func sessionUserID(c *gin.Context) (uint64, bool) {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return 0, false
	}
	return toUint64(sessions.Default(c).Get(constants.ContextKeyUserID))
}

func toUint64(value interface{}) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
