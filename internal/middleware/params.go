package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/teamtask-api/internal/errors"
)

const paramKeyPrefix = "param_"

// RequireIDParam validates a numeric path parameter and stores it in context
func RequireIDParam(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(name), 10, 64)
		if err != nil || id == 0 {
			apierrors.BadRequest(c, "Invalid "+name)
			c.Abort()
			return
		}
		c.Set(paramKeyPrefix+name, id)
		c.Next()
	}
}

// GetIDParam returns a path parameter stored by RequireIDParam
func GetIDParam(c *gin.Context, name string) uint64 {
	return c.GetUint64(paramKeyPrefix + name)
}
