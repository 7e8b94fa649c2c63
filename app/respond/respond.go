// Package respond writes the JSON error bodies shared by every handler
package respond

import (
	"errors"
	"net/http"
	"strconv"

	"tickr/study-api/internal/service"
	"tickr/study-api/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Fail answers with the status carried by a service error. Anything else is
// logged and reported as an internal error.
func Fail(c *gin.Context, err error) {
	requestID := c.MustGet("requestID").(string)

	var se *service.Error
	if !errors.As(err, &se) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Request failed", zap.Error(err), zap.String("path", c.FullPath()), zap.String("requestID", requestID))
		return
	}

	body := gin.H{
		"message":   se.Message,
		"requestID": requestID,
	}

	switch {
	case se.Persisted:
		body["persisted"] = true
		zap.L().Warn(se.Message, zap.Error(se.Err), zap.String("requestID", requestID))
	case se.Code >= http.StatusInternalServerError:
		zap.L().Error(se.Message, zap.Error(se.Err), zap.String("path", c.FullPath()), zap.String("requestID", requestID))
	default:
		zap.L().Debug(se.Message, zap.Int("status", se.Code), zap.String("requestID", requestID))
	}

	c.AbortWithStatusJSON(se.Code, body)
}

// BadBody answers a request whose JSON body could not be bound
func BadBody(c *gin.Context, err error) {
	requestID := c.MustGet("requestID").(string)

	if middleware.TooLarge(err) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
			"message":   "Request body size exceeds limit",
			"requestID": requestID,
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"message":   "Invalid request body",
		"requestID": requestID,
	})

	zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
}

// QueryUserID reads the userId query parameter. ok is false when a response
// was already written.
func QueryUserID(c *gin.Context, required bool) (id int64, present, ok bool) {
	raw := c.Query("userId")
	if raw == "" {
		if required {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"message":   "User ID is required",
				"requestID": c.MustGet("requestID").(string),
			})
			return 0, false, false
		}

		return 0, false, true
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"message":   "Invalid user ID",
			"requestID": c.MustGet("requestID").(string),
		})
		return 0, false, false
	}

	if !middleware.SameUser(c, id) {
		return 0, false, false
	}

	return id, true, true
}
