package user

import (
	"net/http"

	"tickr/study-api/app/respond"
	"tickr/study-api/internal"
	"tickr/study-api/internal/model"
	"tickr/study-api/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type deleteBody struct {
	UserID   model.FlexID `json:"userId"`
	Password string       `json:"password"`
}

func UserDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data deleteBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	if !middleware.SameUser(c, int64(data.UserID)) {
		return
	}

	if err := d.Accounts.Delete(c.Request.Context(), int64(data.UserID), data.Password); err != nil {
		respond.Fail(c, err)
		return
	}

	zap.L().Info("User deleted", zap.Int64("userID", int64(data.UserID)), zap.String("requestID", requestID))

	clearSession(c, d)
	c.JSON(http.StatusOK, gin.H{
		"message": "Your account has been deleted",
	})
}
