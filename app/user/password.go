package user

import (
	"net/http"

	"tickr/study-api/app/respond"
	"tickr/study-api/internal"
	"tickr/study-api/internal/model"
	"tickr/study-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type passwordBody struct {
	UserID          model.FlexID `json:"userId"`
	CurrentPassword string       `json:"currentPassword"`
	NewPassword     string       `json:"newPassword"`
}

func UserChangePassword(c *gin.Context, d *internal.Deps) {
	var data passwordBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	if !middleware.SameUser(c, int64(data.UserID)) {
		return
	}

	err := d.Accounts.RequestPasswordChange(c.Request.Context(), int64(data.UserID), data.CurrentPassword, data.NewPassword)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "A verification code was sent to your email",
	})
}
