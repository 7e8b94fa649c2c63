package user

import (
	"net/http"

	"tickr/study-api/app/respond"
	"tickr/study-api/internal"
	"tickr/study-api/internal/model"
	"tickr/study-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type profileBody struct {
	UserID model.FlexID `json:"userId"`
	Email  string       `json:"email"`
}

// UserUpdateProfile stages an email change and mails a code to the new
// address
func UserUpdateProfile(c *gin.Context, d *internal.Deps) {
	var data profileBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	if !middleware.SameUser(c, int64(data.UserID)) {
		return
	}

	if err := d.Accounts.RequestEmailChange(c.Request.Context(), int64(data.UserID), data.Email); err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "A verification code was sent to your new email",
	})
}

// UserFetch returns the account behind the auth cookie
func UserFetch(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(int64)

	u, err := d.Accounts.Get(c.Request.Context(), userID)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": u.Public(),
	})
}
