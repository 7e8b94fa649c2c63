package user

import (
	"net/http"

	"tickr/study-api/app/respond"
	"tickr/study-api/internal"
	"tickr/study-api/internal/model"
	"tickr/study-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type emailCodeBody struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type userCodeBody struct {
	UserID model.FlexID `json:"userId"`
	Code   string       `json:"code"`
}

// UserVerifyEmail confirms the address given at signup
func UserVerifyEmail(c *gin.Context, d *internal.Deps) {
	var data emailCodeBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	already, err := d.Accounts.ConfirmSignup(c.Request.Context(), data.Email, data.Code)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	msg := "Email verified. You can now log in"
	if already {
		msg = "This email is already verified"
	}

	c.JSON(http.StatusOK, gin.H{
		"message": msg,
	})
}

// UserVerifyEmailChange makes a pending email the live one
func UserVerifyEmailChange(c *gin.Context, d *internal.Deps) {
	var data emailCodeBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	if err := d.Accounts.ConfirmEmailChange(c.Request.Context(), data.Email, data.Code); err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Email changed successfully",
	})
}

// UserVerifyPasswordChange makes a pending password the live one
func UserVerifyPasswordChange(c *gin.Context, d *internal.Deps) {
	var data userCodeBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	if !middleware.SameUser(c, int64(data.UserID)) {
		return
	}

	if err := d.Accounts.ConfirmPasswordChange(c.Request.Context(), int64(data.UserID), data.Code); err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password changed successfully",
	})
}

// UserResendCode mails a new signup code. The previous code stops working.
func UserResendCode(c *gin.Context, d *internal.Deps) {
	var data struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	already, err := d.Accounts.ResendSignupCode(c.Request.Context(), data.Email)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	msg := "A new verification code has been sent"
	if already {
		msg = "This email is already verified"
	}

	c.JSON(http.StatusOK, gin.H{
		"message": msg,
	})
}
