package user

import (
	"net/http"

	"tickr/study-api/app/respond"
	"tickr/study-api/internal"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func UserRegister(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data registerBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	u, err := d.Accounts.Register(c.Request.Context(), data.Username, data.Password, data.Email)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	zap.L().Info("User registered", zap.Int64("userID", u.ID), zap.String("requestID", requestID))

	c.JSON(http.StatusOK, gin.H{
		"message": "Registration successful. Enter the verification code sent to your email",
	})
}
