package user

import (
	"net/http"

	"tickr/study-api/app/respond"
	"tickr/study-api/internal"

	"github.com/gin-gonic/gin"
)

type checkBody struct {
	Username string `json:"username"`
}

// UserCheckUsername tells the signup form whether a username can be used
func UserCheckUsername(c *gin.Context, d *internal.Deps) {
	var data checkBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	available, msg, err := d.Accounts.CheckUsername(c.Request.Context(), data.Username)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"available": available,
		"message":   msg,
	})
}
