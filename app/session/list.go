package session

import (
	"net/http"

	"tickr/study-api/app/respond"
	"tickr/study-api/internal"

	"github.com/gin-gonic/gin"
)

func SessionList(c *gin.Context, d *internal.Deps) {
	userID, _, ok := respond.QueryUserID(c, true)
	if !ok {
		return
	}

	sessions, err := d.Study.Sessions(c.Request.Context(), userID)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
	})
}
