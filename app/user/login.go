package user

import (
	"net/http"

	"tickr/study-api/app/respond"
	"tickr/study-api/internal"
	"tickr/study-api/pkg/middleware"
	"tickr/study-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const redirectAfterLogin = "/study/timer"

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func UserLogin(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data loginBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	u, err := d.Accounts.Login(c.Request.Context(), data.Username, data.Password)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	authToken, err := security.MakeToken(u.ID, d.JWTSecret, d.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate JWT auth token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	maxAge := int(security.AuthTokenValidity.Seconds())
	c.SetCookie(middleware.AuthCookie, authToken, maxAge, "/", "", d.SecureCookies, true)
	c.SetCookie("logged_in", "1", maxAge, "/", "", d.SecureCookies, false)

	c.JSON(http.StatusOK, gin.H{
		"message":     "Login successful",
		"user":        u.Public(),
		"redirectUrl": redirectAfterLogin,
	})
}

// clearSession expires the cookies set at login
func clearSession(c *gin.Context, d *internal.Deps) {
	c.SetCookie(middleware.AuthCookie, "", -1, "/", "", d.SecureCookies, true)
	c.SetCookie("logged_in", "", -1, "/", "", d.SecureCookies, false)
}

func UserLogout(c *gin.Context, d *internal.Deps) {
	clearSession(c, d)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}
