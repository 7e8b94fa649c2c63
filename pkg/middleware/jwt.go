package middleware

import (
	"context"
	"net/http"

	"tickr/study-api/internal/model"
	"tickr/study-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const AuthCookie = "auth_token"

// UserGetter resolves the account a token was issued for
type UserGetter interface {
	Get(ctx context.Context, id int64) (*model.User, error)
}

type JWTConfig struct {
	Secret string
	// Required rejects anonymous requests. Otherwise a missing or
	// invalid cookie leaves the request anonymous.
	Required bool
	Users    UserGetter
}

// NewJWTMiddleware reads the auth_token cookie and sets userID (int64)
// for authenticated requests
func NewJWTMiddleware(cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		reject := func(status int, msg string) {
			if !cfg.Required {
				c.Next()
				return
			}

			c.AbortWithStatusJSON(status, gin.H{
				"message":   msg,
				"requestID": requestID,
			})
		}

		tokenStr, err := c.Cookie(AuthCookie)
		if err != nil || tokenStr == "" {
			reject(http.StatusUnauthorized, "Please log in to continue")
			return
		}

		userID, err := security.ParseToken(tokenStr, cfg.Secret)
		if err != nil {
			zap.L().Debug("Rejected auth token", zap.Error(err), zap.String("requestID", requestID))
			reject(http.StatusUnauthorized, "Authorization token invalid or expired. Please log in again")
			return
		}

		// An account deleted after login keeps a valid token around
		u, err := cfg.Users.Get(c.Request.Context(), userID)
		if err != nil {
			reject(http.StatusUnauthorized, "User not found")
			return
		}

		if !u.Verified {
			reject(http.StatusForbidden, "Please verify your email before using the service")
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// SameUser aborts with 403 when the request is authenticated as someone
// other than userID. Anonymous requests pass.
func SameUser(c *gin.Context, userID int64) bool {
	authed, ok := c.Get("userID")
	if !ok || authed.(int64) == userID {
		return true
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"message":   "You can only act on your own account",
		"requestID": c.GetString("requestID"),
	})
	return false
}
