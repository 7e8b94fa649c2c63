// Package app wires the HTTP routes of the study API
package app

import (
	"time"

	"tickr/study-api/app/group"
	"tickr/study-api/app/ranking"
	"tickr/study-api/app/root"
	"tickr/study-api/app/session"
	"tickr/study-api/app/subject"
	"tickr/study-api/app/user"
	"tickr/study-api/internal"
	"tickr/study-api/pkg/middleware"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxBodySize = 1 << 20

var defaultOrigins = []string{"http://localhost:3000"}

type Options struct {
	CORSOrigins []string
	// RateLimit is requests per second per client IP, 0 disables it
	RateLimit   int
	RequireAuth bool
	// RankingCacheSeconds caches ranking responses, 0 disables it
	RankingCacheSeconds int
	Turnstile           middleware.TurnstileConfig
}

func NewRouter(d *internal.Deps, o Options) *gin.Engine {
	if len(o.CORSOrigins) == 0 {
		o.CORSOrigins = defaultOrigins
	}

	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     o.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetInt64("userID"); v != 0 {
					fields = append(fields, zap.Int64("userID", v))
				}

				return fields
			},
		}),
		middleware.BodySizeLimiter(maxBodySize),
	)

	router.HandleMethodNotAllowed = true

	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: o.RateLimit,
		Burst:             o.RateLimit * 2,
	})
	turnstile := middleware.NewTurnstileMiddleware(o.Turnstile)

	// optional unless require_auth is set, handlers compare it with the
	// userId they act on
	auth := middleware.NewJWTMiddleware(middleware.JWTConfig{
		Secret:   d.JWTSecret,
		Required: o.RequireAuth,
		Users:    d.Accounts,
	})
	loggedIn := middleware.NewJWTMiddleware(middleware.JWTConfig{
		Secret:   d.JWTSecret,
		Required: true,
		Users:    d.Accounts,
	})

	cacheStore := persist.NewMemoryStore(time.Minute)
	cacheFor := func(sec int) gin.HandlerFunc {
		if sec <= 0 {
			return func(c *gin.Context) { c.Next() }
		}
		return cache.CacheByRequestURI(cacheStore, time.Second*time.Duration(sec))
	}

	m := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })

		// POST /api/signup 		-> Registers a new user and mails a verification code
		m.POST("/signup", turnstile, func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/check-username 	-> Checks if a username is valid and free
		m.POST("/check-username", func(c *gin.Context) { user.UserCheckUsername(c, d) })

		// POST /api/login 		-> Logs in a user and sets the auth cookie
		m.POST("/login", func(c *gin.Context) { user.UserLogin(c, d) })

		// POST /api/logout 		-> Clears the auth cookie
		m.POST("/logout", func(c *gin.Context) { user.UserLogout(c, d) })

		// POST /api/resend-code 	-> Mails a new signup code
		m.POST("/resend-code", func(c *gin.Context) { user.UserResendCode(c, d) })

		// POST /api/verify-email 	-> Confirms a signup code
		m.POST("/verify-email", func(c *gin.Context) { user.UserVerifyEmail(c, d) })

		// POST /api/verify-email-change -> Confirms a pending email
		m.POST("/verify-email-change", func(c *gin.Context) { user.UserVerifyEmailChange(c, d) })

		// POST /api/verify-password-change -> Confirms a pending password
		m.POST("/verify-password-change", auth, func(c *gin.Context) { user.UserVerifyPasswordChange(c, d) })
	}

	u := m.Group("/user", auth)
	{
		// GET /api/user 		-> Returns the logged in user
		u.GET("", loggedIn, func(c *gin.Context) { user.UserFetch(c, d) })

		// PUT /api/user/profile 	-> Stages an email change
		u.PUT("/profile", func(c *gin.Context) { user.UserUpdateProfile(c, d) })

		// PUT /api/user/password 	-> Stages a password change
		u.PUT("/password", func(c *gin.Context) { user.UserChangePassword(c, d) })

		// DELETE /api/user/delete 	-> Deletes an account and everything it owns
		u.DELETE("/delete", func(c *gin.Context) { user.UserDelete(c, d) })
	}

	s := m.Group("/study-sessions", auth)
	{
		// GET /api/study-sessions?userId= -> Lists a user's sessions
		s.GET("", func(c *gin.Context) { session.SessionList(c, d) })

		// POST /api/study-sessions 	-> Records a finished session
		s.POST("", func(c *gin.Context) { session.SessionRecord(c, d) })
	}

	sb := m.Group("/subjects", auth)
	{
		// GET /api/subjects?userId= 	-> Lists a user's subjects
		sb.GET("", func(c *gin.Context) { subject.SubjectList(c, d) })

		// POST /api/subjects 		-> Adds a subject
		sb.POST("", func(c *gin.Context) { subject.SubjectAdd(c, d) })

		// DELETE /api/subjects 	-> Removes a subject
		sb.DELETE("", func(c *gin.Context) { subject.SubjectDelete(c, d) })
	}

	g := m.Group("/groups", auth)
	{
		// GET /api/groups?userId= 	-> Lists all groups or the groups of a member
		g.GET("", func(c *gin.Context) { group.GroupList(c, d) })

		// POST /api/groups 		-> Creates a group owned by the caller
		g.POST("", func(c *gin.Context) { group.GroupCreate(c, d) })

		// POST /api/groups/join 	-> Joins a group
		g.POST("/join", func(c *gin.Context) { group.GroupJoin(c, d) })

		// POST /api/groups/leave 	-> Leaves a group
		g.POST("/leave", func(c *gin.Context) { group.GroupLeave(c, d) })

		// POST /api/groups/delete 	-> Deletes a group, owner only
		g.POST("/delete", func(c *gin.Context) { group.GroupDelete(c, d) })

		// GET /api/groups/:groupId/ranking -> Ranks group members by all-time study time
		g.GET("/:groupId/ranking", cacheFor(o.RankingCacheSeconds), func(c *gin.Context) { group.GroupRanking(c, d) })
	}

	r := m.Group("/ranking")
	{
		// GET /api/ranking 		-> Top 10 users of the last 24 hours
		r.GET("", cacheFor(o.RankingCacheSeconds), func(c *gin.Context) { ranking.RankingIndividual(c, d) })

		// GET /api/ranking/groups 	-> Ranks all groups by all-time study time
		r.GET("/groups", cacheFor(o.RankingCacheSeconds), func(c *gin.Context) { ranking.RankingGroups(c, d) })
	}

	return router
}
