package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tickr/study-api/internal/model"
	"tickr/study-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeUsers map[int64]model.User

func (f fakeUsers) Get(_ context.Context, id int64) (*model.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &u, nil
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(NewRequestIDMiddleware())
	r.Use(mw...)
	r.Any("/", func(c *gin.Context) {
		id, _ := c.Get("userID")
		c.JSON(http.StatusOK, gin.H{"userID": id})
	})

	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	r := newEngine(RateLimiterMiddleware(RateLimiterConfig{RequestsPerSecond: 1, Burst: 2}))

	from := func(addr string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		return req
	}

	assert.Equal(t, http.StatusOK, serve(r, from("10.0.0.1:1000")).Code)
	assert.Equal(t, http.StatusOK, serve(r, from("10.0.0.1:1000")).Code)

	w := serve(r, from("10.0.0.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"Too many requests"`)
	assert.Contains(t, w.Body.String(), `"requestID"`)

	// other clients have their own bucket
	assert.Equal(t, http.StatusOK, serve(r, from("10.0.0.2:1000")).Code)
}

func TestRateLimiterDisabled(t *testing.T) {
	r := newEngine(RateLimiterMiddleware(RateLimiterConfig{}))

	for range 50 {
		require.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestJWTMiddleware(t *testing.T) {
	users := fakeUsers{
		1: {ID: 1, Username: "alice", Verified: true},
		2: {ID: 2, Username: "bob"},
	}

	withToken := func(userID int64) *http.Request {
		tok, err := security.MakeToken(userID, testSecret, time.Now())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AuthCookie, Value: tok})
		return req
	}

	garbage := httptest.NewRequest(http.MethodGet, "/", nil)
	garbage.AddCookie(&http.Cookie{Name: AuthCookie, Value: "not-a-token"})

	required := newEngine(NewJWTMiddleware(JWTConfig{Secret: testSecret, Required: true, Users: users}))

	tests := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"anonymous", httptest.NewRequest(http.MethodGet, "/", nil), http.StatusUnauthorized},
		{"verified", withToken(1), http.StatusOK},
		{"unverified", withToken(2), http.StatusForbidden},
		{"deleted account", withToken(3), http.StatusUnauthorized},
		{"invalid token", garbage, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, serve(required, tt.req).Code)
		})
	}

	w := serve(required, withToken(1))
	assert.JSONEq(t, `{"userID": 1}`, w.Body.String())

	optional := newEngine(NewJWTMiddleware(JWTConfig{Secret: testSecret, Users: users}))

	w = serve(optional, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userID": null}`, w.Body.String())
}

func TestSameUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(NewRequestIDMiddleware())
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-User") == "1" {
			c.Set("userID", int64(1))
		}
	})
	r.GET("/users/:id", func(c *gin.Context) {
		var id int64 = 1
		if c.Param("id") != "1" {
			id = 2
		}

		if !SameUser(c, id) {
			return
		}
		c.Status(http.StatusOK)
	})

	req := func(path string, authed bool) *http.Request {
		hr := httptest.NewRequest(http.MethodGet, path, nil)
		if authed {
			hr.Header.Set("X-Test-User", "1")
		}
		return hr
	}

	assert.Equal(t, http.StatusOK, serve(r, req("/users/1", true)).Code)
	assert.Equal(t, http.StatusOK, serve(r, req("/users/2", false)).Code)

	w := serve(r, req("/users/2", true))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "your own account")
}

func TestBodySizeLimiter(t *testing.T) {
	r := newEngine(BodySizeLimiter(8))

	w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"0123456789"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}
