package root

import (
	"errors"
	"net/http"

	"tickr/study-api/internal"
	"tickr/study-api/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Heartbeat answers 200 while the storage backend is reachable
func Heartbeat(c *gin.Context, d *internal.Deps) {
	_, err := d.Store.Backend().Get(c.Request.Context(), store.KindUsers, store.AccountsOwner)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		zap.L().Error("Storage backend unreachable", zap.Error(err))
		c.Status(http.StatusServiceUnavailable)
		return
	}

	c.Status(http.StatusOK)
}
