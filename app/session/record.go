package session

import (
	"net/http"
	"time"

	"tickr/study-api/app/respond"
	"tickr/study-api/internal"
	"tickr/study-api/internal/model"
	"tickr/study-api/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// recordBody is a stopped timer. A duration sent by the client is accepted
// for compatibility but never stored.
type recordBody struct {
	UserID    model.FlexID `json:"userId"`
	Subject   string       `json:"subject"`
	StartTime time.Time    `json:"startTime"`
	EndTime   time.Time    `json:"endTime"`
	Duration  *int64       `json:"duration"`
}

func SessionRecord(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data recordBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	if !middleware.SameUser(c, int64(data.UserID)) {
		return
	}

	s, err := d.Study.Record(c.Request.Context(), int64(data.UserID), data.Subject, data.StartTime, data.EndTime)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	if data.Duration != nil && *data.Duration != s.Duration {
		zap.L().Debug("Client duration differs from timestamps",
			zap.Int64("client", *data.Duration),
			zap.Int64("stored", s.Duration),
			zap.String("requestID", requestID))
	}

	c.JSON(http.StatusCreated, s)
}
