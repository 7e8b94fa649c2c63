package subject

import (
	"net/http"

	"tickr/study-api/app/respond"
	"tickr/study-api/internal"
	"tickr/study-api/internal/model"
	"tickr/study-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type subjectBody struct {
	UserID  model.FlexID `json:"userId"`
	Subject string       `json:"subject"`
}

func SubjectList(c *gin.Context, d *internal.Deps) {
	userID, _, ok := respond.QueryUserID(c, true)
	if !ok {
		return
	}

	subjects, err := d.Study.Subjects(c.Request.Context(), userID)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subjects": subjects,
	})
}

func SubjectAdd(c *gin.Context, d *internal.Deps) {
	var data subjectBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	if !middleware.SameUser(c, int64(data.UserID)) {
		return
	}

	subjects, err := d.Study.AddSubject(c.Request.Context(), int64(data.UserID), data.Subject)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Subject added",
		"subject":  subjects[len(subjects)-1],
		"subjects": subjects,
	})
}

func SubjectDelete(c *gin.Context, d *internal.Deps) {
	var data subjectBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	if !middleware.SameUser(c, int64(data.UserID)) {
		return
	}

	subjects, err := d.Study.DeleteSubject(c.Request.Context(), int64(data.UserID), data.Subject)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Subject deleted",
		"subjects": subjects,
	})
}
