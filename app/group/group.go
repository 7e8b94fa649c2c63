package group

import (
	"net/http"

	"tickr/study-api/app/respond"
	"tickr/study-api/internal"
	"tickr/study-api/internal/model"
	"tickr/study-api/internal/service"
	"tickr/study-api/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createBody struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	OwnerID     model.FlexID `json:"ownerId"`
	Password    string       `json:"password"`
	MemberLimit int          `json:"memberLimit"`
}

type memberBody struct {
	GroupID  string       `json:"groupId"`
	UserID   model.FlexID `json:"userId"`
	Password string       `json:"password"`
}

func publicGroups(groups []model.Group) []model.PublicGroup {
	out := make([]model.PublicGroup, 0, len(groups))
	for i := range groups {
		out = append(out, groups[i].Public())
	}
	return out
}

// GroupList returns every group, or the groups of one member when userId is
// given
func GroupList(c *gin.Context, d *internal.Deps) {
	userID, present, ok := respond.QueryUserID(c, false)
	if !ok {
		return
	}

	var filter *int64
	if present {
		filter = &userID
	}

	groups, err := d.Groups.List(c.Request.Context(), filter)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"groups": publicGroups(groups),
	})
}

func GroupCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data createBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	if !middleware.SameUser(c, int64(data.OwnerID)) {
		return
	}

	g, err := d.Groups.Create(c.Request.Context(), service.NewGroup{
		Name:        data.Name,
		Description: data.Description,
		OwnerID:     int64(data.OwnerID),
		Password:    data.Password,
		MemberLimit: data.MemberLimit,
	})
	if err != nil {
		respond.Fail(c, err)
		return
	}

	zap.L().Info("Group created", zap.String("groupID", g.ID), zap.Int64("ownerID", g.OwnerID), zap.String("requestID", requestID))

	c.JSON(http.StatusCreated, g.Public())
}

func GroupJoin(c *gin.Context, d *internal.Deps) {
	var data memberBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	if !middleware.SameUser(c, int64(data.UserID)) {
		return
	}

	g, err := d.Groups.Join(c.Request.Context(), data.GroupID, int64(data.UserID), data.Password)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully joined group",
		"group":   g.Public(),
	})
}

func GroupLeave(c *gin.Context, d *internal.Deps) {
	var data memberBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	if !middleware.SameUser(c, int64(data.UserID)) {
		return
	}

	g, err := d.Groups.Leave(c.Request.Context(), data.GroupID, int64(data.UserID))
	if err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully left group",
		"group":   g.Public(),
	})
}

func GroupDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data memberBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadBody(c, err)
		return
	}

	if !middleware.SameUser(c, int64(data.UserID)) {
		return
	}

	if err := d.Groups.Delete(c.Request.Context(), data.GroupID, int64(data.UserID), data.Password); err != nil {
		respond.Fail(c, err)
		return
	}

	zap.L().Info("Group deleted", zap.String("groupID", data.GroupID), zap.String("requestID", requestID))

	c.JSON(http.StatusOK, gin.H{
		"message": "Group deleted successfully",
	})
}

// GroupRanking ranks the members of one group by all-time study time
func GroupRanking(c *gin.Context, d *internal.Deps) {
	groupID := c.Param("groupId")

	ranking, err := d.Ranking.Group(c.Request.Context(), groupID)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"groupId": groupID,
		"ranking": ranking,
	})
}
