package ranking

import (
	"net/http"

	"tickr/study-api/app/respond"
	"tickr/study-api/internal"

	"github.com/gin-gonic/gin"
)

// RankingIndividual returns the top users of the last 24 hours
func RankingIndividual(c *gin.Context, d *internal.Deps) {
	ranking, err := d.Ranking.Individual(c.Request.Context())
	if err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ranking": ranking,
	})
}

func RankingGroups(c *gin.Context, d *internal.Deps) {
	ranking, err := d.Ranking.Leaderboard(c.Request.Context())
	if err != nil {
		respond.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ranking": ranking,
	})
}
