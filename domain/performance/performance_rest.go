package performance

import (
	"errors"
	"ieflow/bizerror"
	"ieflow/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const PathPerformances = "/v1/performances"

func RegisterPerformancesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathPerformances, middleWares...)
	g.GET(":personId", handleQueryPerformance)
}

func handleQueryPerformance(c *gin.Context) {
	personID, err := types.ParseID(c.Param("personId"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid person id '" + c.Param("personId") + "'")})
	}
	query := PerformanceQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := QueryPerformanceFunc(personID, &query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}
