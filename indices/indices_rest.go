package indices

import (
	"ieflow/bizerror"
	"ieflow/common"
	"ieflow/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathIndexRequests   = "/v1/index-requests"
	PathWorkOrderSearch = "/v1/work-order-search"
)

func RegisterIndicesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	r.Group(PathIndexRequests, middleWares...).POST("", handleIndexRequest)
	r.Group(PathWorkOrderSearch, middleWares...).GET("", handleSearchWorkOrders)
}

func handleIndexRequest(c *gin.Context) {
	rebuild := c.Query("rebuild") == "true"
	result, err := ScheduleNewSyncRunFunc(rebuild, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	if result == SyncStarted {
		c.JSON(http.StatusCreated, gin.H{"result": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func handleSearchWorkOrders(c *gin.Context) {
	query := WorkOrderSearch{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	details, total, err := SearchWorkOrdersFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &common.PagedBody{List: details, Total: total})
}
