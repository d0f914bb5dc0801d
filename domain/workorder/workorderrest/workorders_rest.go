package workorderrest

import (
	"errors"
	"ieflow/bizerror"
	"ieflow/common"
	"ieflow/domain"
	"ieflow/domain/workorder"
	"ieflow/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const PathWorkOrders = "/v1/work-orders"

func RegisterWorkOrdersRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathWorkOrders, middleWares...)
	g.GET("", handleQuery)
	g.POST("", handleCreate)
	g.GET(":id", handleDetail)
	g.PUT(":id", handleUpdate)
	g.DELETE(":id", handleDelete)

	g.POST(":id/transitions", handleChangeStatus)
	g.POST(":id/approval-requests", handleSubmitForApproval)
	g.POST(":id/approvals", handleApprove)
	g.DELETE(":id/report", handleClearReport)
	g.GET(":id/logs", handleQueryLogs)
}

func handleQuery(c *gin.Context) {
	query := domain.WorkOrderQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	orders, total, err := workorder.QueryWorkOrdersFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &common.PagedBody{List: orders, Total: total})
}

func handleCreate(c *gin.Context) {
	creation := domain.WorkOrderCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	detail, err := workorder.CreateWorkOrderFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, detail)
}

func handleDetail(c *gin.Context) {
	detail, err := workorder.DetailWorkOrderFunc(c.Param("id"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

func handleUpdate(c *gin.Context) {
	id := parseID(c)
	updating := domain.WorkOrderUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	detail, err := workorder.UpdateWorkOrderFunc(id, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

func handleDelete(c *gin.Context) {
	id := parseID(c)
	if err := workorder.DeleteWorkOrderFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusOK)
}

func handleChangeStatus(c *gin.Context) {
	id := parseID(c)
	changing := domain.StatusChanging{}
	if err := c.ShouldBindBodyWith(&changing, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := workorder.ChangeStatusFunc(id, &changing, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func handleSubmitForApproval(c *gin.Context) {
	id := parseID(c)
	req := domain.ApprovalRequest{}
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := workorder.SubmitForApprovalFunc(id, &req, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func handleApprove(c *gin.Context) {
	result, err := workorder.ApproveCompletionFunc(parseID(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func handleClearReport(c *gin.Context) {
	result, err := workorder.ClearReportFunc(parseID(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func handleQueryLogs(c *gin.Context) {
	logs, err := workorder.QueryLogsFunc(parseID(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &common.PagedBody{List: logs, Total: uint64(len(logs))})
}

func parseID(c *gin.Context) types.ID {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}
	return id
}
