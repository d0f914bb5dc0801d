package shift

import (
	"errors"
	"ieflow/bizerror"
	"ieflow/common"
	"ieflow/domain"
	"ieflow/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const (
	PathShifts         = "/v1/shifts"
	PathShiftSchedules = "/v1/shift-schedules"
)

func RegisterShiftsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathShifts, middleWares...)
	g.GET("", handleQueryShifts)
	g.POST("", handleCreateShift)

	s := r.Group(PathShiftSchedules, middleWares...)
	s.GET("", handleQuerySchedules)
	s.POST("", handleCreateSchedule)
	s.DELETE(":id", handleDeleteSchedule)
}

func handleQueryShifts(c *gin.Context) {
	shifts, err := QueryShiftsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &common.PagedBody{List: shifts, Total: uint64(len(shifts))})
}

func handleCreateShift(c *gin.Context) {
	creation := domain.ShiftCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	s, err := CreateShiftFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, s)
}

func handleQuerySchedules(c *gin.Context) {
	query := domain.ShiftScheduleQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	schedules, err := QuerySchedulesFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &common.PagedBody{List: schedules, Total: uint64(len(schedules))})
}

func handleCreateSchedule(c *gin.Context) {
	creation := domain.ShiftScheduleCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	schedule, err := CreateScheduleFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, schedule)
}

func handleDeleteSchedule(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}
	if err := DeleteScheduleFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusOK)
}
