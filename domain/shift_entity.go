package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
)

const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
)

type Shift struct {
	ID         types.ID  `json:"id" gorm:"primary_key"`
	Name       string    `json:"name" gorm:"unique_index;size:64"`
	StartTime  string    `json:"startTime" gorm:"size:5"`
	EndTime    string    `json:"endTime" gorm:"size:5"`
	CreateTime time.Time `json:"createTime"`
}

// ShiftSchedule puts a person on a shift for one calendar day.
type ShiftSchedule struct {
	ID         types.ID  `json:"id" gorm:"primary_key"`
	PersonID   types.ID  `json:"personId" gorm:"unique_index:person_shift_day"`
	ShiftID    types.ID  `json:"shiftId" gorm:"unique_index:person_shift_day"`
	Day        string    `json:"day" gorm:"unique_index:person_shift_day;size:10"`
	CreateTime time.Time `json:"createTime"`
}

type ShiftCreation struct {
	Name      string `json:"name" binding:"required,lte=64"`
	StartTime string `json:"startTime" binding:"required,len=5"`
	EndTime   string `json:"endTime" binding:"required,len=5"`
}

type ShiftScheduleCreation struct {
	PersonID types.ID `json:"personId" binding:"required"`
	ShiftID  types.ID `json:"shiftId" binding:"required"`
	Day      string   `json:"day" binding:"required,len=10"`
}

type ShiftScheduleQuery struct {
	PersonID types.ID `form:"personId" json:"personId"`
	From     string   `form:"from" json:"from"`
	To       string   `form:"to" json:"to"`
}

var ErrInvalidClock = errors.New("clock time must be formatted as HH:MM")

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, ErrInvalidClock
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, ErrInvalidClock
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, ErrInvalidClock
	}
	return hour*60 + minute, nil
}
