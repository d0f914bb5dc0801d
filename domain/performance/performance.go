package performance

import (
	"errors"
	"ieflow/bizerror"
	"ieflow/domain"
	"ieflow/persistence"
	"ieflow/session"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	QueryPerformanceFunc = QueryPerformance

	NowFunc = time.Now
)

type PerformanceQuery struct {
	Date  string `form:"date" json:"date"`
	Month string `form:"month" json:"month"`
}

type Performance struct {
	PersonID types.ID    `json:"personId"`
	Date     string      `json:"date"`
	Month    string      `json:"month"`
	Daily    PeriodStat  `json:"daily"`
	Monthly  PeriodStat  `json:"monthly"`
	PerShift []ShiftStat `json:"perShift"`
}

type period struct {
	from, to          time.Time
	firstDay, lastDay string
}

func dayPeriod(day time.Time) period {
	return period{from: day, to: day.AddDate(0, 0, 1), firstDay: day.Format(domain.DayLayout), lastDay: day.Format(domain.DayLayout)}
}

func monthPeriod(month time.Time) period {
	to := month.AddDate(0, 1, 0)
	return period{from: month, to: to, firstDay: month.Format(domain.DayLayout), lastDay: to.AddDate(0, 0, -1).Format(domain.DayLayout)}
}

// ParsePeriods resolves the day and month of a query, the date defaults to today
// and the month defaults to the month of the date.
func ParsePeriods(q *PerformanceQuery, now time.Time) (time.Time, time.Time, error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if q.Date != "" {
		d, err := time.ParseInLocation(domain.DayLayout, q.Date, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, &bizerror.ErrBadParam{Cause: errors.New("malformed date '" + q.Date + "', expected YYYY-MM-DD")}
		}
		day = d
	}
	month := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.Local)
	if q.Month != "" {
		m, err := time.ParseInLocation(domain.MonthLayout, q.Month, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, &bizerror.ErrBadParam{Cause: errors.New("malformed month '" + q.Month + "', expected YYYY-MM")}
		}
		month = m
	}
	return day, month, nil
}

func QueryPerformance(personID types.ID, q *PerformanceQuery, sec *session.Session) (*Performance, error) {
	if personID == 0 {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("person id is required")}
	}
	day, month, err := ParsePeriods(q, NowFunc())
	if err != nil {
		return nil, err
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)

	daily, dailySchedules, dailyCompletions, err := statOf(db, personID, dayPeriod(day))
	if err != nil {
		return nil, err
	}
	monthly, _, _, err := statOf(db, personID, monthPeriod(month))
	if err != nil {
		return nil, err
	}
	perShift, err := BreakdownByShift(dailySchedules, dailyCompletions)
	if err != nil {
		return nil, err
	}

	return &Performance{
		PersonID: personID,
		Date:     day.Format(domain.DayLayout),
		Month:    month.Format(domain.MonthLayout),
		Daily:    daily,
		Monthly:  monthly,
		PerShift: perShift,
	}, nil
}

func statOf(db *gorm.DB, personID types.ID, p period) (PeriodStat, []ScheduledShift, []Completion, error) {
	schedules, err := loadSchedules(db, personID, p)
	if err != nil {
		return PeriodStat{}, nil, nil, err
	}
	completions, err := loadCompletions(db, personID, p)
	if err != nil {
		return PeriodStat{}, nil, nil, err
	}
	stat, err := Summarize(schedules, completions)
	if err != nil {
		return PeriodStat{}, nil, nil, err
	}
	return stat, schedules, completions, nil
}

func loadSchedules(db *gorm.DB, personID types.ID, p period) ([]ScheduledShift, error) {
	var schedules []ScheduledShift
	err := db.Table("shift_schedules").
		Select("shift_schedules.shift_id, shifts.name, shifts.start_time, shifts.end_time, shift_schedules.day").
		Joins("JOIN shifts ON shifts.id = shift_schedules.shift_id").
		Where("shift_schedules.person_id = ? AND shift_schedules.day >= ? AND shift_schedules.day <= ?", personID, p.firstDay, p.lastDay).
		Order("shift_schedules.day ASC, shift_schedules.id ASC").
		Scan(&schedules).Error
	return schedules, err
}

type completionRecord struct {
	ID                      types.ID
	ShiftID                 *types.ID
	ShiftName               string
	RealizedDurationMinutes int
}

// loadCompletions places an order in the period it reached COMPLETED, which is the approval time
// for approved orders and the actual end otherwise.
func loadCompletions(db *gorm.DB, personID types.ID, p period) ([]Completion, error) {
	var records []completionRecord
	err := db.Table("work_orders").
		Select("work_orders.id, work_orders.shift_id, COALESCE(shifts.name, '') AS shift_name, work_orders.realized_duration_minutes").
		Joins("LEFT JOIN shifts ON shifts.id = work_orders.shift_id").
		Where("work_orders.status = ? AND work_orders.realized_duration_minutes IS NOT NULL", domain.StatusCompleted).
		Where("COALESCE(work_orders.approved_at, work_orders.actual_end) >= ? AND COALESCE(work_orders.approved_at, work_orders.actual_end) < ?", p.from, p.to).
		Where("work_orders.assignee_id = ? OR work_orders.id IN (SELECT work_order_id FROM work_order_members WHERE member_id = ?)", personID, personID).
		Order("work_orders.id ASC").
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	completions := make([]Completion, 0, len(records))
	for _, r := range records {
		completions = append(completions, Completion{WorkOrderID: r.ID, ShiftID: r.ShiftID, ShiftName: r.ShiftName,
			RealizedMinutes: r.RealizedDurationMinutes})
	}
	return completions, nil
}
