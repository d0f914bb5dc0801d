package shift

import (
	"errors"
	"ieflow/authority"
	"ieflow/bizerror"
	"ieflow/domain"
	"ieflow/idgen"
	"ieflow/persistence"
	"ieflow/session"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	idWorker = idgen.NewWorker()

	CreateShiftFunc    = CreateShift
	QueryShiftsFunc    = QueryShifts
	CreateScheduleFunc = CreateSchedule
	QuerySchedulesFunc = QuerySchedules
	DeleteScheduleFunc = DeleteSchedule
)

func CreateShift(c *domain.ShiftCreation, sec *session.Session) (*domain.Shift, error) {
	if !authority.ActivePolicy.IsManager(&sec.Identity) {
		return nil, bizerror.ErrForbidden
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("shift name is required")}
	}
	for _, clock := range []string{c.StartTime, c.EndTime} {
		if _, err := domain.ParseClock(clock); err != nil {
			return nil, &bizerror.ErrBadParam{Cause: err}
		}
	}

	s := domain.Shift{ID: idgen.NextID(idWorker), Name: name, StartTime: c.StartTime, EndTime: c.EndTime, CreateTime: time.Now()}
	if err := persistence.ActiveDataSourceManager.GormDB(sec.Context).Create(&s).Error; err != nil {
		if persistence.IsUniqueViolation(err) {
			return nil, &bizerror.ErrBadParam{Cause: errors.New("shift '" + name + "' already exists")}
		}
		return nil, err
	}
	return &s, nil
}

func QueryShifts(sec *session.Session) ([]domain.Shift, error) {
	shifts := []domain.Shift{}
	if err := persistence.ActiveDataSourceManager.GormDB(sec.Context).Order("id ASC").Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}

func CreateSchedule(c *domain.ShiftScheduleCreation, sec *session.Session) (*domain.ShiftSchedule, error) {
	if !authority.ActivePolicy.IsManager(&sec.Identity) {
		return nil, bizerror.ErrForbidden
	}
	if _, err := time.Parse(domain.DayLayout, c.Day); err != nil {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("malformed day '" + c.Day + "', expected YYYY-MM-DD")}
	}

	schedule := domain.ShiftSchedule{ID: idgen.NextID(idWorker), PersonID: c.PersonID, ShiftID: c.ShiftID, Day: c.Day, CreateTime: time.Now()}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int
		if err := tx.Model(&domain.Shift{}).Where("id = ?", c.ShiftID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return &bizerror.ErrBadParam{Cause: errors.New("shift " + c.ShiftID.String() + " not found")}
		}
		return tx.Create(&schedule).Error
	})
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return nil, &bizerror.ErrBadParam{Cause: errors.New("person " + c.PersonID.String() + " is already on this shift at " + c.Day)}
		}
		return nil, err
	}
	return &schedule, nil
}

func QuerySchedules(q *domain.ShiftScheduleQuery, sec *session.Session) ([]domain.ShiftSchedule, error) {
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context).Model(&domain.ShiftSchedule{})
	if q.PersonID != 0 {
		db = db.Where("person_id = ?", q.PersonID)
	}
	if q.From != "" {
		if _, err := time.Parse(domain.DayLayout, q.From); err != nil {
			return nil, &bizerror.ErrBadParam{Cause: errors.New("malformed from '" + q.From + "'")}
		}
		db = db.Where("day >= ?", q.From)
	}
	if q.To != "" {
		if _, err := time.Parse(domain.DayLayout, q.To); err != nil {
			return nil, &bizerror.ErrBadParam{Cause: errors.New("malformed to '" + q.To + "'")}
		}
		db = db.Where("day <= ?", q.To)
	}

	schedules := []domain.ShiftSchedule{}
	if err := db.Order("day ASC, id ASC").Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func DeleteSchedule(id types.ID, sec *session.Session) error {
	if !authority.ActivePolicy.IsManager(&sec.Identity) {
		return bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	r := db.Delete(&domain.ShiftSchedule{}, "id = ?", id)
	if r.Error != nil {
		return r.Error
	}
	if r.RowsAffected == 0 {
		return bizerror.ErrNotFound
	}
	return nil
}
