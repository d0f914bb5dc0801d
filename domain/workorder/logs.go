package workorder

import (
	"ieflow/domain"
	"ieflow/idgen"
	"ieflow/persistence"
	"ieflow/session"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

func appendLog(tx *gorm.DB, order *domain.WorkOrder, sec *session.Session, action domain.LogAction,
	from, to domain.Status, note string, now time.Time) (*domain.WorkOrderLog, error) {
	log := domain.WorkOrderLog{
		ID:              idgen.NextID(idWorker),
		WorkOrderID:     order.ID,
		WorkOrderNumber: order.Number,
		ActorID:         sec.Identity.ID,
		ActorName:       sec.Identity.DisplayName(),
		Action:          action,
		FromStatus:      from,
		ToStatus:        to,
		Note:            note,
		CreateTime:      now,
	}
	if err := tx.Create(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// QueryLogs lists the audit trail oldest first, it is still readable after the order was deleted.
func QueryLogs(workOrderID types.ID, sec *session.Session) ([]domain.WorkOrderLog, error) {
	logs := []domain.WorkOrderLog{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where("work_order_id = ?", workOrderID).Order("id ASC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
