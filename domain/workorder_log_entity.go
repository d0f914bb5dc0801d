package domain

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

type LogAction string

const (
	LogActionCreated              LogAction = "CREATED"
	LogActionUpdated              LogAction = "UPDATED"
	LogActionStatusChanged        LogAction = "STATUS_CHANGED"
	LogActionSubmittedForApproval LogAction = "SUBMITTED_FOR_APPROVAL"
	LogActionApproved             LogAction = "APPROVED"
	LogActionReportCleared        LogAction = "REPORT_CLEARED"
	LogActionDeleted              LogAction = "DELETED"
)

// WorkOrderLog is the audit trail of a work order, rows are only ever inserted.
type WorkOrderLog struct {
	ID              types.ID  `json:"id" gorm:"primary_key"`
	WorkOrderID     types.ID  `json:"workOrderId" gorm:"index"`
	WorkOrderNumber string    `json:"workOrderNumber"`
	ActorID         types.ID  `json:"actorId"`
	ActorName       string    `json:"actorName"`
	Action          LogAction `json:"action" gorm:"size:32"`
	FromStatus      Status    `json:"fromStatus" gorm:"size:32"`
	ToStatus        Status    `json:"toStatus" gorm:"size:32"`
	Note            string    `json:"note" sql:"type:TEXT"`
	CreateTime      time.Time `json:"createTime"`
}

func (l *WorkOrderLog) TableName() string {
	return "work_order_logs"
}
