package workorder

import (
	"ieflow/authority"
	"ieflow/bizerror"
	"ieflow/domain"
	"ieflow/domain/state"
	"ieflow/event"
	"ieflow/persistence"
	"ieflow/session"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

type TransitionResult struct {
	WorkOrder domain.WorkOrder    `json:"workOrder"`
	Log       domain.WorkOrderLog `json:"log"`
}

// ChangeStatus moves a work order along the transition table.
func ChangeStatus(id types.ID, c *domain.StatusChanging, sec *session.Session) (*TransitionResult, error) {
	policy := authority.ActivePolicy
	now := NowFunc()
	result := TransitionResult{}

	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		order := &result.WorkOrder
		if err := tx.Where("id = ?", id).First(order).Error; err != nil {
			return err
		}
		tr, err := state.Lookup(order.Status, c.Status, order.OrderClass)
		if err != nil {
			return err
		}
		if !authorize(policy, &sec.Identity, order, tr.Capability) {
			return bizerror.ErrForbidden
		}
		if tr.RequiresAssignee && !order.HasAssignee() {
			return bizerror.ErrTransitionUnassigned
		}
		if tr.Denied != nil {
			return tr.Denied
		}

		from := order.Status
		tr.Effects.Apply(order, now)
		order.Status = tr.To
		order.UpdateTime = now
		if err := saveLifecycle(tx, order, from); err != nil {
			return err
		}
		log, err := appendLog(tx, order, sec, domain.LogActionStatusChanged, from, order.Status, c.Note, now)
		if err != nil {
			return err
		}
		result.Log = *log
		return nil
	})
	if err != nil {
		return nil, err
	}

	lifecycleEvent(&result.WorkOrder, &result.Log, sec, now)
	return &result, nil
}

func authorize(p *authority.Policy, identity *session.Identity, order *domain.WorkOrder, c state.Capability) bool {
	switch c {
	case state.CapabilityAssign:
		return p.HasAssignmentCapability(identity)
	case state.CapabilityManageCompleted:
		return p.CanManageCompleted(identity)
	default:
		return p.HasWorkCapability(identity, order)
	}
}

// saveLifecycle writes status and its dependent fields in one statement, guarded by the status it was read in.
func saveLifecycle(tx *gorm.DB, order *domain.WorkOrder, from domain.Status) error {
	r := tx.Model(&domain.WorkOrder{}).Where("id = ? AND status = ?", order.ID, from).Updates(map[string]interface{}{
		"status":                    order.Status,
		"actual_start":              order.ActualStart,
		"actual_end":                order.ActualEnd,
		"realized_duration_minutes": order.RealizedDurationMinutes,
		"completion_notes":          order.CompletionNotes,
		"approver_id":               order.ApproverID,
		"approver_name":             order.ApproverName,
		"approved_at":               order.ApprovedAt,
		"update_time":               order.UpdateTime,
	})
	if r.Error != nil {
		return r.Error
	}
	if r.RowsAffected != 1 {
		return bizerror.ErrConcurrentModification
	}
	return nil
}

func lifecycleEvent(order *domain.WorkOrder, log *domain.WorkOrderLog, sec *session.Session, at time.Time) {
	fireEvent(order, event.EventCategoryStatusChanged, []event.UpdatedProperty{
		{PropertyName: "status", OldValue: string(log.FromStatus), NewValue: string(log.ToStatus)},
	}, sec, at)
}
