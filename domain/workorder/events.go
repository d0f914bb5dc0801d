package workorder

import (
	"ieflow/domain"
	"ieflow/event"
	"ieflow/session"
	"time"
)

const EventSourceType = "WORK_ORDER"

func fireEvent(order *domain.WorkOrder, category event.EventCategory, updates []event.UpdatedProperty, sec *session.Session, at time.Time) {
	if event.InvokeHandlersFunc == nil {
		return
	}
	event.InvokeHandlersFunc(event.NewEvent(EventSourceType, order.ID, order.Number, category, updates,
		sec.Identity.ID, sec.Identity.DisplayName(), at))
}
