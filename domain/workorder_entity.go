package domain

import (
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
)

type Status string

const (
	StatusPending          Status = "PENDING"
	StatusAssigned         Status = "ASSIGNED"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusAwaitingApproval Status = "AWAITING_APPROVAL"
	StatusCompleted        Status = "COMPLETED"
)

var Statuses = []Status{StatusPending, StatusAssigned, StatusInProgress, StatusAwaitingApproval, StatusCompleted}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Rank orders statuses along the lifecycle, -1 for unknown values.
func (s Status) Rank() int {
	for i, v := range Statuses {
		if v == s {
			return i
		}
	}
	return -1
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

var Priorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

type OrderClass string

const (
	OrderClassStandard         OrderClass = "STANDARD"
	OrderClassExtendedDowntime OrderClass = "EXTENDED_DOWNTIME"
)

// ExtendedDowntimeMarker is the legacy title tag of extended downtime orders.
const ExtendedDowntimeMarker = "[UDR]"

func HasExtendedDowntimeMarker(title string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(title)), ExtendedDowntimeMarker)
}

// ResolveOrderClass decides the class at creation time. A marked title is always extended downtime,
// an explicit class can only upgrade an unmarked title.
func ResolveOrderClass(explicit OrderClass, title string) OrderClass {
	if HasExtendedDowntimeMarker(title) || explicit == OrderClassExtendedDowntime {
		return OrderClassExtendedDowntime
	}
	return OrderClassStandard
}

type WorkOrder struct {
	ID     types.ID `json:"id" gorm:"primary_key"`
	Number string   `json:"number" gorm:"unique_index;size:32"`

	Title         string     `json:"title" gorm:"size:255"`
	Description   string     `json:"description" sql:"type:TEXT"`
	Priority      Priority   `json:"priority" gorm:"size:16"`
	OrderClass    OrderClass `json:"orderClass" gorm:"size:32"`
	EquipmentCode string     `json:"equipmentCode" gorm:"size:64"`
	ShiftID       *types.ID  `json:"shiftId"`

	RequesterID   types.ID  `json:"requesterId" gorm:"index"`
	RequesterName string    `json:"requesterName"`
	AssigneeID    *types.ID `json:"assigneeId" gorm:"index"`
	AssigneeName  string    `json:"assigneeName"`

	Status Status `json:"status" gorm:"size:32;index"`

	PlannedStart             string     `json:"plannedStart"`
	PlannedEnd               string     `json:"plannedEnd"`
	ActualStart              *time.Time `json:"actualStart"`
	ActualEnd                *time.Time `json:"actualEnd" gorm:"index"`
	EstimatedDurationMinutes *int       `json:"estimatedDurationMinutes"`
	RealizedDurationMinutes  *int       `json:"realizedDurationMinutes"`

	CompletionNotes string     `json:"completionNotes" sql:"type:TEXT"`
	ApproverID      *types.ID  `json:"approverId"`
	ApproverName    string     `json:"approverName"`
	ApprovedAt      *time.Time `json:"approvedAt"`

	LaborCost    float64 `json:"laborCost"`
	MaterialCost float64 `json:"materialCost"`

	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

func (w *WorkOrder) IsExtendedDowntime() bool {
	return w.OrderClass == OrderClassExtendedDowntime
}

func (w *WorkOrder) HasAssignee() bool {
	return w.AssigneeID != nil && *w.AssigneeID != 0
}

func (w *WorkOrder) IsAssignee(uid types.ID) bool {
	return w.HasAssignee() && *w.AssigneeID == uid
}

// WorkOrderMember is a co-assignee in the assignment group of a work order.
type WorkOrderMember struct {
	WorkOrderID types.ID `json:"workOrderId" gorm:"primary_key;auto_increment:false"`
	MemberID    types.ID `json:"memberId" gorm:"primary_key;auto_increment:false"`
	MemberName  string   `json:"memberName"`
}

type WorkOrderDetail struct {
	WorkOrder
	Members []WorkOrderMember `json:"members"`
}

type WorkOrderCreation struct {
	Title                    string     `json:"title" binding:"required,lte=255"`
	Description              string     `json:"description"`
	Priority                 Priority   `json:"priority" binding:"omitempty,oneof=LOW NORMAL HIGH URGENT"`
	OrderClass               OrderClass `json:"orderClass" binding:"omitempty,oneof=STANDARD EXTENDED_DOWNTIME"`
	EquipmentCode            string     `json:"equipmentCode" binding:"lte=64"`
	ShiftID                  *types.ID  `json:"shiftId"`
	AssigneeID               *types.ID  `json:"assigneeId"`
	PlannedStart             string     `json:"plannedStart"`
	PlannedEnd               string     `json:"plannedEnd"`
	EstimatedDurationMinutes *int       `json:"estimatedDurationMinutes" binding:"omitempty,gte=0"`
	LaborCost                float64    `json:"laborCost"`
	MaterialCost             float64    `json:"materialCost"`
}

// WorkOrderUpdating carries optional field changes, a nil field is left untouched.
type WorkOrderUpdating struct {
	Title                    *string    `json:"title" binding:"omitempty,min=1,lte=255"`
	Description              *string    `json:"description"`
	Priority                 *Priority  `json:"priority" binding:"omitempty,oneof=LOW NORMAL HIGH URGENT"`
	EquipmentCode            *string    `json:"equipmentCode" binding:"omitempty,lte=64"`
	ShiftID                  *types.ID  `json:"shiftId"`
	PlannedStart             *string    `json:"plannedStart"`
	PlannedEnd               *string    `json:"plannedEnd"`
	EstimatedDurationMinutes *int       `json:"estimatedDurationMinutes" binding:"omitempty,gte=0"`
	LaborCost                *float64   `json:"laborCost"`
	MaterialCost             *float64   `json:"materialCost"`
	AssigneeID               *types.ID  `json:"assigneeId"`
	MemberIDs                []types.ID `json:"memberIds"`
}

func (u *WorkOrderUpdating) TouchesAssignment() bool {
	return u.AssigneeID != nil || u.MemberIDs != nil
}

func (u *WorkOrderUpdating) TouchesFields() bool {
	return u.Title != nil || u.Description != nil || u.Priority != nil || u.EquipmentCode != nil ||
		u.ShiftID != nil || u.PlannedStart != nil || u.PlannedEnd != nil || u.EstimatedDurationMinutes != nil ||
		u.LaborCost != nil || u.MaterialCost != nil
}

type WorkOrderQuery struct {
	Status      Status   `form:"status" json:"status"`
	AssigneeID  types.ID `form:"assigneeId" json:"assigneeId"`
	RequesterID types.ID `form:"requesterId" json:"requesterId"`
	Priority    Priority `form:"priority" json:"priority"`
	Keyword     string   `form:"keyword" json:"keyword"`
	Page        int      `form:"page" json:"page"`
	Size        int      `form:"size" json:"size"`
}

type StatusChanging struct {
	Status Status `json:"status" binding:"required"`
	Note   string `json:"note" binding:"lte=1000"`
}

type ApprovalRequest struct {
	Report string `json:"report"`
}
