package workorder

import (
	"errors"
	"fmt"
	"ieflow/account"
	"ieflow/authority"
	"ieflow/bizerror"
	"ieflow/domain"
	"ieflow/event"
	"ieflow/idgen"
	"ieflow/persistence"
	"ieflow/session"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

const (
	NumberPrefix         = "IE-"
	maxNumberingAttempts = 5
	defaultQueryPageSize = 20
	maximumQueryPageSize = 200
)

var (
	idWorker = idgen.NewWorker()

	CreateWorkOrderFunc   = CreateWorkOrder
	QueryWorkOrdersFunc   = QueryWorkOrders
	DetailWorkOrderFunc   = DetailWorkOrder
	UpdateWorkOrderFunc   = UpdateWorkOrder
	DeleteWorkOrderFunc   = DeleteWorkOrder
	ChangeStatusFunc      = ChangeStatus
	SubmitForApprovalFunc = SubmitForApproval
	ApproveCompletionFunc = ApproveCompletion
	ClearReportFunc       = ClearReport
	QueryLogsFunc         = QueryLogs
	LoadWorkOrdersFunc    = LoadWorkOrders

	NowFunc = time.Now
)

var errAssigneeNotFound = errors.New("assignee not found")

func CreateWorkOrder(c *domain.WorkOrderCreation, sec *session.Session) (*domain.WorkOrderDetail, error) {
	policy := authority.ActivePolicy
	assigned := c.AssigneeID != nil && *c.AssigneeID != 0
	if assigned && !policy.HasAssignmentCapability(&sec.Identity) {
		return nil, bizerror.ErrForbidden
	}
	if strings.TrimSpace(c.Title) == "" {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("title is required")}
	}
	priority := c.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !priority.Valid() {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("unknown priority '" + string(priority) + "'")}
	}

	now := NowFunc()
	order := domain.WorkOrder{
		Title:                    c.Title,
		Description:              c.Description,
		Priority:                 priority,
		OrderClass:               domain.ResolveOrderClass(c.OrderClass, c.Title),
		EquipmentCode:            c.EquipmentCode,
		ShiftID:                  nonZeroID(c.ShiftID),
		RequesterID:              sec.Identity.ID,
		RequesterName:            sec.Identity.DisplayName(),
		Status:                   domain.StatusPending,
		PlannedStart:             c.PlannedStart,
		PlannedEnd:               c.PlannedEnd,
		EstimatedDurationMinutes: c.EstimatedDurationMinutes,
		LaborCost:                c.LaborCost,
		MaterialCost:             c.MaterialCost,
		CreateTime:               now,
		UpdateTime:               now,
	}
	if assigned {
		names, err := account.QueryAccountNamesFunc([]types.ID{*c.AssigneeID})
		if err != nil {
			return nil, err
		}
		name, found := names[*c.AssigneeID]
		if !found {
			return nil, &bizerror.ErrBadParam{Cause: errAssigneeNotFound}
		}
		assigneeID := *c.AssigneeID
		order.AssigneeID, order.AssigneeName = &assigneeID, name
		order.Status = domain.StatusAssigned
	}

	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	for attempt := 1; ; attempt++ {
		order.ID = idgen.NextID(idWorker)
		err := db.Transaction(func(tx *gorm.DB) error {
			number, err := nextNumber(tx, now)
			if err != nil {
				return err
			}
			order.Number = number
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			_, err = appendLog(tx, &order, sec, domain.LogActionCreated, "", order.Status, "", now)
			return err
		})
		if err == nil {
			break
		}
		if persistence.IsUniqueViolation(err) && attempt < maxNumberingAttempts {
			logrus.Warnf("work order number %s collided, retrying (attempt %d)", order.Number, attempt)
			continue
		}
		return nil, err
	}

	fireEvent(&order, event.EventCategoryCreated, nil, sec, now)
	return &domain.WorkOrderDetail{WorkOrder: order, Members: []domain.WorkOrderMember{}}, nil
}

// nextNumber finds the highest sequence of the month and increments it.
func nextNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := NumberPrefix + now.Format("200601") + "-"
	var numbers []string
	if err := tx.Model(&domain.WorkOrder{}).Where("number LIKE ?", prefix+"%").
		Order("LENGTH(number) DESC, number DESC").Limit(1).Pluck("number", &numbers).Error; err != nil {
		return "", err
	}
	seq := 0
	if len(numbers) > 0 {
		latest, err := strconv.Atoi(strings.TrimPrefix(numbers[0], prefix))
		if err != nil {
			return "", fmt.Errorf("malformed work order number %q: %w", numbers[0], err)
		}
		seq = latest
	}
	return fmt.Sprintf("%s%04d", prefix, seq+1), nil
}

func QueryWorkOrders(query *domain.WorkOrderQuery, sec *session.Session) ([]domain.WorkOrder, uint64, error) {
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)

	q := db.Model(&domain.WorkOrder{})
	if query.Status != "" {
		if !query.Status.Valid() {
			return nil, 0, &bizerror.ErrBadParam{Cause: errors.New("unknown status '" + string(query.Status) + "'")}
		}
		q = q.Where("status = ?", query.Status)
	}
	if query.Priority != "" {
		q = q.Where("priority = ?", query.Priority)
	}
	if query.AssigneeID != 0 {
		q = q.Where("assignee_id = ?", query.AssigneeID)
	}
	if query.RequesterID != 0 {
		q = q.Where("requester_id = ?", query.RequesterID)
	}
	if keyword := strings.TrimSpace(query.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		q = q.Where("title LIKE ? OR number LIKE ? OR equipment_code LIKE ?", like, like, like)
	}

	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, size := query.Page, query.Size
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultQueryPageSize
	}
	if size > maximumQueryPageSize {
		size = maximumQueryPageSize
	}
	orders := []domain.WorkOrder{}
	if err := q.Order("id DESC").Offset((page - 1) * size).Limit(size).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// DetailWorkOrder accepts either the id or the number of a work order.
func DetailWorkOrder(identifier string, sec *session.Session) (*domain.WorkOrderDetail, error) {
	id, _ := types.ParseID(identifier)
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)

	detail := domain.WorkOrderDetail{}
	if err := db.Where("id = ? OR number = ?", id, identifier).First(&detail.WorkOrder).Error; err != nil {
		return nil, err
	}
	members, err := loadMembers(db, detail.ID)
	if err != nil {
		return nil, err
	}
	detail.Members = members
	return &detail, nil
}

// LoadWorkOrders pages through all work orders with their members, ordered by id.
func LoadWorkOrders(page, size int, sec *session.Session) ([]domain.WorkOrderDetail, error) {
	if page < 1 {
		page = 1
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	var orders []domain.WorkOrder
	if err := db.Order("id ASC").Offset((page - 1) * size).Limit(size).Find(&orders).Error; err != nil {
		return nil, err
	}
	details := make([]domain.WorkOrderDetail, 0, len(orders))
	for _, order := range orders {
		members, err := loadMembers(db, order.ID)
		if err != nil {
			return nil, err
		}
		details = append(details, domain.WorkOrderDetail{WorkOrder: order, Members: members})
	}
	return details, nil
}

func UpdateWorkOrder(id types.ID, u *domain.WorkOrderUpdating, sec *session.Session) (*domain.WorkOrderDetail, error) {
	policy := authority.ActivePolicy
	if !u.TouchesAssignment() && !u.TouchesFields() {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("nothing to update")}
	}
	if u.TouchesAssignment() && !policy.HasAssignmentCapability(&sec.Identity) {
		return nil, bizerror.ErrForbidden
	}

	now := NowFunc()
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	detail := domain.WorkOrderDetail{}
	var changes []event.UpdatedProperty
	err := db.Transaction(func(tx *gorm.DB) error {
		order := &detail.WorkOrder
		if err := tx.Where("id = ?", id).First(order).Error; err != nil {
			return err
		}
		if u.TouchesFields() && !policy.HasWorkCapability(&sec.Identity, order) {
			return bizerror.ErrForbidden
		}

		fields, props, err := collectChanges(order, u)
		if err != nil {
			return err
		}
		changes = props

		if u.MemberIDs != nil {
			memberProp, err := replaceMembers(tx, order, u.MemberIDs)
			if err != nil {
				return err
			}
			if memberProp != nil {
				changes = append(changes, *memberProp)
			}
		}
		if len(changes) == 0 {
			return nil
		}

		order.UpdateTime = now
		fields["update_time"] = now
		r := tx.Model(&domain.WorkOrder{}).Where("id = ?", order.ID).Updates(fields)
		if r.Error != nil {
			return r.Error
		}
		if r.RowsAffected != 1 {
			return bizerror.ErrConcurrentModification
		}

		names := make([]string, 0, len(changes))
		for _, c := range changes {
			names = append(names, c.PropertyName)
		}
		_, err = appendLog(tx, order, sec, domain.LogActionUpdated, order.Status, order.Status, strings.Join(names, ", "), now)
		return err
	})
	if err != nil {
		return nil, err
	}

	members, err := loadMembers(db, detail.ID)
	if err != nil {
		return nil, err
	}
	detail.Members = members

	if len(changes) > 0 {
		fireEvent(&detail.WorkOrder, event.EventCategoryPropertyUpdated, changes, sec, now)
	}
	return &detail, nil
}

// collectChanges applies the updating onto order and returns the changed columns.
func collectChanges(order *domain.WorkOrder, u *domain.WorkOrderUpdating) (map[string]interface{}, []event.UpdatedProperty, error) {
	fields := map[string]interface{}{}
	var props []event.UpdatedProperty
	setString := func(column string, target *string, value *string) {
		if value != nil && *value != *target {
			props = append(props, event.UpdatedProperty{PropertyName: column, OldValue: *target, NewValue: *value})
			*target = *value
			fields[column] = *value
		}
	}

	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return nil, nil, &bizerror.ErrBadParam{Cause: errors.New("title is required")}
	}
	if u.Title != nil && !order.IsExtendedDowntime() && domain.HasExtendedDowntimeMarker(*u.Title) {
		return nil, nil, &bizerror.ErrBadParam{Cause: errors.New("the " + domain.ExtendedDowntimeMarker + " marker cannot be added to a standard work order")}
	}
	setString("title", &order.Title, u.Title)
	setString("description", &order.Description, u.Description)
	setString("equipment_code", &order.EquipmentCode, u.EquipmentCode)
	setString("planned_start", &order.PlannedStart, u.PlannedStart)
	setString("planned_end", &order.PlannedEnd, u.PlannedEnd)

	if u.Priority != nil && *u.Priority != order.Priority {
		if !u.Priority.Valid() {
			return nil, nil, &bizerror.ErrBadParam{Cause: errors.New("unknown priority '" + string(*u.Priority) + "'")}
		}
		props = append(props, event.UpdatedProperty{PropertyName: "priority", OldValue: string(order.Priority), NewValue: string(*u.Priority)})
		order.Priority = *u.Priority
		fields["priority"] = order.Priority
	}
	if u.ShiftID != nil && idString(order.ShiftID) != idString(nonZeroID(u.ShiftID)) {
		props = append(props, event.UpdatedProperty{PropertyName: "shift_id", OldValue: idString(order.ShiftID), NewValue: idString(nonZeroID(u.ShiftID))})
		order.ShiftID = nonZeroID(u.ShiftID)
		fields["shift_id"] = order.ShiftID
	}
	if u.EstimatedDurationMinutes != nil && intString(order.EstimatedDurationMinutes) != intString(u.EstimatedDurationMinutes) {
		props = append(props, event.UpdatedProperty{PropertyName: "estimated_duration_minutes",
			OldValue: intString(order.EstimatedDurationMinutes), NewValue: intString(u.EstimatedDurationMinutes)})
		minutes := *u.EstimatedDurationMinutes
		order.EstimatedDurationMinutes = &minutes
		fields["estimated_duration_minutes"] = order.EstimatedDurationMinutes
	}
	if u.LaborCost != nil && *u.LaborCost != order.LaborCost {
		props = append(props, event.UpdatedProperty{PropertyName: "labor_cost",
			OldValue: floatString(order.LaborCost), NewValue: floatString(*u.LaborCost)})
		order.LaborCost = *u.LaborCost
		fields["labor_cost"] = order.LaborCost
	}
	if u.MaterialCost != nil && *u.MaterialCost != order.MaterialCost {
		props = append(props, event.UpdatedProperty{PropertyName: "material_cost",
			OldValue: floatString(order.MaterialCost), NewValue: floatString(*u.MaterialCost)})
		order.MaterialCost = *u.MaterialCost
		fields["material_cost"] = order.MaterialCost
	}

	if u.AssigneeID != nil && idString(order.AssigneeID) != idString(nonZeroID(u.AssigneeID)) {
		oldValue := idString(order.AssigneeID)
		if *u.AssigneeID == 0 {
			order.AssigneeID, order.AssigneeName = nil, ""
		} else {
			names, err := account.QueryAccountNamesFunc([]types.ID{*u.AssigneeID})
			if err != nil {
				return nil, nil, err
			}
			name, found := names[*u.AssigneeID]
			if !found {
				return nil, nil, &bizerror.ErrBadParam{Cause: errAssigneeNotFound}
			}
			assigneeID := *u.AssigneeID
			order.AssigneeID, order.AssigneeName = &assigneeID, name
		}
		props = append(props, event.UpdatedProperty{PropertyName: "assignee_id", OldValue: oldValue, NewValue: idString(order.AssigneeID)})
		fields["assignee_id"] = order.AssigneeID
		fields["assignee_name"] = order.AssigneeName
	}
	return fields, props, nil
}

func DeleteWorkOrder(id types.ID, sec *session.Session) error {
	if !authority.ActivePolicy.CanManageCompleted(&sec.Identity) {
		return bizerror.ErrForbidden
	}

	now := NowFunc()
	order := domain.WorkOrder{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&order).Error; err != nil {
			return err
		}
		if err := tx.Where("work_order_id = ?", id).Delete(&domain.WorkOrderMember{}).Error; err != nil {
			return err
		}
		r := tx.Where("id = ? AND status = ?", id, order.Status).Delete(&domain.WorkOrder{})
		if r.Error != nil {
			return r.Error
		}
		if r.RowsAffected != 1 {
			return bizerror.ErrConcurrentModification
		}
		_, err := appendLog(tx, &order, sec, domain.LogActionDeleted, order.Status, "", "", now)
		return err
	})
	if err != nil {
		return err
	}

	fireEvent(&order, event.EventCategoryDeleted, nil, sec, now)
	return nil
}

func loadMembers(db *gorm.DB, workOrderID types.ID) ([]domain.WorkOrderMember, error) {
	members := []domain.WorkOrderMember{}
	if err := db.Where("work_order_id = ?", workOrderID).Order("member_id ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func replaceMembers(tx *gorm.DB, order *domain.WorkOrder, memberIDs []types.ID) (*event.UpdatedProperty, error) {
	existing, err := loadMembers(tx, order.ID)
	if err != nil {
		return nil, err
	}

	wanted := uniqueIDs(memberIDs)
	names, err := account.QueryAccountNamesFunc(wanted)
	if err != nil {
		return nil, err
	}
	for _, id := range wanted {
		if _, found := names[id]; !found {
			return nil, &bizerror.ErrBadParam{Cause: errors.New("member " + id.String() + " not found")}
		}
	}

	oldValue := joinMemberIDs(existing)
	newMembers := make([]domain.WorkOrderMember, 0, len(wanted))
	for _, id := range wanted {
		newMembers = append(newMembers, domain.WorkOrderMember{WorkOrderID: order.ID, MemberID: id, MemberName: names[id]})
	}
	newValue := joinMemberIDs(newMembers)
	if oldValue == newValue {
		return nil, nil
	}

	if err := tx.Where("work_order_id = ?", order.ID).Delete(&domain.WorkOrderMember{}).Error; err != nil {
		return nil, err
	}
	for i := range newMembers {
		if err := tx.Create(&newMembers[i]).Error; err != nil {
			return nil, err
		}
	}
	return &event.UpdatedProperty{PropertyName: "members", OldValue: oldValue, NewValue: newValue}, nil
}

func uniqueIDs(ids []types.ID) []types.ID {
	seen := map[types.ID]bool{}
	r := []types.ID{}
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		r = append(r, id)
	}
	sort.Slice(r, func(i, j int) bool { return r[i] < r[j] })
	return r
}

func joinMemberIDs(members []domain.WorkOrderMember) string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.MemberID.String())
	}
	return strings.Join(ids, ",")
}

func nonZeroID(id *types.ID) *types.ID {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}

func idString(id *types.ID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func intString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatString(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
