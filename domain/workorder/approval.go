package workorder

import (
	"errors"
	"ieflow/authority"
	"ieflow/bizerror"
	"ieflow/domain"
	"ieflow/domain/state"
	"ieflow/persistence"
	"ieflow/session"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

const noOpNote = "no-op"

var errReportRequired = errors.New("report is required")

// SubmitForApproval hands an extended downtime order with its report over to the requester for approval.
func SubmitForApproval(id types.ID, req *domain.ApprovalRequest, sec *session.Session) (*TransitionResult, error) {
	policy := authority.ActivePolicy
	return applyLifecycle(id, sec, domain.LogActionSubmittedForApproval, func(order *domain.WorkOrder, now time.Time) (string, error) {
		if !order.IsExtendedDowntime() {
			return "", bizerror.ErrInvalidOperation
		}
		if !policy.HasWorkCapability(&sec.Identity, order) {
			return "", bizerror.ErrForbidden
		}
		report := strings.TrimSpace(req.Report)
		if report == "" {
			return "", &bizerror.ErrBadParam{Cause: errReportRequired}
		}
		if order.Status == domain.StatusCompleted {
			return "", bizerror.ErrInvalidState
		}

		state.Effects{MarkEnded: true, ComputeDuration: true, ClearApproval: true}.Apply(order, now)
		order.CompletionNotes = req.Report
		order.Status = domain.StatusAwaitingApproval
		return "", nil
	})
}

func ApproveCompletion(id types.ID, sec *session.Session) (*TransitionResult, error) {
	policy := authority.ActivePolicy
	return applyLifecycle(id, sec, domain.LogActionApproved, func(order *domain.WorkOrder, now time.Time) (string, error) {
		if !order.IsExtendedDowntime() {
			return "", bizerror.ErrInvalidOperation
		}
		if order.Status != domain.StatusAwaitingApproval {
			return "", bizerror.ErrInvalidState
		}
		if !policy.CanApprove(&sec.Identity, order) {
			return "", bizerror.ErrForbidden
		}

		approverID := sec.Identity.ID
		order.ApproverID, order.ApproverName, order.ApprovedAt = &approverID, sec.Identity.DisplayName(), &now
		if order.ActualEnd == nil {
			order.ActualEnd = &now
		}
		if order.ActualStart != nil && order.RealizedDurationMinutes == nil {
			minutes := state.RealizedMinutes(*order.ActualStart, *order.ActualEnd)
			order.RealizedDurationMinutes = &minutes
		}
		order.Status = domain.StatusCompleted
		return "", nil
	})
}

// ClearReport withdraws the report, sending a submitted or completed order back to work.
func ClearReport(id types.ID, sec *session.Session) (*TransitionResult, error) {
	policy := authority.ActivePolicy
	return applyLifecycle(id, sec, domain.LogActionReportCleared, func(order *domain.WorkOrder, now time.Time) (string, error) {
		if !policy.HasAssignmentCapability(&sec.Identity) {
			return "", bizerror.ErrForbidden
		}

		reverted := (order.Status == domain.StatusAwaitingApproval || order.Status == domain.StatusCompleted) &&
			strings.TrimSpace(order.CompletionNotes) != ""
		order.CompletionNotes = ""
		state.Effects{ClearApproval: true}.Apply(order, now)
		if !reverted {
			return noOpNote, nil
		}
		state.Effects{MarkStarted: true, ClearEnd: true}.Apply(order, now)
		order.Status = domain.StatusInProgress
		return "", nil
	})
}

// applyLifecycle loads the order, lets mutate change it in memory and persists the result with its log entry.
func applyLifecycle(id types.ID, sec *session.Session, action domain.LogAction,
	mutate func(order *domain.WorkOrder, now time.Time) (string, error)) (*TransitionResult, error) {

	now := NowFunc()
	result := TransitionResult{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		order := &result.WorkOrder
		if err := tx.Where("id = ?", id).First(order).Error; err != nil {
			return err
		}
		from := order.Status
		note, err := mutate(order, now)
		if err != nil {
			return err
		}
		order.UpdateTime = now
		if err := saveLifecycle(tx, order, from); err != nil {
			return err
		}
		log, err := appendLog(tx, order, sec, action, from, order.Status, note, now)
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
