package state

import (
	"errors"
	"ieflow/bizerror"
	"ieflow/domain"
	"math"
	"time"
)

type Kind string

const (
	KindForward    Kind = "FORWARD"
	KindAssignment Kind = "ASSIGNMENT"
	KindReopen     Kind = "REOPEN"
)

// Capability names the authorization check a transition is gated by.
type Capability string

const (
	CapabilityWork            Capability = "WORK"
	CapabilityAssign          Capability = "ASSIGN"
	CapabilityManageCompleted Capability = "MANAGE_COMPLETED"
)

type Effects struct {
	MarkStarted     bool `json:"markStarted"`
	RestartWork     bool `json:"restartWork"`
	MarkEnded       bool `json:"markEnded"`
	ComputeDuration bool `json:"computeDuration"`
	ClearApproval   bool `json:"clearApproval"`
	ClearEnd        bool `json:"clearEnd"`
}

type Transition struct {
	From  domain.Status     `json:"from"`
	To    domain.Status     `json:"to"`
	Class domain.OrderClass `json:"class"`

	Kind             Kind       `json:"kind"`
	Capability       Capability `json:"capability"`
	RequiresAssignee bool       `json:"requiresAssignee"`
	Effects          Effects    `json:"effects"`

	// Denied is checked after authorization, nil means allowed.
	Denied error `json:"-"`
}

type key struct {
	from, to domain.Status
	class    domain.OrderClass
}

var table = buildTable()

var ErrUnknownStatus = errors.New("unknown status")

// Lookup returns the descriptor of moving an order of the given class from one status to another.
func Lookup(from, to domain.Status, class domain.OrderClass) (Transition, error) {
	if !from.Valid() || !to.Valid() {
		return Transition{}, &bizerror.ErrBadParam{Cause: ErrUnknownStatus}
	}
	if class != domain.OrderClassExtendedDowntime {
		class = domain.OrderClassStandard
	}
	return table[key{from: from, to: to, class: class}], nil
}

func Table() []Transition {
	var r []Transition
	for _, class := range []domain.OrderClass{domain.OrderClassStandard, domain.OrderClassExtendedDowntime} {
		for _, from := range domain.Statuses {
			for _, to := range domain.Statuses {
				r = append(r, table[key{from: from, to: to, class: class}])
			}
		}
	}
	return r
}

func buildTable() map[key]Transition {
	t := map[key]Transition{}
	for _, class := range []domain.OrderClass{domain.OrderClassStandard, domain.OrderClassExtendedDowntime} {
		for _, from := range domain.Statuses {
			for _, to := range domain.Statuses {
				t[key{from: from, to: to, class: class}] = describe(from, to, class)
			}
		}
	}
	return t
}

func describe(from, to domain.Status, class domain.OrderClass) Transition {
	tr := Transition{From: from, To: to, Class: class, Kind: KindForward, Capability: CapabilityWork}

	reopen := from == domain.StatusCompleted && to != domain.StatusCompleted
	switch {
	case to == domain.StatusAssigned:
		tr.Kind, tr.Capability = KindAssignment, CapabilityAssign
	case reopen:
		tr.Kind, tr.Capability = KindReopen, CapabilityManageCompleted
	}
	if reopen {
		tr.Effects.ClearApproval = true
		if to == domain.StatusInProgress {
			tr.Effects.ClearEnd = true
			tr.Effects.RestartWork = true
		}
	}

	switch to {
	case domain.StatusInProgress:
		tr.RequiresAssignee = true
		tr.Effects.MarkStarted = true
	case domain.StatusCompleted:
		tr.Effects.MarkEnded, tr.Effects.ComputeDuration = true, true
		if class == domain.OrderClassExtendedDowntime {
			tr.Denied = bizerror.ErrTransitionRequiresApproval
		}
	case domain.StatusAwaitingApproval:
		tr.Effects.MarkEnded, tr.Effects.ComputeDuration, tr.Effects.ClearApproval = true, true, true
		if class == domain.OrderClassExtendedDowntime {
			tr.Denied = bizerror.ErrTransitionRequiresReport
		}
	}

	if from == to {
		tr.Effects = Effects{}
		tr.Denied = bizerror.ErrTransitionUnchanged
	}
	return tr
}

// Apply writes the side effect fields onto the order, the status itself is left to the caller.
func (e Effects) Apply(order *domain.WorkOrder, now time.Time) {
	if e.ClearApproval {
		order.ApproverID = nil
		order.ApproverName = ""
		order.ApprovedAt = nil
	}
	if e.ClearEnd {
		order.ActualEnd = nil
		order.RealizedDurationMinutes = nil
	}
	if e.RestartWork {
		order.ActualStart = &now
	} else if e.MarkStarted && order.ActualStart == nil {
		order.ActualStart = &now
	}
	if e.MarkEnded {
		order.ActualEnd = &now
	}
	if e.ComputeDuration && order.ActualStart != nil {
		minutes := RealizedMinutes(*order.ActualStart, now)
		order.RealizedDurationMinutes = &minutes
	}
}

// RealizedMinutes rounds the elapsed time to whole minutes, floored at zero.
func RealizedMinutes(start, end time.Time) int {
	minutes := int(math.Round(end.Sub(start).Minutes()))
	if minutes < 0 {
		return 0
	}
	return minutes
}
