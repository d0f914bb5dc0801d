package state_test

import (
	"ieflow/bizerror"
	"ieflow/domain"
	"ieflow/domain/state"
	"time"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Transitions", func() {
	standard, extended := domain.OrderClassStandard, domain.OrderClassExtendedDowntime

	Describe("Lookup", func() {
		It("should reject unknown statuses as bad params", func() {
			_, err := state.Lookup("DONE", domain.StatusPending, standard)
			Expect(err).To(HaveOccurred())
			var badParam *bizerror.ErrBadParam
			Expect(err).To(BeAssignableToTypeOf(badParam))

			_, err = state.Lookup(domain.StatusPending, "", standard)
			Expect(err).To(HaveOccurred())
		})

		It("should gate every move into ASSIGNED by the assignment capability", func() {
			for _, from := range domain.Statuses {
				if from == domain.StatusAssigned {
					continue
				}
				for _, class := range []domain.OrderClass{standard, extended} {
					tr, err := state.Lookup(from, domain.StatusAssigned, class)
					Expect(err).ToNot(HaveOccurred())
					Expect(tr.Capability).To(Equal(state.CapabilityAssign))
					Expect(tr.Kind).To(Equal(state.KindAssignment))
					Expect(tr.Denied).To(BeNil())
				}
			}
		})

		It("should treat leaving COMPLETED as a reopen", func() {
			tr, _ := state.Lookup(domain.StatusCompleted, domain.StatusInProgress, extended)
			Expect(tr.Kind).To(Equal(state.KindReopen))
			Expect(tr.Capability).To(Equal(state.CapabilityManageCompleted))
			Expect(tr.RequiresAssignee).To(BeTrue())
			Expect(tr.Effects).To(Equal(state.Effects{MarkStarted: true, RestartWork: true, ClearApproval: true, ClearEnd: true}))
			Expect(tr.Denied).To(BeNil())

			tr, _ = state.Lookup(domain.StatusCompleted, domain.StatusPending, standard)
			Expect(tr.Kind).To(Equal(state.KindReopen))
			Expect(tr.Effects).To(Equal(state.Effects{ClearApproval: true}))

			tr, _ = state.Lookup(domain.StatusCompleted, domain.StatusAssigned, standard)
			Expect(tr.Capability).To(Equal(state.CapabilityAssign))
			Expect(tr.Effects.ClearApproval).To(BeTrue())
		})

		It("should require work capability and an assignee to start work", func() {
			tr, _ := state.Lookup(domain.StatusAssigned, domain.StatusInProgress, standard)
			Expect(tr.Kind).To(Equal(state.KindForward))
			Expect(tr.Capability).To(Equal(state.CapabilityWork))
			Expect(tr.RequiresAssignee).To(BeTrue())
			Expect(tr.Effects).To(Equal(state.Effects{MarkStarted: true}))
		})

		It("should never let an extended downtime order be completed or submitted through a plain transition", func() {
			for _, from := range domain.Statuses {
				tr, _ := state.Lookup(from, domain.StatusCompleted, extended)
				Expect(tr.Denied).To(HaveOccurred())
				tr, _ = state.Lookup(from, domain.StatusAwaitingApproval, extended)
				Expect(tr.Denied).To(HaveOccurred())
			}
			tr, _ := state.Lookup(domain.StatusInProgress, domain.StatusCompleted, extended)
			Expect(tr.Denied).To(Equal(bizerror.ErrTransitionRequiresApproval))
			tr, _ = state.Lookup(domain.StatusInProgress, domain.StatusAwaitingApproval, extended)
			Expect(tr.Denied).To(Equal(bizerror.ErrTransitionRequiresReport))
		})

		It("should let standard orders complete and await approval", func() {
			tr, _ := state.Lookup(domain.StatusInProgress, domain.StatusCompleted, standard)
			Expect(tr.Denied).To(BeNil())
			Expect(tr.Effects).To(Equal(state.Effects{MarkEnded: true, ComputeDuration: true}))

			tr, _ = state.Lookup(domain.StatusInProgress, domain.StatusAwaitingApproval, standard)
			Expect(tr.Denied).To(BeNil())
			Expect(tr.Effects).To(Equal(state.Effects{MarkEnded: true, ComputeDuration: true, ClearApproval: true}))
		})

		It("should deny same-state requests", func() {
			for _, s := range domain.Statuses {
				tr, _ := state.Lookup(s, s, standard)
				Expect(tr.Denied).To(Equal(bizerror.ErrTransitionUnchanged))
				Expect(tr.Effects).To(BeZero())
			}
		})

		It("should treat an unset class as standard", func() {
			tr, err := state.Lookup(domain.StatusInProgress, domain.StatusCompleted, "")
			Expect(err).ToNot(HaveOccurred())
			Expect(tr.Denied).To(BeNil())
			Expect(tr.Class).To(Equal(standard))
		})
	})

	Describe("Table", func() {
		It("should describe every status pair for both classes", func() {
			Expect(state.Table()).To(HaveLen(2 * len(domain.Statuses) * len(domain.Statuses)))
		})
	})

	Describe("Effects.Apply", func() {
		var (
			now   time.Time
			order *domain.WorkOrder
		)
		BeforeEach(func() {
			now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
			approver := types.ID(9)
			approvedAt := now.Add(-time.Hour)
			order = &domain.WorkOrder{ApproverID: &approver, ApproverName: "boss", ApprovedAt: &approvedAt}
		})

		It("should set actual start only once", func() {
			state.Effects{MarkStarted: true}.Apply(order, now)
			Expect(*order.ActualStart).To(Equal(now))
			state.Effects{MarkStarted: true}.Apply(order, now.Add(time.Hour))
			Expect(*order.ActualStart).To(Equal(now))
		})

		It("should restart work and clear the end on reopen", func() {
			start, end := now.Add(-3*time.Hour), now.Add(-time.Hour)
			minutes := 120
			order.ActualStart, order.ActualEnd, order.RealizedDurationMinutes = &start, &end, &minutes

			state.Effects{MarkStarted: true, RestartWork: true, ClearApproval: true, ClearEnd: true}.Apply(order, now)
			Expect(*order.ActualStart).To(Equal(now))
			Expect(order.ActualEnd).To(BeNil())
			Expect(order.RealizedDurationMinutes).To(BeNil())
			Expect(order.ApproverID).To(BeNil())
			Expect(order.ApproverName).To(BeEmpty())
			Expect(order.ApprovedAt).To(BeNil())
		})

		It("should compute the realized duration when ending started work", func() {
			start := now.Add(-90*time.Minute - 29*time.Second)
			order.ActualStart = &start
			state.Effects{MarkEnded: true, ComputeDuration: true}.Apply(order, now)
			Expect(*order.ActualEnd).To(Equal(now))
			Expect(*order.RealizedDurationMinutes).To(Equal(90))
		})

		It("should leave the duration unset when work never started", func() {
			state.Effects{MarkEnded: true, ComputeDuration: true}.Apply(order, now)
			Expect(*order.ActualEnd).To(Equal(now))
			Expect(order.RealizedDurationMinutes).To(BeNil())
		})
	})

	Describe("RealizedMinutes", func() {
		It("should round to the nearest minute and floor at zero", func() {
			base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
			Expect(state.RealizedMinutes(base, base.Add(30*time.Second))).To(Equal(1))
			Expect(state.RealizedMinutes(base, base.Add(29*time.Second))).To(Equal(0))
			Expect(state.RealizedMinutes(base, base.Add(120*time.Minute))).To(Equal(120))
			Expect(state.RealizedMinutes(base, base.Add(-5*time.Minute))).To(Equal(0))
		})
	})
})
