package indices_test

import (
	"errors"
	"ieflow/bizerror"
	"ieflow/domain"
	"ieflow/es"
	"ieflow/indices"
	"ieflow/session"
	"ieflow/testinfra"
	"testing"

	. "github.com/onsi/gomega"
)

func TestSearchWorkOrders(t *testing.T) {
	RegisterTestingT(t)
	defer func() { es.SearchWorkOrdersFunc = es.SearchWorkOrders }()
	sec := testinfra.BuildSession(30, "tech", "TECHNICIAN")

	t.Run("should require keyword and valid status", func(t *testing.T) {
		var badParam *bizerror.ErrBadParam
		_, _, err := indices.SearchWorkOrders(&indices.WorkOrderSearch{Keyword: "  "}, sec)
		Expect(errors.As(err, &badParam)).To(BeTrue())
		_, _, err = indices.SearchWorkOrders(&indices.WorkOrderSearch{Keyword: "pump", Status: "DONE"}, sec)
		Expect(errors.As(err, &badParam)).To(BeTrue())
	})

	t.Run("should trim keyword and cap the size", func(t *testing.T) {
		var captured *es.KeywordQuery
		found := []domain.WorkOrderDetail{{
			WorkOrder: domain.WorkOrder{ID: 1, Number: "IE-202403-0001", Status: domain.StatusCompleted},
			Members:   []domain.WorkOrderMember{{WorkOrderID: 1, MemberID: 30, MemberName: "tech"}},
		}}
		es.SearchWorkOrdersFunc = func(q *es.KeywordQuery, s *session.Session) (*es.WorkOrderHits, error) {
			captured = q
			return &es.WorkOrderHits{Total: 7, Orders: found}, nil
		}

		details, total, err := indices.SearchWorkOrders(&indices.WorkOrderSearch{Keyword: " pump ", Status: domain.StatusCompleted, Size: 1000}, sec)
		Expect(err).To(BeNil())
		Expect(total).To(Equal(uint64(7)))
		Expect(details).To(Equal(found))
		Expect(*captured).To(Equal(es.KeywordQuery{Keyword: "pump", Status: domain.StatusCompleted, Size: 200}))

		_, _, err = indices.SearchWorkOrders(&indices.WorkOrderSearch{Keyword: "pump", Size: 15}, sec)
		Expect(err).To(BeNil())
		Expect(*captured).To(Equal(es.KeywordQuery{Keyword: "pump", Size: 15}))
	})

	t.Run("should pass search errors", func(t *testing.T) {
		es.SearchWorkOrdersFunc = func(q *es.KeywordQuery, s *session.Session) (*es.WorkOrderHits, error) {
			return nil, errors.New("es down")
		}
		_, _, err := indices.SearchWorkOrders(&indices.WorkOrderSearch{Keyword: "pump"}, sec)
		Expect(err).To(MatchError("es down"))
	})
}
