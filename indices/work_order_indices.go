package indices

import (
	"fmt"
	"ieflow/domain"
	"ieflow/es"
	"ieflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

// IndexWorkOrders saves every order, failures are collected per order id.
func IndexWorkOrders(details []domain.WorkOrderDetail, sec *session.Session) error {
	errs := BatchActionError{}
	for i := range details {
		detail := &details[i]
		if err := es.SaveWorkOrderFunc(detail, sec); err != nil {
			errs[detail.ID] = err
			logrus.Warnf("index work order %d %s: %v", detail.ID, detail.Number, err)
		} else {
			logrus.Debugf("index work order %d %s successfully", detail.ID, detail.Number)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
