package indices

import (
	"errors"
	"ieflow/bizerror"
	"ieflow/domain"
	"ieflow/es"
	"ieflow/session"
	"strings"
)

const maxSearchSize = 200

var (
	SearchWorkOrdersFunc = SearchWorkOrders
)

type WorkOrderSearch struct {
	Keyword string        `form:"keyword" json:"keyword"`
	Status  domain.Status `form:"status" json:"status"`
	Size    int           `form:"size" json:"size"`
}

// SearchWorkOrders runs a full text search on the work order index, best matches first.
func SearchWorkOrders(q *WorkOrderSearch, sec *session.Session) ([]domain.WorkOrderDetail, uint64, error) {
	keyword := strings.TrimSpace(q.Keyword)
	if keyword == "" {
		return nil, 0, &bizerror.ErrBadParam{Cause: errors.New("keyword is required")}
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, &bizerror.ErrBadParam{Cause: errors.New("unknown status '" + string(q.Status) + "'")}
	}
	size := q.Size
	if size <= 0 || size > maxSearchSize {
		size = maxSearchSize
	}

	hits, err := es.SearchWorkOrdersFunc(&es.KeywordQuery{Keyword: keyword, Status: q.Status, Size: size}, sec)
	if err != nil {
		return nil, 0, err
	}
	return hits.Orders, hits.Total, nil
}
