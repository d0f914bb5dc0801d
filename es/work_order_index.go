package es

import (
	"bytes"
	"encoding/json"
	"fmt"
	"ieflow/domain"
	"ieflow/session"
	"net/http"

	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/fundwit/go-commons/types"
)

const WorkOrderIndex = "work_orders"

var (
	SaveWorkOrderFunc    = SaveWorkOrder
	RemoveWorkOrderFunc  = RemoveWorkOrder
	ResetWorkOrdersFunc  = ResetWorkOrders
	SearchWorkOrdersFunc = SearchWorkOrders
)

var keywordFields = []string{"number^3", "title^2", "equipmentCode^2", "description", "completionNotes"}

// KeywordQuery matches orders containing every word of Keyword, optionally of one status only.
type KeywordQuery struct {
	Keyword string
	Status  domain.Status
	Size    int
}

type WorkOrderHits struct {
	Total  uint64
	Orders []domain.WorkOrderDetail
}

type multiMatch struct {
	Query    string   `json:"query"`
	Fields   []string `json:"fields"`
	Operator string   `json:"operator"`
}

type mustClause struct {
	MultiMatch multiMatch `json:"multi_match"`
}

type filterClause struct {
	Term map[string]domain.Status `json:"term"`
}

type searchBody struct {
	Size  int `json:"size"`
	Query struct {
		Bool struct {
			Must   []mustClause   `json:"must"`
			Filter []filterClause `json:"filter,omitempty"`
		} `json:"bool"`
	} `json:"query"`
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value uint64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source domain.WorkOrderDetail `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (q *KeywordQuery) body() *searchBody {
	b := &searchBody{Size: q.Size}
	b.Query.Bool.Must = []mustClause{{MultiMatch: multiMatch{Query: q.Keyword, Fields: keywordFields, Operator: "and"}}}
	if q.Status != "" {
		// dynamic mapping keeps the exact value in the keyword sub field
		b.Query.Bool.Filter = []filterClause{{Term: map[string]domain.Status{"status.keyword": q.Status}}}
	}
	return b
}

func unexpected(action string, res *esapi.Response) error {
	return fmt.Errorf("%s: elasticsearch responded %s", action, res.Status())
}

// SaveWorkOrder writes the order with its members as one document, replacing any previous version.
func SaveWorkOrder(order *domain.WorkOrderDetail, s *session.Session) error {
	doc, err := json.Marshal(order)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      WorkOrderIndex,
		DocumentID: order.ID.String(),
		Body:       bytes.NewReader(doc),
		Refresh:    "wait_for",
	}
	res, err := req.Do(s.Context, ActiveClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return unexpected("save work order "+order.Number, res)
	}
	return nil
}

// RemoveWorkOrder deletes the document of an order, a missing document is not an error.
func RemoveWorkOrder(id types.ID, s *session.Session) error {
	req := esapi.DeleteRequest{Index: WorkOrderIndex, DocumentID: id.String(), Refresh: "wait_for"}
	res, err := req.Do(s.Context, ActiveClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return unexpected("remove work order "+id.String(), res)
	}
	return nil
}

// ResetWorkOrders drops the whole index, it is created again by the next save.
func ResetWorkOrders(s *session.Session) error {
	req := esapi.IndicesDeleteRequest{Index: []string{WorkOrderIndex}, IgnoreUnavailable: esapi.BoolPtr(true)}
	res, err := req.Do(s.Context, ActiveClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return unexpected("reset work order index", res)
	}
	return nil
}

func SearchWorkOrders(q *KeywordQuery, s *session.Session) (*WorkOrderHits, error) {
	body, err := json.Marshal(q.body())
	if err != nil {
		return nil, err
	}
	req := esapi.SearchRequest{
		Index:          []string{WorkOrderIndex},
		Body:           bytes.NewReader(body),
		TrackTotalHits: true,
	}
	res, err := req.Do(s.Context, ActiveClient)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, unexpected("search work orders", res)
	}

	r := searchResponse{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, err
	}
	hits := &WorkOrderHits{Total: r.Hits.Total.Value, Orders: make([]domain.WorkOrderDetail, 0, len(r.Hits.Hits))}
	for _, hit := range r.Hits.Hits {
		hits.Orders = append(hits.Orders, hit.Source)
	}
	return hits, nil
}
