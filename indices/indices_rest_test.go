package indices

import (
	"errors"
	"ieflow/authority"
	"ieflow/bizerror"
	"ieflow/domain"
	"ieflow/session"
	"ieflow/testinfra"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"golang.org/x/time/rate"
)

func TestIndicesRestAPI(t *testing.T) {
	RegisterTestingT(t)
	defer func() {
		ScheduleNewSyncRunFunc = ScheduleNewSyncRun
		SearchWorkOrdersFunc = SearchWorkOrders
		IndicesFullSyncFunc = IndicesFullSync
	}()

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	RegisterIndicesRestAPI(router, testinfra.MockSession(testinfra.BuildSession(20, "manager", authority.RoleMaintenanceManager)))

	t.Run("handle error", func(t *testing.T) {
		ScheduleNewSyncRunFunc = func(rebuild bool, sec *session.Session) (string, error) {
			return "", errors.New("error on schedule")
		}
		req := httptest.NewRequest(http.MethodPost, PathIndexRequests, nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(body).To(MatchJSON(`{"code":"common.internal_server_error", "message":"error on schedule", "data":null}`))
	})

	t.Run("create index request successfully", func(t *testing.T) {
		authority.ActivePolicy = &authority.Policy{ManagerRoles: authority.DefaultManagerRoles}
		ScheduleNewSyncRunFunc = ScheduleNewSyncRun
		syncRequestLimiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 1)
		rebuilds := make(chan bool, 2)
		IndicesFullSyncFunc = func(rebuild bool) error {
			rebuilds <- rebuild
			return nil
		}

		req := httptest.NewRequest(http.MethodPost, PathIndexRequests+"?rebuild=true", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(body).To(MatchJSON(`{"result": "started"}`))
		Expect(<-rebuilds).To(BeTrue())

		req = httptest.NewRequest(http.MethodPost, PathIndexRequests, nil)
		status, body, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"result": "request rate limited"}`))

		time.Sleep(101 * time.Millisecond)
		req = httptest.NewRequest(http.MethodPost, PathIndexRequests, nil)
		status, body, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(body).To(MatchJSON(`{"result": "started"}`))
		Expect(<-rebuilds).To(BeFalse())
		time.Sleep(20 * time.Millisecond)
	})

	t.Run("search work orders", func(t *testing.T) {
		SearchWorkOrdersFunc = func(q *WorkOrderSearch, sec *session.Session) ([]domain.WorkOrderDetail, uint64, error) {
			Expect(*q).To(Equal(WorkOrderSearch{Keyword: "pump", Status: domain.StatusCompleted}))
			return []domain.WorkOrderDetail{{WorkOrder: domain.WorkOrder{ID: 1, Number: "IE-202403-0001"}}}, 1, nil
		}
		req := httptest.NewRequest(http.MethodGet, PathWorkOrderSearch+"?keyword=pump&status=COMPLETED", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"total":1`))
		Expect(body).To(ContainSubstring(`"number":"IE-202403-0001"`))
	})
}
