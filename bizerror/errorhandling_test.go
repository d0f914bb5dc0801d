package bizerror_test

import (
	"errors"
	"fmt"
	"ieflow/bizerror"
	"ieflow/testinfra"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func serve(err interface{}) (int, string) {
	engine := gin.New()
	engine.Use(bizerror.ErrorHandling())
	engine.GET("/", func(c *gin.Context) {
		panic(err)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	status, body, _ := testinfra.ExecuteRequest(req, engine)
	return status, body
}

func TestErrorHandling(t *testing.T) {
	RegisterTestingT(t)

	t.Run("invalid transition carries its reason", func(t *testing.T) {
		status, body := serve(bizerror.ErrTransitionUnassigned)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"work_order.invalid_transition","message":"invalid transition: unassigned","data":"unassigned"}`))

		status, body = serve(fmt.Errorf("wrapped: %w", bizerror.ErrTransitionRequiresApproval))
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"work_order.invalid_transition","message":"invalid transition: requires approval","data":"requires approval"}`))
	})

	t.Run("bad param uses the cause as message", func(t *testing.T) {
		status, body := serve(&bizerror.ErrBadParam{Cause: errors.New("report is required")})
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"report is required","data":null}`))
	})

	t.Run("sentinel errors map to stable codes", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{bizerror.ErrUnauthenticated, http.StatusUnauthorized, "common.unauthenticated"},
			{bizerror.ErrForbidden, http.StatusForbidden, "security.forbidden"},
			{bizerror.ErrInvalidState, http.StatusBadRequest, "work_order.invalid_state"},
			{bizerror.ErrInvalidOperation, http.StatusBadRequest, "work_order.invalid_operation"},
			{bizerror.ErrConcurrentModification, http.StatusConflict, "common.concurrent_modification"},
			{bizerror.ErrNotFound, http.StatusNotFound, "common.record_not_found"},
			{gorm.ErrRecordNotFound, http.StatusNotFound, "common.record_not_found"},
		}
		for _, c := range cases {
			status, body := serve(c.err)
			Expect(status).To(Equal(c.status))
			Expect(body).To(ContainSubstring(`"code":"` + c.code + `"`))
		}
	})

	t.Run("unexpected errors become internal server errors", func(t *testing.T) {
		status, body := serve(errors.New("disk on fire"))
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(body).To(MatchJSON(`{"code":"common.internal_server_error","message":"disk on fire","data":null}`))

		status, body = serve("plain string")
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(body).To(MatchJSON(`{"code":"common.internal_server_error","message":"plain string","data":null}`))
	})
}
