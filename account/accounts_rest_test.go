package account_test

import (
	"bytes"
	"context"
	"errors"
	"ieflow/account"
	"ieflow/bizerror"
	"ieflow/session"
	"ieflow/testinfra"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("AccountsRestAPI", func() {
	var (
		router *gin.Engine
	)
	BeforeEach(func() {
		router = gin.Default()
		router.Use(bizerror.ErrorHandling())
		account.RegisterUsersHandler(router, testinfra.MockSession(testinfra.BuildSession(1, "admin", "ADMIN")))
		account.RegisterSessionsHandler(router, testinfra.MockSession(testinfra.BuildSession(1, "admin", "ADMIN")))
	})
	AfterEach(func() {
		account.CreateUserFunc = account.CreateUser
		account.QueryUsersFunc = account.QueryUsers
		account.LoginFunc = account.Login
	})

	Describe("users", func() {
		It("should create users", func() {
			account.CreateUserFunc = func(c *account.UserCreation, sec *session.Session) (*account.UserInfo, error) {
				Expect(sec.Identity.Role).To(Equal("ADMIN"))
				return &account.UserInfo{ID: 10, Name: c.Name, Role: c.Role}, nil
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader([]byte(`{"name":"bob","secret":"123456","role":"TECHNICIAN"}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusCreated))
			Expect(body).To(MatchJSON(`{"id":"10","name":"bob","nickname":"","email":"","employeeId":"","role":"TECHNICIAN"}`))
		})

		It("should reject invalid creation body", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader([]byte(`{"name":"bob","secret":"1"}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(ContainSubstring(`"code":"common.bad_param"`))
		})

		It("should list users", func() {
			account.QueryUsersFunc = func(sec *session.Session) (*[]account.UserInfo, error) {
				return &[]account.UserInfo{{ID: 1, Name: "admin", Role: "ADMIN"}}, nil
			}
			req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`[{"id":"1","name":"admin","nickname":"","email":"","employeeId":"","role":"ADMIN"}]`))
		})
	})

	Describe("sessions", func() {
		It("should set the token cookie on login", func() {
			account.LoginFunc = func(ctx context.Context, login *account.LoginRequest) (*session.Session, error) {
				Expect(*login).To(Equal(account.LoginRequest{Name: "ann", Password: "abc123"}))
				return &session.Session{Token: "t-1", Identity: session.Identity{ID: 2, Name: "ann"}}, nil
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader([]byte(`{"name":"ann","password":"abc123"}`)))
			status, body, resp := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"token":"t-1","identity":{"id":"2","name":"ann","nickname":"","email":"","employeeId":"","role":""}}`))
			Expect(resp.Cookies()[0].Name).To(Equal(session.KeySecToken))
			Expect(resp.Cookies()[0].Value).To(Equal("t-1"))
		})

		It("should return 401 when login fails", func() {
			account.LoginFunc = func(ctx context.Context, login *account.LoginRequest) (*session.Session, error) {
				return nil, bizerror.ErrUnauthenticated
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader([]byte(`{"name":"ann","password":"x"}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(body).To(MatchJSON(`{"code":"common.unauthenticated","message":"unauthenticated","data":null}`))
		})

		It("should return 500 on unexpected login errors", func() {
			account.LoginFunc = func(ctx context.Context, login *account.LoginRequest) (*session.Session, error) {
				return nil, errors.New("db down")
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader([]byte(`{"name":"ann","password":"x"}`)))
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusInternalServerError))
		})

		It("should drop the token on logout", func() {
			session.TokenCache.SetDefault("t-2", &session.Session{Token: "t-2"})
			req := httptest.NewRequest(http.MethodDelete, "/v1/sessions", nil)
			req.Header.Set("Authorization", "Bearer t-2")
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusNoContent))
			_, found := session.TokenCache.Get("t-2")
			Expect(found).To(BeFalse())
		})
	})
})
