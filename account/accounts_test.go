package account_test

import (
	"context"
	"ieflow/account"
	"ieflow/bizerror"
	"ieflow/persistence"
	"ieflow/session"
	"ieflow/testinfra"
	"time"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Accounts", func() {
	var (
		testDatabase *testinfra.TestDatabase
	)
	BeforeEach(func() {
		testDatabase = testinfra.StartTestDatabase("ieflow")
		persistence.ActiveDataSourceManager = testDatabase.DS
		Expect(testDatabase.DS.GormDB(context.TODO()).AutoMigrate(&account.User{}).Error).To(BeNil())
	})
	AfterEach(func() {
		testinfra.StopTestDatabase(testDatabase)
	})

	Describe("UpdateBasicAuthSecret", func() {
		It("should be able to update basic auth secret correctly", func() {
			sec := session.Session{Identity: session.Identity{ID: 1}, Context: context.TODO()}
			Expect(testDatabase.DS.GormDB(context.TODO()).Create(&account.User{ID: 1, Name: "aaa", Secret: account.HashSha256("123456")}).Error).To(BeNil())
			Expect(account.UpdateBasicAuthSecret(&account.BasicAuthUpdating{OriginalSecret: "234567", NewSecret: "654321"}, &sec)).To(Equal(bizerror.ErrInvalidPassword))
			Expect(account.UpdateBasicAuthSecret(&account.BasicAuthUpdating{OriginalSecret: "123456", NewSecret: "654321"}, &sec)).To(BeNil())

			user := account.User{}
			Expect(testDatabase.DS.GormDB(context.TODO()).Where(&account.User{ID: 1}).First(&user).Error).To(BeNil())
			Expect(user.Secret).To(Equal(account.HashSha256("654321")))
		})
	})

	Describe("DisplayName", func() {
		It("should be able to compute display name", func() {
			Expect(account.User{Name: "test", Nickname: "Test"}.DisplayName()).To(Equal("Test"))
			Expect(account.User{Name: "test"}.DisplayName()).To(Equal("test"))
			Expect(account.UserInfo{Name: "test", Nickname: "Test"}.DisplayName()).To(Equal("Test"))
			Expect(account.UserInfo{Name: "test"}.DisplayName()).To(Equal("test"))
		})
	})

	Describe("CreateUser and QueryUsers", func() {
		It("should be blocked when caller is not an administrator", func() {
			sec := testinfra.BuildSession(5, "chief", "MAINTENANCE_CHIEF")
			u, err := account.CreateUser(&account.UserCreation{Name: "test", Secret: "123456"}, sec)
			Expect(err).To(Equal(bizerror.ErrForbidden))
			Expect(u).To(BeNil())
		})

		It("should be able to create and list users", func() {
			sec := testinfra.BuildSession(1, "admin", "ADMIN")
			u, err := account.CreateUser(&account.UserCreation{Name: "ann", Secret: "123456", Nickname: "Ann Lee",
				Email: "ann@plant.example", EmployeeID: "E-100", Role: " maintenance_manager"}, sec)
			Expect(err).To(BeNil())
			Expect(u.ID).ToNot(BeZero())
			Expect(*u).To(Equal(account.UserInfo{ID: u.ID, Name: "ann", Nickname: "Ann Lee", Email: "ann@plant.example",
				EmployeeID: "E-100", Role: "MAINTENANCE_MANAGER"}))

			_, err = account.CreateUser(&account.UserCreation{Name: "ann", Secret: "123456"}, sec)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(Equal("user name 'ann' is already taken"))

			users, err := account.QueryUsers(sec)
			Expect(err).To(BeNil())
			Expect(*users).To(Equal([]account.UserInfo{*u}))

			names, err := account.QueryAccountNames([]types.ID{u.ID, 999})
			Expect(err).To(BeNil())
			Expect(names).To(Equal(map[types.ID]string{u.ID: "Ann Lee"}))
		})
	})

	Describe("DefaultSecurityConfiguration", func() {
		It("should seed the administrator once", func() {
			Expect(account.DefaultSecurityConfiguration()).To(BeNil())
			Expect(account.DefaultSecurityConfiguration()).To(BeNil())

			var users []account.User
			Expect(testDatabase.DS.GormDB(context.TODO()).Find(&users).Error).To(BeNil())
			Expect(len(users)).To(Equal(1))
			Expect(users[0].ID).To(Equal(types.ID(1)))
			Expect(users[0].Name).To(Equal("admin"))
			Expect(users[0].Role).To(Equal("ADMIN"))
			Expect(users[0].Secret).To(Equal(account.HashSha256("admin123")))
		})
	})

	Describe("Login and RefreshSession", func() {
		It("should issue a token for valid credentials", func() {
			Expect(testDatabase.DS.GormDB(context.TODO()).Create(&account.User{ID: 2, Name: "ann", Nickname: "Ann",
				Role: "TECHNICIAN", EmployeeID: "E-2", Secret: account.HashSha256("abc123")}).Error).To(BeNil())

			_, err := account.Login(context.TODO(), &account.LoginRequest{Name: "ann", Password: "wrong"})
			Expect(err).To(Equal(bizerror.ErrUnauthenticated))

			s, err := account.Login(context.TODO(), &account.LoginRequest{Name: "ann", Password: "abc123"})
			Expect(err).To(BeNil())
			Expect(s.Token).ToNot(BeEmpty())
			Expect(s.Identity).To(Equal(session.Identity{ID: 2, Name: "ann", Nickname: "Ann", EmployeeID: "E-2", Role: "TECHNICIAN"}))

			cached, found := session.TokenCache.Get(s.Token)
			Expect(found).To(BeTrue())
			Expect(cached.(*session.Session).Identity.ID).To(Equal(types.ID(2)))

			refreshed, err := account.RefreshSession(&session.Session{Token: s.Token, Identity: s.Identity, SigningTime: s.SigningTime, Context: context.TODO()})
			Expect(err).To(BeNil())
			Expect(refreshed.Token).To(Equal(s.Token))

			_, err = account.RefreshSession(&session.Session{Token: s.Token, Identity: s.Identity,
				SigningTime: time.Now().Add(-session.TokenExpiration - time.Minute), Context: context.TODO()})
			Expect(err).To(Equal(bizerror.ErrUnauthenticated))
			_, found = session.TokenCache.Get(s.Token)
			Expect(found).To(BeFalse())
		})
	})
})
