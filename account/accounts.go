package account

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"ieflow/authority"
	"ieflow/bizerror"
	"ieflow/idgen"
	"ieflow/persistence"
	"ieflow/session"
	"os"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	userIdWorker = idgen.NewWorker()

	CreateUserFunc            = CreateUser
	QueryUsersFunc            = QueryUsers
	UpdateBasicAuthSecretFunc = UpdateBasicAuthSecret
	QueryAccountNamesFunc     = QueryAccountNames
)

func HashSha256(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

func isAdmin(sec *session.Session) bool {
	return strings.EqualFold(strings.TrimSpace(sec.Identity.Role), authority.RoleAdmin)
}

func UpdateBasicAuthSecret(u *BasicAuthUpdating, sec *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	user := User{}
	if err := db.Model(&User{}).Where(&User{ID: sec.Identity.ID, Secret: HashSha256(u.OriginalSecret)}).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bizerror.ErrInvalidPassword
		}
		return err
	}

	return db.Model(&User{}).Where(&User{ID: sec.Identity.ID, Secret: HashSha256(u.OriginalSecret)}).
		Update(&User{Secret: HashSha256(u.NewSecret)}).Error
}

func QueryUsers(sec *session.Session) (*[]UserInfo, error) {
	users := []UserInfo{}
	if err := persistence.ActiveDataSourceManager.GormDB(sec.Context).Model(&User{}).Order("id ASC").Scan(&users).Error; err != nil {
		return nil, err
	}
	return &users, nil
}

func CreateUser(c *UserCreation, sec *session.Session) (*UserInfo, error) {
	if !isAdmin(sec) {
		return nil, bizerror.ErrForbidden
	}

	user := User{ID: idgen.NextID(userIdWorker), Name: c.Name, Nickname: c.Nickname, Secret: HashSha256(c.Secret),
		Email: c.Email, EmployeeID: c.EmployeeID, Role: strings.ToUpper(strings.TrimSpace(c.Role)), CreateTime: time.Now()}
	if err := persistence.ActiveDataSourceManager.GormDB(sec.Context).Create(&user).Error; err != nil {
		if persistence.IsUniqueViolation(err) {
			return nil, &bizerror.ErrBadParam{Cause: errors.New("user name '" + c.Name + "' is already taken")}
		}
		return nil, err
	}
	info := user.Info()
	return &info, nil
}

// QueryAccountNames returns display names keyed by user id, unknown ids are left out.
func QueryAccountNames(ids []types.ID) (map[types.ID]string, error) {
	if len(ids) == 0 {
		return map[types.ID]string{}, nil
	}
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	var records []UserInfo
	if err := db.Model(&User{}).Where("id IN (?)", ids).Scan(&records).Error; err != nil {
		return nil, err
	}
	result := map[types.ID]string{}
	for _, r := range records {
		result[r.ID] = r.DisplayName()
	}
	return result, nil
}

// DefaultSecurityConfiguration seeds the initial administrator.
func DefaultSecurityConfiguration() error {
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	return db.Transaction(func(tx *gorm.DB) error {
		admin := User{}
		err := tx.Model(&User{}).Where(&User{ID: 1}).First(&admin).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		initialAdminPassword := os.Getenv("INITIAL_ADMIN_PASSWORD")
		if initialAdminPassword == "" {
			initialAdminPassword = "admin123"
		}
		return tx.Create(&User{ID: 1, Name: "admin", Secret: HashSha256(initialAdminPassword),
			Role: authority.RoleAdmin, CreateTime: time.Now()}).Error
	})
}

func (u User) Info() UserInfo {
	return UserInfo{ID: u.ID, Name: u.Name, Nickname: u.Nickname, Email: u.Email, EmployeeID: u.EmployeeID, Role: u.Role}
}
