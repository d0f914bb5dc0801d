package account

import (
	"context"
	"errors"
	"ieflow/bizerror"
	"ieflow/persistence"
	"ieflow/session"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/patrickmn/go-cache"
)

var LoginFunc = Login

// Login verifies the credential and stores a fresh session in the token cache.
func Login(ctx context.Context, login *LoginRequest) (*session.Session, error) {
	user := User{}
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	if err := db.Model(&User{}).Where(&User{Name: login.Name, Secret: HashSha256(login.Password)}).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrUnauthenticated
		}
		return nil, err
	}

	token := uuid.New().String()
	s := session.Session{Token: token, Identity: user.Info().Identity(), SigningTime: time.Now()}
	session.TokenCache.Set(token, &s, cache.DefaultExpiration)
	return &s, nil
}

func Logout(token string) {
	if token != "" {
		session.TokenCache.Delete(token)
	}
}

// RefreshSession extends the token with the latest user record, expired sessions are rejected.
func RefreshSession(sec *session.Session) (*session.Session, error) {
	now := time.Now()
	ttl := session.TokenExpiration - now.Sub(sec.SigningTime)
	if ttl <= 0 {
		session.TokenCache.Delete(sec.Token)
		return nil, bizerror.ErrUnauthenticated
	}

	user := User{}
	if err := persistence.ActiveDataSourceManager.GormDB(sec.Context).Where(&User{ID: sec.Identity.ID}).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			session.TokenCache.Delete(sec.Token)
			return nil, bizerror.ErrUnauthenticated
		}
		return nil, err
	}

	refreshed := session.Session{Token: sec.Token, Identity: user.Info().Identity(), SigningTime: now}
	session.TokenCache.Set(sec.Token, &refreshed, ttl)
	return &refreshed, nil
}
