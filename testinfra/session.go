package testinfra

import (
	"context"
	"ieflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// BuildSession build a session for the given identity and role.
func BuildSession(uid types.ID, name string, role string) *session.Session {
	return &session.Session{
		Token:    "token-" + uid.String(),
		Identity: session.Identity{ID: uid, Name: name, Nickname: name, Role: role},
		Context:  context.Background(),
	}
}

// MockSession injects the given session for every request, replacing the auth filter in rest tests.
func MockSession(s *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		session.InjectSessionIntoGinContext(c, s)
		c.Next()
	}
}
