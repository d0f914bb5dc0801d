package session

import (
	"context"
	"time"

	"github.com/fundwit/go-commons/types"
)

type Session struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`

	SigningTime time.Time       `json:"-"`
	Context     context.Context `json:"-"`
}

// Identity is the verified caller. Role is a single role name, e.g. MAINTENANCE_MANAGER.
type Identity struct {
	ID         types.ID `json:"id"`
	Name       string   `json:"name"`
	Nickname   string   `json:"nickname"`
	Email      string   `json:"email"`
	EmployeeID string   `json:"employeeId"`
	Role       string   `json:"role"`
}

func (i Identity) DisplayName() string {
	if i.Nickname != "" {
		return i.Nickname
	}
	return i.Name
}

func (s Session) Clone() Session {
	return Session{
		Token:       s.Token,
		Identity:    s.Identity,
		SigningTime: s.SigningTime,
		Context:     s.Context,
	}
}
