package account

import (
	"ieflow/session"
	"time"

	"github.com/fundwit/go-commons/types"
)

type User struct {
	ID     types.ID `json:"id" gorm:"primary_key"`
	Name   string   `json:"name" gorm:"unique_index;size:64"`
	Secret string   `json:"secret"`

	Nickname   string    `json:"nickname"`
	Email      string    `json:"email"`
	EmployeeID string    `json:"employeeId"`
	Role       string    `json:"role" gorm:"size:64"`
	CreateTime time.Time `json:"createTime"`
}

type UserInfo struct {
	ID         types.ID `json:"id"`
	Name       string   `json:"name"`
	Nickname   string   `json:"nickname"`
	Email      string   `json:"email"`
	EmployeeID string   `json:"employeeId"`
	Role       string   `json:"role"`
}

type UserCreation struct {
	Name       string `json:"name" binding:"required,lte=64"`
	Secret     string `json:"secret" binding:"required,gte=6,lte=32"`
	Nickname   string `json:"nickname" binding:"omitempty,gte=1,lte=64"`
	Email      string `json:"email" binding:"omitempty,email"`
	EmployeeID string `json:"employeeId" binding:"lte=32"`
	Role       string `json:"role" binding:"lte=64"`
}

type BasicAuthUpdating struct {
	OriginalSecret string `json:"originalSecret"`
	NewSecret      string `json:"newSecret" binding:"required,gte=6,lte=32"`
}

type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (u User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}

func (u UserInfo) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}

func (u UserInfo) Identity() session.Identity {
	return session.Identity{ID: u.ID, Name: u.Name, Nickname: u.Nickname, Email: u.Email, EmployeeID: u.EmployeeID, Role: u.Role}
}
