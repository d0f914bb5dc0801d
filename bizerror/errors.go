package bizerror

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated        = errors.New("unauthenticated")
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("record not found")
	ErrInvalidState           = errors.New("invalid state")
	ErrInvalidOperation       = errors.New("invalid operation")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrInvalidPassword        = errors.New("invalid password")
)

type BizError interface {
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: e.Error(), Data: nil}
}

// InvalidTransitionError rejects a status change that the state machine does not allow.
type InvalidTransitionError struct {
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return "invalid transition: " + e.Reason
}
func (e *InvalidTransitionError) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "work_order.invalid_transition", Message: e.Error(), Data: e.Reason}
}

var (
	ErrTransitionUnassigned       = &InvalidTransitionError{Reason: "unassigned"}
	ErrTransitionRequiresApproval = &InvalidTransitionError{Reason: "requires approval"}
	ErrTransitionRequiresReport   = &InvalidTransitionError{Reason: "requires report"}
	ErrTransitionUnchanged        = &InvalidTransitionError{Reason: "unchanged"}
)
