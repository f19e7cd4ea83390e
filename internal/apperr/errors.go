package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error at the store, identity and domain boundaries.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindPermissionDenied   Kind = "permission_denied"
	KindConflict           Kind = "conflict"
	KindValidation         Kind = "validation"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnauthenticated    Kind = "unauthenticated"
	KindPendingApproval    Kind = "pending_approval"
	KindLastAdmin          Kind = "last_admin"
	KindTeamFull           Kind = "team_full"
	KindInvalidTransition  Kind = "invalid_transition"
	KindUnavailable        Kind = "unavailable"
	KindInternal           Kind = "internal"
)

// Error carries a Kind plus an optional operation name and cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so the sentinels below work
// with errors.Is regardless of Op or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is matching.
var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrPermissionDenied   = &Error{Kind: KindPermissionDenied}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated}
	ErrPendingApproval    = &Error{Kind: KindPendingApproval}
	ErrLastAdmin          = &Error{Kind: KindLastAdmin}
	ErrTeamFull           = &Error{Kind: KindTeamFull}
	ErrInvalidTransition  = &Error{Kind: KindInvalidTransition}
	ErrUnavailable        = &Error{Kind: KindUnavailable}
	ErrInternal           = &Error{Kind: KindInternal}
)

// New builds an *Error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap attaches a kind to cause. A nil cause returns nil.
func Wrap(kind Kind, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when none is present.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind onto the response code used by the API layer.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindPermissionDenied, KindPendingApproval:
		return http.StatusForbidden
	case KindConflict, KindLastAdmin, KindTeamFull, KindInvalidTransition:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
