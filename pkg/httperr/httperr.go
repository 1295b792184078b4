package httperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindBadRequest Kind = "bad_request"
	KindForbidden  Kind = "forbidden"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
)

// Error is a caller-facing failure. Kinds are terminal: the caller sent
// something it may not send, so nothing here is worth retrying.
type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Kind() Kind { return e.kind }

func NewBadRequest(msg string) error { return &Error{kind: KindBadRequest, msg: msg} }

func NewForbidden(msg string) error { return &Error{kind: KindForbidden, msg: msg} }

func NewNotFound(msg string) error { return &Error{kind: KindNotFound, msg: msg} }

func NewConflict(msg string) error { return &Error{kind: KindConflict, msg: msg} }

func IsBadRequest(err error) bool { return isKind(err, KindBadRequest) }

func IsForbidden(err error) bool { return isKind(err, KindForbidden) }

func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

func IsConflict(err error) bool { return isKind(err, KindConflict) }

func isKind(err error, kind Kind) bool {
	e, ok := errors.AsType[*Error](err)
	return ok && e.kind == kind
}

// StatusCode maps err to an HTTP status; untyped errors are server faults.
func StatusCode(err error) int {
	e, ok := errors.AsType[*Error](err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine-readable code written into error envelopes.
func Code(err error) string {
	e, ok := errors.AsType[*Error](err)
	if !ok {
		return "internal_error"
	}
	return string(e.kind)
}
