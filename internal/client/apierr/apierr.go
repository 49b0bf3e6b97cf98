// Package apierr classifies failures returned by the site API into the kinds
// the admin client reacts to.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the category of an API failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindValidation
	KindConflict
	KindUnavailable
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation_error"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error represents a classified API failure.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying transport error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can write errors.Is(err, apierr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized, StatusCode: http.StatusUnauthorized, Message: "not authenticated"}
	ErrValidation   = &Error{Kind: KindValidation, StatusCode: http.StatusBadRequest, Message: "invalid request"}
	ErrConflict     = &Error{Kind: KindConflict, StatusCode: http.StatusConflict, Message: "operation already in flight"}
	ErrUnavailable  = &Error{Kind: KindUnavailable, Message: "service unavailable"}
	ErrNotFound     = &Error{Kind: KindNotFound, StatusCode: http.StatusNotFound, Message: "resource not found"}
)

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a transport failure (dial error, timeout, cancelled request).
func Unavailable(err error) *Error {
	return &Error{Kind: KindUnavailable, Err: err}
}

// KindFromStatus maps an HTTP status code to a Kind.
func KindFromStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusTooManyRequests, status >= 500:
		return KindUnavailable
	case status == http.StatusForbidden:
		return KindUnknown
	case status >= 400:
		return KindValidation
	default:
		return KindUnknown
	}
}

// FromResponse builds an Error from a non-2xx response body.
// It understands {"error":"..."}, {"detail":"..."} and {"message":"..."} bodies.
func FromResponse(status int, body []byte) *Error {
	e := &Error{Kind: KindFromStatus(status), StatusCode: status}

	var payload struct {
		Error   json.RawMessage `json:"error"`
		Detail  string          `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case len(payload.Error) > 0:
			e.Message = decodeErrorField(payload.Error)
		case payload.Detail != "":
			e.Message = payload.Detail
		case payload.Message != "":
			e.Message = payload.Message
		}
	}

	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// decodeErrorField accepts both "error":"msg" and "error":{"message":"msg"}.
func decodeErrorField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return ""
}

// KindOf returns the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the server-provided message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsUnavailable(err error) bool  { return KindOf(err) == KindUnavailable }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
