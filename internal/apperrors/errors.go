// Package apperrors defines the typed error taxonomy shared by every core
// component: leaf packages return one of these, and the distribution and
// enrichment coordinators translate them into DistributionRecord decisions
// or user-visible messages without leaking internals.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind identifies a class of error in the taxonomy.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindPermissionDenied Kind = "permission_denied"
	KindSessionRequired  Kind = "session_required"
	KindRateLimited      Kind = "rate_limited"
	KindNetwork          Kind = "network"
	KindAPI              Kind = "api"
	KindParse            Kind = "parse"
	KindStorage          Kind = "storage"
	KindIntegrity        Kind = "integrity"
	KindEncoding         Kind = "encoding"
	KindLength           Kind = "length"
	KindConfiguration    Kind = "configuration"
	KindNotImplemented   Kind = "not_implemented"
	KindInternal         Kind = "internal"
)

// Error is the concrete error type returned by core components. It carries
// enough context (kind, a subject such as a permission or scope, and a
// wrapped cause) for callers to branch on Kind without parsing strings.
type Error struct {
	Kind    Kind
	Subject string // permission name, rate scope, key_id, etc. - context-dependent
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s(%s): %s", e.Kind, e.Subject, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, apperrors.New(KindX, "", "")) style comparisons
// by kind alone, ignoring subject/message/cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error carrying a cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithSubject attaches a subject (permission, scope, key_id) to an Error,
// returning a new Error value.
func (e *Error) WithSubject(subject string) *Error {
	cp := *e
	cp.Subject = subject
	return &cp
}

// PermissionDenied builds a KindPermissionDenied error scoped to a permission.
func PermissionDenied(permission string) *Error {
	return &Error{Kind: KindPermissionDenied, Subject: permission, Message: "permission denied"}
}

// SessionRequired builds a KindSessionRequired error.
func SessionRequired() *Error {
	return &Error{Kind: KindSessionRequired, Message: "session required"}
}

// RateLimited builds a KindRateLimited error scoped to a rate scope key.
func RateLimited(scope string) *Error {
	return &Error{Kind: KindRateLimited, Subject: scope, Message: "rate limited"}
}

// NotFound builds a KindNotFound error scoped to an entity identifier.
func NotFound(subject string) *Error {
	return &Error{Kind: KindNotFound, Subject: subject, Message: "not found"}
}

// KindOf extracts the Kind of err if it is (or wraps) an *Error, and
// ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Retryable reports whether an error of this kind may be retried within an
// opportunity's TTL (Network/Api/Parse), per the error-propagation rules.
func Retryable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	switch kind {
	case KindNetwork, KindAPI, KindParse:
		return true
	default:
		return false
	}
}
