// Package apperr defines the error kinds surfaced by the data access layer
// and classifies driver errors into them.
package apperr

import (
	"errors"
	"fmt"
)

// Kind represents the category of a store error.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindDuplicateKey         Kind = "duplicate_key"
	KindReferentialIntegrity Kind = "referential_integrity"
	KindValidation           Kind = "validation"
	KindUnavailable          Kind = "store_unavailable"
	KindInternal             Kind = "internal"
)

// Sentinel errors, one per kind. Match with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateKey         = errors.New("duplicate key")
	ErrReferentialIntegrity = errors.New("referential integrity violation")
	ErrValidation           = errors.New("validation error")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrInternal             = errors.New("internal store error")
)

var sentinels = map[Kind]error{
	KindNotFound:             ErrNotFound,
	KindDuplicateKey:         ErrDuplicateKey,
	KindReferentialIntegrity: ErrReferentialIntegrity,
	KindValidation:           ErrValidation,
	KindUnavailable:          ErrStoreUnavailable,
	KindInternal:             ErrInternal,
}

// Error is a classified store error.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "units.create"
	Msg  string
	Err  error // underlying driver error, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = sentinels[e.Kind].Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying driver error.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// New creates an error of the given kind without an underlying cause.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(op, format string, args ...any) *Error {
	return New(KindNotFound, op, format, args...)
}

// Validation creates a validation error.
func Validation(op, format string, args ...any) *Error {
	return New(KindValidation, op, format, args...)
}

// ReferentialIntegrity wraps err as a referential integrity error.
func ReferentialIntegrity(op string, err error, format string, args ...any) *Error {
	e := New(KindReferentialIntegrity, op, format, args...)
	e.Err = err
	return e
}

// Unavailable wraps err as a store unavailable error.
func Unavailable(op, msg string, err error) *Error {
	return &Error{Kind: KindUnavailable, Op: op, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable reports whether retrying the same request can succeed.
// Only transient store unavailability qualifies.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsDuplicateKey checks if an error is a DuplicateKey error.
func IsDuplicateKey(err error) bool { return errors.Is(err, ErrDuplicateKey) }
