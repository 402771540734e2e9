// Package apperror classifies service errors so the HTTP layer can map them
// to status codes without string matching.
//
// Kinds:
//   - Validation: malformed input or ids the caller does not own
//   - NotFound: session, vessel or need absent
//   - Forbidden: caller is not a member of the session
//   - Conflict: the request races an irreversible state change
//   - Collaborator: the AI service failed; Retryable is set when the caller may retry
//
// Precondition outcomes (wrong stage, gates unsatisfied, partner not ready)
// are not errors and never go through this package.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
	KindCollaborator
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindCollaborator:
		return "collaborator"
	default:
		return "internal"
	}
}

var (
	ErrNotSessionMember    = errors.New("caller is not a member of this session")
	ErrNeedsNotOwned       = errors.New("one or more needs do not belong to the caller")
	ErrNeedsNotConfirmed   = errors.New("all needs must be confirmed before sharing")
	ErrUnknownCommonGround = errors.New("one or more common ground items do not exist in this session")
)

// Error is a classified application error.
type Error struct {
	Kind      Kind
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Validation(message string, cause error) *Error {
	return &Error{Kind: KindValidation, Message: message, Cause: cause}
}

func NotFound(resource string, id interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %v not found", resource, id)}
}

func Forbidden(message string, cause error) *Error {
	return &Error{Kind: KindForbidden, Message: message, Cause: cause}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Collaborator wraps a failure from an external collaborator (AI service).
func Collaborator(message string, cause error, retryable bool) *Error {
	return &Error{Kind: KindCollaborator, Message: message, Cause: cause, Retryable: retryable}
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

func IsRetryable(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
