// Package apperror holds the error taxonomy shared by the domain services.
// Services return *Error values; handlers turn them into *fiber.Error with
// ToFiber so the user only ever sees Message.
package apperror

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindReferentialGuard
	KindForbidden
	KindNotFound
	KindUnauthorized
	KindStoreFault
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindReferentialGuard:
		return "referential_guard"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindStoreFault:
		return "store_fault"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They compare by Kind only.
var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrReferentialGuard = &Error{Kind: KindReferentialGuard}
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
	ErrStoreFault       = &Error{Kind: KindStoreFault}
)

const storeFaultMessage = "internal server error"

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindStoreFault {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }
func Conflict(msg string) *Error   { return &Error{Kind: KindConflict, Message: msg} }
func Guard(msg string) *Error      { return &Error{Kind: KindReferentialGuard, Message: msg} }
func Forbidden(msg string) *Error  { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *Error   { return &Error{Kind: KindNotFound, Message: msg} }
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Store wraps an unexpected persistence failure. Already-classified errors
// pass through unchanged so a rollback does not downgrade them.
func Store(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStoreFault, Message: storeFaultMessage, Err: err}
}

func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStoreFault
}

func status(k Kind) int {
	switch k {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindConflict, KindReferentialGuard:
		return fiber.StatusConflict
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// ToFiber never exposes the wrapped cause of a store fault.
func ToFiber(err error) *fiber.Error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind == KindStoreFault {
		return fiber.NewError(fiber.StatusInternalServerError, storeFaultMessage)
	}
	msg := ae.Message
	if msg == "" {
		msg = ae.Kind.String()
	}
	return fiber.NewError(status(ae.Kind), msg)
}
