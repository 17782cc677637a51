package apperrors

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindDuplicateValue
	KindRateLimited
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindDuplicateValue:
		return "duplicate_value"
	case KindRateLimited:
		return "rate_limited"
	case KindStoreUnavailable:
		return "store_unavailable"
	default:
		return "internal"
	}
}

// Status is the one HTTP status each kind maps to.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicateValue:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a categorized failure. Message is safe to show to callers,
// Cause is kept for logs only.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "Not authenticated"
	}
	return New(KindUnauthorized, message)
}

func Forbidden(message string) *Error {
	if message == "" {
		message = "Forbidden"
	}
	return New(KindForbidden, message)
}

func NotFound(message string) *Error {
	if message == "" {
		message = "Not found"
	}
	return New(KindNotFound, message)
}

func Duplicate(message string) *Error {
	if message == "" {
		message = "Duplicate value"
	}
	return New(KindDuplicateValue, message)
}

func RateLimited(message string) *Error {
	if message == "" {
		message = "Rate limit exceeded."
	}
	return New(KindRateLimited, message)
}

func StoreUnavailable(message string, cause error) *Error {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return Wrap(KindStoreUnavailable, message, cause)
}

func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

func Validation(details []string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Details: details}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

func Status(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Kind.Status()
	}
	return http.StatusInternalServerError
}

// Public is the caller-facing message. Uncategorized errors never leak.
func Public(err error) string {
	if appErr, ok := As(err); ok && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "Internal Server Error"
}

func Details(err error) []string {
	if appErr, ok := As(err); ok {
		return appErr.Details
	}
	return nil
}
