package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so clones with custom messages still compare equal
// to the predefined sentinel values.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Generic errors shared by every module.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrUnavailable  = New("SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "service unavailable")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Identity errors.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid username or password")
	ErrAccountDisabled    = New("ACCOUNT_DISABLED", http.StatusForbidden, "account is disabled")
	ErrDuplicateUsername  = New("DUPLICATE_USERNAME", http.StatusConflict, "username already exists")
	ErrUserNotFound       = New("USER_NOT_FOUND", http.StatusNotFound, "user not found")
)

// Inspection record and edit workflow errors.
var (
	ErrRecordNotFound          = New("RECORD_NOT_FOUND", http.StatusNotFound, "inspection record not found")
	ErrRequestNotFound         = New("REQUEST_NOT_FOUND", http.StatusNotFound, "edit request not found")
	ErrDuplicateChassis        = New("DUPLICATE_CHASSIS", http.StatusConflict, "chassis number already registered")
	ErrInvalidStateForRequest  = New("INVALID_STATE_FOR_REQUEST", http.StatusConflict, "record is not locked")
	ErrInvalidStateForApproval = New("INVALID_STATE_FOR_APPROVAL", http.StatusConflict, "edit request is not pending")
	ErrInvalidStateForEdit     = New("INVALID_STATE_FOR_EDIT", http.StatusConflict, "record has no edit permission granted")
	ErrNoApprovedRequest       = New("NO_APPROVED_REQUEST", http.StatusConflict, "no approved edit request for record")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsNotFound reports whether err belongs to the not-found category.
func IsNotFound(err error) bool {
	e := FromError(err)
	return e != nil && e.Status == http.StatusNotFound
}

// IsInvalidState reports whether err rejects an operation attempted outside its
// legal source state.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidStateForRequest) ||
		errors.Is(err, ErrInvalidStateForApproval) ||
		errors.Is(err, ErrInvalidStateForEdit) ||
		errors.Is(err, ErrNoApprovedRequest)
}
