package types

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds, compared with errors.Is
var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrBusinessRule    = errors.New("business rule violation")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Business rule reasons carried in AppError.Reason
const (
	ReasonOutOfStock      = "out_of_stock"
	ReasonInvalidQuantity = "invalid_quantity"
	ReasonInvalidStatus   = "invalid_status"
)

// FieldError describes a single invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"msg"`
}

// AppError carries a user-facing message and the kind used to pick an HTTP status
type AppError struct {
	Kind    error
	Op      string
	Reason  string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Op != "" && e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the kind so errors.Is(err, ErrNotFound) works on wrapped errors
func (e *AppError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func Validation(op, message string, fields ...FieldError) *AppError {
	return &AppError{Kind: ErrValidation, Op: op, Message: message, Fields: fields}
}

func NotFound(op, message string) *AppError {
	return &AppError{Kind: ErrNotFound, Op: op, Message: message}
}

func BusinessRule(op, reason, message string) *AppError {
	return &AppError{Kind: ErrBusinessRule, Op: op, Reason: reason, Message: message}
}

func Unauthenticated(op, message string) *AppError {
	return &AppError{Kind: ErrUnauthenticated, Op: op, Message: message}
}

func Forbidden(op, message string) *AppError {
	return &AppError{Kind: ErrForbidden, Op: op, Message: message}
}

// StatusCode maps an error to the HTTP status the API answers with
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBusinessRule):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to API clients.
// The second result is false for internal errors.
func PublicMessage(err error) (string, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message, true
	}
	return "", false
}

// IsBusinessRule reports whether err is a business rule violation with the given reason
func IsBusinessRule(err error, reason string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return errors.Is(appErr.Kind, ErrBusinessRule) && appErr.Reason == reason
}
