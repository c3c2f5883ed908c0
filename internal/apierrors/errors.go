// Package apierrors centralizes the translation of domain errors into
// sanitized JSON API responses. Processors return sentinel errors; handlers
// hand them to RespondWithError and never build error payloads themselves.
package apierrors

import (
	"fmt"
	"net/http"
)

// Machine-readable error codes returned to API clients.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeLeadNotFound        = "LEAD_NOT_FOUND"
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeCommissionNotFound  = "COMMISSION_NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInvalidReferral     = "INVALID_REFERRAL_CODE"
	CodeReferrerAlreadySet  = "REFERRER_ALREADY_SET"
	CodeEmptyBatch          = "EMPTY_BATCH"
	CodeSessionExists       = "SESSION_EXISTS"
	CodeCodeGenExhausted    = "REFERRAL_CODE_EXHAUSTED"
	CodeStoreUnavailable    = "STORE_UNAVAILABLE"
	CodeEmailServiceError   = "EMAIL_SERVICE_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInternalError       = "INTERNAL_ERROR"
)

// APIError carries the HTTP status, a machine-readable code, and a
// user-safe message. The wrapped internal error is logged, never returned
// to the client.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error
func NotFound(code, message string) *APIError {
	return &APIError{StatusCode: http.StatusNotFound, Code: code, Message: message}
}

// BadRequest creates a 400 error
func BadRequest(code, message string) *APIError {
	return &APIError{StatusCode: http.StatusBadRequest, Code: code, Message: message}
}

// Unauthorized creates a 401 error
func Unauthorized(message string) *APIError {
	return &APIError{StatusCode: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

// Forbidden creates a 403 error
func Forbidden(message string) *APIError {
	return &APIError{StatusCode: http.StatusForbidden, Code: CodeForbidden, Message: message}
}

// Conflict creates a 409 error
func Conflict(code, message string) *APIError {
	return &APIError{StatusCode: http.StatusConflict, Code: code, Message: message}
}

// ServiceUnavailable creates a 503 error wrapping the internal cause
func ServiceUnavailable(code, message string, err error) *APIError {
	return &APIError{StatusCode: http.StatusServiceUnavailable, Code: code, Message: message, Err: err}
}

// InternalError creates a sanitized 500 error - never exposes internal details
func InternalError(err error) *APIError {
	return &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternalError,
		Message:    "An internal error occurred. Please try again later.",
		Err:        err,
	}
}
