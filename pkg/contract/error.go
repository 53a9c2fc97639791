package contract

import (
	"fmt"
	"net/http"
)

// ErrorCode is the machine-readable class of an API error.
type ErrorCode string

const (
	ErrorCodeBadRequest              ErrorCode = "BAD_REQUEST"
	ErrorCodeInternalError           ErrorCode = "INTERNAL_ERROR"
	ErrorCodeInvalidParameterValue   ErrorCode = "INVALID_PARAMETER_VALUE"
	ErrorCodeResourceDoesNotExist    ErrorCode = "RESOURCE_DOES_NOT_EXIST"
	ErrorCodeEndpointNotFound        ErrorCode = "ENDPOINT_NOT_FOUND"
	ErrorCodeServiceUnderMaintenance ErrorCode = "SERVICE_UNDER_MAINTENANCE"
)

// Error is the error shape every layer below the HTTP handlers returns.
// It serializes directly onto the wire.
type Error struct {
	Code    ErrorCode `json:"error_code"`
	Message string    `json:"message"`
	Inner   error     `json:"-"`
}

func NewError(code ErrorCode, message string) *Error {
	return NewErrorWith(code, message, nil)
}

func NewErrorWith(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Inner:   err,
	}
}

func (e *Error) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Inner)
	}

	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Inner
}

func (e *Error) StatusCode() int {
	switch e.Code {
	case ErrorCodeBadRequest, ErrorCodeInvalidParameterValue:
		return http.StatusBadRequest
	case ErrorCodeResourceDoesNotExist, ErrorCodeEndpointNotFound:
		return http.StatusNotFound
	case ErrorCodeServiceUnderMaintenance:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
