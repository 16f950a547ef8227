package utils

import (
	"fmt"
	"net/http"
)

// CustomError represents an HTTP-facing application error
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Common error constructors
func NewBadRequestError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

func NewInternalServerError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusInternalServerError,
		Message: message,
	}
}

func NewTimeoutError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusRequestTimeout,
		Message: message,
	}
}

// NewUnauthorizedError never says why the credentials were rejected
func NewUnauthorizedError() *CustomError {
	return &CustomError{
		Code:    http.StatusUnauthorized,
		Message: "Unauthorized access. Admin authentication required.",
	}
}

func NewNotFoundError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusNotFound,
		Message: message,
	}
}

func NewConflictError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusConflict,
		Message: message,
	}
}

func NewMethodNotAllowedError(method string) *CustomError {
	return &CustomError{
		Code:    http.StatusMethodNotAllowed,
		Message: "Method " + method + " not allowed",
	}
}

func NewTooManyRequestsError() *CustomError {
	return &CustomError{
		Code:    http.StatusTooManyRequests,
		Message: "Too many requests. Please try again later.",
	}
}

// NewStorageError hides storage and upload failures behind a retry hint
func NewStorageError() *CustomError {
	return &CustomError{
		Code:    http.StatusInternalServerError,
		Message: "Something went wrong. Please try again later.",
	}
}
