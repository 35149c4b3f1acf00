package errors

import (
	"errors"
	"fmt"
)

// Transport-level error codes. HTTP failures use CodeHTTP(status) instead.
const (
	CodeNetwork         = "NETWORK_ERROR"
	CodeRequest         = "REQUEST_ERROR"
	CodeInvalidResponse = "INVALID_RESPONSE"
	CodeUnknown         = "UNKNOWN_ERROR"
)

// AppError encodes domain specific error details. Status carries the HTTP
// status when the remote service responded, zero otherwise. Details holds the
// raw response body when one was available.
type AppError struct {
	Code    string
	Message string
	Status  int
	Details []byte
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	return &AppError{Code: code, Message: message, Err: err}
}

// WrapStatus produces an AppError that also records the remote HTTP status.
func WrapStatus(code, message string, status int, err error) error {
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}

// CodeHTTP builds the code for a remote rejection, e.g. HTTP_404.
func CodeHTTP(status int) string {
	return fmt.Sprintf("HTTP_%d", status)
}

// IsCode helps callers differentiate failures.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// StatusOf extracts the HTTP status from an error chain, zero when absent.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}

// As extracts the AppError from a chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
