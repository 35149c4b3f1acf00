package devserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HTTPError pairs an HTTP status with the flat {code, message} body the API
// emits for failures.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

func (e *HTTPError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	default:
		return e.Message
	}
}

func (e *HTTPError) Unwrap() error { return e.Err }

// asHTTPError normalizes arbitrary handler errors. Anything unrecognized
// becomes an opaque 500 so internals never leak to clients.
func asHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return NewHTTPError(http.StatusInternalServerError, "internal_error", "something went wrong", err)
}

// abortWithError records the error for the response middleware and stops the
// handler chain.
func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
