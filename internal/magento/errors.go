package magento

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorClass drives retry and recovery decisions across the pipeline.
type ErrorClass string

const (
	// ClassValidation: caller input rejected, never retried.
	ClassValidation ErrorClass = "validation"
	// ClassTransient: network, 5xx, 429; retried with backoff.
	ClassTransient ErrorClass = "transient"
	// ClassAuthExpired: 401 after the automatic re-login already ran.
	ClassAuthExpired ErrorClass = "auth_expired"
	// ClassNotFound: 404, used as a control signal, not a failure.
	ClassNotFound ErrorClass = "not_found"
	// ClassConflict: 409/422, surfaced, not retried.
	ClassConflict ErrorClass = "conflict"
	// ClassFatal: everything else, aborts the stage.
	ClassFatal ErrorClass = "fatal"
)

// APIError carries the HTTP status, response body and request context of
// a failed call. Credentials and tokens never appear in it.
type APIError struct {
	Class    ErrorClass
	Status   int
	Method   string
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %s (status=%d, class=%s)",
		e.Method, e.Endpoint, e.Message, e.Status, e.Class)
}

// ClassOf extracts the error class; wrapped errors are unwrapped, and
// anything that is not an APIError counts as fatal.
func ClassOf(err error) ErrorClass {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	return ClassFatal
}

func IsNotFound(err error) bool {
	return ClassOf(err) == ClassNotFound
}

func IsTransient(err error) bool {
	return ClassOf(err) == ClassTransient
}

// classify maps an HTTP status to its error class.
func classify(status int) ErrorClass {
	switch {
	case status == 401:
		return ClassAuthExpired
	case status == 404:
		return ClassNotFound
	case status == 409 || status == 422:
		return ClassConflict
	case status == 400:
		return ClassValidation
	case status == 429 || status >= 500:
		return ClassTransient
	default:
		return ClassFatal
	}
}

// retryable reports whether the failure may be retried for the verb.
// Idempotent verbs retry on any transient failure; POST only when the
// failure happened below the application layer (network error or 5xx).
func retryable(class ErrorClass, method string, status int, networkErr bool) bool {
	if class != ClassTransient {
		return false
	}
	switch method {
	case "GET", "PUT", "DELETE":
		return true
	case "POST":
		return networkErr || status >= 500
	default:
		return false
	}
}
