package client

import (
	"errors"
	"fmt"
)

// APIError is a non-200 answer from the analysis endpoint.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("api error: status=%d request_id=%s message=%s", e.StatusCode, e.RequestID, e.Message)
	}
	return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
}

// UnreachableError indicates the endpoint could not be reached or did not answer in time.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err came from the endpoint round trip, either as a
// non-200 status or as a transport failure.
func IsNetworkError(err error) bool {
	var apiErr *APIError
	var unreachable *UnreachableError
	return errors.As(err, &apiErr) || errors.As(err, &unreachable)
}
