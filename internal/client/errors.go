package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConnection is returned when the service cannot be reached.
	ErrConnection = errors.New("cannot reach scoring service")
	// ErrNotFound is matched by APIError values with status 404.
	ErrNotFound = errors.New("client not found")
	// ErrMalformedResponse is returned when a body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrInvalidID is returned for manual entries outside the accepted range.
	ErrInvalidID = errors.New("invalid client identifier")
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status int
	Detail string // decoded "detail" field, empty when absent
	Body   string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

// Is lets errors.Is(err, ErrNotFound) match 404 answers.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}
