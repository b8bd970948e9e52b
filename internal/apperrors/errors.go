// Package apperrors defines the error taxonomy shared by the session store
// and the resource clients.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoCredential means no bearer token is stored.
	ErrNoCredential = errors.New("no credential stored")
	// ErrProfileNotFound means no profile snapshot was ever stored.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrMissingID is returned by update operations on records without an id.
	ErrMissingID = errors.New("record has no id")
	// ErrNetwork marks failures that happened before a response arrived.
	ErrNetwork = errors.New("network failure")
	// ErrUnauthorized matches 401 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound matches 404 responses.
	ErrNotFound = errors.New("not found")
)

// StatusError is a non-2xx response from the remote API.
type StatusError struct {
	Resource   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Resource, e.Message, e.StatusCode)
}

// Unwrap lets errors.Is match the status-specific sentinels.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrNetwork, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is reports ErrNetwork as matching.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// MissingID builds the error returned by update on an unsaved record.
func MissingID(resource string) error {
	return fmt.Errorf("%s: %w", resource, ErrMissingID)
}

// IsUnauthorized reports whether err is a 401 or a missing credential.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNoCredential)
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
