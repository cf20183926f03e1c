package client

import "fmt"

// The error taxonomy follows one propagation convention: every
// operation returns a typed error and the caller decides how to
// present it. Nothing is swallowed, nothing is retried.

// ValidationError is detected client-side; the request is never sent.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// AuthorizationError carries the server's 401/403 message verbatim
type AuthorizationError struct {
	StatusCode int
	Message    string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// DuplicateError carries the server's 409 message verbatim, e.g. a
// repeated invitation for the same (space, invitee) pair
type DuplicateError struct {
	Message string
}

func (e *DuplicateError) Error() string {
	return e.Message
}

// NotFoundError carries the server's 404 message verbatim
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// APIError is any other non-2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// NetworkError is a transport failure; no response was available
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
