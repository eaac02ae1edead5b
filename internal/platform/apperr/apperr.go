// Copyright (c) 2026 Vistream. All rights reserved.

/*
Package apperr defines the centralized error handling framework for Vistream.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct carrying the HTTP status code and a client-safe message.
  - Taxonomy: BadRequest(400), Unauthorized(401), NotFound(404), Conflict(409), Internal(500).
  - Mapping: respond.Error serializes any AppError into the standard error envelope.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses. There are no retries anywhere in this layer — every failure
surfaces immediately to the client.
*/
package apperr

import (
	"errors"
	"net/http"
)

// AppError is the canonical error type for the Vistream API.
//
// It carries an HTTP status code, a client-safe message, and an optional slice
// of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int `json:"statusCode"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"message"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Errors holds per-field validation failures for 400 responses.
	Errors []FieldError `json:"errors,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON/form field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// BadRequest creates a 400 [AppError] with optional per-field details.
func BadRequest(msg string, details ...FieldError) *AppError {
	return &AppError{
		StatusCode: http.StatusBadRequest,
		Message:    msg,
		Errors:     details,
	}
}

// Unauthorized creates a 401 [AppError] for missing, malformed, expired, or
// revoked credentials. The message never distinguishes expiry from tampering.
func Unauthorized(msg string) *AppError {
	return &AppError{
		StatusCode: http.StatusUnauthorized,
		Message:    msg,
	}
}

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("User") // Returns "User not found"
func NotFound(resource string) *AppError {
	return &AppError{
		StatusCode: http.StatusNotFound,
		Message:    resource + " not found",
	}
}

// NotFoundMsg creates a 404 [AppError] with a verbatim message.
func NotFoundMsg(msg string) *AppError {
	return &AppError{
		StatusCode: http.StatusNotFound,
		Message:    msg,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		StatusCode: http.StatusConflict,
		Message:    msg,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		StatusCode: http.StatusInternalServerError,
		Message:    "An unexpected error occurred",
		Cause:      cause,
	}
}

// InternalMsg creates a 500 [AppError] with a client-visible message for known
// downstream failures (e.g., media upload errors).
func InternalMsg(msg string, cause error) *AppError {
	return &AppError{
		StatusCode: http.StatusInternalServerError,
		Message:    msg,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
