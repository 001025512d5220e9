package bls

import (
	"fmt"
	"net/http"
)

// ErrorClass classifies a failed API request.
type ErrorClass string

const (
	// ClassClient is a 4xx response or a request the API rejected as invalid.
	ClassClient ErrorClass = "client"

	// ClassServer is a 5xx response or a REQUEST_FAILED status.
	ClassServer ErrorClass = "server"

	// ClassNetwork is a transport failure or timeout.
	ClassNetwork ErrorClass = "network"

	// ClassQuota is a REQUEST_NOT_PROCESSED status: the daily threshold for
	// the key (or the anonymous limit) was reached.
	ClassQuota ErrorClass = "quota"
)

// APIError is a failed BLS API request.
type APIError struct {
	Class      ErrorClass
	StatusCode int      // HTTP status, 0 for network errors
	Status     string   // BLS response status, e.g. REQUEST_NOT_PROCESSED
	Messages   []string // BLS response messages
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("BLS %s error", e.Class)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (http %d)", e.StatusCode)
	}
	if e.Status != "" {
		msg += ": " + e.Status
	}
	if len(e.Messages) > 0 {
		msg += fmt.Sprintf(" %q", e.Messages)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same request may succeed.
func (e *APIError) Retryable() bool {
	switch e.Class {
	case ClassServer, ClassNetwork:
		return true
	case ClassClient:
		// 429 is the only client error worth waiting for.
		return e.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

func classifyStatus(code int) ErrorClass {
	if code >= 500 {
		return ClassServer
	}
	return ClassClient
}
