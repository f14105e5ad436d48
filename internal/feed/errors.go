// Package feed walks the paginated, newest-first wins listing and turns its items into base records.
package feed

import "fmt"

// AuthError represents a rejected feed credential (HTTP 401/403 or no token at all).
// It is terminal and is never retried.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	if e.StatusCode == 0 {
		return "auth failed: session token is missing"
	}
	return fmt.Sprintf("auth failed (%d): session token is missing or expired", e.StatusCode)
}

// PageError represents a feed page that could not be fetched or decoded.
type PageError struct {
	Page    int
	Message string
	Cause   error
}

func (e *PageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("feed page %d: %s: %v", e.Page, e.Message, e.Cause)
	}
	return fmt.Sprintf("feed page %d: %s", e.Page, e.Message)
}

func (e *PageError) Unwrap() error {
	return e.Cause
}
