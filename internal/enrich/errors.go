// Package enrich resolves per-record detail pages concurrently and extracts optional fields from them.
package enrich

import "fmt"

// ErrorKind classifies why a detail lookup produced nothing.
type ErrorKind string

// Error kinds for detail lookups.
const (
	KindFetch    ErrorKind = "fetch"     // transport failure after retries
	KindStatus   ErrorKind = "status"    // non-2xx response
	KindParse    ErrorKind = "parse"     // page or data island could not be decoded
	KindPanic    ErrorKind = "panic"     // lookup panicked
	KindCanceled ErrorKind = "cancelled" // context ended before the lookup ran
)

// EnrichError describes a failed lookup for one identity.
type EnrichError struct {
	Identity string
	Kind     ErrorKind
	Message  string
	Cause    error
}

func (e *EnrichError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("enrich %s (%s): %s: %v", e.Identity, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("enrich %s (%s): %s", e.Identity, e.Kind, e.Message)
}

func (e *EnrichError) Unwrap() error {
	return e.Cause
}
