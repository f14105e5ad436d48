// Package types provides type definitions for structured data used throughout the wins exporter.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// DefaultTitle is used when the feed carries no project name.
const DefaultTitle = "Unknown"

// BaseRecord is one win from the paginated feed.
// Optional fields are pointers: nil means unknown, which is distinct from an empty string.
type BaseRecord struct {
	Identity           string     `json:"identity"` // Detail lookup key, may be empty
	Title              string     `json:"title"`
	Category           string     `json:"category"`
	SelectionTimestamp *time.Time `json:"selection_timestamp,omitempty"` // When the win was picked
	PrimaryDate        *time.Time `json:"primary_date,omitempty"`        // Mint date
	Quantity           *string    `json:"quantity,omitempty"`
	Price              *string    `json:"price,omitempty"`
	ExternalLink       *string    `json:"external_link,omitempty"`
}

// DetailResult is the outcome of one detail lookup. Every field is independently optional.
type DetailResult struct {
	PrimaryDate  *time.Time `json:"primary_date,omitempty"`
	Quantity     *string    `json:"quantity,omitempty"`
	Price        *string    `json:"price,omitempty"`
	ExternalLink *string    `json:"external_link,omitempty"`
}

// IsEmpty reports whether no field was found.
func (d DetailResult) IsEmpty() bool {
	return d.PrimaryDate == nil && d.Quantity == nil && d.Price == nil && d.ExternalLink == nil
}

// OutputRow is the flat projection handed to tabular writers. Unknown values are blank.
type OutputRow struct {
	Title        string `json:"project"`
	Category     string `json:"chain"`
	PrimaryDate  string `json:"mint_date_utc"`
	Quantity     string `json:"supply"`
	Price        string `json:"mint_price"`
	ExternalLink string `json:"twitter"`
}

// Columns is the fixed header contract for exported rows.
var Columns = []string{"Project", "Chain", "Mint date (UTC)", "Supply", "Mint price", "Twitter"}

// Values returns the row cells in Columns order.
func (r OutputRow) Values() []string {
	return []string{r.Title, r.Category, r.PrimaryDate, r.Quantity, r.Price, r.ExternalLink}
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// TimePtr returns a pointer to t, or nil when t is the zero time.
func TimePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
