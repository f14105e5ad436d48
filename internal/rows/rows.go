// Package rows projects merged records into flat export rows.
package rows

import (
	"github.com/jonathan/wins-exporter/internal/dates"
	"github.com/jonathan/wins-exporter/internal/types"
)

// Header returns a copy of the export column names.
func Header() []string {
	return append([]string(nil), types.Columns...)
}

// ToRows converts records to rows in the same order. Unknown values become empty cells.
func ToRows(records []types.BaseRecord) []types.OutputRow {
	out := make([]types.OutputRow, len(records))
	for i, r := range records {
		out[i] = ToRow(r)
	}
	return out
}

// ToRow converts a single record.
func ToRow(r types.BaseRecord) types.OutputRow {
	return types.OutputRow{
		Title:        r.Title,
		Category:     r.Category,
		PrimaryDate:  dates.Format(r.PrimaryDate),
		Quantity:     deref(r.Quantity),
		Price:        deref(r.Price),
		ExternalLink: deref(r.ExternalLink),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
