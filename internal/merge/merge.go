// Package merge reconciles feed records with their detail lookups and applies the retention filter.
package merge

import (
	"time"

	"github.com/jonathan/wins-exporter/internal/types"
)

// DefaultRetentionDays is the default age past which records with a known primary date are dropped.
const DefaultRetentionDays = 7

// Merge fills the absent optional fields of each base record from the detail at the same index.
// Values already present on the base record are never overwritten. Details beyond len(base) are
// ignored; records without a matching detail are returned unchanged.
func Merge(base []types.BaseRecord, details []types.DetailResult) []types.BaseRecord {
	merged := make([]types.BaseRecord, len(base))
	for i, record := range base {
		if i < len(details) {
			record = mergeOne(record, details[i])
		}
		merged[i] = record
	}
	return merged
}

func mergeOne(record types.BaseRecord, detail types.DetailResult) types.BaseRecord {
	if record.PrimaryDate == nil {
		record.PrimaryDate = detail.PrimaryDate
	}
	record.Quantity = firstKnown(record.Quantity, detail.Quantity)
	record.Price = firstKnown(record.Price, detail.Price)
	record.ExternalLink = firstKnown(record.ExternalLink, detail.ExternalLink)
	return record
}

// firstKnown treats nil and "" alike as absent.
func firstKnown(current, fallback *string) *string {
	if current != nil && *current != "" {
		return current
	}
	if fallback != nil && *fallback != "" {
		return fallback
	}
	return current
}

// Horizon returns the earliest primary date retained at now.
func Horizon(retentionDays int, now time.Time) time.Time {
	return now.Add(-time.Duration(retentionDays) * 24 * time.Hour)
}

// Filter drops records whose primary date is known and strictly earlier than the retention horizon.
// Records with an unknown primary date are kept. Order is preserved.
func Filter(records []types.BaseRecord, retentionDays int, now time.Time) []types.BaseRecord {
	horizon := Horizon(retentionDays, now)
	kept := make([]types.BaseRecord, 0, len(records))
	for _, record := range records {
		if record.PrimaryDate != nil && record.PrimaryDate.Before(horizon) {
			continue
		}
		kept = append(kept, record)
	}
	return kept
}

// MergeAndFilter merges details into base and applies the retention filter.
func MergeAndFilter(base []types.BaseRecord, details []types.DetailResult, retentionDays int, now time.Time) []types.BaseRecord {
	return Filter(Merge(base, details), retentionDays, now)
}
