package feed

import (
	"strings"

	"github.com/jonathan/wins-exporter/internal/dates"
	"github.com/jonathan/wins-exporter/internal/jsontree"
	"github.com/jonathan/wins-exporter/internal/types"
)

// identityKeys are checked in order, first on the item and then on its projectData.
var identityKeys = []string{"slug", "projectSlug", "project", "handle"}

// ExtractIdentity returns the detail lookup key for a feed item, or "" when none is present.
func ExtractIdentity(item *jsontree.Value) string {
	for _, source := range []*jsontree.Value{item, item.Get("projectData")} {
		for _, key := range identityKeys {
			v := source.Get(key)
			if v == nil || v.Kind != jsontree.String {
				continue
			}
			if s := strings.TrimSpace(v.Str); s != "" {
				return s
			}
		}
	}
	return ""
}

// PickedMillis returns the item's selection timestamp in epoch milliseconds, or 0.
func PickedMillis(item *jsontree.Value) int64 {
	ms, ok := item.Get("picked").Int64()
	if !ok {
		return 0
	}
	return ms
}

// ToBaseRecord maps a feed item onto a BaseRecord. Values are taken from the first
// non-empty candidate location per field.
func ToBaseRecord(item *jsontree.Value) types.BaseRecord {
	project := item.Get("projectData")

	record := types.BaseRecord{
		Identity: ExtractIdentity(item),
		Title:    firstNonEmpty(project.Get("name"), item.Get("name")),
		Category: firstNonEmpty(item.Get("blockchain"), project.Get("blockchain")),
		Price:    types.StringPtr(firstNonEmpty(project.Get("wlPrice"))),
		ExternalLink: types.StringPtr(firstNonEmpty(
			project.Get("twitterUrl"),
			item.Get("twitterUrl"),
		)),
	}
	if record.Title == "" {
		record.Title = types.DefaultTitle
	}

	if picked, ok := dates.FromEpochMillis(PickedMillis(item)); ok {
		record.SelectionTimestamp = &picked
	}
	if mint, ok := dates.FromValue(project.Get("mintDate")); ok {
		record.PrimaryDate = &mint
	}
	return record
}

// firstNonEmpty returns the text of the first scalar that is not null or blank.
func firstNonEmpty(values ...*jsontree.Value) string {
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		text := v.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		return text
	}
	return ""
}
