package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/wins-exporter/internal/schemas"
)

func TestWinsExport_IsValidJSON(t *testing.T) {
	var v map[string]any
	require.NoError(t, json.Unmarshal(WinsExport, &v))
	assert.Equal(t, "object", v["type"])
}

func TestWinsExport_AcceptsExportDocument(t *testing.T) {
	doc := `{
		"columns": ["Project", "Chain", "Mint date (UTC)", "Supply", "Mint price", "Twitter"],
		"count": 2,
		"rows": [
			{"project": "Foo", "chain": "ETH", "mint_date_utc": "2026-03-02 17:45 UTC", "supply": "5555", "mint_price": "0.05", "twitter": "https://x.com/foo"},
			{"project": "Bar", "chain": "", "mint_date_utc": "", "supply": "", "mint_price": "", "twitter": ""}
		]
	}`
	assert.NoError(t, schemas.ValidateJSONString(string(WinsExport), doc))
}

func TestWinsExport_RejectsMalformedRows(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing rows",
			doc:  `{"columns": ["a","b","c","d","e","f"], "count": 0}`,
		},
		{
			name: "bad date format",
			doc: `{"columns": ["a","b","c","d","e","f"], "count": 1, "rows": [
				{"project": "Foo", "chain": "", "mint_date_utc": "2026-03-02T17:45:00Z", "supply": "", "mint_price": "", "twitter": ""}
			]}`,
		},
		{
			name: "empty project",
			doc: `{"columns": ["a","b","c","d","e","f"], "count": 1, "rows": [
				{"project": "", "chain": "", "mint_date_utc": "", "supply": "", "mint_price": "", "twitter": ""}
			]}`,
		},
		{
			name: "numeric supply",
			doc: `{"columns": ["a","b","c","d","e","f"], "count": 1, "rows": [
				{"project": "Foo", "chain": "", "mint_date_utc": "", "supply": 5, "mint_price": "", "twitter": ""}
			]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schemas.ValidateJSONString(string(WinsExport), tt.doc)
			require.Error(t, err)
			var validationErr *schemas.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}
