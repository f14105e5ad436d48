// Package schemas embeds the JSON Schemas that describe exported documents.
package schemas

import _ "embed"

// WinsExport describes the JSON export document.
//
//go:embed wins_export.schema.json
var WinsExport []byte
