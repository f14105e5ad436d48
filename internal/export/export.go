// Package export writes materialized rows to tabular files.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	rootschemas "github.com/jonathan/wins-exporter/schemas"

	"github.com/jonathan/wins-exporter/internal/schemas"
	"github.com/jonathan/wins-exporter/internal/types"
)

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Writer renders rows to w.
type Writer interface {
	Format() string
	ContentType() string
	Write(w io.Writer, rows []types.OutputRow) error
}

// UnsupportedFormatError is returned for unknown formats or file extensions.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format %q (want csv or json)", e.Format)
}

// ForFormat returns the writer for a format name.
func ForFormat(format string) (Writer, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case FormatCSV:
		return CSVWriter{}, nil
	case FormatJSON:
		return JSONWriter{}, nil
	default:
		return nil, &UnsupportedFormatError{Format: format}
	}
}

// ForPath picks the writer by file extension.
func ForPath(path string) (Writer, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, &UnsupportedFormatError{Format: path}
	}
	return ForFormat(ext)
}

// FileMode is the permission set on written export files.
const FileMode os.FileMode = 0644

// WriteFile writes rows to path, creating parent directories as needed.
// The file is written to a temporary sibling first and renamed into place.
func WriteFile(path string, rows []types.OutputRow, writer Writer) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	// CreateTemp opens 0600; exports are meant to be read by others.
	if err := tmp.Chmod(FileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set export permissions: %w", err)
	}
	if err := writer.Write(tmp, rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s export: %w", writer.Format(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}

// CSVWriter writes a header row followed by one line per row.
type CSVWriter struct{}

func (CSVWriter) Format() string      { return FormatCSV }
func (CSVWriter) ContentType() string { return "text/csv; charset=utf-8" }

func (CSVWriter) Write(w io.Writer, rows []types.OutputRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.Columns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Document is the JSON export shape.
type Document struct {
	Columns []string          `json:"columns"`
	Count   int               `json:"count"`
	Rows    []types.OutputRow `json:"rows"`
}

// NewDocument wraps rows for JSON output.
func NewDocument(rows []types.OutputRow) Document {
	if rows == nil {
		rows = []types.OutputRow{}
	}
	return Document{Columns: types.Columns, Count: len(rows), Rows: rows}
}

var exportSchema = sync.OnceValues(func() (*schemas.Schema, error) {
	return schemas.Compile("wins_export.schema.json", rootschemas.WinsExport)
})

// JSONWriter writes an indented Document after validating it against the export schema.
type JSONWriter struct{}

func (JSONWriter) Format() string      { return FormatJSON }
func (JSONWriter) ContentType() string { return "application/json" }

func (JSONWriter) Write(w io.Writer, rows []types.OutputRow) error {
	data, err := json.MarshalIndent(NewDocument(rows), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}
	schema, err := exportSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(data); err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader(append(data, '\n')))
	return err
}
