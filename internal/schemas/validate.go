// Package schemas provides JSON Schema validation for exported documents.
package schemas

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// FieldError is one schema violation at a JSON path.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "document does not match %s (%d violations)", ve.Schema, len(ve.Errors))
	for _, fe := range ve.Errors {
		fmt.Fprintf(&sb, "; %s: %s", fe.Field, fe.Message)
	}
	return sb.String()
}

// SchemaLoadError means the schema itself could not be compiled.
type SchemaLoadError struct {
	Schema string
	Cause  error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to compile schema %s: %v", e.Schema, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Schema is a compiled JSON Schema. It is safe for concurrent use.
type Schema struct {
	name     string
	compiled *gojsonschema.Schema
}

// Compile parses schema content once so documents can be checked repeatedly.
func Compile(name string, content []byte) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(content))
	if err != nil {
		return nil, &SchemaLoadError{Schema: name, Cause: err}
	}
	return &Schema{name: name, compiled: compiled}, nil
}

// Validate checks a JSON document. Violations come back as *ValidationError.
func (s *Schema) Validate(document []byte) error {
	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("failed to read document for %s: %w", s.name, err)
	}
	if result.Valid() {
		return nil
	}

	violations := result.Errors()
	ve := &ValidationError{Schema: s.name, Errors: make([]FieldError, 0, len(violations))}
	for _, desc := range violations {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}

// ValidateJSONBytes compiles schema and checks document against it.
func ValidateJSONBytes(schema, document []byte) error {
	s, err := Compile("(inline schema)", schema)
	if err != nil {
		return err
	}
	return s.Validate(document)
}

// ValidateJSONString is ValidateJSONBytes for string content.
func ValidateJSONString(schema, document string) error {
	return ValidateJSONBytes([]byte(schema), []byte(document))
}
