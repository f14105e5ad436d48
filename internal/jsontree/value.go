// Package jsontree decodes loosely-structured JSON into a typed value tree and
// searches it with an explicit node budget.
package jsontree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Kind identifies the JSON type held by a Value.
type Kind int

// Kind values mirror the JSON data model.
const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Member is one key/value pair of an object. Objects keep document order.
type Member struct {
	Key   string
	Value *Value
}

// Value is a tagged JSON value. Only the field matching Kind is meaningful.
type Value struct {
	Kind    Kind
	Bool    bool
	Number  json.Number
	Str     string
	Items   []*Value
	Members []Member
}

// ParseError represents a document that could not be decoded.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("json parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("json parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Parse decodes data into a Value tree. Decoding is iterative, so deep
// nesting cannot exhaust the goroutine stack.
func Parse(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	type frame struct {
		value      *Value
		pendingKey *string
	}

	var root *Value
	var stack []*frame

	attach := func(v *Value) error {
		if len(stack) == 0 {
			if root != nil {
				return &ParseError{Message: "multiple top-level values"}
			}
			root = v
			return nil
		}
		top := stack[len(stack)-1]
		switch top.value.Kind {
		case Array:
			top.value.Items = append(top.value.Items, v)
		case Object:
			if top.pendingKey == nil {
				return &ParseError{Message: "object value without key"}
			}
			top.value.Members = append(top.value.Members, Member{Key: *top.pendingKey, Value: v})
			top.pendingKey = nil
		}
		return nil
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Message: "invalid token", Cause: err}
		}

		// Object keys arrive as strings while an object frame awaits a key.
		if s, ok := tok.(string); ok && len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.value.Kind == Object && top.pendingKey == nil {
				key := s
				top.pendingKey = &key
				continue
			}
		}

		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{', '[':
				kind := Object
				if t == '[' {
					kind = Array
				}
				v := &Value{Kind: kind}
				if err := attach(v); err != nil {
					return nil, err
				}
				stack = append(stack, &frame{value: v})
			case '}', ']':
				stack = stack[:len(stack)-1]
			}
		case nil:
			if err := attach(&Value{Kind: Null}); err != nil {
				return nil, err
			}
		case bool:
			if err := attach(&Value{Kind: Bool, Bool: t}); err != nil {
				return nil, err
			}
		case json.Number:
			if err := attach(&Value{Kind: Number, Number: t}); err != nil {
				return nil, err
			}
		case string:
			if err := attach(&Value{Kind: String, Str: t}); err != nil {
				return nil, err
			}
		}
	}

	if root == nil {
		return nil, &ParseError{Message: "empty document"}
	}
	if len(stack) > 0 {
		return nil, &ParseError{Message: "unexpected end of document"}
	}
	return root, nil
}

// Get returns the first member value with the given key, or nil.
func (v *Value) Get(key string) *Value {
	if v == nil || v.Kind != Object {
		return nil
	}
	for _, m := range v.Members {
		if m.Key == key {
			return m.Value
		}
	}
	return nil
}

// IsNull reports whether v is missing or JSON null.
func (v *Value) IsNull() bool {
	return v == nil || v.Kind == Null
}

// Int64 returns the value as an integer when it is a number or an all-digit string.
func (v *Value) Int64() (int64, bool) {
	if v == nil {
		return 0, false
	}
	switch v.Kind {
	case Number:
		if n, err := v.Number.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Number.Float64(); err == nil {
			return int64(f), true
		}
	case String:
		if isDigits(v.Str) {
			if n, err := strconv.ParseInt(v.Str, 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// Text renders scalars the way they appear in the document, without locale formatting.
// Null, arrays and objects render as "".
func (v *Value) Text() string {
	if v == nil {
		return ""
	}
	switch v.Kind {
	case String:
		return v.Str
	case Number:
		return v.Number.String()
	case Bool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
