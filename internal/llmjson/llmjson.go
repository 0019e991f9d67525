// internal/llmjson/llmjson.go

// Package llmjson extracts and validates the JSON payloads embedded in
// free-form generation backend text. Stages decode through it so malformed
// output yields a typed parse failure, never a loosely-typed map.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrNoObject      = errors.New("no top-level JSON object found")
	ErrInvalidObject = errors.New("extracted block is not valid JSON")
)

// ExtractObject returns the first top-level {...} block in the text. Brace
// matching skips braces inside JSON string literals.
func ExtractObject(text string) (json.RawMessage, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, ErrNoObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					block := json.RawMessage(text[start : i+1])
					if !json.Valid(block) {
						return nil, ErrInvalidObject
					}
					return block, nil
				}
			}
		}
	}

	return nil, ErrNoObject
}

// Validate checks the document against a JSON schema and returns a single
// error summarizing all violations.
func Validate(doc json.RawMessage, schema string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		var parts []string
		for _, desc := range result.Errors() {
			parts = append(parts, desc.String())
		}
		return fmt.Errorf("schema violations: %s", strings.Join(parts, "; "))
	}
	return nil
}

// Decode extracts the first JSON object from the text, validates it against
// the schema when one is given, and unmarshals into T. Any failure is a
// parse failure: the caller switches to its deterministic fallback.
func Decode[T any](text, schema string) (T, error) {
	var out T

	raw, err := ExtractObject(text)
	if err != nil {
		return out, err
	}

	if schema != "" {
		if err := Validate(raw, schema); err != nil {
			return out, err
		}
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}
