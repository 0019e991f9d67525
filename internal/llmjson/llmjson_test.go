// internal/llmjson/llmjson_test.go
package llmjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr error
	}{
		{
			name: "bare object",
			text: `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "object surrounded by prose",
			text: "Sure! Here is the JSON you asked for:\n```json\n{\"ideas\": []}\n```\nLet me know.",
			want: `{"ideas": []}`,
		},
		{
			name: "nested objects stop at the matching brace",
			text: `prefix {"outer": {"inner": {"deep": true}}} suffix {"second": 1}`,
			want: `{"outer": {"inner": {"deep": true}}}`,
		},
		{
			name: "braces inside string literals are skipped",
			text: `{"text": "use {placeholders} like {this}", "n": 2}`,
			want: `{"text": "use {placeholders} like {this}", "n": 2}`,
		},
		{
			name: "escaped quote inside string",
			text: `{"text": "she said \"hello {world}\"", "ok": true}`,
			want: `{"text": "she said \"hello {world}\"", "ok": true}`,
		},
		{
			name:    "no object at all",
			text:    "I could not produce any structured output.",
			wantErr: ErrNoObject,
		},
		{
			name:    "unclosed object",
			text:    `{"a": 1`,
			wantErr: ErrNoObject,
		},
		{
			name:    "balanced braces but invalid JSON",
			text:    `{not: valid}`,
			wantErr: ErrInvalidObject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := ExtractObject(tt.text)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(raw))
		})
	}
}

func TestValidate(t *testing.T) {
	schema := `{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "minLength": 1}
		}
	}`

	assert.NoError(t, Validate([]byte(`{"name": "x"}`), schema))

	err := Validate([]byte(`{"name": ""}`), schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema violations")

	err = Validate([]byte(`{}`), schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	schema := `{"type": "object", "required": ["name"]}`

	t.Run("decodes embedded object", func(t *testing.T) {
		out, err := Decode[payload]("leading text {\"name\": \"a\", \"count\": 3} trailing", schema)
		require.NoError(t, err)
		assert.Equal(t, payload{Name: "a", Count: 3}, out)
	})

	t.Run("schema failure is a parse failure", func(t *testing.T) {
		_, err := Decode[payload](`{"count": 3}`, schema)
		assert.Error(t, err)
	})

	t.Run("empty schema skips validation", func(t *testing.T) {
		out, err := Decode[payload](`{"count": 5}`, "")
		require.NoError(t, err)
		assert.Equal(t, 5, out.Count)
	})

	t.Run("missing object", func(t *testing.T) {
		_, err := Decode[payload]("nothing here", schema)
		assert.ErrorIs(t, err, ErrNoObject)
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := Decode[payload](`{"name": "a", "count": "many"}`, schema)
		assert.Error(t, err)
	})
}
