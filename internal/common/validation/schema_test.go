package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stationSchema = `{
  "type": "object",
  "required": ["query"],
  "properties": {
    "query": {"type": "string", "minLength": 1},
    "limit": {"type": "integer", "minimum": 1, "maximum": 50}
  },
  "additionalProperties": false
}`

func TestSchema_Validate(t *testing.T) {
	s, err := NewSchema([]byte(stationSchema))
	require.NoError(t, err)

	tests := []struct {
		name      string
		doc       interface{}
		wantValid bool
		wantField string
	}{
		{"valid", map[string]interface{}{"query": "bern", "limit": 5}, true, ""},
		{"missing required", map[string]interface{}{"limit": 5}, false, "(root)"},
		{"empty query", map[string]interface{}{"query": ""}, false, "query"},
		{"limit too large", map[string]interface{}{"query": "bern", "limit": 99}, false, "limit"},
		{"extra field", map[string]interface{}{"query": "bern", "foo": 1}, false, "(root)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Validate(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid)
			if !tt.wantValid {
				assert.True(t, res.HasErrors(tt.wantField), res.Error())
				assert.NotEmpty(t, res.GetErrorMessages())
			}
		})
	}
}

func TestNewSchema_Invalid(t *testing.T) {
	_, err := NewSchema([]byte(`{"type": 12}`))
	assert.Error(t, err)
}

func TestValidateDocument_EmptySchemaAcceptsAnything(t *testing.T) {
	res, err := ValidateDocument(nil, map[string]interface{}{"x": 1})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestGetErrorsForField_Nested(t *testing.T) {
	vr := &ValidationResult{Errors: []ValidationError{
		{Field: "languages.de.intents", Message: "x"},
		{Field: "languages.fr", Message: "y"},
		{Field: "version", Message: "z"},
	}}
	assert.Len(t, vr.GetErrorsForField("languages"), 2)
	assert.Len(t, vr.GetErrorsForField("languages.de"), 1)
	assert.Empty(t, vr.GetErrorsForField("protectedPhrases"))
}
