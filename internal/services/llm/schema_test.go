package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestConvertToGenaiSchema(t *testing.T) {
	schema, err := convertToGenaiSchema(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"history"},
		"properties": map[string]interface{}{
			"sentiment_score": map[string]interface{}{
				"type":    "number",
				"minimum": int64(-100),
				"maximum": 100.0,
			},
			"history": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type":     "object",
					"required": []string{"date", "price"},
					"properties": map[string]interface{}{
						"date":  map[string]interface{}{"type": "string", "description": "YYYY-MM-DD"},
						"price": map[string]interface{}{"type": "number"},
					},
				},
			},
			"ignored": "not a map",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"history"}, schema.Required)
	assert.Len(t, schema.Properties, 2)

	sentiment := schema.Properties["sentiment_score"]
	require.NotNil(t, sentiment.Minimum)
	assert.Equal(t, -100.0, *sentiment.Minimum)
	assert.Equal(t, 100.0, *sentiment.Maximum)

	history := schema.Properties["history"]
	assert.Equal(t, genai.TypeArray, history.Type)
	require.NotNil(t, history.Items)
	assert.Equal(t, []string{"date", "price"}, history.Items.Required)
	assert.Equal(t, "YYYY-MM-DD", history.Items.Properties["date"].Description)
}

func TestConvertToGenaiSchemaEmptyAndInvalid(t *testing.T) {
	schema, err := convertToGenaiSchema(nil)
	assert.NoError(t, err)
	assert.Nil(t, schema)

	_, err = convertToGenaiSchema(map[string]interface{}{"type": "tuple"})
	assert.ErrorContains(t, err, "unsupported schema type")

	_, err = convertToGenaiSchema(map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"type": "tuple"},
	})
	assert.ErrorContains(t, err, "items schema")
}
