package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain JSON untouched",
			input:    `{"a":1}`,
			expected: `{"a":1}`,
		},
		{
			name:     "json fence",
			input:    "```json\n{\"a\":1}\n```",
			expected: `{"a":1}`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"a\":1}\n```",
			expected: `{"a":1}`,
		},
		{
			name:     "surrounding whitespace",
			input:    "  \n{\"a\":1}\n  ",
			expected: `{"a":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanMarkdownWrapper(tt.input))
		})
	}
}

func TestParseObject(t *testing.T) {
	obj, err := ParseObject("```json\n{\"scope\": 2, \"activityData\": \"4200 kWh\"}\n```")
	require.NoError(t, err)

	assert.Equal(t, float64(2), obj["scope"])
	assert.Equal(t, "4200 kWh", obj["activityData"])
}

func TestParseObjectRejectsProse(t *testing.T) {
	_, err := ParseObject("Sure! Here is the classification you asked for.")
	assert.Error(t, err)
}

func TestParseInto(t *testing.T) {
	var out struct {
		Vendor string  `json:"vendor"`
		Total  float64 `json:"total"`
	}

	err := ParseInto("```json\n{\"vendor\":\"TNB\",\"total\":2100.5}\n```", &out)
	require.NoError(t, err)

	assert.Equal(t, "TNB", out.Vendor)
	assert.Equal(t, 2100.5, out.Total)
}
