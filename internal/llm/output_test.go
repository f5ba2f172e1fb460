package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labassist/internal/llm"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`},
		{"prose around", "Here you go:\n{\"a\":1}\nHope this helps.", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := llm.ExtractJSON(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON_Errors(t *testing.T) {
	_, err := llm.ExtractJSON("   ")
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)

	_, err = llm.ExtractJSON("I could not read the document.")
	assert.ErrorIs(t, err, llm.ErrMalformedResponse)
}
