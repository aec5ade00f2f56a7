package llm

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// answerPNG stands in for a photographed answer; providers pass the bytes
// through without decoding them.
var answerPNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

var digitsSchema = &Schema{
	Name: "test_digits",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"digits": map[string]any{"type": "string"},
		},
		"required":             []any{"digits"},
		"additionalProperties": false,
	},
}

func answerRequest() Request {
	return Request{
		Instructions: "You read handwritten whole numbers.",
		Prompt:       "Read the answer.",
		Images:       []Image{{Data: slices.Clone(answerPNG), MIMEType: "image/png"}},
		Schema:       digitsSchema,
		MaxTokens:    64,
	}
}

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		kind Kind
	}{
		{name: "bare object", text: `{"digits":"42"}`, want: `{"digits":"42"}`},
		{name: "fenced", text: "```json\n{\"digits\":\"7\"}\n```", want: `{"digits":"7"}`},
		{name: "padded", text: "  {\"digits\":\"0\"}\n", want: `{"digits":"0"}`},
		{name: "empty", text: "   ", kind: KindBadReply},
		{name: "prose", text: "The answer is 42.", kind: KindBadReply},
		{name: "missing field", text: `{"value":"42"}`, kind: KindBadReply},
		{name: "wrong type", text: `{"digits":42}`, kind: KindBadReply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeReply("test", digitsSchema, tt.text)
			if tt.want == "" {
				require.Error(t, err)
				kind, ok := KindOf(err)
				require.True(t, ok)
				assert.Equal(t, tt.kind, kind)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestDecodeReply_KeepsOffendingContent(t *testing.T) {
	_, err := decodeReply("test", digitsSchema, `{"digits":false}`)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "test", e.Provider)
	assert.JSONEq(t, `{"digits":false}`, string(e.Content))
}

func TestDecodeReply_NoSchemaQuotesText(t *testing.T) {
	got, err := decodeReply("test", nil, `say "hi"`)
	require.NoError(t, err)
	assert.Equal(t, `"say \"hi\""`, string(got))
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFence("```json\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripFence(`{"a":1}`))
}
