package clean_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"posterfeed/internal/clean"
)

func TestDescription(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "img removed, text kept",
			input:    `<p><img src="x"/>Hello</p>`,
			expected: "<p>Hello</p>",
		},
		{
			name:     "whitespace-only paragraph yields fallback",
			input:    "<p>   </p>",
			expected: clean.EmptyFallback,
		},
		{
			name:     "empty input yields fallback",
			input:    "",
			expected: clean.EmptyFallback,
		},
		{
			name:     "CDATA wrapper unwrapped",
			input:    "<![CDATA[<p>Hi</p>]]>",
			expected: "<p>Hi</p>",
		},
		{
			name:     "escaped entities unescaped once",
			input:    "&lt;p&gt;Hi&lt;/p&gt;",
			expected: "<p>Hi</p>",
		},
		{
			name:     "allowed tags kept",
			input:    "<p><strong>Bold</strong> and <em>italic</em></p>",
			expected: "<p><strong>Bold</strong> and <em>italic</em></p>",
		},
		{
			name:     "anchor with attributes kept",
			input:    `<p><a href="https://example.com/film/x/">review</a></p>`,
			expected: `<p><a href="https://example.com/film/x/">review</a></p>`,
		},
		{
			name:     "blockquote kept",
			input:    "<blockquote><p>Quoted</p></blockquote>",
			expected: "<blockquote><p>Quoted</p></blockquote>",
		},
		{
			name:     "disallowed element flattened to text",
			input:    "<p>Watched on <abbr>Mon</abbr></p>",
			expected: "<p>Watched on Mon</p>",
		},
		{
			name:     "img-only description yields fallback",
			input:    `<p><img src="poster.jpg"/></p>`,
			expected: clean.EmptyFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clean.Description(tt.input))
		})
	}
}

func TestDescription_DisallowedWrapperFlattened(t *testing.T) {
	out := clean.Description("<table><tr><td>Hi</td></tr></table>")

	assert.NotContains(t, out, "<table")
	assert.NotContains(t, out, "<td")
	assert.Contains(t, out, "Hi")
}

func TestDescription_NeverPanics(t *testing.T) {
	inputs := []string{
		"not html at all",
		"<p>unterminated",
		"<<<>>>",
		"<![CDATA[broken",
		strings.Repeat("<div>", 500),
		"\x00\x01garbage\xff",
	}

	for _, input := range inputs {
		assert.NotPanics(t, func() {
			_ = clean.Description(input)
		}, "input %q", input)
	}
}

func TestDescription_PlainTextSurvives(t *testing.T) {
	out := clean.Description("just a sentence")
	assert.Contains(t, out, "just a sentence")
}
