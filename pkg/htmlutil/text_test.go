package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "plain text",
			html:     "hello world",
			expected: "hello world",
		},
		{
			name:     "paragraphs become newlines",
			html:     "<p>first</p><p>second</p>",
			expected: "first\nsecond",
		},
		{
			name:     "inline tags do not break text",
			html:     "<p>a <em>small</em> <strong>test</strong></p>",
			expected: "a small test",
		},
		{
			name:     "script and style skipped",
			html:     "<p>before</p><script>var x = 1;</script><style>p{color:red}</style><p>after</p>",
			expected: "before\nafter",
		},
		{
			name:     "entities decoded",
			html:     "<p>fish &amp; chips&nbsp;&mdash;&nbsp;cheap</p>",
			expected: "fish & chips — cheap",
		},
		{
			name:     "whitespace collapsed",
			html:     "<p>a\n   b\t\tc</p>",
			expected: "a b c",
		},
		{
			name:     "headings and list items",
			html:     "<h1>Title</h1><ul><li>one</li><li>two</li></ul>",
			expected: "Title\none\ntwo",
		},
		{
			name:     "empty",
			html:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			text, err := ExtractText(tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, text)
		})
	}
}

func TestTextLengthCountsRunes(t *testing.T) {
	t.Parallel()

	// 5 CJK characters, not 15 bytes.
	n, err := TextLength("<p>一二三四五</p>")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestTextLengthIgnoresMarkup(t *testing.T) {
	t.Parallel()

	short, err := TextLength("<p>abc</p>")
	require.NoError(t, err)
	long, err := TextLength(`<p class="very long attribute noise here">abc</p>`)
	require.NoError(t, err)
	assert.Equal(t, short, long)
}
