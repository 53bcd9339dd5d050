package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"plain text no tags", "Hello world", "Hello world"},
		{"simple paragraph", "<p>Hello world</p>", "Hello world"},
		{"multiple paragraphs", "<p>First paragraph</p><p>Second paragraph</p>", "First paragraph\nSecond paragraph"},
		{"nested tags", "<p><strong>Bold</strong> and <em>italic</em></p>", "Bold and italic"},
		{"br tags", "Line one<br>Line two<br/>Line three<BR />Line four", "Line one\nLine two\nLine three\nLine four"},
		{"tags with attributes", `<p style="font-weight: 600">Styled text</p>`, "Styled text"},
		{"entities", "Tom &amp; Jerry&nbsp;&mdash; &eacute;t&eacute;", "Tom & Jerry — été"},
		{"script and style dropped", "<style>p{color:red}</style><p>Text</p><script>alert(1)</script>", "Text"},
		{"bare angle bracket", "1 < 2 and <b>bold</b>", "1 < 2 and bold"},
		{"headings and lists", "<h2>Praise</h2><ul><li>One</li><li>Two</li></ul>", "Praise\nOne\nTwo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, StripTags(tt.input))
		})
	}
}

func TestCleanDescription(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"blank", "   ", ""},
		{"html paragraphs", "<p>Meursault kills a man.</p><p>He is tried.</p>", "Meursault kills a man. He is tried."},
		{"bare urls", "Read more at https://example.com/book?id=1 today.", "Read more at today."},
		{"markdown link", "See [the author](https://example.com/a) for details.", "See the author for details."},
		{
			"openlibrary footer",
			"A classic novel.\n\n----------\nAlso contained in:\n[Collected Works][1]\n\n[1]: https://openlibrary.org/works/OL1W",
			"A classic novel. Also contained in: Collected Works",
		},
		{"source parens", "A story ([source](https://example.com))", "A story (source)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, CleanDescription(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", Truncate("short", 320))
	assert.Equal(t, "", Truncate("anything", 0))

	long := strings.Repeat("word ", 100)
	got := Truncate(long, DescriptionMaxLength)
	assert.LessOrEqual(t, Length(got), DescriptionMaxLength)
	assert.True(t, strings.HasSuffix(got, "word…"))

	accented := strings.Repeat("é", 400)
	got = Truncate(accented, 10)
	assert.Equal(t, 10, Length(got))
}
