package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapTextSplitsOnWidth(t *testing.T) {
	lines := wrapText("one two three four five", 10)
	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 10)
	}
	assert.Equal(t, "one two three four five", joinWords(lines))
}

func joinWords(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += " "
		}
		out += l
	}
	return out
}

func TestWrapTextPreservesBlankParagraphs(t *testing.T) {
	lines := wrapText("first\n\nsecond", 80)
	require.Len(t, lines, 3)
	assert.Equal(t, "first", lines[0])
	assert.Equal(t, "", lines[1])
	assert.Equal(t, "second", lines[2])
}

func TestEscapePDFStringEscapesParensAndBackslash(t *testing.T) {
	got := escapePDFString(`a (b) c\d`)
	assert.Equal(t, `a \(b\) c\\d`, got)
}

func TestWriteTextPDFProducesAPDFHeaderAndTrailer(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, writeTextPDF("hello world, this is a short line of text", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "%PDF-1.4")
	assert.Contains(t, string(data), "%%EOF")
	assert.Contains(t, string(data), "trailer")
}

func TestWriteTextPDFTruncatesOverflowingText(t *testing.T) {
	huge := ""
	for i := 0; i < 500; i++ {
		huge += "word "
	}
	out := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, writeTextPDF(huge, out))
	assert.FileExists(t, out)
}
