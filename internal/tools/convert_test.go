package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"10.3.1", "10.3.1", 0},
		{"10.4.0", "10.3.1", 1},
		{"9.56.1", "10.3.1", -1},
		{"10.3", "10.3.1", -1},
		{"10.3.1", "10.3", 1},
	}
	for _, c := range cases {
		got := compareVersions(c.a, c.b)
		if c.want > 0 {
			assert.Positive(t, got, "%s vs %s", c.a, c.b)
		} else if c.want < 0 {
			assert.Negative(t, got, "%s vs %s", c.a, c.b)
		} else {
			assert.Zero(t, got, "%s vs %s", c.a, c.b)
		}
	}
}

func TestStripHTML(t *testing.T) {
	got := stripHTML("<html><body><p>Hello   <b>world</b></p>\n</body></html>")
	assert.Equal(t, "Hello world", got)
}

func TestStripHTMLDropsTagsOnly(t *testing.T) {
	got := stripHTML("<div class=\"x\">plain text</div>")
	assert.Equal(t, "plain text", got)
}

func TestZipPathsWritesEachFileAsAnEntry(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("beta"), 0o644))

	out := filepath.Join(dir, "bundle.zip")
	require.NoError(t, ZipPaths([]string{a, b}, out))
	assert.FileExists(t, out)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestZipPathsErrorsOnMissingInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bundle.zip")
	err := ZipPaths([]string{filepath.Join(dir, "missing.txt")}, out)
	require.Error(t, err)
}
