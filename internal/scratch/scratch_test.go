package scratch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesADirectoryAndCloseRemovesIt(t *testing.T) {
	d, err := New()
	require.NoError(t, err)
	require.DirExists(t, d.Root)

	require.NoError(t, d.Close())
	_, statErr := os.Stat(d.Root)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCloseOnNilOrEmptyDirIsASafeNoOp(t *testing.T) {
	var d *Dir
	assert.NoError(t, d.Close())

	empty := &Dir{}
	assert.NoError(t, empty.Close())
}

func TestPathJoinsOntoRoot(t *testing.T) {
	d := &Dir{Root: "/tmp/zenpdf-job-abc"}
	assert.Equal(t, filepath.Join("/tmp/zenpdf-job-abc", "stage1.pdf"), d.Path("stage1.pdf"))
}

func TestInputPathPrefixesWithZeroPaddedIndex(t *testing.T) {
	d := &Dir{Root: "/tmp/zenpdf-job-abc"}
	assert.Equal(t, filepath.Join("/tmp/zenpdf-job-abc", "01_report.pdf"), d.InputPath(1, "report.pdf"))
	assert.Equal(t, filepath.Join("/tmp/zenpdf-job-abc", "12_nested.pdf"), d.InputPath(12, "some/dir/nested.pdf"))
}

func TestNonceReturnsEightHexChars(t *testing.T) {
	n := Nonce()
	assert.Len(t, n, 8)
	assert.NotEqual(t, n, Nonce())
}
