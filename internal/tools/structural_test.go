package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenpdf-worker/internal/pkg/workererr"
)

func TestMergeRejectsEmptyInputList(t *testing.T) {
	o := New(nil, nil)
	err := o.Merge(nil, "/tmp/out.pdf")
	require.Error(t, err)
	assert.True(t, workererr.IsUser(err))
}

func TestImageToPDFRejectsEmptyImageList(t *testing.T) {
	o := New(nil, nil)
	err := o.ImageToPDF(nil, "/tmp/out.pdf")
	require.Error(t, err)
	assert.True(t, workererr.IsUser(err))
}

func TestUnlockReportsUserErrorOnBadPassword(t *testing.T) {
	o := New(nil, nil)
	err := o.Unlock("/nonexistent/in.pdf", "/tmp/out.pdf", "wrong")
	require.Error(t, err)
	assert.True(t, workererr.IsUser(err))
}
