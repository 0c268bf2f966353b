package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenpdf-worker/configs"
	"zenpdf-worker/internal/pkg/toolrunner"
)

func TestGhostscriptPresetHonorsOverride(t *testing.T) {
	cfg := testCompressConfig()
	cfg.GSPreset = "screen"
	cfg.Profile = "balanced"
	assert.Equal(t, "screen", ghostscriptPreset(cfg))
}

func TestGhostscriptPresetStrongProfileDefaultsToScreen(t *testing.T) {
	cfg := testCompressConfig()
	cfg.Profile = "strong"
	assert.Equal(t, "screen", ghostscriptPreset(cfg))
}

func TestGhostscriptPresetBalancedProfileDefaultsToEbook(t *testing.T) {
	cfg := testCompressConfig()
	cfg.Profile = "balanced"
	assert.Equal(t, "ebook", ghostscriptPreset(cfg))
}

func TestPdfsizeoptLaneSkipsWhenBinaryMissing(t *testing.T) {
	s := &stageRunner{
		runner: toolrunner.New(),
		dir:    t.TempDir(),
		cfg:    testCompressConfig(),
		report: &Report{},
	}
	_, ok := s.pdfsizeoptLane(context.Background(), time.Second, "base.pdf")
	assert.False(t, ok, "pdfsizeopt is never on PATH in the test environment")
}

func TestCleanupRemovesEverythingExceptKept(t *testing.T) {
	dir := t.TempDir()
	keepPath := filepath.Join(dir, "keep.pdf")
	dropPath := filepath.Join(dir, "drop.pdf")
	require.NoError(t, os.WriteFile(keepPath, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(dropPath, []byte("y"), 0o600))

	cleanup(dir, map[string]bool{keepPath: true})

	_, err := os.Stat(keepPath)
	assert.NoError(t, err)
	_, err = os.Stat(dropPath)
	assert.True(t, os.IsNotExist(err))
}
