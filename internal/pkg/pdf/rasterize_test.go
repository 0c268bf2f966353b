package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"zenpdf-worker/internal/pkg/toolrunner"
)

// findSamplePDF tries to find a PDF to use for tests, via the
// RASTER_TEST_PDF environment variable or a repo-root uploads/ folder.
func findSamplePDF(t *testing.T) (string, bool) {
	t.Helper()
	if p := os.Getenv("RASTER_TEST_PDF"); p != "" {
		return p, true
	}
	cwd, _ := os.Getwd()
	root := cwd
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(root)
		if parent == root {
			return "", false
		}
		root = parent
	}
	matches, _ := filepath.Glob(filepath.Join(root, "uploads", "*.pdf"))
	if len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

func TestRasterizeToJPEGs_Smoke(t *testing.T) {
	if !toolrunner.Available("mutool") {
		t.Skip("mutool not found in PATH")
	}

	pdfPath, ok := findSamplePDF(t)
	if !ok {
		t.Skip("no sample PDF found; set RASTER_TEST_PDF to a valid PDF path")
	}

	images, err := RasterizeToJPEGs(context.Background(), toolrunner.New(), pdfPath, 150, t.TempDir())
	if err != nil {
		t.Fatalf("RasterizeToJPEGs failed: %v", err)
	}
	if len(images) == 0 {
		t.Fatalf("expected at least one generated image, got 0")
	}
	for _, img := range images {
		if _, err := os.Stat(img); err != nil {
			t.Fatalf("generated image not found: %s (%v)", img, err)
		}
	}
}
