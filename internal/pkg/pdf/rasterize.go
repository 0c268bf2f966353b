package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"zenpdf-worker/internal/pkg/toolrunner"
)

// RasterizeToJPEGs uses mutool draw to rasterize path's pages at dpi
// into JPEGs under outDir, returning the generated file paths in page
// order. Requires mutool on PATH.
func RasterizeToJPEGs(ctx context.Context, runner *toolrunner.Runner, path string, dpi int, outDir string) ([]string, error) {
	if !toolrunner.Available("mutool") {
		return nil, fmt.Errorf("mutool is not available")
	}

	info, err := Inspect(path)
	if err != nil {
		return nil, err
	}

	outPattern := filepath.Join(outDir, "page_%d.jpg")
	timeout := time.Duration(30+info.Pages*2) * time.Second
	res := runner.Run(ctx, timeout, nil, "mutool", "draw",
		"-o", outPattern, "-r", fmt.Sprintf("%d", dpi), path)
	if !res.OK {
		return nil, fmt.Errorf("mutool draw failed: %s", res.Stderr)
	}

	var images []string
	for i := 1; i <= info.Pages; i++ {
		img := fmt.Sprintf(filepath.Join(outDir, "page_%d.jpg"), i)
		if _, statErr := os.Stat(img); statErr == nil {
			images = append(images, img)
		}
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no images were generated from PDF")
	}
	return images, nil
}
