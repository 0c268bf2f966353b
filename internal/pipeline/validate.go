package pipeline

import (
	"context"
	"os"
	"time"

	"zenpdf-worker/internal/pkg/pdf"
	"zenpdf-worker/internal/pkg/toolrunner"
)

// validate reports whether cand is a usable compression output: it
// must exist, be non-empty, pass qpdf's structural check when qpdf is
// available, keep the expected page count, and render its first page.
func (s *stageRunner) validate(ctx context.Context, timeout time.Duration, cand candidate, expectedPages int) bool {
	stat, err := os.Stat(cand.path)
	if err != nil || stat.Size() == 0 {
		return false
	}

	if toolrunner.Available("qpdf") {
		res := s.runner.Run(ctx, timeout, nil, "qpdf", "--check", cand.path)
		s.record("validate:qpdf_check:"+string(cand.method), res)
		if !res.OK {
			return false
		}
	}

	info, err := pdf.Inspect(cand.path)
	if err != nil || info.Pages != expectedPages {
		return false
	}

	return pdf.FirstPageRenders(cand.path)
}
