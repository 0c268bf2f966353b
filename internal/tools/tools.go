// Package tools implements every mechanical PDF operation the queue
// can dispatch, grounded on pdfcpu for structural edits and
// ledongthuc/pdf for text extraction, with the External Tool Runner
// covering what neither library does (rasterizing, office conversion,
// PDF/A via Ghostscript).
package tools

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"zenpdf-worker/internal/pkg/toolrunner"
	"zenpdf-worker/internal/pkg/webfetch"
)

// Ops bundles every dependency the tool operations need: a subprocess
// runner for external binaries and a web fetcher for web-to-pdf.
type Ops struct {
	Runner  *toolrunner.Runner
	Fetcher *webfetch.Fetcher
}

// New builds an Ops.
func New(runner *toolrunner.Runner, fetcher *webfetch.Fetcher) *Ops {
	return &Ops{Runner: runner, Fetcher: fetcher}
}

// pdfcpuConf is nil everywhere: every call site accepts pdfcpu's
// built-in default configuration, which is sufficient for the
// mechanical operations this package performs.
var pdfcpuConf = (*model.Configuration)(nil)
