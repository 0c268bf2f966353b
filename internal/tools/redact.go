package tools

import (
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/types"

	"zenpdf-worker/internal/pkg/pdf"
)

// matchingPages returns the 1-based page numbers (within selection,
// or every page when selection is empty) whose text contains text.
func matchingPages(in, text string, selection []string) ([]string, error) {
	pages, err := pdf.ExtractPages(in)
	if err != nil {
		return nil, err
	}
	allowed := map[int]bool{}
	for _, s := range selection {
		if n, err := strconv.Atoi(s); err == nil {
			allowed[n] = true
		}
	}

	var matches []string
	for i, body := range pages {
		page := i + 1
		if len(allowed) > 0 && !allowed[page] {
			continue
		}
		if strings.Contains(body, text) {
			matches = append(matches, strconv.Itoa(page))
		}
	}
	return matches, nil
}

// Redact stamps an opaque black box across every page containing an
// exact match of text, at page granularity (no per-occurrence glyph
// coordinates are available from the text layer extractor).
func (o *Ops) Redact(in, out, text string, selection []string) error {
	matches, err := matchingPages(in, text, selection)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return api.OptimizeFile(in, out, pdfcpuConf)
	}
	wm, err := api.TextWatermark("", "scale:1 abs, color:0 0 0, opacity:1", true, false, types.POINTS)
	if err != nil {
		return err
	}
	return api.AddWatermarksFile(in, out, matches, wm, pdfcpuConf)
}

// Highlight stamps a translucent yellow overlay across every page
// containing an exact match of text, at the same page granularity as
// Redact.
func (o *Ops) Highlight(in, out, text string, selection []string) error {
	matches, err := matchingPages(in, text, selection)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return api.OptimizeFile(in, out, pdfcpuConf)
	}
	wm, err := api.TextWatermark("", "scale:1 abs, color:1 1 0, opacity:0.35", true, false, types.POINTS)
	if err != nil {
		return err
	}
	return api.AddWatermarksFile(in, out, matches, wm, pdfcpuConf)
}
