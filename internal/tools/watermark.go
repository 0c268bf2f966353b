package tools

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/types"
)

// Watermark stamps text as a centered, gray, diagonal watermark sized
// proportionally to each selected page's shorter dimension.
func (o *Ops) Watermark(in, out, text string, selection []string) error {
	desc := "font:Helvetica, points:24, scale:0.5 rel, color:0.5 0.5 0.5, rot:45, op:0.3"
	wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("building watermark: %w", err)
	}
	return api.AddWatermarksFile(in, out, selection, wm, pdfcpuConf)
}

// PageNumbers stamps a right-aligned footer "start..start+n" across
// the selected pages.
func (o *Ops) PageNumbers(in, out string, start int, selection []string) error {
	desc := fmt.Sprintf("font:Helvetica, points:10, pos:br, off: -20 20, startpagenumber:%d", start)
	wm, err := api.TextWatermark("%p", desc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("building page number stamp: %w", err)
	}
	return api.AddWatermarksFile(in, out, selection, wm, pdfcpuConf)
}
