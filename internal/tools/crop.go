package tools

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/types"

	"zenpdf-worker/internal/pkg/pagerange"
	"zenpdf-worker/internal/pkg/workererr"
)

// Crop insets each selected page's media box by margins, failing
// user-error if the result would have non-positive width or height.
func (o *Ops) Crop(in, out string, margins pagerange.Margins, selection []string) error {
	desc := fmt.Sprintf("u=-%v -%v -%v -%v", margins.Top, margins.Right, margins.Bottom, margins.Left)
	box, err := api.Box(desc, types.POINTS)
	if err != nil {
		return workererr.Userf("invalid crop margins: %v", err)
	}
	if err := api.CropFile(in, out, selection, box, pdfcpuConf); err != nil {
		return workererr.Userf("crop removed the page entirely: %v", err)
	}
	return nil
}
