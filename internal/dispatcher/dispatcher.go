package dispatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"zenpdf-worker/configs"
	"zenpdf-worker/internal/models"
	"zenpdf-worker/internal/naming"
	"zenpdf-worker/internal/pipeline"
	"zenpdf-worker/internal/pkg/pagerange"
	"zenpdf-worker/internal/pkg/pdf"
	"zenpdf-worker/internal/pkg/toolrunner"
	"zenpdf-worker/internal/pkg/workererr"
	"zenpdf-worker/internal/tools"
)

// Dispatcher routes a leased job to the concrete Ops method that
// implements its tool, after decoding and validating per-tool config.
type Dispatcher struct {
	ops      *tools.Ops
	runner   *toolrunner.Runner
	validate *validator.Validate
	compress configs.CompressConfig
}

// New builds a Dispatcher.
func New(ops *tools.Ops, runner *toolrunner.Runner, compress configs.CompressConfig) *Dispatcher {
	return &Dispatcher{ops: ops, runner: runner, validate: validator.New(), compress: compress}
}

// Dispatch runs job's tool against inputs staged under dir, writing
// one or more outputs under dir and returning their paths in the
// order they should be uploaded. Unsupported tools fail transiently.
func (d *Dispatcher) Dispatch(ctx context.Context, job models.Job, inputs []string, dir string) ([]string, error) {
	if len(inputs) == 0 || len(job.Inputs) == 0 {
		return nil, workererr.User("job has no inputs")
	}
	primary := inputs[0]
	outPath := filepath.Join(dir, naming.OutputName(job.Tool, job.Inputs[0].Filename))

	switch job.Tool {
	case models.ToolMerge:
		if err := d.ops.Merge(inputs, outPath); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolSplit:
		var cfg SplitConfig
		if err := decode(job.Config, &cfg); err != nil {
			return nil, err
		}
		info, err := pdf.Inspect(primary)
		if err != nil {
			return nil, classifyPdfErr(err)
		}
		ranges, err := splitRanges(cfg.Ranges, info.Pages)
		if err != nil {
			return nil, err
		}
		parts, err := d.ops.Split(primary, dir, ranges)
		if err != nil {
			return nil, err
		}
		if err := tools.ZipPaths(parts, outPath); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolCompress:
		finalPath, _, err := pipeline.Run(ctx, d.runner, dir, primary, outPath, d.compress)
		if err != nil {
			return nil, err
		}
		return []string{finalPath}, nil

	case models.ToolRepair:
		if _, err := pdf.Inspect(primary); err == pdf.ErrEncrypted {
			return nil, classifyPdfErr(err)
		}
		if err := d.ops.Repair(primary, outPath); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolRotate:
		var cfg RotateConfig
		if err := decode(job.Config, &cfg); err != nil {
			return nil, err
		}
		if err := validateStruct(d.validate, cfg); err != nil {
			return nil, err
		}
		selection, err := selectionOrAll(primary, cfg.Pages)
		if err != nil {
			return nil, err
		}
		if err := d.ops.Rotate(primary, outPath, defaultAngle(cfg.Angle), selection); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolRemovePages:
		var cfg RemovePagesConfig
		if err := decode(job.Config, &cfg); err != nil {
			return nil, err
		}
		selection, err := selectionOrAll(primary, cfg.Pages)
		if err != nil {
			return nil, err
		}
		if len(selection) == 0 {
			if err := d.ops.Merge([]string{primary}, outPath); err != nil {
				return nil, err
			}
			return []string{outPath}, nil
		}
		if err := d.ops.RemovePages(primary, outPath, selection); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolReorderPages:
		var cfg ReorderPagesConfig
		if err := decode(job.Config, &cfg); err != nil {
			return nil, err
		}
		order, err := selectionOrAll(primary, cfg.Order)
		if err != nil {
			return nil, err
		}
		if err := d.ops.ReorderPages(primary, outPath, order); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolWatermark:
		var cfg WatermarkConfig
		if err := decode(job.Config, &cfg); err != nil {
			return nil, err
		}
		if err := validateStruct(d.validate, cfg); err != nil {
			return nil, err
		}
		selection, err := selectionOrAll(primary, cfg.Pages)
		if err != nil {
			return nil, err
		}
		if err := d.ops.Watermark(primary, outPath, cfg.Text, selection); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolPageNumbers:
		var cfg PageNumbersConfig
		if err := decode(job.Config, &cfg); err != nil {
			return nil, err
		}
		selection, err := selectionOrAll(primary, cfg.Pages)
		if err != nil {
			return nil, err
		}
		start := cfg.Start
		if start == 0 {
			start = 1
		}
		if err := d.ops.PageNumbers(primary, outPath, start, selection); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolCrop:
		var cfg CropConfig
		if err := decode(job.Config, &cfg); err != nil {
			return nil, err
		}
		if err := validateStruct(d.validate, cfg); err != nil {
			return nil, err
		}
		margins, err := pagerange.ParseMargins(cfg.Margins)
		if err != nil {
			return nil, err
		}
		selection, err := selectionOrAll(primary, cfg.Pages)
		if err != nil {
			return nil, err
		}
		if err := d.ops.Crop(primary, outPath, margins, selection); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolRedact, models.ToolHighlight:
		var cfg TextSearchConfig
		if err := decode(job.Config, &cfg); err != nil {
			return nil, err
		}
		if err := validateStruct(d.validate, cfg); err != nil {
			return nil, err
		}
		selection, err := selectionOrAll(primary, cfg.Pages)
		if err != nil {
			return nil, err
		}
		var opErr error
		if job.Tool == models.ToolRedact {
			opErr = d.ops.Redact(primary, outPath, cfg.Text, selection)
		} else {
			opErr = d.ops.Highlight(primary, outPath, cfg.Text, selection)
		}
		if opErr != nil {
			return nil, opErr
		}
		return []string{outPath}, nil

	case models.ToolCompare:
		if len(inputs) < 2 {
			return nil, workererr.User("compare requires two inputs")
		}
		if err := d.ops.Compare(inputs[0], inputs[1], outPath); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolUnlock:
		var cfg PasswordConfig
		if err := decode(job.Config, &cfg); err != nil {
			return nil, err
		}
		if err := validateStruct(d.validate, cfg); err != nil {
			return nil, err
		}
		if err := d.ops.Unlock(primary, outPath, cfg.Password); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolProtect:
		var cfg PasswordConfig
		if err := decode(job.Config, &cfg); err != nil {
			return nil, err
		}
		if err := validateStruct(d.validate, cfg); err != nil {
			return nil, err
		}
		if err := d.ops.Protect(primary, outPath, cfg.Password); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolImageToPDF:
		if err := d.ops.ImageToPDF(inputs, outPath); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolPDFToJPG:
		var cfg PDFToJPGConfig
		if err := decode(job.Config, &cfg); err != nil {
			return nil, err
		}
		if err := d.ops.PDFToJPG(ctx, primary, clampDPI(cfg.DPI), dir, outPath); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolWebToPDF:
		var cfg WebToPDFConfig
		if err := decode(job.Config, &cfg); err != nil {
			return nil, err
		}
		if err := validateStruct(d.validate, cfg); err != nil {
			return nil, err
		}
		if err := d.ops.WebToPDF(ctx, cfg.URL, dir, outPath); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolOfficeToPDF:
		if err := d.ops.OfficeToPDF(ctx, primary, dir, outPath); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolPDFA:
		if err := d.ops.PDFA(ctx, primary, outPath); err != nil {
			return nil, classifyPdfErr(err)
		}
		return []string{outPath}, nil

	case models.ToolPDFToText:
		if err := d.ops.PDFToText(primary, outPath); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolPDFToWord:
		if err := d.ops.PDFToWord(ctx, primary, dir, outPath, false); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolPDFToWordOCR:
		if err := d.ops.PDFToWord(ctx, primary, dir, outPath, true); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolPDFToExcel:
		if err := d.ops.PDFToExcel(ctx, primary, dir, outPath, false); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	case models.ToolPDFToExcelOCR:
		if err := d.ops.PDFToExcel(ctx, primary, dir, outPath, true); err != nil {
			return nil, err
		}
		return []string{outPath}, nil

	default:
		return nil, fmt.Errorf("unsupported tool: %s", job.Tool)
	}
}

// selectionOrAll resolves value against primary's page count, treating
// an empty value as "every page" (pdfcpu's identity selection).
func selectionOrAll(primary, value string) ([]string, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	info, err := pdf.Inspect(primary)
	if err != nil {
		return nil, classifyPdfErr(err)
	}
	pages, err := pagerange.ResolvePageSelection(value, info.Pages)
	if err != nil {
		return nil, err
	}
	selection := make([]string, len(pages))
	for i, p := range pages {
		selection[i] = strconv.Itoa(p)
	}
	return selection, nil
}

// splitRanges parses a comma-separated "a-b" range list, defaulting to
// one range per page when ranges is empty.
func splitRanges(ranges string, totalPages int) ([][]string, error) {
	if strings.TrimSpace(ranges) == "" {
		out := make([][]string, totalPages)
		for i := 0; i < totalPages; i++ {
			out[i] = []string{strconv.Itoa(i + 1)}
		}
		return out, nil
	}
	var result [][]string
	for _, part := range strings.Split(ranges, ",") {
		pages := pagerange.ParseList(strings.TrimSpace(part), totalPages)
		if len(pages) == 0 {
			continue
		}
		sel := make([]string, len(pages))
		for i, p := range pages {
			sel[i] = strconv.Itoa(p)
		}
		result = append(result, sel)
	}
	if len(result) == 0 {
		return nil, workererr.User("no valid ranges in split config")
	}
	return result, nil
}

func classifyPdfErr(err error) error {
	if err == nil {
		return nil
	}
	if err == pdf.ErrEncrypted {
		return workererr.User("PDF is encrypted")
	}
	return err
}
