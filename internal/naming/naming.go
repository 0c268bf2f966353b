// Package naming derives a job's output filename from the first input
// and the dispatched tool.
package naming

import (
	"path/filepath"
	"strings"

	"zenpdf-worker/internal/models"
)

type suffixRule struct {
	suffix string
	// ext is the fixed output extension; "" means "keep the input's extension".
	ext string
}

var suffixTable = map[models.Tool]suffixRule{
	models.ToolMerge:         {"merged", ""},
	models.ToolSplit:         {"split", ".zip"},
	models.ToolCompress:      {"compressed", ""},
	models.ToolRepair:        {"repaired", ""},
	models.ToolRotate:        {"rotated", ""},
	models.ToolRemovePages:   {"pages-removed", ""},
	models.ToolReorderPages:  {"reordered", ""},
	models.ToolWatermark:     {"watermarked", ""},
	models.ToolPageNumbers:   {"numbered", ""},
	models.ToolCrop:          {"cropped", ""},
	models.ToolRedact:        {"redacted", ""},
	models.ToolHighlight:     {"highlighted", ""},
	models.ToolCompare:       {"compare", ".txt"},
	models.ToolUnlock:        {"unlocked", ""},
	models.ToolProtect:       {"protected", ""},
	models.ToolImageToPDF:    {"converted", ".pdf"},
	models.ToolPDFToJPG:      {"pages", ".zip"},
	models.ToolOfficeToPDF:   {"converted", ".pdf"},
	models.ToolPDFA:          {"pdfa", ""},
	models.ToolPDFToWord:     {"word", ".docx"},
	models.ToolPDFToWordOCR:  {"word", ".docx"},
	models.ToolPDFToText:     {"text", ".txt"},
	models.ToolPDFToExcel:    {"excel", ".xlsx"},
	models.ToolPDFToExcelOCR: {"excel", ".xlsx"},
}

// stripDownloadPrefix removes the "NN_" prefix scratch input filenames
// carry (digits up to the first underscore).
func stripDownloadPrefix(name string) string {
	idx := strings.IndexByte(name, '_')
	if idx <= 0 {
		return name
	}
	for _, r := range name[:idx] {
		if r < '0' || r > '9' {
			return name
		}
	}
	return name[idx+1:]
}

// Stem extracts the logical stem of an input's base name, stripping the
// "NN_" download prefix and the extension.
func Stem(firstInputBase string) string {
	stripped := stripDownloadPrefix(firstInputBase)
	ext := filepath.Ext(stripped)
	return strings.TrimSuffix(stripped, ext)
}

// OutputName derives "{stem}_{suffix}.{ext}" for tool, given the first
// input's base filename and its extension (used when the rule keeps
// the input's extension). web-to-pdf is a fixed special case.
func OutputName(tool models.Tool, firstInputBase string) string {
	if tool == models.ToolWebToPDF {
		return "web_to_pdf.pdf"
	}
	rule, ok := suffixTable[tool]
	if !ok {
		rule = suffixRule{suffix: string(tool), ext: ""}
	}
	stem := Stem(firstInputBase)
	ext := rule.ext
	if ext == "" {
		ext = filepath.Ext(firstInputBase)
		if ext == "" {
			ext = ".pdf"
		}
	}
	return stem + "_" + rule.suffix + ext
}

// OutputPath joins OutputName onto the scratch "temp/" convention.
func OutputPath(tool models.Tool, firstInputBase string) string {
	return filepath.Join("temp", OutputName(tool, firstInputBase))
}
