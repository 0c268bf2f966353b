package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"zenpdf-worker/internal/models"
)

func TestStemStripsDownloadPrefixAndExtension(t *testing.T) {
	assert.Equal(t, "report", Stem("01_report.pdf"))
	assert.Equal(t, "no-prefix", Stem("no-prefix.pdf"))
}

func TestOutputNameCompress(t *testing.T) {
	assert.Equal(t, "report_compressed.pdf", OutputName(models.ToolCompress, "01_report.pdf"))
}

func TestOutputNamePDFToText(t *testing.T) {
	assert.Equal(t, "report_text.txt", OutputName(models.ToolPDFToText, "01_report.pdf"))
}

func TestOutputNameWebToPDF(t *testing.T) {
	assert.Equal(t, "web_to_pdf.pdf", OutputName(models.ToolWebToPDF, "01_anything.html"))
}

func TestOutputNameMissingExtensionDefaultsToPDF(t *testing.T) {
	assert.Equal(t, "report_merged.pdf", OutputName(models.ToolMerge, "01_report"))
}
