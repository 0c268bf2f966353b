package tools

import (
	"fmt"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"zenpdf-worker/internal/pkg/pdf"
)

// Compare extracts text per page from both inputs and writes a
// unified per-page diff report to outTxt.
func (o *Ops) Compare(inA, inB, outTxt string) error {
	pagesA, err := pdf.ExtractPages(inA)
	if err != nil {
		return err
	}
	pagesB, err := pdf.ExtractPages(inB)
	if err != nil {
		return err
	}

	var report strings.Builder
	total := max(len(pagesA), len(pagesB))
	for i := 0; i < total; i++ {
		var a, b string
		if i < len(pagesA) {
			a = pagesA[i]
		}
		if i < len(pagesB) {
			b = pagesB[i]
		}
		if a == b {
			continue
		}
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(a),
			B:        difflib.SplitLines(b),
			FromFile: "a",
			ToFile:   "b",
			Context:  2,
		}
		text, err := difflib.GetUnifiedDiffString(diff)
		if err != nil {
			return err
		}
		fmt.Fprintf(&report, "--- page %d ---\n%s\n", i+1, text)
	}

	if report.Len() == 0 {
		report.WriteString("documents are identical\n")
	}
	return os.WriteFile(outTxt, []byte(report.String()), 0o644)
}
