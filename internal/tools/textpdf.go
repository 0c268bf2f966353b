package tools

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// writeTextPDF emits a minimal, single-page PDF containing text as
// left-aligned Helvetica body copy. It is the web-to-pdf fallback used
// when mutool is unavailable, and intentionally does not attempt
// pagination or layout fidelity: no library in the dependency set
// performs plain-text-to-PDF layout, so this is a deliberately small
// hand-rolled PDF writer rather than a partial reimplementation of one.
func writeTextPDF(text string, outPath string) error {
	const (
		pageWidth    = 612.0 // US Letter, points
		pageHeight   = 792.0
		marginLeft   = 50.0
		marginTop    = 740.0
		lineHeight   = 14.0
		fontSize     = 11
		charsPerLine = 95
	)

	lines := wrapText(text, charsPerLine)
	maxLines := int((marginTop - 40) / lineHeight)
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}

	var content bytes.Buffer
	fmt.Fprintf(&content, "BT /F1 %d Tf %v TL %v %v Td\n", fontSize, lineHeight, marginLeft, marginTop)
	for i, line := range lines {
		if i > 0 {
			content.WriteString("T*\n")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", escapePDFString(line))
	}
	content.WriteString("ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %v %v] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>", pageWidth, pageHeight),
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", len(objects)+1, xrefStart)

	return os.WriteFile(outPath, buf.Bytes(), 0o644)
}

func wrapText(text string, width int) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var current strings.Builder
		for _, w := range words {
			if current.Len()+len(w)+1 > width {
				lines = append(lines, current.String())
				current.Reset()
			}
			if current.Len() > 0 {
				current.WriteByte(' ')
			}
			current.WriteString(w)
		}
		if current.Len() > 0 {
			lines = append(lines, current.String())
		}
	}
	return lines
}

func escapePDFString(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return replacer.Replace(s)
}
