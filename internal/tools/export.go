package tools

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"zenpdf-worker/internal/pkg/pdf"
	"zenpdf-worker/internal/pkg/toolrunner"
)

// PDFToText extracts every page's plain text into a single UTF-8 file.
func (o *Ops) PDFToText(in, out string) error {
	pages, err := pdf.ExtractPages(in)
	if err != nil {
		return err
	}
	return os.WriteFile(out, []byte(strings.Join(pages, "\n\f\n")), 0o644)
}

// extractPages returns per-page text, rasterizing through tesseract
// when ocr is requested (for scanned documents with no text layer).
func (o *Ops) extractPages(ctx context.Context, in, scratchDir string, ocr bool) ([]string, error) {
	if !ocr {
		return pdf.ExtractPages(in)
	}
	if !toolrunner.Available("tesseract") {
		return nil, fmt.Errorf("tesseract is not installed on this worker")
	}
	images, err := pdf.RasterizeToJPEGs(ctx, o.Runner, in, 300, scratchDir)
	if err != nil {
		return nil, err
	}

	pages := make([]string, len(images))
	for i, img := range images {
		outBase := img + "_ocr"
		res := o.Runner.Run(ctx, 60*time.Second, nil, "tesseract", img, outBase)
		if !res.OK {
			continue
		}
		text, readErr := os.ReadFile(outBase + ".txt")
		if readErr == nil {
			pages[i] = string(text)
		}
	}
	return pages, nil
}

// PDFToWord writes a minimal valid DOCX: one paragraph per extracted
// line, not a fidelity-preserving conversion.
func (o *Ops) PDFToWord(ctx context.Context, in, scratchDir, out string, ocr bool) error {
	pages, err := o.extractPages(ctx, in, scratchDir, ocr)
	if err != nil {
		return err
	}
	return writeMinimalDOCX(strings.Join(pages, "\n\n"), out)
}

// PDFToExcel writes a minimal valid XLSX with one row per extracted
// line of text.
func (o *Ops) PDFToExcel(ctx context.Context, in, scratchDir, out string, ocr bool) error {
	pages, err := o.extractPages(ctx, in, scratchDir, ocr)
	if err != nil {
		return err
	}
	var rows []string
	for _, page := range pages {
		rows = append(rows, strings.Split(page, "\n")...)
	}
	return writeMinimalXLSX(rows, out)
}

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

func writeMinimalDOCX(text string, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := zip.NewWriter(f)
	defer w.Close()

	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, line := range strings.Split(text, "\n") {
		body.WriteString("<w:p><w:r><w:t xml:space=\"preserve\">")
		body.WriteString(xmlEscape(line))
		body.WriteString("</w:t></w:r></w:p>")
	}
	body.WriteString(`</w:body></w:document>`)

	files := map[string]string{
		"[Content_Types].xml": docxContentTypes,
		"_rels/.rels":         docxRels,
		"word/document.xml":   body.String(),
	}
	return writeZipEntries(w, files)
}

func writeMinimalXLSX(rows []string, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := zip.NewWriter(f)
	defer w.Close()

	var sheet strings.Builder
	sheet.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	sheet.WriteString(`<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>`)
	for i, row := range rows {
		fmt.Fprintf(&sheet, `<row r="%d"><c t="inlineStr"><is><t>%s</t></is></c></row>`, i+1, xmlEscape(row))
	}
	sheet.WriteString(`</sheetData></worksheet>`)

	workbook := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Sheet1" sheetId="1" r:id="rId1"/></sheets></workbook>`

	workbookRels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
</Relationships>`

	contentTypes := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>
<Override PartName="/xl/worksheets/sheet1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>
</Types>`

	rootRels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/>
</Relationships>`

	files := map[string]string{
		"[Content_Types].xml":      contentTypes,
		"_rels/.rels":              rootRels,
		"xl/workbook.xml":          workbook,
		"xl/_rels/workbook.xml.rels": workbookRels,
		"xl/worksheets/sheet1.xml": sheet.String(),
	}
	return writeZipEntries(w, files)
}

func writeZipEntries(w *zip.Writer, files map[string]string) error {
	for name, content := range files {
		entry, err := w.Create(name)
		if err != nil {
			return err
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			return err
		}
	}
	return nil
}

func xmlEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}
