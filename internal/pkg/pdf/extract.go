package pdf

import (
	"bytes"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	minTextLength = 100 // Minimum characters to consider PDF as text-based
)

func ExtractText(pdfPath string) (string, bool) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", false
	}
	defer f.Close()

	var buf bytes.Buffer
	fileInfo, err := f.Stat()
	if err != nil {
		return "", false
	}

	reader, err := pdf.NewReader(f, fileInfo.Size())
	if err != nil {
		return "", false
	}

	// Extract text from first 3 pages as a sample
	for i := 1; i <= 3 && i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
	}

	text := strings.TrimSpace(buf.String())
	return text, len(text) >= minTextLength
}

// ExtractPages returns the plain text of every page in path, in order.
// A page whose text cannot be extracted contributes an empty string
// rather than aborting the whole document.
func ExtractPages(pdfPath string) ([]string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	pages := make([]string, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i-1] = text
	}
	return pages, nil
}
