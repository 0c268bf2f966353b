package tools

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"zenpdf-worker/internal/pkg/pdf"
	"zenpdf-worker/internal/pkg/toolrunner"
	"zenpdf-worker/internal/pkg/workererr"
)

// PDFToJPG rasterizes in at dpi and zips the resulting pages into out.
func (o *Ops) PDFToJPG(ctx context.Context, in string, dpi int, scratchDir, out string) error {
	images, err := pdf.RasterizeToJPEGs(ctx, o.Runner, in, dpi, scratchDir)
	if err != nil {
		return err
	}
	return ZipPaths(images, out)
}

// WebToPDF fetches url, then converts the fetched body to out via
// mutool convert when available, or a minimal text-dump PDF when it
// is not.
func (o *Ops) WebToPDF(ctx context.Context, url, scratchDir, out string) error {
	if o.Fetcher == nil {
		return workererr.User("web fetching is not configured")
	}
	body, err := o.Fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}

	htmlPath := filepath.Join(scratchDir, "fetched.html")
	if err := os.WriteFile(htmlPath, []byte(body), 0o644); err != nil {
		return err
	}

	if toolrunner.Available("mutool") {
		res := o.Runner.Run(ctx, 30*time.Second, nil, "mutool", "convert", "-o", out, htmlPath)
		if res.OK {
			return nil
		}
	}
	return writeTextPDF(stripHTML(body), out)
}

// OfficeToPDF shells out to soffice in headless mode. Missing soffice
// is an environment failure, not a user error: the job's input is not
// at fault.
func (o *Ops) OfficeToPDF(ctx context.Context, in, scratchDir, out string) error {
	if !toolrunner.Available("soffice") {
		return fmt.Errorf("soffice is not installed on this worker")
	}
	res := o.Runner.Run(ctx, 90*time.Second, nil, "soffice",
		"--headless", "--convert-to", "pdf", "--outdir", scratchDir, in)
	if !res.OK {
		return fmt.Errorf("soffice conversion failed: %s", res.Stderr)
	}
	converted := filepath.Join(scratchDir, strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))+".pdf")
	return os.Rename(converted, out)
}

const pdfaMinGSVersion = "10.3.1"

// PDFA converts in to a PDF/A-2b document via Ghostscript, rejecting
// encrypted input and requiring a Ghostscript new enough to support
// the PDFA device flags.
func (o *Ops) PDFA(ctx context.Context, in, out string) error {
	if _, err := pdf.Inspect(in); err != nil {
		return err
	}
	if !toolrunner.Available("gs") {
		return fmt.Errorf("ghostscript is not installed on this worker")
	}
	if ok, version := gsVersionAtLeast(ctx, o.Runner, pdfaMinGSVersion); !ok {
		return fmt.Errorf("ghostscript %s or newer is required for PDF/A, found %s", pdfaMinGSVersion, version)
	}

	res := o.Runner.Run(ctx, 120*time.Second, nil, "gs",
		"-dPDFA", "-dBATCH", "-dNOPAUSE",
		"-sProcessColorModel=DeviceRGB", "-sDEVICE=pdfwrite",
		"-dPDFACompatibilityPolicy=1", fmt.Sprintf("-sOutputFile=%s", out), in)
	if !res.OK {
		return fmt.Errorf("ghostscript PDF/A conversion failed: %s", res.Stderr)
	}
	return nil
}

func gsVersionAtLeast(ctx context.Context, runner *toolrunner.Runner, floor string) (bool, string) {
	res := runner.Run(ctx, 10*time.Second, nil, "gs", "--version")
	version := strings.TrimSpace(res.Stdout)
	if !res.OK || version == "" {
		return false, version
	}
	return compareVersions(version, floor) >= 0, version
}

// compareVersions compares dotted numeric versions; it returns a
// negative, zero, or positive number as a < b, a == b, or a > b.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var an, bn int
		if i < len(as) {
			an, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bn, _ = strconv.Atoi(bs[i])
		}
		if an != bn {
			return an - bn
		}
	}
	return 0
}

// ZipPaths writes each of paths into a new zip archive at out, named
// by each path's base name. Used for tools whose result is a set of
// files rather than a single output.
func ZipPaths(paths []string, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	w := zip.NewWriter(f)
	defer w.Close()

	for _, p := range paths {
		entry, err := w.Create(filepath.Base(p))
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if _, err := entry.Write(data); err != nil {
			return err
		}
	}
	return nil
}

func stripHTML(body string) string {
	var out strings.Builder
	inTag := false
	for _, r := range body {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			out.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(out.String()), " ")
}
