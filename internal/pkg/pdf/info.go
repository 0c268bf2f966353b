package pdf

import (
	"errors"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrEncrypted is returned by Inspect when the source PDF requires a
// password the worker does not have.
var ErrEncrypted = errors.New("pdf is encrypted")

// Info summarizes a PDF's structure for the compression pipeline's
// preflight and validation steps.
type Info struct {
	Pages     int
	SizeBytes int64
}

// Inspect opens path and reports its page count and size. It returns
// ErrEncrypted for password-protected documents; any other open/parse
// failure is returned unwrapped so callers can decide whether it is
// fatal.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return Info{}, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		if isEncryptedErr(err) {
			return Info{}, ErrEncrypted
		}
		return Info{}, err
	}

	return Info{Pages: reader.NumPage(), SizeBytes: stat.Size()}, nil
}

func isEncryptedErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypt") || strings.Contains(msg, "password")
}

// FirstPageRenders reports whether path's first page can be opened and
// its plain text extracted without error — the cheapest render-style
// check available without shelling out to a rasterizer.
func FirstPageRenders(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return false
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil || reader.NumPage() < 1 {
		return false
	}
	p := reader.Page(1)
	if p.V.IsNull() {
		return false
	}
	_, err = p.GetPlainText(nil)
	return err == nil
}

// ImageDensity samples up to maxSamples evenly spaced pages and
// reports average images-per-page and text-characters-per-page, used
// by the compression pipeline's image-heavy classifier.
func ImageDensity(path string, maxSamples int) (imagesPerPage, textCharsPerPage float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return 0, 0, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return 0, 0, err
	}

	total := reader.NumPage()
	if total == 0 {
		return 0, 0, nil
	}
	if maxSamples <= 0 || maxSamples > total {
		maxSamples = total
	}

	step := total / maxSamples
	if step < 1 {
		step = 1
	}

	var images, chars, sampled int
	for i := 1; i <= total && sampled < maxSamples; i += step {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		sampled++
		if res := p.V.Key("Resources").Key("XObject"); !res.IsNull() {
			images += len(res.Keys())
		}
		if text, textErr := p.GetPlainText(nil); textErr == nil {
			chars += len(text)
		}
	}
	if sampled == 0 {
		return 0, 0, nil
	}
	return float64(images) / float64(sampled), float64(chars) / float64(sampled), nil
}
