// Package dispatcher routes a leased job to the concrete operation
// that implements its tool, after decoding and validating the job's
// per-tool configuration.
package dispatcher

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"zenpdf-worker/internal/pkg/workererr"
)

// decode re-marshals the job's generic config map into a typed struct
// via a JSON round trip, the simplest way to turn
// map[string]interface{} into a validator-tagged struct without a
// bespoke per-field switch.
func decode(raw map[string]interface{}, out interface{}) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return workererr.Userf("invalid job config: %v", err)
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return workererr.Userf("invalid job config: %v", err)
	}
	return nil
}

func validateStruct(v *validator.Validate, s interface{}) error {
	if err := v.Struct(s); err != nil {
		return workererr.Userf("invalid job config: %v", err)
	}
	return nil
}

// RotateConfig is required config for the rotate tool.
type RotateConfig struct {
	Angle int    `json:"angle" validate:"omitempty,oneof=90 180 270"`
	Pages string `json:"pages"`
}

// RemovePagesConfig is required config for the remove-pages tool.
type RemovePagesConfig struct {
	Pages string `json:"pages"`
}

// ReorderPagesConfig is required config for the reorder-pages tool.
type ReorderPagesConfig struct {
	Order string `json:"order"`
}

// WatermarkConfig is required config for the watermark tool.
type WatermarkConfig struct {
	Text  string `json:"text" validate:"required"`
	Pages string `json:"pages"`
}

// PageNumbersConfig is required config for the page-numbers tool.
type PageNumbersConfig struct {
	Start int    `json:"start"`
	Pages string `json:"pages"`
}

// CropConfig is required config for the crop tool.
type CropConfig struct {
	Margins string `json:"margins" validate:"required"`
	Pages   string `json:"pages"`
}

// TextSearchConfig is required config for redact and highlight.
type TextSearchConfig struct {
	Text  string `json:"text" validate:"required"`
	Pages string `json:"pages"`
}

// PasswordConfig is required config for unlock and protect.
type PasswordConfig struct {
	Password string `json:"password" validate:"required"`
}

// WebToPDFConfig is required config for web-to-pdf.
type WebToPDFConfig struct {
	URL string `json:"url" validate:"required,url"`
}

// SplitConfig is required config for split.
type SplitConfig struct {
	Ranges string `json:"ranges"`
}

// PDFToJPGConfig is required config for pdf-to-jpg.
type PDFToJPGConfig struct {
	DPI int `json:"dpi"`
}

func clampDPI(dpi int) int {
	const (
		defaultDPI = 150
		minDPI     = 72
		maxDPI     = 300
	)
	if dpi == 0 {
		return defaultDPI
	}
	if dpi < minDPI {
		return minDPI
	}
	if dpi > maxDPI {
		return maxDPI
	}
	return dpi
}

func defaultAngle(angle int) int {
	if angle == 0 {
		return 90
	}
	return angle
}
