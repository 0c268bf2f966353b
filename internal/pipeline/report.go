// Package pipeline implements the staged PDF compression algorithm:
// candidate generation across several external tools, parallel heavy
// stages, validation, smallest-valid-candidate selection, a savings
// threshold with passthrough fallback, and a determinism pass.
package pipeline

import (
	"zenpdf-worker/internal/models"
)

// ImageMetrics summarizes the image-density sample used for the
// image-heavy classification.
type ImageMetrics struct {
	ImagesPerPage   float64 `json:"imagesPerPage"`
	TextCharsPerPage float64 `json:"textCharsPerPage"`
	ImageHeavy      bool    `json:"imageHeavy"`
}

// Report is the full result of one compression run.
type Report struct {
	Status          string                `json:"status"` // success | no_change
	Method          models.CandidateMethod `json:"method"`
	Profile         string                `json:"profile"`
	OriginalBytes   int64                 `json:"originalBytes"`
	OutputBytes     int64                 `json:"outputBytes"`
	SavingsBytes    int64                 `json:"savingsBytes"`
	SavingsPercent  float64               `json:"savingsPercent"`
	Steps           []models.StepRecord   `json:"steps"`
	Warnings        []string              `json:"warnings,omitempty"`
	ImageMetrics    ImageMetrics          `json:"imageMetrics"`
}

func (r *Report) addStep(step models.StepRecord) {
	r.Steps = append(r.Steps, step)
}

func (r *Report) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
