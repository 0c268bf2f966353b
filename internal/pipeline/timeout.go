package pipeline

import (
	"math"
	"time"

	"zenpdf-worker/configs"
)

// computeTimeout implements the pipeline's subprocess timeout formula:
// an explicit override wins outright; otherwise a base term plus
// per-megabyte and per-page coefficients, capped at a ceiling.
func computeTimeout(cfg configs.CompressConfig, sizeMb float64, pages int) time.Duration {
	if cfg.TimeoutSeconds > 0 {
		return time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	computed := float64(cfg.TimeoutBaseSeconds) +
		sizeMb*cfg.TimeoutPerMBSeconds +
		float64(pages)*cfg.TimeoutPerPageSeconds
	capped := math.Min(float64(cfg.TimeoutMaxSeconds), computed)
	return time.Duration(capped) * time.Second
}

// probeTimeout bounds the Ghostscript probe run used to extrapolate
// whether a full run would fit inside the main timeout.
func probeTimeout(cfg configs.CompressConfig, fullTimeout time.Duration) time.Duration {
	quarter := 0.25 * fullTimeout.Seconds()
	bounded := math.Max(10, quarter)
	bounded = math.Min(float64(cfg.TimeoutProbeMaxSeconds), bounded)
	return time.Duration(bounded) * time.Second
}

// sizeMB rounds sizeBytes up to whole megabytes, minimum 1.
func sizeMB(sizeBytes int64) float64 {
	mb := math.Ceil(float64(sizeBytes) / (1024 * 1024))
	if mb < 1 {
		mb = 1
	}
	return mb
}
