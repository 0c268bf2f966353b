package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"zenpdf-worker/configs"
)

func testCompressConfig() configs.CompressConfig {
	return configs.CompressConfig{
		TimeoutBaseSeconds:     120,
		TimeoutPerMBSeconds:    3,
		TimeoutPerPageSeconds:  1.5,
		TimeoutMaxSeconds:      900,
		TimeoutProbeMaxSeconds: 30,
	}
}

func TestComputeTimeoutUsesOverrideWhenSet(t *testing.T) {
	cfg := testCompressConfig()
	cfg.TimeoutSeconds = 42
	got := computeTimeout(cfg, 10, 5)
	assert.Equal(t, 42*time.Second, got)
}

func TestComputeTimeoutAppliesFormula(t *testing.T) {
	cfg := testCompressConfig()
	got := computeTimeout(cfg, 10, 5)
	// 120 + 10*3 + 5*1.5 = 157.5 -> truncated to whole seconds by time.Duration math
	assert.Equal(t, time.Duration(157)*time.Second, got)
}

func TestComputeTimeoutCapsAtMax(t *testing.T) {
	cfg := testCompressConfig()
	cfg.TimeoutMaxSeconds = 100
	got := computeTimeout(cfg, 500, 500)
	assert.Equal(t, 100*time.Second, got)
}

func TestProbeTimeoutIsQuarterOfFullBoundedByFloorAndCeiling(t *testing.T) {
	cfg := testCompressConfig()

	got := probeTimeout(cfg, 40*time.Second)
	assert.Equal(t, 10*time.Second, got, "quarter of 40s is 10s, at the floor")

	got = probeTimeout(cfg, 8*time.Second)
	assert.Equal(t, 10*time.Second, got, "below the floor clamps up to 10s")

	cfg.TimeoutProbeMaxSeconds = 15
	got = probeTimeout(cfg, 200*time.Second)
	assert.Equal(t, 15*time.Second, got, "quarter of 200s exceeds the probe ceiling")
}

func TestSizeMBRoundsUpWithFloorOfOne(t *testing.T) {
	assert.Equal(t, 1.0, sizeMB(0))
	assert.Equal(t, 1.0, sizeMB(1024))
	assert.Equal(t, 2.0, sizeMB(1024*1024+1))
	assert.Equal(t, 5.0, sizeMB(5 * 1024 * 1024))
}
