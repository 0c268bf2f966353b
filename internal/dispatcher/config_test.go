package dispatcher

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRoundTripsJSONCompatibleTypes(t *testing.T) {
	var cfg RotateConfig
	err := decode(map[string]interface{}{"angle": 180.0, "pages": "1-3"}, &cfg)
	require.NoError(t, err)
	assert.Equal(t, 180, cfg.Angle)
	assert.Equal(t, "1-3", cfg.Pages)
}

func TestDecodeRejectsIncompatibleShape(t *testing.T) {
	var cfg RotateConfig
	err := decode(map[string]interface{}{"angle": "not-a-number"}, &cfg)
	assert.Error(t, err)
}

func TestValidateStructRejectsBadOneof(t *testing.T) {
	v := validator.New()
	err := validateStruct(v, RotateConfig{Angle: 45})
	assert.Error(t, err)
}

func TestValidateStructAcceptsZeroAngle(t *testing.T) {
	v := validator.New()
	err := validateStruct(v, RotateConfig{Angle: 0})
	assert.NoError(t, err)
}

func TestValidateStructRejectsMissingRequiredText(t *testing.T) {
	v := validator.New()
	err := validateStruct(v, WatermarkConfig{Text: ""})
	assert.Error(t, err)
}

func TestValidateStructRejectsMalformedURL(t *testing.T) {
	v := validator.New()
	err := validateStruct(v, WebToPDFConfig{URL: "not a url"})
	assert.Error(t, err)
}

func TestClampDPIDefaultsAndBounds(t *testing.T) {
	assert.Equal(t, 150, clampDPI(0))
	assert.Equal(t, 72, clampDPI(10))
	assert.Equal(t, 300, clampDPI(1000))
	assert.Equal(t, 200, clampDPI(200))
}

func TestDefaultAngleFallsBackTo90(t *testing.T) {
	assert.Equal(t, 90, defaultAngle(0))
	assert.Equal(t, 270, defaultAngle(270))
}
