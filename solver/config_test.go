package solver

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigValidates(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadCoolingRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CoolingRate = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadLatitude(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Latitude = 200
	assert.Error(t, cfg.Validate())
}

func TestSaveAndLoadConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 99

	var buf bytes.Buffer
	assert.NoError(t, cfg.SaveConfigToWriter(&buf))

	loaded, err := LoadConfigFromReader(&buf)
	assert.NoError(t, err)
	assert.Equal(t, int64(99), loaded.Seed)
	assert.Equal(t, cfg.GridStep, loaded.GridStep)
}
