package umc202hd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openasio/openasio-go/abi"
)

func validConfig() abi.StreamConfig {
	return abi.StreamConfig{
		SampleRate:   48000,
		BufferFrames: 128,
		InChannels:   2,
		OutChannels:  2,
		Format:       abi.SampleF32,
		Layout:       abi.BufInterleaved,
	}
}

func TestValidateConfig_AcceptsDefault(t *testing.T) {
	assert.NoError(t, validateConfig(validConfig()))
}

func TestValidateConfig_RejectsNonF32(t *testing.T) {
	cfg := validConfig()
	cfg.Format = abi.SampleI16
	assert.Error(t, validateConfig(cfg))
}

func TestValidateConfig_RejectsWrongOutputChannels(t *testing.T) {
	cfg := validConfig()
	cfg.OutChannels = 1
	assert.Error(t, validateConfig(cfg))
}

func TestValidateConfig_RejectsOddInputChannels(t *testing.T) {
	cfg := validConfig()
	cfg.InChannels = 1
	assert.Error(t, validateConfig(cfg))

	cfg.InChannels = 0
	assert.NoError(t, validateConfig(cfg))
}

func TestValidateConfig_RejectsUnsupportedRate(t *testing.T) {
	cfg := validConfig()
	cfg.SampleRate = 22050
	assert.Error(t, validateConfig(cfg))
}

func TestValidateConfig_AcceptsAllSupportedRates(t *testing.T) {
	for _, rate := range []uint32{44100, 48000, 88200, 96000, 176400, 192000} {
		cfg := validConfig()
		cfg.SampleRate = rate
		assert.NoError(t, validateConfig(cfg), "rate %d should be accepted", rate)
	}
}

func TestValidateConfig_RejectsZeroBufferFrames(t *testing.T) {
	cfg := validConfig()
	cfg.BufferFrames = 0
	assert.Error(t, validateConfig(cfg))
}

func TestDefaultConfig(t *testing.T) {
	d := New(Callbacks{})
	cfg := d.DefaultConfig()
	assert.Equal(t, uint32(48000), cfg.SampleRate)
	assert.Equal(t, uint32(128), cfg.BufferFrames)
	assert.Equal(t, uint16(2), cfg.InChannels)
	assert.Equal(t, uint16(2), cfg.OutChannels)
	assert.Equal(t, abi.SampleF32, cfg.Format)
}

func TestCaps_NoMutators(t *testing.T) {
	d := New(Callbacks{})
	caps := d.Caps()
	assert.True(t, caps.Has(abi.CapFullDuplex))
	assert.False(t, caps.Has(abi.CapSetSampleRate))
	assert.False(t, caps.Has(abi.CapSetBufFrames))
}
