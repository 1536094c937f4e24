package alsa

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openasio/openasio-go/abi"
)

func TestMax16(t *testing.T) {
	assert.Equal(t, uint16(2), max16(0, 2))
	assert.Equal(t, uint16(3), max16(3, 1))
	assert.Equal(t, uint16(1), max16(0, 1))
}

func TestZeroTail(t *testing.T) {
	buf := []float32{1, 2, 3, 4, 5, 6}
	zeroTail(buf, 3)
	assert.Equal(t, []float32{1, 2, 3, 0, 0, 0}, buf)
}

func TestClearFloats(t *testing.T) {
	buf := []float32{1, 2, 3}
	clearFloats(buf)
	assert.Equal(t, []float32{0, 0, 0}, buf)
}

func TestDefaultConfig(t *testing.T) {
	d := New(Callbacks{})
	cfg := d.DefaultConfig()
	assert.Equal(t, uint32(48000), cfg.SampleRate)
	assert.EqualValues(t, 2, cfg.InChannels)
	assert.EqualValues(t, 2, cfg.OutChannels)
}

func TestCapsIncludesFullDuplex(t *testing.T) {
	d := New(Callbacks{})
	assert.True(t, d.Caps().Has(abi.CapFullDuplex))
}
