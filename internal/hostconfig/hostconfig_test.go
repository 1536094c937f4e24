package hostconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openasio/openasio-go/abi"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oahost.yaml")
	const body = `
driver_path: ./libopenasio_alsa.so
device: "hw:1,0"
sample_rate: 44100
buffer_frames: 128
in_channels: 1
out_channels: 1
format: i16
layout: planar
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./libopenasio_alsa.so", cfg.DriverPath)
	assert.Equal(t, "hw:1,0", cfg.Device)
	assert.EqualValues(t, 44100, cfg.SampleRate)

	sc, err := cfg.StreamConfig()
	require.NoError(t, err)
	assert.Equal(t, abi.SampleI16, sc.Format)
	assert.Equal(t, abi.BufNonInterleaved, sc.Layout)
}

func TestStreamConfig_RejectsUnknownFormat(t *testing.T) {
	cfg := Default()
	cfg.Format = "bogus"
	_, err := cfg.StreamConfig()
	assert.Error(t, err)
}
