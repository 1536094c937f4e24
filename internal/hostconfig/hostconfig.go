// Package hostconfig loads the YAML configuration that drives cmd/oahost,
// in the same spirit as src/deviceid.go's tocalls.yaml loader: read the
// whole file, yaml.Unmarshal into a plain struct, fall back to documented
// defaults on a missing file rather than failing startup.
package hostconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/openasio/openasio-go/abi"
)

// Config is the on-disk shape of an oahost configuration file.
type Config struct {
	// DriverPath is the shared library to dlopen, e.g.
	// "./libopenasio_alsa.so".
	DriverPath string `yaml:"driver_path"`

	// Device is passed to open_device; empty opens the driver's default
	// device.
	Device string `yaml:"device"`

	SampleRate   uint32 `yaml:"sample_rate"`
	BufferFrames uint32 `yaml:"buffer_frames"`
	InChannels   uint16 `yaml:"in_channels"`
	OutChannels  uint16 `yaml:"out_channels"`

	// Format is "f32" or "i16"; see abi.SampleFormat.
	Format string `yaml:"format"`

	// Layout is "interleaved" or "planar"; see abi.BufferLayout.
	Layout string `yaml:"layout"`
}

// Default returns the configuration oahost falls back to when no file is
// given: a 48kHz/256-frame full-duplex stereo F32 interleaved request.
func Default() Config {
	return Config{
		Device:       "",
		SampleRate:   48000,
		BufferFrames: 256,
		InChannels:   2,
		OutChannels:  2,
		Format:       "f32",
		Layout:       "interleaved",
	}
}

// Load reads and parses a YAML config file. A missing path is not an
// error: Default() is returned unchanged, mirroring deviceid_init's
// "file absent -> carry on without it" behavior.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("hostconfig: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("hostconfig: parse %s: %w", path, err)
	}
	return cfg, nil
}

// StreamConfig translates the YAML fields into the ABI struct a start
// call expects.
func (c Config) StreamConfig() (abi.StreamConfig, error) {
	var format abi.SampleFormat
	switch c.Format {
	case "", "f32":
		format = abi.SampleF32
	case "i16":
		format = abi.SampleI16
	default:
		return abi.StreamConfig{}, fmt.Errorf("hostconfig: unknown format %q", c.Format)
	}

	var layout abi.BufferLayout
	switch c.Layout {
	case "", "interleaved":
		layout = abi.BufInterleaved
	case "planar", "non-interleaved":
		layout = abi.BufNonInterleaved
	default:
		return abi.StreamConfig{}, fmt.Errorf("hostconfig: unknown layout %q", c.Layout)
	}

	return abi.StreamConfig{
		SampleRate:   c.SampleRate,
		BufferFrames: c.BufferFrames,
		InChannels:   c.InChannels,
		OutChannels:  c.OutChannels,
		Format:       format,
		Layout:       layout,
	}, nil
}
