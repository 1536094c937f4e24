package hostconfig

import "github.com/spf13/pflag"

// Flags mirrors cmd/direwolf/main.go's pflag.*P declarations: one
// StringP/IntP per overridable setting, parsed once by the caller.
type Flags struct {
	ConfigFile   *string
	DriverPath   *string
	Device       *string
	SampleRate   *int
	BufferFrames *int
	InChannels   *int
	OutChannels  *int
	Format       *string
	Layout       *string
}

// RegisterFlags declares the oahost command-line flags on fs (normally
// pflag.CommandLine) without parsing them.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	return &Flags{
		ConfigFile:   fs.StringP("config-file", "c", "", "YAML config file path."),
		DriverPath:   fs.StringP("driver", "d", "", "Path to the driver shared library (overrides config)."),
		Device:       fs.StringP("device", "D", "", "Device name to open (overrides config; empty means default)."),
		SampleRate:   fs.IntP("sample-rate", "r", 0, "Requested sample rate in Hz. 0 keeps the config value."),
		BufferFrames: fs.IntP("buffer-frames", "b", 0, "Requested buffer size in frames. 0 keeps the config value."),
		InChannels:   fs.IntP("in-channels", "i", -1, "Input channel count. -1 keeps the config value."),
		OutChannels:  fs.IntP("out-channels", "o", -1, "Output channel count. -1 keeps the config value."),
		Format:       fs.StringP("format", "f", "", "Sample format: f32 or i16 (overrides config)."),
		Layout:       fs.StringP("layout", "l", "", "Buffer layout: interleaved or planar (overrides config)."),
	}
}

// Apply overlays any explicitly-set flags onto cfg and returns the result.
func (f *Flags) Apply(cfg Config) Config {
	if f.DriverPath != nil && *f.DriverPath != "" {
		cfg.DriverPath = *f.DriverPath
	}
	if f.Device != nil && *f.Device != "" {
		cfg.Device = *f.Device
	}
	if f.SampleRate != nil && *f.SampleRate > 0 {
		cfg.SampleRate = uint32(*f.SampleRate)
	}
	if f.BufferFrames != nil && *f.BufferFrames > 0 {
		cfg.BufferFrames = uint32(*f.BufferFrames)
	}
	if f.InChannels != nil && *f.InChannels >= 0 {
		cfg.InChannels = uint16(*f.InChannels)
	}
	if f.OutChannels != nil && *f.OutChannels >= 0 {
		cfg.OutChannels = uint16(*f.OutChannels)
	}
	if f.Format != nil && *f.Format != "" {
		cfg.Format = *f.Format
	}
	if f.Layout != nil && *f.Layout != "" {
		cfg.Layout = *f.Layout
	}
	return cfg
}
