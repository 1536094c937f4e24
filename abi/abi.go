// Package abi mirrors the OpenASIO C binary interface (openasio.h) for
// pure-Go callers that never need to touch the cgo struct directly: the
// host wrapper's public API, config validation, and tests all work
// against these plain Go types rather than C.oa_stream_config.
//
// The authoritative layout lives in openasio.h; this file must be kept
// field-for-field in sync with it (struct_size, field order, widths).
package abi

// Version is the ABI version this module implements. Major bumps break
// binary compatibility; minor/patch are additive.
const (
	VersionMajor = 1
	VersionMinor = 0
	VersionPatch = 0
)

// Result is the fixed set of driver vtable return codes (§4.1).
type Result int32

const (
	OK               Result = 0
	ErrGeneric       Result = -1
	ErrUnsupported   Result = -2
	ErrInvalidArg    Result = -3
	ErrDevice        Result = -4
	ErrBackend       Result = -5
	ErrState         Result = -6
)

func (r Result) String() string {
	switch r {
	case OK:
		return "OK"
	case ErrGeneric:
		return "GENERIC"
	case ErrUnsupported:
		return "UNSUPPORTED"
	case ErrInvalidArg:
		return "INVALID_ARG"
	case ErrDevice:
		return "DEVICE"
	case ErrBackend:
		return "BACKEND"
	case ErrState:
		return "STATE"
	default:
		return "UNKNOWN"
	}
}

// Capability bits a driver advertises from get_caps.
type Caps uint32

const (
	CapOutput        Caps = 1 << 0
	CapInput         Caps = 1 << 1
	CapFullDuplex    Caps = 1 << 2
	CapSetSampleRate Caps = 1 << 3
	CapSetBufFrames  Caps = 1 << 4
)

func (c Caps) Has(bit Caps) bool { return c&bit != 0 }

// SampleFormat enumerates the sample encodings a stream may use.
type SampleFormat uint32

const (
	SampleF32 SampleFormat = 1
	SampleI16 SampleFormat = 2
)

// BufferLayout enumerates how multi-channel frames are laid out in
// memory for the process callback.
type BufferLayout uint32

const (
	BufInterleaved    BufferLayout = 1
	BufNonInterleaved BufferLayout = 2
)

// StreamConfig is the Go mirror of oa_stream_config: an immutable
// snapshot negotiated at start (§3 Data model).
type StreamConfig struct {
	SampleRate   uint32
	BufferFrames uint32
	InChannels   uint16
	OutChannels  uint16
	Format       SampleFormat
	Layout       BufferLayout
}

// TimeInfo is the Go mirror of oa_time_info: per-period telemetry.
type TimeInfo struct {
	HostTimeNS  uint64
	DeviceTimeNS uint64
	Underruns   uint32
	Overruns    uint32
}

// InBufLen returns the expected length, in samples, of the input
// staging buffer for this config (invariant 1 in §3).
func (c StreamConfig) InBufLen() int {
	ch := int(c.InChannels)
	if ch == 0 {
		ch = 1 // a single silent plane is still staged, never a zero-length slice
	}
	return int(c.BufferFrames) * ch
}

// OutBufLen returns the expected length, in samples, of the output
// staging buffer for this config.
func (c StreamConfig) OutBufLen() int {
	return int(c.BufferFrames) * int(c.OutChannels)
}
