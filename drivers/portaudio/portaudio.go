// Package portaudio is a callback-model OpenASIO backend against
// github.com/gordonklaus/portaudio, grounded on
// original_source/crates/openasio-driver-cpal/src/lib.rs: two
// independent streams (input-only and output-only), latest-wins
// staging of captured audio via a monotonic sequence counter, and the
// output stream's own callback driving the host process invocation
// (§4.4).
//
// Unlike drivers/alsa, this backend never spawns its own RT worker --
// PortAudio's own audio thread calls outputCallback, which *is* the RT
// thread for this stream (§4.4, "the backend's own RT thread is the one
// that calls process").
package portaudio

import (
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	pa "github.com/gordonklaus/portaudio"

	"github.com/openasio/openasio-go/abi"
	"github.com/openasio/openasio-go/internal/driverkit"
	"github.com/openasio/openasio-go/internal/logx"
	"github.com/openasio/openasio-go/internal/oaerr"
	"github.com/openasio/openasio-go/internal/udevenum"
)

var log = logx.For("portaudio")

// ProcessFunc dispatches one period to the host; supplied by
// cmd/openasio-portaudio, which owns the raw host_user/callback
// pointers recovered from oa_create_params.
type ProcessFunc func(in, out unsafe.Pointer, frames uint32, ti abi.TimeInfo, cfg abi.StreamConfig) bool

type Callbacks struct {
	Process        ProcessFunc
	LatencyChanged func(inLatency, outLatency uint32)
	ResetRequest   func()
}

// Driver holds the two independent PortAudio streams plus the staging
// state that glues them into one full-duplex OpenASIO stream.
type Driver struct {
	lifecycle driverkit.Lifecycle
	counters  driverkit.RTCounters
	cb        Callbacks

	outDevice, inDevice *pa.DeviceInfo
	outStream, inStream *pa.Stream

	cfg   abi.StreamConfig
	time0 time.Time

	// inBuf is the latest captured block, interleaved F32, written by
	// the input stream's own callback and read by the output stream's
	// callback with no lock -- the accepted latest-wins behavior of
	// §9's "Callback-model full-duplex" design note.
	inBuf *driverkit.FloatBuffer
	inSeq atomic.Uint64

	// Non-interleaved staging, built once at Start (invariant 2, §3).
	inScratch, outScratch *driverkit.FloatBuffer
	inPlanes, outPlanes   *driverkit.PlaneTable
}

func New(cb Callbacks) *Driver {
	return &Driver{cb: cb}
}

// Caps: PortAudio negotiates sample rate per-stream but this backend
// does not expose a sample-rate/period mutator post open (§4.4, "driver
// does not enforce period size in this mode").
func (d *Driver) Caps() abi.Caps {
	return abi.CapOutput | abi.CapInput | abi.CapFullDuplex
}

// QueryDevices lists PortAudio output-capable device names (§4.5),
// mirroring the cpal driver's query_devices which only enumerates
// output_devices().
func (d *Driver) QueryDevices() []string {
	if err := pa.Initialize(); err != nil {
		log.Warn("portaudio initialize failed", "err", err)
		return nil
	}
	devices, err := pa.Devices()
	if err != nil {
		log.Warn("portaudio device enumeration failed", "err", err)
		return nil
	}
	var names []string
	for _, dev := range devices {
		if dev.MaxOutputChannels > 0 {
			names = append(names, dev.Name)
		}
	}
	return names
}

// OpenDevice resolves name (empty = system default) to an output
// device, then finds an input device sharing that name or falls back to
// the system default input -- the same resolution order as
// openasio-driver-cpal's open_device.
func (d *Driver) OpenDevice(name string) error {
	if err := pa.Initialize(); err != nil {
		return oaerr.Wrap("open_device", abi.ErrBackend, err)
	}
	devices, err := pa.Devices()
	if err != nil {
		return oaerr.WrapDevice("open_device", name, abi.ErrDevice, err)
	}

	var out *pa.DeviceInfo
	if name == "" {
		out, err = pa.DefaultOutputDevice()
		if err != nil {
			return oaerr.Wrap("open_device", abi.ErrDevice, err)
		}
	} else {
		for _, dev := range devices {
			if dev.MaxOutputChannels > 0 && udevenum.MatchByNeedle(dev.Name, name) {
				out = dev
				break
			}
		}
		if out == nil {
			return oaerr.WrapDevice("open_device", name, abi.ErrDevice, fmt.Errorf("no matching output device"))
		}
	}

	var in *pa.DeviceInfo
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 && dev.Name == out.Name {
			in = dev
			break
		}
	}
	if in == nil {
		in, _ = pa.DefaultInputDevice()
	}

	d.outDevice, d.inDevice = out, in
	return d.lifecycle.Transition(func(_ driverkit.State) (driverkit.State, error) {
		return driverkit.Opened, nil
	})
}

// CloseDevice stops any running stream and releases device references.
func (d *Driver) CloseDevice() error {
	if err := d.Stop(); err != nil {
		return err
	}
	d.outDevice, d.inDevice = nil, nil
	return d.lifecycle.Transition(func(_ driverkit.State) (driverkit.State, error) {
		return driverkit.Unopened, nil
	})
}

// DefaultConfig consults the opened output device's default sample
// rate, capped channel counts at 2, F32 interleaved (§4.5).
func (d *Driver) DefaultConfig() (abi.StreamConfig, error) {
	if d.outDevice == nil {
		return abi.StreamConfig{}, oaerr.Wrap("get_default_config", abi.ErrDevice, fmt.Errorf("no device opened"))
	}
	inCh := 0
	if d.inDevice != nil {
		inCh = d.inDevice.MaxInputChannels
		if inCh > 2 {
			inCh = 2
		}
	}
	outCh := d.outDevice.MaxOutputChannels
	if outCh > 2 {
		outCh = 2
	}
	return abi.StreamConfig{
		SampleRate:   uint32(d.outDevice.DefaultSampleRate),
		BufferFrames: 256,
		InChannels:   uint16(inCh),
		OutChannels:  uint16(outCh),
		Format:       abi.SampleF32,
		Layout:       abi.BufInterleaved,
	}, nil
}

// Latency reports PortAudio's self-measured stream latency in frames.
func (d *Driver) Latency() (in, out uint32, err error) {
	if d.inStream != nil {
		info := d.inStream.Info()
		in = uint32(info.InputLatency.Seconds() * float64(d.cfg.SampleRate))
	}
	if d.outStream != nil {
		info := d.outStream.Info()
		out = uint32(info.OutputLatency.Seconds() * float64(d.cfg.SampleRate))
	}
	return in, out, nil
}

// SetSampleRate and SetBufferFrames are unsupported: PortAudio streams
// are opened with a fixed negotiated rate/period and this backend does
// not reopen them outside of Start (§4.1, "a driver must set any
// unsupported mutator to the UNSUPPORTED stub").
func (d *Driver) SetSampleRate(uint32) error {
	return oaerr.Wrap("set_sample_rate", abi.ErrUnsupported, fmt.Errorf("not supported by this backend"))
}

func (d *Driver) SetBufferFrames(uint32) error {
	return oaerr.Wrap("set_buffer_frames", abi.ErrUnsupported, fmt.Errorf("not supported by this backend"))
}
