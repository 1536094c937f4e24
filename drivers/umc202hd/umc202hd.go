// Package umc202hd is a hardware-specialized OpenASIO backend for the
// Behringer UMC202HD USB audio interface, grounded on
// original_source/crates/openasio-driver-umc202hd/src/lib.rs: the same
// ALSA pull-model transport as drivers/alsa, but negotiating the
// device's native S32_LE hardware format and converting to/from F32 at
// the ABI boundary (§4.3 steps 2 and 8), behind a fixed per-device
// compatibility matrix (§4.5 "hardware-specialized drivers enforce a
// compatibility matrix").
package umc202hd

/*
#cgo pkg-config: alsa
#include <alsa/asoundlib.h>
#include <errno.h>
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/openasio/openasio-go/abi"
	"github.com/openasio/openasio-go/internal/driverkit"
	"github.com/openasio/openasio-go/internal/logx"
	"github.com/openasio/openasio-go/internal/oaerr"
	"github.com/openasio/openasio-go/internal/udevenum"
)

var log = logx.For("umc202hd")

// supportedSampleRates mirrors the original driver's SUPPORTED_SAMPLE_RATES.
var supportedSampleRates = map[uint32]bool{
	44100: true, 48000: true, 88200: true, 96000: true, 176400: true, 192000: true,
}

type ProcessFunc func(in, out unsafe.Pointer, frames uint32, ti abi.TimeInfo, cfg abi.StreamConfig) bool

type Callbacks struct {
	Process        ProcessFunc
	LatencyChanged func(inLatency, outLatency uint32)
	ResetRequest   func()
}

// Driver wraps the same ALSA PCM mechanics as drivers/alsa, but stages
// hardware-format int32 buffers in addition to the F32 buffers crossing
// the ABI, converting between them once per period (§3 Data model).
type Driver struct {
	lifecycle driverkit.Lifecycle
	counters  driverkit.RTCounters
	worker    driverkit.Worker

	cb     Callbacks
	device string

	capture, playback *C.snd_pcm_t

	cfg   abi.StreamConfig
	time0 time.Time

	inHW, outHW         *driverkit.Int32Buffer
	inBuf, outBuf       *driverkit.FloatBuffer
	writeBuf, inScratch *driverkit.FloatBuffer
	inPlanes, outPlanes *driverkit.PlaneTable
}

func New(cb Callbacks) *Driver {
	return &Driver{cb: cb}
}

// Caps: unlike drivers/alsa, this backend's hw_params are constrained to
// a fixed matrix, so SET_SAMPLERATE/SET_BUFFRAMES are not advertised
// (§4.5).
func (d *Driver) Caps() abi.Caps {
	return abi.CapOutput | abi.CapInput | abi.CapFullDuplex
}

// QueryDevices returns the entries of udevenum.Sound() ("default" plus
// numeric hw:C,D identifiers) that contain "umc202hd"
// (case/space-insensitive), falling back to "hw:UMC202HD" when none do
// (mirrors enumerate_umc202hd_devices). Card names and descriptions are
// not consulted.
func (d *Driver) QueryDevices() []string {
	return udevenum.MatchUMC202HD(udevenum.Sound())
}

func defaultDeviceName() string {
	names := udevenum.MatchUMC202HD(udevenum.Sound())
	if len(names) == 0 {
		return "hw:UMC202HD"
	}
	return names[0]
}

// OpenDevice resolves name (empty = the first matching UMC202HD hint)
// and transitions to Opened; handle acquisition is deferred to Start.
func (d *Driver) OpenDevice(name string) error {
	if name == "" {
		name = defaultDeviceName()
	}
	return d.lifecycle.Transition(func(_ driverkit.State) (driverkit.State, error) {
		d.device = name
		return driverkit.Opened, nil
	})
}

func (d *Driver) CloseDevice() error {
	if err := d.Stop(); err != nil {
		return err
	}
	return d.lifecycle.Transition(func(_ driverkit.State) (driverkit.State, error) {
		d.device = ""
		return driverkit.Unopened, nil
	})
}

// DefaultConfig matches get_default_config in the original driver: fixed
// 48kHz/128-frame/stereo F32 interleaved.
func (d *Driver) DefaultConfig() abi.StreamConfig {
	return abi.StreamConfig{
		SampleRate:   48000,
		BufferFrames: 128,
		InChannels:   2,
		OutChannels:  2,
		Format:       abi.SampleF32,
		Layout:       abi.BufInterleaved,
	}
}

// validateConfig is the per-device compatibility matrix restored from
// original_source's validate_config: F32-only ABI format (the hardware
// format conversion is this driver's own concern, invisible to the
// host), exactly 2 playback channels, 0 or 2 capture channels, one of a
// fixed set of sample rates, and a positive period.
func validateConfig(cfg abi.StreamConfig) error {
	if cfg.Format != abi.SampleF32 {
		return fmt.Errorf("UMC202HD driver only supports float32 at the ABI boundary")
	}
	if cfg.OutChannels != 2 {
		return fmt.Errorf("UMC202HD playback requires exactly 2 channels")
	}
	if cfg.InChannels != 0 && cfg.InChannels != 2 {
		return fmt.Errorf("UMC202HD capture supports 0 or 2 channels")
	}
	if !supportedSampleRates[cfg.SampleRate] {
		return fmt.Errorf("unsupported sample rate %d", cfg.SampleRate)
	}
	if cfg.BufferFrames == 0 {
		return fmt.Errorf("buffer_frames must be > 0")
	}
	return nil
}

func max16(a, b uint16) uint16 {
	if a > b {
		return a
	}
	return b
}

// Start validates against the compatibility matrix, opens hw_params at
// the device's native S32_LE format, allocates both the F32 ABI-facing
// buffers and the int32 hardware-facing buffers, and spawns the RT
// worker.
func (d *Driver) Start(cfg abi.StreamConfig) error {
	if d.lifecycle.Current() == driverkit.Running {
		if err := d.Stop(); err != nil {
			return err
		}
	}
	if err := validateConfig(cfg); err != nil {
		return oaerr.Wrap("start", abi.ErrUnsupported, err)
	}

	device := d.device
	if device == "" {
		device = defaultDeviceName()
	}
	cdevice := C.CString(device)
	defer C.free(unsafe.Pointer(cdevice))

	if rc := C.snd_pcm_open(&d.playback, cdevice, C.SND_PCM_STREAM_PLAYBACK, 0); rc < 0 {
		return oaerr.WrapDevice("start", device, abi.ErrDevice, alsaError("snd_pcm_open(playback)", rc))
	}
	if err := configurePCM(d.playback, cfg.OutChannels, cfg.SampleRate, cfg.BufferFrames); err != nil {
		C.snd_pcm_close(d.playback)
		d.playback = nil
		return err
	}
	if cfg.InChannels > 0 {
		if rc := C.snd_pcm_open(&d.capture, cdevice, C.SND_PCM_STREAM_CAPTURE, 0); rc < 0 {
			d.closeHandlesLocked()
			return oaerr.WrapDevice("start", device, abi.ErrDevice, alsaError("snd_pcm_open(capture)", rc))
		}
		if err := configurePCM(d.capture, cfg.InChannels, cfg.SampleRate, cfg.BufferFrames); err != nil {
			d.closeHandlesLocked()
			return err
		}
	}

	inChans := max16(cfg.InChannels, 1)
	d.inHW = driverkit.NewInt32Buffer(int(cfg.BufferFrames) * int(inChans))
	d.outHW = driverkit.NewInt32Buffer(int(cfg.BufferFrames) * int(cfg.OutChannels))
	d.inBuf = driverkit.NewFloatBuffer(int(cfg.BufferFrames) * int(inChans))
	d.outBuf = driverkit.NewFloatBuffer(int(cfg.BufferFrames) * int(cfg.OutChannels))
	if cfg.Layout == abi.BufNonInterleaved {
		// inBuf is always interleaved (readi only negotiates
		// RW_INTERLEAVED, and the I32ToF32 conversion preserves that
		// layout); inScratch is the true planar buffer ScatterPlanar
		// must fill each period before in_planes is exposed.
		d.inScratch = driverkit.NewFloatBuffer(int(cfg.BufferFrames) * int(inChans))
		d.inPlanes = driverkit.NewPlaneTable(d.inScratch, int(inChans), int(cfg.BufferFrames))
		d.outPlanes = driverkit.NewPlaneTable(d.outBuf, int(cfg.OutChannels), int(cfg.BufferFrames))
		d.writeBuf = driverkit.NewFloatBuffer(int(cfg.BufferFrames) * int(cfg.OutChannels))
	}

	d.cfg = cfg
	d.counters.Reset()
	d.counters.SetRunning(true)
	d.time0 = time.Now()

	d.worker.Start(d.rtLoop)

	return d.lifecycle.Transition(func(_ driverkit.State) (driverkit.State, error) {
		return driverkit.Running, nil
	})
}

func (d *Driver) Stop() error {
	d.counters.SetRunning(false)
	d.worker.Join()
	d.closeHandlesLocked()

	return d.lifecycle.Transition(func(cur driverkit.State) (driverkit.State, error) {
		if cur == driverkit.Unopened {
			return driverkit.Unopened, nil
		}
		return driverkit.Opened, nil
	})
}

func (d *Driver) closeHandlesLocked() {
	if d.playback != nil {
		C.snd_pcm_drop(d.playback)
		C.snd_pcm_close(d.playback)
		d.playback = nil
	}
	if d.capture != nil {
		C.snd_pcm_drop(d.capture)
		C.snd_pcm_close(d.capture)
		d.capture = nil
	}
	if d.inHW != nil {
		d.inHW.Free()
		d.inHW = nil
	}
	if d.outHW != nil {
		d.outHW.Free()
		d.outHW = nil
	}
	if d.inBuf != nil {
		d.inBuf.Free()
		d.inBuf = nil
	}
	if d.outBuf != nil {
		d.outBuf.Free()
		d.outBuf = nil
	}
	if d.writeBuf != nil {
		d.writeBuf.Free()
		d.writeBuf = nil
	}
	if d.inScratch != nil {
		d.inScratch.Free()
		d.inScratch = nil
	}
	if d.inPlanes != nil {
		d.inPlanes.Free()
		d.inPlanes = nil
	}
	if d.outPlanes != nil {
		d.outPlanes.Free()
		d.outPlanes = nil
	}
}

func (d *Driver) Latency() (in, out uint32, err error) {
	if d.capture != nil {
		var delay C.snd_pcm_sframes_t
		if rc := C.snd_pcm_delay(d.capture, &delay); rc == 0 && delay > 0 {
			in = uint32(delay)
		}
	}
	if d.playback != nil {
		var delay C.snd_pcm_sframes_t
		if rc := C.snd_pcm_delay(d.playback, &delay); rc == 0 && delay > 0 {
			out = uint32(delay)
		}
	}
	return in, out, nil
}

// SetSampleRate and SetBufferFrames are unsupported: the compatibility
// matrix fixes the negotiable surface to what validateConfig allows at
// Start, matching the original driver's set_sr/set_buf stubs.
func (d *Driver) SetSampleRate(uint32) error {
	return oaerr.Wrap("set_sample_rate", abi.ErrUnsupported, fmt.Errorf("not supported by this backend"))
}

func (d *Driver) SetBufferFrames(uint32) error {
	return oaerr.Wrap("set_buffer_frames", abi.ErrUnsupported, fmt.Errorf("not supported by this backend"))
}

// configurePCM negotiates the device's native S32_LE hardware format --
// the one deliberate divergence from drivers/alsa's FLOAT_LE negotiation
// (§4.3 step 2).
func configurePCM(handle *C.snd_pcm_t, channels uint16, rate, frames uint32) error {
	var hwParams *C.snd_pcm_hw_params_t
	if rc := C.snd_pcm_hw_params_malloc(&hwParams); rc < 0 {
		return oaerr.Wrap("hw_params_malloc", abi.ErrBackend, alsaError("hw_params_malloc", rc))
	}
	defer C.snd_pcm_hw_params_free(hwParams)

	if rc := C.snd_pcm_hw_params_any(handle, hwParams); rc < 0 {
		return oaerr.Wrap("hw_params_any", abi.ErrBackend, alsaError("hw_params_any", rc))
	}
	if rc := C.snd_pcm_hw_params_set_access(handle, hwParams, C.SND_PCM_ACCESS_RW_INTERLEAVED); rc < 0 {
		return oaerr.Wrap("set_access", abi.ErrBackend, alsaError("set_access", rc))
	}
	if rc := C.snd_pcm_hw_params_set_format(handle, hwParams, C.SND_PCM_FORMAT_S32_LE); rc < 0 {
		return oaerr.Wrap("set_format", abi.ErrBackend, alsaError("set_format", rc))
	}
	if rc := C.snd_pcm_hw_params_set_channels(handle, hwParams, C.uint(channels)); rc < 0 {
		return oaerr.Wrap("set_channels", abi.ErrBackend, alsaError("set_channels", rc))
	}

	actualRate := C.uint(rate)
	var dir C.int
	if rc := C.snd_pcm_hw_params_set_rate_near(handle, hwParams, &actualRate, &dir); rc < 0 {
		return oaerr.Wrap("set_rate_near", abi.ErrBackend, alsaError("set_rate_near", rc))
	}

	period := C.snd_pcm_uframes_t(frames)
	if rc := C.snd_pcm_hw_params_set_period_size_near(handle, hwParams, &period, &dir); rc < 0 {
		return oaerr.Wrap("set_period_size_near", abi.ErrBackend, alsaError("set_period_size_near", rc))
	}

	bufSize := period * 2
	if rc := C.snd_pcm_hw_params_set_buffer_size_near(handle, hwParams, &bufSize); rc < 0 {
		return oaerr.Wrap("set_buffer_size_near", abi.ErrBackend, alsaError("set_buffer_size_near", rc))
	}

	if rc := C.snd_pcm_hw_params(handle, hwParams); rc < 0 {
		return oaerr.Wrap("hw_params", abi.ErrBackend, alsaError("hw_params", rc))
	}
	if rc := C.snd_pcm_prepare(handle); rc < 0 {
		return oaerr.Wrap("prepare", abi.ErrBackend, alsaError("prepare", rc))
	}
	return nil
}

func alsaError(op string, rc C.int) error {
	return fmt.Errorf("%s: %s", op, C.GoString(C.snd_strerror(rc)))
}
