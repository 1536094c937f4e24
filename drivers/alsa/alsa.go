// Package alsa is a pull-model OpenASIO backend against ALSA's PCM API,
// grounded on src/audio.go's USE_ALSA branch: snd_pcm_open, a manual
// hw_params negotiation, and readi/writei with snd_pcm_prepare-based
// xrun recovery, refactored from that file's single giant audio_get/
// audio_flush functions into §4.3's explicit nine-step RT transport.
//
// This package knows nothing about the C ABI or cgo.Handle pinning --
// cmd/openasio-alsa wires a Driver into the exported vtable and owns the
// raw host_user/callback pointers. That split keeps ALSA device
// mechanics testable without a C shared-library harness.
package alsa

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

var log = logx.For("alsa")

// ProcessFunc dispatches one period to the host. The bridge in
// cmd/openasio-alsa supplies this, closing over the raw oa_host_callbacks
// pointer and host_user recovered at create() time.
type ProcessFunc func(in, out unsafe.Pointer, frames uint32, ti abi.TimeInfo, cfg abi.StreamConfig) bool

// Callbacks is the Go-side mirror of the ABI's oa_host_callbacks (§3):
// one required dispatcher plus two advisory, rarely-used notifications.
type Callbacks struct {
	Process        ProcessFunc
	LatencyChanged func(inLatency, outLatency uint32)
	ResetRequest   func()
}

// Driver implements the pull-model shape from spec §4.1's "Driver core":
// it owns device handles, staging buffers, xrun counters and its own RT
// worker goroutine.
type Driver struct {
	lifecycle driverkit.Lifecycle
	counters  driverkit.RTCounters
	worker    driverkit.Worker

	cb     Callbacks
	device string

	capture  *C.snd_pcm_t
	playback *C.snd_pcm_t

	cfg   abi.StreamConfig
	time0 time.Time

	inBuf, outBuf, writeBuf, inScratch *driverkit.FloatBuffer
	inPlanes, outPlanes                *driverkit.PlaneTable
}

// New constructs an unopened driver bound to cb.
func New(cb Callbacks) *Driver {
	return &Driver{cb: cb}
}

// Caps reports OUTPUT|INPUT|FULL_DUPLEX; ALSA hw_params negotiation
// allows rate/period changes, so SET_SAMPLERATE/SET_BUFFRAMES are also
// advertised (§4.1 capability bits).
func (d *Driver) Caps() abi.Caps {
	return abi.CapOutput | abi.CapInput | abi.CapFullDuplex | abi.CapSetSampleRate | abi.CapSetBufFrames
}

// QueryDevices returns udev's advisory ALSA PCM node listing (§4.5).
func (d *Driver) QueryDevices() []string {
	return udevenum.Sound()
}

// OpenDevice resolves name (empty = "default") and transitions to
// Opened. Actual handle acquisition is deferred to Start, per §4.2.
func (d *Driver) OpenDevice(name string) error {
	if name == "" {
		name = "default"
	}
	return d.lifecycle.Transition(func(_ driverkit.State) (driverkit.State, error) {
		d.device = name
		return driverkit.Opened, nil
	})
}

// CloseDevice stops any running stream and returns to Unopened.
func (d *Driver) CloseDevice() error {
	if err := d.Stop(); err != nil {
		return err
	}
	return d.lifecycle.Transition(func(_ driverkit.State) (driverkit.State, error) {
		d.device = ""
		return driverkit.Unopened, nil
	})
}

// DefaultConfig returns a backend-reasonable default (§4.5): 48kHz,
// 256-frame periods, stereo full duplex, F32 interleaved.
func (d *Driver) DefaultConfig() abi.StreamConfig {
	return abi.StreamConfig{
		SampleRate:   48000,
		BufferFrames: 256,
		InChannels:   2,
		OutChannels:  2,
		Format:       abi.SampleF32,
		Layout:       abi.BufInterleaved,
	}
}

func max16(a, b uint16) uint16 {
	if a > b {
		return a
	}
	return b
}

// Start validates cfg, opens and configures playback/capture handles,
// sizes staging buffers and plane tables, resets counters, and spawns
// the RT worker (§4.2's start transition). Calling Start while already
// Running performs an implicit Stop first.
func (d *Driver) Start(cfg abi.StreamConfig) error {
	if d.lifecycle.Current() == driverkit.Running {
		if err := d.Stop(); err != nil {
			return err
		}
	}
	if cfg.Format != abi.SampleF32 {
		return oaerr.Wrap("start", abi.ErrUnsupported, fmt.Errorf("alsa backend only supports F32"))
	}

	device := d.device
	if device == "" {
		device = "default"
	}
	cdevice := C.CString(device)
	defer C.free(unsafe.Pointer(cdevice))

	if cfg.OutChannels > 0 {
		if rc := C.snd_pcm_open(&d.playback, cdevice, C.SND_PCM_STREAM_PLAYBACK, 0); rc < 0 {
			return oaerr.WrapDevice("start", device, abi.ErrDevice, alsaError("snd_pcm_open(playback)", rc))
		}
		if err := configurePCM(d.playback, cfg.OutChannels, cfg.SampleRate, cfg.BufferFrames); err != nil {
			C.snd_pcm_close(d.playback)
			d.playback = nil
			return err
		}
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
	d.inBuf = driverkit.NewFloatBuffer(int(cfg.BufferFrames) * int(inChans))
	d.outBuf = driverkit.NewFloatBuffer(int(cfg.BufferFrames) * int(cfg.OutChannels))
	if cfg.Layout == abi.BufNonInterleaved {
		// readi always delivers interleaved frames (configurePCM only
		// ever negotiates SND_PCM_ACCESS_RW_INTERLEAVED); inScratch is
		// the true per-channel-contiguous buffer ScatterPlanar fills
		// each period, and inPlanes must be built over it, not over the
		// still-interleaved inBuf.
		d.inScratch = driverkit.NewFloatBuffer(int(cfg.BufferFrames) * int(inChans))
		d.inPlanes = driverkit.NewPlaneTable(d.inScratch, int(inChans), int(cfg.BufferFrames))
		d.outPlanes = driverkit.NewPlaneTable(d.outBuf, int(cfg.OutChannels), int(cfg.BufferFrames))
		// Destaging needs an interleaved scratch distinct from the
		// planar outBuf -- allocated once here, never on the RT path.
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

// Stop clears running, joins the RT worker, releases device handles and
// staging buffers, and returns to Opened. Idempotent (§4.2).
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

// Latency reports ALSA's current buffer delay, in frames, for each open
// direction (§4.1 get_latency).
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

// SetSampleRate and SetBufferFrames fail with ErrState while running and
// otherwise return nil without storing the value: the next Start
// negotiates the rate and period from the cfg passed to it (ALSA
// hw_params only apply at open time).
func (d *Driver) SetSampleRate(rate uint32) error {
	if d.lifecycle.Current() == driverkit.Running {
		return oaerr.Wrap("set_sample_rate", abi.ErrState, fmt.Errorf("cannot change rate while running"))
	}
	return nil
}

func (d *Driver) SetBufferFrames(frames uint32) error {
	if d.lifecycle.Current() == driverkit.Running {
		return oaerr.Wrap("set_buffer_frames", abi.ErrState, fmt.Errorf("cannot change period while running"))
	}
	return nil
}

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
	if rc := C.snd_pcm_hw_params_set_format(handle, hwParams, C.SND_PCM_FORMAT_FLOAT_LE); rc < 0 {
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
