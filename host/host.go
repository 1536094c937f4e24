// Package host is the safe, Go-side counterpart to original_source's
// openasio crate: it dlopens a driver library through internal/loader,
// hands it a pinned callback thunk, and exposes enumerate/open/start/stop
// as ordinary Go methods with error returns instead of raw oa_result
// codes (§4.2's lifecycle, §9's "the host never calls into the driver
// from the RT thread except through the vtable").
package host

/*
#cgo CFLAGS: -I${SRCDIR}/../abi
#include "openasio.h"
#include <stdlib.h>
#include <string.h>

extern oa_bool goProcessTrampoline(void *user, const void *in_ptr, void *out_ptr,
                                    uint32_t frames, const oa_time_info *time,
                                    const oa_stream_config *cfg);
extern void goLatencyChangedTrampoline(void *user, uint32_t in_latency, uint32_t out_latency);
extern void goResetRequestTrampoline(void *user);

static void oa_fill_callbacks(oa_host_callbacks *cb) {
	cb->process = goProcessTrampoline;
	cb->latency_changed = goLatencyChangedTrampoline;
	cb->reset_request = goResetRequestTrampoline;
}

static oa_result oa_call_get_caps(const oa_driver_vtable *vt, oa_driver *d, uint32_t *out) {
	*out = vt->get_caps(d);
	return OA_OK;
}
static oa_result oa_call_query_devices(const oa_driver_vtable *vt, oa_driver *d, char *buf, size_t len) {
	return vt->query_devices(d, buf, len);
}
static oa_result oa_call_open_device(const oa_driver_vtable *vt, oa_driver *d, const char *name) {
	return vt->open_device(d, name);
}
static oa_result oa_call_close_device(const oa_driver_vtable *vt, oa_driver *d) {
	return vt->close_device(d);
}
static oa_result oa_call_get_default_config(const oa_driver_vtable *vt, oa_driver *d, oa_stream_config *out) {
	return vt->get_default_config(d, out);
}
static oa_result oa_call_start(const oa_driver_vtable *vt, oa_driver *d, const oa_stream_config *cfg) {
	return vt->start(d, cfg);
}
static oa_result oa_call_stop(const oa_driver_vtable *vt, oa_driver *d) {
	return vt->stop(d);
}
static oa_result oa_call_get_latency(const oa_driver_vtable *vt, oa_driver *d, uint32_t *in_l, uint32_t *out_l) {
	return vt->get_latency(d, in_l, out_l);
}
static oa_result oa_call_set_sample_rate(const oa_driver_vtable *vt, oa_driver *d, uint32_t rate) {
	return vt->set_sample_rate(d, rate);
}
static oa_result oa_call_set_buffer_frames(const oa_driver_vtable *vt, oa_driver *d, uint32_t frames) {
	return vt->set_buffer_frames(d, frames);
}
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/openasio/openasio-go/abi"
	"github.com/openasio/openasio-go/internal/loader"
	"github.com/openasio/openasio-go/internal/logx"
	"github.com/openasio/openasio-go/internal/oaerr"
)

var log = logx.For("host")

// HostProcess is the application-level callback a Driver drives on the
// backend's RT thread. Implementations must be RT-safe: no allocation,
// no locks that a non-RT goroutine might hold, no syscalls (§5).
type HostProcess interface {
	// Process is called once per period. in/out point at buffers shaped
	// by cfg.Layout; in is nil when cfg.InChannels == 0. Returning false
	// requests the driver stop calling back (§4.3 step 6).
	Process(in, out unsafe.Pointer, frames uint32, time abi.TimeInfo, cfg abi.StreamConfig) bool
}

// LatencyObserver is an optional extension HostProcess implementations
// may also satisfy, to learn about driver-reported latency changes
// (§4.2, oa_latency_changed_fn) outside the RT path.
type LatencyObserver interface {
	LatencyChanged(inLatency, outLatency uint32)
}

// ResetObserver is an optional extension for drivers that ask the host
// to recreate the stream (oa_reset_request_fn), e.g. after a hardware
// format change.
type ResetObserver interface {
	ResetRequested()
}

type hostThunk struct {
	proc HostProcess
	cfg  abi.StreamConfig
}

// Driver is a loaded, opened driver instance. The zero value is not
// usable; construct with Load.
type Driver struct {
	mu     sync.Mutex
	lib    *loader.DriverLib
	drv    *C.oa_driver
	handle cgo.Handle
	thunk  *hostThunk
	cb     *C.oa_host_callbacks
	opened bool
	path   string
}

// Load dlopens path, calls openasio_driver_create with a callback set
// wired to proc, and returns a Driver ready for EnumerateDevices/Open.
// defaultCfg is recorded in the host-side thunk only; it is never sent to
// the driver, and Start sends the config passed to it.
//
// The oa_host_callbacks struct handed to the driver is C-heap allocated,
// not a Go stack/heap value, and kept alive in Driver.cb for as long as
// the driver may still dereference it. A driver library built with
// -buildmode=c-shared runs its own Go runtime in a separate heap from
// the host's; a plain Go-allocated struct passed across that boundary
// has nothing keeping it reachable from the host's GC roots once Load
// returns; a stable C allocation, like driverkit's FloatBuffer, is the
// only honest way to give the RT thread a pointer that outlives this
// call (§9, "host callback table as borrowed pointer vs value copy").
func Load(path string, proc HostProcess, defaultCfg abi.StreamConfig) (*Driver, error) {
	lib, err := loader.Load(path)
	if err != nil {
		return nil, oaerr.Wrap("host.Load", abi.ErrGeneric, err)
	}

	thunk := &hostThunk{proc: proc, cfg: defaultCfg}
	h := cgo.NewHandle(thunk)

	cb := (*C.oa_host_callbacks)(C.malloc(C.size_t(unsafe.Sizeof(C.oa_host_callbacks{}))))
	C.oa_fill_callbacks(cb)

	params := C.oa_create_params{
		struct_size: C.uint32_t(unsafe.Sizeof(C.oa_create_params{})),
		host:        cb,
		host_user:   unsafe.Pointer(uintptr(h)),
	}

	drvPtr, rc := lib.Create(unsafe.Pointer(&params))
	if rc < 0 || drvPtr == nil {
		h.Delete()
		C.free(unsafe.Pointer(cb))
		lib.Close()
		return nil, oaerr.Wrap("host.Load", abi.Result(rc), fmt.Errorf("openasio_driver_create failed"))
	}

	log.Info("driver loaded", "path", path)
	return &Driver{
		lib:    lib,
		drv:    (*C.oa_driver)(drvPtr),
		handle: h,
		thunk:  thunk,
		cb:     cb,
		path:   path,
	}, nil
}

func (d *Driver) vt() *C.oa_driver_vtable {
	return (*C.oa_driver_vtable)(unsafe.Pointer(d.drv.vt))
}

// Caps returns the driver's capability bitmask (§3).
func (d *Driver) Caps() abi.Caps {
	var out C.uint32_t
	C.oa_call_get_caps(d.vt(), d.drv, &out)
	return abi.Caps(out)
}

// EnumerateDevices returns the driver's advisory device name list
// (§4.5). Errors are wrapped with the device name left blank, since none
// is selected yet.
func (d *Driver) EnumerateDevices() ([]string, error) {
	buf := make([]byte, 16*1024)
	rc := C.oa_call_query_devices(d.vt(), d.drv, (*C.char)(unsafe.Pointer(&buf[0])), C.size_t(len(buf)))
	if rc < 0 {
		return nil, oaerr.Wrap("query_devices", abi.Result(rc), fmt.Errorf("driver returned error"))
	}
	s := C.GoString((*C.char)(unsafe.Pointer(&buf[0])))
	return splitLines(s), nil
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// OpenDefault opens the driver's default device (§4.2 step open_device
// with name == NULL).
func (d *Driver) OpenDefault() error { return d.openByName("") }

// OpenDevice opens the named device, as returned by EnumerateDevices.
func (d *Driver) OpenDevice(name string) error { return d.openByName(name) }

func (d *Driver) openByName(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var cname *C.char
	if name != "" {
		cname = C.CString(name)
		defer C.free(unsafe.Pointer(cname))
	}
	rc := C.oa_call_open_device(d.vt(), d.drv, cname)
	if rc < 0 {
		return oaerr.WrapDevice("open_device", name, abi.Result(rc), fmt.Errorf("driver rejected device"))
	}
	d.opened = true
	return nil
}

// DefaultConfig asks the driver for its preferred stream configuration.
func (d *Driver) DefaultConfig() (abi.StreamConfig, error) {
	var c C.oa_stream_config
	rc := C.oa_call_get_default_config(d.vt(), d.drv, &c)
	if rc < 0 {
		return abi.StreamConfig{}, oaerr.Wrap("get_default_config", abi.Result(rc), fmt.Errorf("driver returned error"))
	}
	return abi.StreamConfig{
		SampleRate:   uint32(c.sample_rate),
		BufferFrames: uint32(c.buffer_frames),
		InChannels:   uint16(c.in_channels),
		OutChannels:  uint16(c.out_channels),
		Format:       abi.SampleFormat(c.format),
		Layout:       abi.BufferLayout(c.layout),
	}, nil
}

// Start asks the driver to begin calling HostProcess.Process with cfg.
// cfg is also recorded in the host-side thunk; every call sends the cfg
// it is given, and the recorded copy is not reused by later calls.
func (d *Driver) Start(cfg abi.StreamConfig) error {
	d.mu.Lock()
	d.thunk.cfg = cfg
	d.mu.Unlock()

	ccfg := C.oa_stream_config{
		sample_rate:   C.uint32_t(cfg.SampleRate),
		buffer_frames: C.uint32_t(cfg.BufferFrames),
		in_channels:   C.uint16_t(cfg.InChannels),
		out_channels:  C.uint16_t(cfg.OutChannels),
		format:        C.oa_sample_format(cfg.Format),
		layout:        C.oa_buffer_layout(cfg.Layout),
	}
	rc := C.oa_call_start(d.vt(), d.drv, &ccfg)
	if rc < 0 {
		return oaerr.Wrap("start", abi.Result(rc), fmt.Errorf("driver refused start"))
	}
	return nil
}

// Stop halts RT processing. Safe to call multiple times.
func (d *Driver) Stop() error {
	rc := C.oa_call_stop(d.vt(), d.drv)
	if rc < 0 {
		return oaerr.Wrap("stop", abi.Result(rc), fmt.Errorf("driver refused stop"))
	}
	return nil
}

// Latency returns the driver's reported input/output latency in frames.
func (d *Driver) Latency() (in, out uint32, err error) {
	var cin, cout C.uint32_t
	rc := C.oa_call_get_latency(d.vt(), d.drv, &cin, &cout)
	if rc < 0 {
		return 0, 0, oaerr.Wrap("get_latency", abi.Result(rc), fmt.Errorf("driver returned error"))
	}
	return uint32(cin), uint32(cout), nil
}

// SetSampleRate requests a sample rate change; returns ErrUnsupported
// wrapped as an error if the driver lacks CapSetSampleRate.
func (d *Driver) SetSampleRate(rate uint32) error {
	rc := C.oa_call_set_sample_rate(d.vt(), d.drv, C.uint32_t(rate))
	if rc < 0 {
		return oaerr.Wrap("set_sample_rate", abi.Result(rc), fmt.Errorf("unsupported or rejected"))
	}
	return nil
}

// SetBufferFrames requests a buffer size change; see SetSampleRate.
func (d *Driver) SetBufferFrames(frames uint32) error {
	rc := C.oa_call_set_buffer_frames(d.vt(), d.drv, C.uint32_t(frames))
	if rc < 0 {
		return oaerr.Wrap("set_buffer_frames", abi.Result(rc), fmt.Errorf("unsupported or rejected"))
	}
	return nil
}

// Close stops the stream (if running), closes the device, destroys the
// driver instance, releases the pinned handle, and dlcloses the library
// -- in that order, matching original_source's Drop impl plus explicit
// stop/close since Go has no destructor ordering to rely on.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.drv == nil {
		return nil
	}
	_ = d.Stop()
	if d.opened {
		C.oa_call_close_device(d.vt(), d.drv)
		d.opened = false
	}
	d.lib.Destroy(unsafe.Pointer(d.drv))
	d.handle.Delete()
	d.drv = nil
	if d.cb != nil {
		C.free(unsafe.Pointer(d.cb))
		d.cb = nil
	}
	err := d.lib.Close()
	log.Info("driver closed", "path", d.path)
	return err
}
