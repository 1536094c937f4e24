// Command openasio-alsa builds, via -buildmode=c-shared, the ALSA
// reference driver library: a thin cgo vtable wiring drivers/alsa's pure
// Go Driver to the two stable OpenASIO entry points.
package main

/*
#cgo CFLAGS: -I${SRCDIR}/../../abi
#include "openasio.h"
#include <stddef.h>

extern uint32_t alsaGetCaps(oa_driver *d);
extern oa_result alsaQueryDevices(oa_driver *d, char *buf, size_t len);
extern oa_result alsaOpenDevice(oa_driver *d, const char *name);
extern oa_result alsaCloseDevice(oa_driver *d);
extern oa_result alsaGetDefaultConfig(oa_driver *d, oa_stream_config *out);
extern oa_result alsaStart(oa_driver *d, const oa_stream_config *cfg);
extern oa_result alsaStop(oa_driver *d);
extern oa_result alsaGetLatency(oa_driver *d, uint32_t *in_latency, uint32_t *out_latency);
extern oa_result alsaSetSampleRate(oa_driver *d, uint32_t rate);
extern oa_result alsaSetBufferFrames(oa_driver *d, uint32_t frames);

static const oa_driver_vtable g_alsa_vtable = {
	sizeof(oa_driver_vtable),
	alsaGetCaps,
	alsaQueryDevices,
	alsaOpenDevice,
	alsaCloseDevice,
	alsaGetDefaultConfig,
	alsaStart,
	alsaStop,
	alsaGetLatency,
	alsaSetSampleRate,
	alsaSetBufferFrames,
};

static const void *oa_alsa_vtable_ptr(void) { return &g_alsa_vtable; }

static oa_bool oa_call_process(oa_process_fn fn, void *user, const void *in_ptr, void *out_ptr,
                                uint32_t frames, const oa_time_info *time, const oa_stream_config *cfg) {
	return fn(user, in_ptr, out_ptr, frames, time, cfg);
}
static void oa_call_latency_changed(oa_latency_changed_fn fn, void *user, uint32_t in_l, uint32_t out_l) {
	fn(user, in_l, out_l);
}
static void oa_call_reset_request(oa_reset_request_fn fn, void *user) {
	fn(user);
}
*/
import "C"

import (
	"unsafe"

	"github.com/openasio/openasio-go/abi"
	"github.com/openasio/openasio-go/drivers/alsa"
	"github.com/openasio/openasio-go/internal/driverkit"
)

func main() {}

func driverFrom(d *C.oa_driver) *alsa.Driver {
	state, _ := driverkit.StateFromDriver(unsafe.Pointer(d)).(*alsa.Driver)
	return state
}

//export openasio_driver_create
func openasio_driver_create(params *C.oa_create_params, out **C.oa_driver) C.oa_result {
	if params == nil || out == nil {
		return C.oa_result(abi.ErrInvalidArg)
	}

	hostCallbacks := params.host
	hostUser := params.host_user

	drv := alsa.New(alsa.Callbacks{
		Process: func(in, outp unsafe.Pointer, frames uint32, ti abi.TimeInfo, cfg abi.StreamConfig) bool {
			if hostCallbacks == nil || hostCallbacks.process == nil {
				return false
			}
			ctime := C.oa_time_info{
				host_time_ns:   C.uint64_t(ti.HostTimeNS),
				device_time_ns: C.uint64_t(ti.DeviceTimeNS),
				underruns:      C.uint32_t(ti.Underruns),
				overruns:       C.uint32_t(ti.Overruns),
			}
			ccfg := C.oa_stream_config{
				sample_rate:   C.uint32_t(cfg.SampleRate),
				buffer_frames: C.uint32_t(cfg.BufferFrames),
				in_channels:   C.uint16_t(cfg.InChannels),
				out_channels:  C.uint16_t(cfg.OutChannels),
				format:        C.oa_sample_format(cfg.Format),
				layout:        C.oa_buffer_layout(cfg.Layout),
			}
			rc := C.oa_call_process(hostCallbacks.process, hostUser, in, outp, C.uint32_t(frames), &ctime, &ccfg)
			return rc == C.OA_TRUE
		},
		LatencyChanged: func(inL, outL uint32) {
			if hostCallbacks != nil && hostCallbacks.latency_changed != nil {
				C.oa_call_latency_changed(hostCallbacks.latency_changed, hostUser, C.uint32_t(inL), C.uint32_t(outL))
			}
		},
		ResetRequest: func() {
			if hostCallbacks != nil && hostCallbacks.reset_request != nil {
				C.oa_call_reset_request(hostCallbacks.reset_request, hostUser)
			}
		},
	})

	cdrv := driverkit.NewCDriver(unsafe.Pointer(C.oa_alsa_vtable_ptr()), drv)
	*out = (*C.oa_driver)(cdrv)
	return C.oa_result(abi.OK)
}

//export openasio_driver_destroy
func openasio_driver_destroy(d *C.oa_driver) {
	if d == nil {
		return
	}
	if drv := driverFrom(d); drv != nil {
		_ = drv.CloseDevice()
	}
	driverkit.DestroyCDriver(unsafe.Pointer(d))
}
