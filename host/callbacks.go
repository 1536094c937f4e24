package host

/*
#cgo CFLAGS: -I${SRCDIR}/../abi
#include "openasio.h"
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/openasio/openasio-go/abi"
)

//export goProcessTrampoline
func goProcessTrampoline(user unsafe.Pointer, inPtr, outPtr unsafe.Pointer, frames C.uint32_t, ctime *C.oa_time_info, ccfg *C.oa_stream_config) C.oa_bool {
	thunk := cgo.Handle(uintptr(user)).Value().(*hostThunk)

	cfg := abi.StreamConfig{
		SampleRate:   uint32(ccfg.sample_rate),
		BufferFrames: uint32(ccfg.buffer_frames),
		InChannels:   uint16(ccfg.in_channels),
		OutChannels:  uint16(ccfg.out_channels),
		Format:       abi.SampleFormat(ccfg.format),
		Layout:       abi.BufferLayout(ccfg.layout),
	}
	ti := abi.TimeInfo{
		HostTimeNS:   uint64(ctime.host_time_ns),
		DeviceTimeNS: uint64(ctime.device_time_ns),
		Underruns:    uint32(ctime.underruns),
		Overruns:     uint32(ctime.overruns),
	}

	if thunk.proc.Process(inPtr, outPtr, uint32(frames), ti, cfg) {
		return C.OA_TRUE
	}
	return C.OA_FALSE
}

//export goLatencyChangedTrampoline
func goLatencyChangedTrampoline(user unsafe.Pointer, inLatency, outLatency C.uint32_t) {
	thunk := cgo.Handle(uintptr(user)).Value().(*hostThunk)
	if obs, ok := thunk.proc.(LatencyObserver); ok {
		obs.LatencyChanged(uint32(inLatency), uint32(outLatency))
	}
}

//export goResetRequestTrampoline
func goResetRequestTrampoline(user unsafe.Pointer) {
	thunk := cgo.Handle(uintptr(user)).Value().(*hostThunk)
	if obs, ok := thunk.proc.(ResetObserver); ok {
		obs.ResetRequested()
	}
}
