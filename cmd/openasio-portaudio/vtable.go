package main

/*
#cgo CFLAGS: -I${SRCDIR}/../../abi
#include "openasio.h"
*/
import "C"

import (
	"unsafe"

	"github.com/openasio/openasio-go/abi"
)

//export paGetCaps
func paGetCaps(d *C.oa_driver) C.uint32_t {
	drv := driverFrom(d)
	if drv == nil {
		return 0
	}
	return C.uint32_t(drv.Caps())
}

//export paQueryDevices
func paQueryDevices(d *C.oa_driver, buf *C.char, length C.size_t) C.oa_result {
	drv := driverFrom(d)
	if drv == nil || buf == nil || length == 0 {
		return C.oa_result(abi.ErrInvalidArg)
	}
	names := drv.QueryDevices()
	list := ""
	for _, n := range names {
		list += n + "\n"
	}
	writeCString(buf, length, list)
	return C.oa_result(abi.OK)
}

//export paOpenDevice
func paOpenDevice(d *C.oa_driver, name *C.char) C.oa_result {
	drv := driverFrom(d)
	if drv == nil {
		return C.oa_result(abi.ErrState)
	}
	goName := ""
	if name != nil {
		goName = C.GoString(name)
	}
	if err := drv.OpenDevice(goName); err != nil {
		return C.oa_result(abi.ErrDevice)
	}
	return C.oa_result(abi.OK)
}

//export paCloseDevice
func paCloseDevice(d *C.oa_driver) C.oa_result {
	drv := driverFrom(d)
	if drv == nil {
		return C.oa_result(abi.OK)
	}
	if err := drv.CloseDevice(); err != nil {
		return C.oa_result(abi.ErrGeneric)
	}
	return C.oa_result(abi.OK)
}

//export paGetDefaultConfig
func paGetDefaultConfig(d *C.oa_driver, out *C.oa_stream_config) C.oa_result {
	drv := driverFrom(d)
	if drv == nil || out == nil {
		return C.oa_result(abi.ErrInvalidArg)
	}
	cfg, err := drv.DefaultConfig()
	if err != nil {
		return C.oa_result(abi.ErrDevice)
	}
	*out = C.oa_stream_config{
		sample_rate:   C.uint32_t(cfg.SampleRate),
		buffer_frames: C.uint32_t(cfg.BufferFrames),
		in_channels:   C.uint16_t(cfg.InChannels),
		out_channels:  C.uint16_t(cfg.OutChannels),
		format:        C.oa_sample_format(cfg.Format),
		layout:        C.oa_buffer_layout(cfg.Layout),
	}
	return C.oa_result(abi.OK)
}

//export paStart
func paStart(d *C.oa_driver, ccfg *C.oa_stream_config) C.oa_result {
	drv := driverFrom(d)
	if drv == nil || ccfg == nil {
		return C.oa_result(abi.ErrInvalidArg)
	}
	cfg := abi.StreamConfig{
		SampleRate:   uint32(ccfg.sample_rate),
		BufferFrames: uint32(ccfg.buffer_frames),
		InChannels:   uint16(ccfg.in_channels),
		OutChannels:  uint16(ccfg.out_channels),
		Format:       abi.SampleFormat(ccfg.format),
		Layout:       abi.BufferLayout(ccfg.layout),
	}
	if err := drv.Start(cfg); err != nil {
		return C.oa_result(abi.ErrBackend)
	}
	return C.oa_result(abi.OK)
}

//export paStop
func paStop(d *C.oa_driver) C.oa_result {
	drv := driverFrom(d)
	if drv == nil {
		return C.oa_result(abi.OK)
	}
	if err := drv.Stop(); err != nil {
		return C.oa_result(abi.ErrGeneric)
	}
	return C.oa_result(abi.OK)
}

//export paGetLatency
func paGetLatency(d *C.oa_driver, inLatency, outLatency *C.uint32_t) C.oa_result {
	drv := driverFrom(d)
	if drv == nil || inLatency == nil || outLatency == nil {
		return C.oa_result(abi.ErrInvalidArg)
	}
	in, out, err := drv.Latency()
	if err != nil {
		return C.oa_result(abi.ErrBackend)
	}
	*inLatency = C.uint32_t(in)
	*outLatency = C.uint32_t(out)
	return C.oa_result(abi.OK)
}

//export paSetSampleRate
func paSetSampleRate(d *C.oa_driver, rate C.uint32_t) C.oa_result {
	drv := driverFrom(d)
	if drv == nil {
		return C.oa_result(abi.ErrState)
	}
	if err := drv.SetSampleRate(uint32(rate)); err != nil {
		return C.oa_result(abi.ErrUnsupported)
	}
	return C.oa_result(abi.OK)
}

//export paSetBufferFrames
func paSetBufferFrames(d *C.oa_driver, frames C.uint32_t) C.oa_result {
	drv := driverFrom(d)
	if drv == nil {
		return C.oa_result(abi.ErrState)
	}
	if err := drv.SetBufferFrames(uint32(frames)); err != nil {
		return C.oa_result(abi.ErrUnsupported)
	}
	return C.oa_result(abi.OK)
}

// writeCString copies s into buf, truncating to length-1 bytes and
// always null-terminating when length > 0 (§4.5 query_devices contract).
func writeCString(buf *C.char, length C.size_t, s string) {
	max := int(length) - 1
	if max < 0 {
		max = 0
	}
	if len(s) > max {
		s = s[:max]
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(length))
	n := copy(dst, s)
	dst[n] = 0
}
