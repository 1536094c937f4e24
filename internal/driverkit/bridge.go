// Package driverkit holds the logic shared by all three reference
// drivers (drivers/alsa, drivers/portaudio, drivers/umc202hd): the
// create/destroy pinning bridge, the lifecycle state machine, xrun
// counters, and the RT-transport buffer helpers. Grounded in
// original_source's Rust drivers, which all repeat this structure; this
// package is the Go-idiomatic de-duplication of that repetition -- the
// Rust crates couldn't share code across cdylib boundaries the way a Go
// internal package can.
package driverkit

/*
#include <stdlib.h>
#include <stdint.h>

typedef struct {
    const void *vt;
    uintptr_t handle;
} oa_driver_header;
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"
)

// NewCDriver C-allocates a small, GC-invisible header {vt, handle} and
// pins state behind a runtime/cgo.Handle referenced by that header's
// handle word. This is the concrete realization of spec §9's design
// note: "the RT worker holds a stable reference to a heap-pinned state
// object" -- cgo.Handle is Go's mechanism for handing a Go value to C
// code without exposing a movable Go pointer.
//
// vt must be a pointer to the driver's static C.oa_driver_vtable (passed
// as unsafe.Pointer so this package need not import any per-driver cgo
// type). The returned pointer is safe to hand back to the host as
// *C.oa_driver: both structs start with a vtable pointer at offset 0.
func NewCDriver(vt unsafe.Pointer, state any) unsafe.Pointer {
	h := cgo.NewHandle(state)
	hdr := (*C.oa_driver_header)(C.malloc(C.size_t(unsafe.Sizeof(C.oa_driver_header{}))))
	hdr.vt = vt
	hdr.handle = C.uintptr_t(h)
	return unsafe.Pointer(hdr)
}

// StateFromDriver recovers the Go value pinned by NewCDriver from an
// *oa_driver received back from the host.
func StateFromDriver(d unsafe.Pointer) any {
	if d == nil {
		return nil
	}
	hdr := (*C.oa_driver_header)(d)
	return cgo.Handle(hdr.handle).Value()
}

// DestroyCDriver releases the cgo.Handle and frees the C header. Callers
// must have already driven the state to Unopened (stop+close) before
// calling this -- destroy must never race the RT thread (§4.2).
func DestroyCDriver(d unsafe.Pointer) {
	if d == nil {
		return
	}
	hdr := (*C.oa_driver_header)(d)
	cgo.Handle(hdr.handle).Delete()
	C.free(d)
}
