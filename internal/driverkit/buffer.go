package driverkit

/*
#include <stdlib.h>
*/
import "C"

import "unsafe"

// FloatBuffer is a fixed-size float32 array allocated on the C heap.
//
// The RT transport passes raw pointers across the ABI boundary -- both
// a flat interleaved pointer and, for non-interleaved layout, an array
// of per-channel pointers (§4.3 step 5). A plain Go []float32's backing
// array must never be handed to C if anything else holds a Go pointer
// into it across calls, and an array of per-channel pointers is itself
// a slice of pointers into Go memory, which cgo's pointer-passing rules
// forbid. Allocating the scratch and the pointer table on the C heap
// sidesteps both problems and gives the stable, never-reallocated
// addresses invariant 2 (§3) requires for the life of a stream.
type FloatBuffer struct {
	ptr unsafe.Pointer
	n   int
}

// NewFloatBuffer allocates a zeroed buffer of n float32s. Called only
// from start(), never from the RT path (§5, "must not allocate").
func NewFloatBuffer(n int) *FloatBuffer {
	if n <= 0 {
		return &FloatBuffer{n: 0}
	}
	size := C.size_t(n) * C.size_t(unsafe.Sizeof(float32(0)))
	p := C.calloc(C.size_t(n), C.size_t(unsafe.Sizeof(float32(0))))
	_ = size
	return &FloatBuffer{ptr: p, n: n}
}

// Slice returns a Go slice view over the C-allocated backing array. Safe
// to read/write from the RT thread; must not be retained past Free.
func (b *FloatBuffer) Slice() []float32 {
	if b.ptr == nil || b.n == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(b.ptr), b.n)
}

// Ptr returns the raw base address, e.g. for handing to the host as an
// interleaved in_ptr/out_ptr.
func (b *FloatBuffer) Ptr() unsafe.Pointer { return b.ptr }

// Free releases the C allocation. Called from stop()/close(), never
// concurrently with RT-thread use.
func (b *FloatBuffer) Free() {
	if b.ptr != nil {
		C.free(b.ptr)
		b.ptr = nil
	}
}

// Int32Buffer is the hardware-format counterpart of FloatBuffer, used by
// I32 backends (drivers/umc202hd) for the in_hw/out_hw staging named in
// §3 Data model.
type Int32Buffer struct {
	ptr unsafe.Pointer
	n   int
}

func NewInt32Buffer(n int) *Int32Buffer {
	if n <= 0 {
		return &Int32Buffer{n: 0}
	}
	p := C.calloc(C.size_t(n), C.size_t(unsafe.Sizeof(int32(0))))
	return &Int32Buffer{ptr: p, n: n}
}

func (b *Int32Buffer) Slice() []int32 {
	if b.ptr == nil || b.n == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(b.ptr), b.n)
}

func (b *Int32Buffer) Ptr() unsafe.Pointer { return b.ptr }

func (b *Int32Buffer) Free() {
	if b.ptr != nil {
		C.free(b.ptr)
		b.ptr = nil
	}
}

// PlaneTable is a C-heap array of per-channel base pointers into a
// FloatBuffer, rebuilt once at start() so addresses stay stable for the
// lifetime of a run (invariant 2, §3). Channel c owns the contiguous
// run [c*frames, (c+1)*frames) of the backing buffer -- a genuine planar
// layout, not a strided view into an interleaved buffer.
type PlaneTable struct {
	ptr      unsafe.Pointer // *unsafe.Pointer C array
	channels int
}

// NewPlaneTable builds channels pointers into buf, each frames floats
// apart. buf must be at least channels*frames floats long.
func NewPlaneTable(buf *FloatBuffer, channels, frames int) *PlaneTable {
	if channels <= 0 {
		return &PlaneTable{}
	}
	elemSize := unsafe.Sizeof(uintptr(0))
	p := C.malloc(C.size_t(channels) * C.size_t(elemSize))
	table := unsafe.Slice((*unsafe.Pointer)(p), channels)
	base := uintptr(buf.Ptr())
	stride := uintptr(frames) * unsafe.Sizeof(float32(0))
	for c := 0; c < channels; c++ {
		table[c] = unsafe.Pointer(base + uintptr(c)*stride)
	}
	return &PlaneTable{ptr: p, channels: channels}
}

// Ptr returns the address of the pointer array itself, suitable as the
// non-interleaved in_ptr/out_ptr handed to the host process callback.
func (t *PlaneTable) Ptr() unsafe.Pointer { return t.ptr }

func (t *PlaneTable) Free() {
	if t.ptr != nil {
		C.free(t.ptr)
		t.ptr = nil
	}
}
