// Package loader is the Go analogue of openasio-sys's loader module: it
// dlopen()s a driver shared library and resolves the two stable entry
// points, openasio_driver_create and openasio_driver_destroy, so the
// host package never has to know a library's path again after Load.
package loader

/*
#include <dlfcn.h>
#include <stdlib.h>

typedef int (*oa_create_fn)(const void *params, void **out);
typedef void (*oa_destroy_fn)(void *driver);

static int oa_call_create(oa_create_fn fn, const void *params, void **out) {
	return fn(params, out);
}

static void oa_call_destroy(oa_destroy_fn fn, void *driver) {
	fn(driver);
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// DriverLib holds a dlopen'd handle plus the two resolved entry points,
// mirroring the Rust crate's "pub struct DriverLib { lib, create, destroy }".
type DriverLib struct {
	handle  unsafe.Pointer
	create  C.oa_create_fn
	destroy C.oa_destroy_fn
	path    string
}

// Load dlopens path (RTLD_NOW|RTLD_LOCAL) and resolves
// openasio_driver_create/openasio_driver_destroy. The library is kept
// open for the DriverLib's lifetime; call Close to dlclose it.
func Load(path string) (*DriverLib, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	handle := C.dlopen(cpath, C.RTLD_NOW|C.RTLD_LOCAL)
	if handle == nil {
		return nil, fmt.Errorf("loader: dlopen(%s): %s", path, C.GoString(C.dlerror()))
	}

	createSym := C.CString("openasio_driver_create")
	defer C.free(unsafe.Pointer(createSym))
	createPtr := C.dlsym(handle, createSym)
	if createPtr == nil {
		C.dlclose(handle)
		return nil, fmt.Errorf("loader: dlsym(openasio_driver_create) in %s: %s", path, C.GoString(C.dlerror()))
	}

	destroySym := C.CString("openasio_driver_destroy")
	defer C.free(unsafe.Pointer(destroySym))
	destroyPtr := C.dlsym(handle, destroySym)
	if destroyPtr == nil {
		C.dlclose(handle)
		return nil, fmt.Errorf("loader: dlsym(openasio_driver_destroy) in %s: %s", path, C.GoString(C.dlerror()))
	}

	return &DriverLib{
		handle:  handle,
		create:  C.oa_create_fn(createPtr),
		destroy: C.oa_destroy_fn(destroyPtr),
		path:    path,
	}, nil
}

// Create invokes the library's openasio_driver_create(params, &out),
// returning the resulting driver pointer and the raw oa_result code.
func (d *DriverLib) Create(params unsafe.Pointer) (unsafe.Pointer, int32) {
	var out unsafe.Pointer
	rc := C.oa_call_create(d.create, params, (*unsafe.Pointer)(unsafe.Pointer(&out)))
	return out, int32(rc)
}

// Destroy invokes the library's openasio_driver_destroy(driver).
func (d *DriverLib) Destroy(driver unsafe.Pointer) {
	C.oa_call_destroy(d.destroy, driver)
}

// Path returns the library path this DriverLib was loaded from.
func (d *DriverLib) Path() string { return d.path }

// Close dlclose()s the underlying shared library. Must only be called
// after every driver instance created from it has been destroyed.
func (d *DriverLib) Close() error {
	if d.handle == nil {
		return nil
	}
	if rc := C.dlclose(d.handle); rc != 0 {
		return fmt.Errorf("loader: dlclose(%s): %s", d.path, C.GoString(C.dlerror()))
	}
	d.handle = nil
	return nil
}
