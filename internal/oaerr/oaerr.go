// Package oaerr gives control-path failures a rich, wrapped shape. The
// RT path never uses this (§7): xruns are counted, not returned as
// errors.
package oaerr

import (
	"fmt"

	"github.com/openasio/openasio-go/abi"
)

// Error lifts a vtable result code into something a host application can
// log and compare against, in the same wrap-with-context shape as
// Daedaluz-goserial's Error/wrapErr -- the teacher repo has no Go-style
// error type of its own (its cgo calls return bare C.int), so this
// expansion borrows the idiom from elsewhere in the retrieved pack.
type Error struct {
	Op     string
	Code   abi.Result
	Device string
	Cause  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("openasio: %s: %s", e.Op, e.Code)
	if e.Device != "" {
		msg += fmt.Sprintf(" (device %q)", e.Device)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Wrap builds an *Error for op, or returns nil if code is OK.
func Wrap(op string, code abi.Result, cause error) error {
	if code == abi.OK {
		return nil
	}
	return &Error{Op: op, Code: code, Cause: cause}
}

// WrapDevice is Wrap with a device name attached for context.
func WrapDevice(op, device string, code abi.Result, cause error) error {
	if code == abi.OK {
		return nil
	}
	return &Error{Op: op, Code: code, Device: device, Cause: cause}
}
