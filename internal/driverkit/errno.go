package driverkit

import "golang.org/x/sys/unix"

// IsEPIPE reports whether rc -- a raw ALSA return code, negative on
// error and equal to -errno -- corresponds to EPIPE, the xrun signal
// both drivers/alsa and drivers/umc202hd re-prepare the PCM handle on
// (§4.3 steps 1 and 9). Using x/sys/unix here instead of comparing
// against the cgo-imported C.EPIPE constant keeps the errno check
// reusable across both ALSA-family drivers without either one importing
// the other's cgo preamble.
func IsEPIPE(rc int64) bool {
	return rc < 0 && unix.Errno(-rc) == unix.EPIPE
}
