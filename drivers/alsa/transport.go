package alsa

/*
#cgo pkg-config: alsa
#include <alsa/asoundlib.h>
#include <errno.h>
*/
import "C"

import (
	"github.com/openasio/openasio-go/abi"
	"github.com/openasio/openasio-go/internal/driverkit"
)

// rtLoop is the RT worker goroutine body: spec §4.3's nine-step pull-
// model transport, repeated once per period until Running is cleared by
// either Stop or the host process callback returning false.
func (d *Driver) rtLoop() {
	cfg := d.cfg
	frames := C.snd_pcm_uframes_t(cfg.BufferFrames)

	for d.counters.Running() {
		// 1. Capture.
		if d.capture != nil {
			n := C.snd_pcm_readi(d.capture, d.inBuf.Ptr(), frames)
			if n < 0 {
				if driverkit.IsEPIPE(int64(n)) {
					C.snd_pcm_prepare(d.capture)
					d.counters.AddOverrun()
					n = 0
				} else {
					log.Error("capture failed, stopping", "err", alsaError("readi", C.int(n)))
					d.counters.SetRunning(false)
					break
				}
			}
			if int(n) < int(cfg.BufferFrames) {
				zeroTail(d.inBuf.Slice(), int(n)*int(max16(cfg.InChannels, 1)))
			}
		}

		// 3. Clear output staging.
		clearFloats(d.outBuf.Slice())

		// 4. Build time info.
		ti := d.counters.TimeInfo(d.time0)

		// 5. Assemble pointers per layout.
		var ptrs driverkit.ProcessPointers
		if cfg.Layout == abi.BufNonInterleaved {
			if d.capture != nil {
				// inBuf is always interleaved (readi's only access mode);
				// scatter into the true planar scratch before handing
				// in_planes to the host.
				driverkit.ScatterPlanar(d.inBuf.Slice(), d.inScratch.Slice(), int(cfg.BufferFrames), int(max16(cfg.InChannels, 1)))
			}
			ptrs = driverkit.PlanarPointers(d.inPlanes, d.outPlanes, int(cfg.InChannels))
		} else {
			ptrs = driverkit.InterleavedPointers(d.inBuf, d.outBuf, int(cfg.InChannels))
		}

		// 6. Invoke process.
		cont := d.cb.Process(ptrs.In, ptrs.Out, cfg.BufferFrames, ti, cfg)

		// 7. Destage output (non-interleaved only; outBuf is already
		// interleaved-ready otherwise).
		writePtr := d.outBuf.Ptr()
		if cfg.Layout == abi.BufNonInterleaved {
			driverkit.GatherInterleaved(d.outBuf.Slice(), d.writeBuf.Slice(), int(cfg.BufferFrames), int(cfg.OutChannels))
			writePtr = d.writeBuf.Ptr()
		}

		// 9. Playback.
		if d.playback != nil {
			n := C.snd_pcm_writei(d.playback, writePtr, frames)
			if n < 0 {
				if driverkit.IsEPIPE(int64(n)) {
					C.snd_pcm_prepare(d.playback)
					d.counters.AddUnderrun()
				} else {
					log.Error("playback failed, stopping", "err", alsaError("writei", C.int(n)))
					d.counters.SetRunning(false)
				}
			}
		}

		if !cont {
			d.counters.SetRunning(false)
		}
	}
}

func zeroTail(buf []float32, fromSample int) {
	for i := fromSample; i < len(buf); i++ {
		buf[i] = 0
	}
}

func clearFloats(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
