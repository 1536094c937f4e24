package umc202hd

/*
#cgo pkg-config: alsa
#include <alsa/asoundlib.h>
#include <errno.h>
*/
import "C"

import (
	"github.com/openasio/openasio-go/abi"
	"github.com/openasio/openasio-go/internal/convert"
	"github.com/openasio/openasio-go/internal/driverkit"
)

// rtLoop mirrors drivers/alsa's nine-step transport, with two added
// conversion steps either side of the host callback: hardware S32_LE
// samples are scaled to F32 after capture (step 2) and scaled back
// before playback (step 8), per original_source's i32_to_f32/f32_to_i32.
func (d *Driver) rtLoop() {
	cfg := d.cfg
	frames := C.snd_pcm_uframes_t(cfg.BufferFrames)

	for d.counters.Running() {
		// 1. Capture (hardware format).
		if d.capture != nil {
			n := C.snd_pcm_readi(d.capture, d.inHW.Ptr(), frames)
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
			samples := int(n) * int(max16(cfg.InChannels, 1))
			// 2. Convert hardware samples to F32.
			convert.I32ToF32(d.inHW.Slice()[:samples], d.inBuf.Slice()[:samples])
			if int(n) < int(cfg.BufferFrames) {
				zeroTail(d.inBuf.Slice(), samples)
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
				// inBuf holds interleaved F32 samples converted from the
				// hardware buffer; scatter into the true planar scratch
				// before handing in_planes to the host.
				driverkit.ScatterPlanar(d.inBuf.Slice(), d.inScratch.Slice(), int(cfg.BufferFrames), int(max16(cfg.InChannels, 1)))
			}
			ptrs = driverkit.PlanarPointers(d.inPlanes, d.outPlanes, int(cfg.InChannels))
		} else {
			ptrs = driverkit.InterleavedPointers(d.inBuf, d.outBuf, int(cfg.InChannels))
		}

		// 6. Invoke process.
		cont := d.cb.Process(ptrs.In, ptrs.Out, cfg.BufferFrames, ti, cfg)

		// 7. Destage non-interleaved output into the F32 interleaved
		// scratch.
		floatOut := d.outBuf.Slice()
		if cfg.Layout == abi.BufNonInterleaved {
			driverkit.GatherInterleaved(d.outBuf.Slice(), d.writeBuf.Slice(), int(cfg.BufferFrames), int(cfg.OutChannels))
			floatOut = d.writeBuf.Slice()
		}

		// 8. Convert F32 back to hardware format.
		convert.F32ToI32(floatOut, d.outHW.Slice())

		// 9. Playback.
		if d.playback != nil {
			n := C.snd_pcm_writei(d.playback, d.outHW.Ptr(), frames)
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
