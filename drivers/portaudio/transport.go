package portaudio

import (
	"fmt"
	"time"
	"unsafe"

	pa "github.com/gordonklaus/portaudio"

	"github.com/openasio/openasio-go/abi"
	"github.com/openasio/openasio-go/internal/driverkit"
	"github.com/openasio/openasio-go/internal/oaerr"
)

func max16(a, b uint16) uint16 {
	if a > b {
		return a
	}
	return b
}

// Start opens the input stream (if requested) and the output stream,
// both at cfg.BufferFrames frames per callback, and starts them. Per
// §4.4 the driver does not otherwise enforce period size; BufferFrames
// here is passed through to PortAudio as a best-effort request rather
// than negotiated hardware parameters the way drivers/alsa does.
func (d *Driver) Start(cfg abi.StreamConfig) error {
	if d.lifecycle.Current() == driverkit.Running {
		if err := d.Stop(); err != nil {
			return err
		}
	}
	if cfg.Format != abi.SampleF32 {
		return oaerr.Wrap("start", abi.ErrUnsupported, fmt.Errorf("portaudio backend only supports F32"))
	}
	if d.outDevice == nil {
		return oaerr.Wrap("start", abi.ErrState, fmt.Errorf("no device opened"))
	}

	d.cfg = cfg
	d.time0 = time.Now()
	d.counters.Reset()
	d.counters.SetRunning(true)
	d.inSeq.Store(0)

	inCh := max16(cfg.InChannels, 1)
	d.inBuf = driverkit.NewFloatBuffer(int(cfg.BufferFrames) * int(inCh))

	if cfg.Layout == abi.BufNonInterleaved {
		d.inScratch = driverkit.NewFloatBuffer(int(cfg.BufferFrames) * int(inCh))
		d.outScratch = driverkit.NewFloatBuffer(int(cfg.BufferFrames) * int(cfg.OutChannels))
		d.inPlanes = driverkit.NewPlaneTable(d.inScratch, int(inCh), int(cfg.BufferFrames))
		d.outPlanes = driverkit.NewPlaneTable(d.outScratch, int(cfg.OutChannels), int(cfg.BufferFrames))
	}

	if cfg.InChannels > 0 && d.inDevice != nil {
		inParams := pa.StreamParameters{
			Input: pa.StreamDeviceParameters{
				Device:   d.inDevice,
				Channels: int(cfg.InChannels),
				Latency:  d.inDevice.DefaultLowInputLatency,
			},
			SampleRate:      float64(cfg.SampleRate),
			FramesPerBuffer: int(cfg.BufferFrames),
		}
		stream, err := pa.OpenStream(inParams, d.inputCallback)
		if err != nil {
			d.freeBuffers()
			return oaerr.Wrap("start", abi.ErrBackend, err)
		}
		d.inStream = stream
		if err := d.inStream.Start(); err != nil {
			d.freeBuffers()
			return oaerr.Wrap("start", abi.ErrBackend, err)
		}
	}

	outParams := pa.StreamParameters{
		Output: pa.StreamDeviceParameters{
			Device:   d.outDevice,
			Channels: int(cfg.OutChannels),
			Latency:  d.outDevice.DefaultLowOutputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: int(cfg.BufferFrames),
	}
	outStream, err := pa.OpenStream(outParams, d.outputCallback)
	if err != nil {
		d.stopInputLocked()
		d.freeBuffers()
		return oaerr.Wrap("start", abi.ErrBackend, err)
	}
	d.outStream = outStream
	if err := d.outStream.Start(); err != nil {
		d.stopInputLocked()
		d.freeBuffers()
		return oaerr.Wrap("start", abi.ErrBackend, err)
	}

	return d.lifecycle.Transition(func(_ driverkit.State) (driverkit.State, error) {
		return driverkit.Running, nil
	})
}

// Stop closes both streams. PortAudio guarantees no callback is pending
// once Close returns, satisfying invariant 4 (§3).
func (d *Driver) Stop() error {
	d.counters.SetRunning(false)
	d.stopInputLocked()
	if d.outStream != nil {
		d.outStream.Stop()
		d.outStream.Close()
		d.outStream = nil
	}
	d.freeBuffers()

	return d.lifecycle.Transition(func(cur driverkit.State) (driverkit.State, error) {
		if cur == driverkit.Unopened {
			return driverkit.Unopened, nil
		}
		return driverkit.Opened, nil
	})
}

func (d *Driver) stopInputLocked() {
	if d.inStream != nil {
		d.inStream.Stop()
		d.inStream.Close()
		d.inStream = nil
	}
}

func (d *Driver) freeBuffers() {
	if d.inBuf != nil {
		d.inBuf.Free()
		d.inBuf = nil
	}
	if d.inScratch != nil {
		d.inScratch.Free()
		d.inScratch = nil
	}
	if d.outScratch != nil {
		d.outScratch.Free()
		d.outScratch = nil
	}
	if d.inPlanes != nil {
		d.inPlanes.Free()
		d.inPlanes = nil
	}
	if d.outPlanes != nil {
		d.outPlanes.Free()
		d.outPlanes = nil
	}
}

// inputCallback runs on PortAudio's own input-stream thread: copy the
// latest block into the pinned staging buffer and bump the sequence
// counter (§4.4).
func (d *Driver) inputCallback(in []float32) {
	if d.inBuf == nil {
		return
	}
	dst := d.inBuf.Slice()
	n := copy(dst, in)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	d.inSeq.Add(1)
}

// outputCallback runs on PortAudio's own output-stream thread -- this
// *is* the RT thread for this backend (§4.4). It reads the latest
// staged input, assembles pointers per layout, invokes process, and
// destages non-interleaved output into PortAudio's own buffer.
func (d *Driver) outputCallback(out []float32) {
	for i := range out {
		out[i] = 0
	}
	if !d.counters.Running() {
		return
	}

	channels := int(d.cfg.OutChannels)
	if channels == 0 {
		return
	}
	frames := uint32(len(out) / channels)
	ti := d.counters.TimeInfo(d.time0)

	var ptrs driverkit.ProcessPointers
	if d.cfg.Layout == abi.BufNonInterleaved {
		if d.cfg.InChannels > 0 {
			driverkit.ScatterPlanar(d.inBuf.Slice(), d.inScratch.Slice(), int(frames), int(max16(d.cfg.InChannels, 1)))
		}
		ptrs = driverkit.PlanarPointers(d.inPlanes, d.outPlanes, int(d.cfg.InChannels))
	} else {
		var inPtr unsafe.Pointer
		if d.cfg.InChannels > 0 && d.inBuf != nil {
			inPtr = d.inBuf.Ptr()
		}
		ptrs = driverkit.ProcessPointers{In: inPtr, Out: unsafe.Pointer(&out[0])}
	}

	cont := d.cb.Process(ptrs.In, ptrs.Out, frames, ti, d.cfg)

	if d.cfg.Layout == abi.BufNonInterleaved {
		driverkit.GatherInterleaved(d.outScratch.Slice(), out, int(frames), channels)
	}

	if !cont {
		d.counters.SetRunning(false)
	}
}
