package portaudio

import (
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/openasio/openasio-go/abi"
	"github.com/openasio/openasio-go/internal/driverkit"
)

func TestMax16(t *testing.T) {
	assert.Equal(t, uint16(2), max16(0, 2))
	assert.Equal(t, uint16(1), max16(0, 1))
}

func TestOutputCallback_SilenceWhenNotRunning(t *testing.T) {
	d := &Driver{}
	d.cb = Callbacks{Process: func(in, out unsafe.Pointer, frames uint32, ti abi.TimeInfo, cfg abi.StreamConfig) bool {
		t.Fatal("process must not be called while not running")
		return false
	}}
	d.cfg = abi.StreamConfig{OutChannels: 2}
	out := []float32{1, 1, 1, 1}
	d.outputCallback(out)
	assert.Equal(t, []float32{0, 0, 0, 0}, out)
}

// planeSlice decodes one of the non-interleaved pointer tables the way a
// real host-side process callback would.
func planeSlice(table unsafe.Pointer, channel, frames int) []float32 {
	ptrs := unsafe.Slice((*unsafe.Pointer)(table), channel+1)
	return unsafe.Slice((*float32)(ptrs[channel]), frames)
}

func TestOutputCallback_NonInterleavedGain(t *testing.T) {
	const frames, channels = 4, 2
	d := &Driver{}
	d.cfg = abi.StreamConfig{InChannels: 2, OutChannels: 2, BufferFrames: frames, Layout: abi.BufNonInterleaved}
	d.counters.SetRunning(true)
	d.time0 = time.Now()

	d.inBuf = driverkit.NewFloatBuffer(frames * channels)
	d.inScratch = driverkit.NewFloatBuffer(frames * channels)
	d.outScratch = driverkit.NewFloatBuffer(frames * channels)
	d.inPlanes = driverkit.NewPlaneTable(d.inScratch, channels, frames)
	d.outPlanes = driverkit.NewPlaneTable(d.outScratch, channels, frames)
	defer func() {
		d.inBuf.Free()
		d.inScratch.Free()
		d.outScratch.Free()
		d.inPlanes.Free()
		d.outPlanes.Free()
	}()

	// Latest captured interleaved block: frame f, channel c = f*channels+c.
	inInterleaved := d.inBuf.Slice()
	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			inInterleaved[f*channels+c] = float32(f*channels + c)
		}
	}

	d.cb = Callbacks{Process: func(in, out unsafe.Pointer, gotFrames uint32, ti abi.TimeInfo, cfg abi.StreamConfig) bool {
		assert.EqualValues(t, frames, gotFrames)
		for c := 0; c < channels; c++ {
			inPlane := planeSlice(in, c, frames)
			outPlane := planeSlice(out, c, frames)
			for f := 0; f < frames; f++ {
				outPlane[f] = inPlane[f] * 0.5
			}
		}
		return true
	}}

	out := make([]float32, frames*channels)
	d.outputCallback(out)

	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			want := float32(f*channels+c) * 0.5
			assert.InDelta(t, want, out[f*channels+c], 1e-6)
		}
	}
}
