package driverkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGatherInterleaved_NonInterleavedRoundTrip(t *testing.T) {
	// Spec §8 scenario: host writes plane c's frame f as c*1000+f, gather
	// must deliver that value at [f*ch+c].
	const frames, channels = 4, 2
	planar := make([]float32, frames*channels)
	for c := 0; c < channels; c++ {
		for f := 0; f < frames; f++ {
			planar[c*frames+f] = float32(c*1000 + f)
		}
	}
	out := make([]float32, frames*channels)
	GatherInterleaved(planar, out, frames, channels)

	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			assert.Equal(t, float32(c*1000+f), out[f*channels+c])
		}
	}
}

func TestScatterPlanar_RoundTrip(t *testing.T) {
	const frames, channels = 8, 2
	interleaved := make([]float32, frames*channels)
	for i := range interleaved {
		interleaved[i] = float32(i)
	}
	planar := make([]float32, frames*channels)
	ScatterPlanar(interleaved, planar, frames, channels)

	back := make([]float32, frames*channels)
	GatherInterleaved(planar, back, frames, channels)

	assert.Equal(t, interleaved, back)
}

func TestInterleavedPointers_NullWhenNoInput(t *testing.T) {
	in := NewFloatBuffer(4)
	out := NewFloatBuffer(4)
	defer in.Free()
	defer out.Free()

	p := InterleavedPointers(in, out, 0)
	assert.Nil(t, p.In)
	assert.NotNil(t, p.Out)

	p2 := InterleavedPointers(in, out, 2)
	assert.NotNil(t, p2.In)
}
