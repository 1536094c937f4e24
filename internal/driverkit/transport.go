package driverkit

import "unsafe"

// GatherInterleaved reads channels contiguous planes out of planar
// (length channels*frames, channel c at [c*frames:(c+1)*frames)) and
// writes them into out in row-major frame*channel order (§4.3 step 7,
// "Destage output"). planar and out may not overlap.
func GatherInterleaved(planar []float32, out []float32, frames, channels int) {
	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			out[f*channels+c] = planar[c*frames+f]
		}
	}
}

// ScatterPlanar is GatherInterleaved's inverse: splits an interleaved
// buffer into contiguous per-channel planes. Used on the input side of
// backends whose hardware/SDK only ever hands back interleaved frames
// (both ALSA and PortAudio do) but whose stream was negotiated as
// Non-interleaved -- the driver must still stage true planes for the
// host (§4.3 step 5).
func ScatterPlanar(in []float32, planar []float32, frames, channels int) {
	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			planar[c*frames+f] = in[f*channels+c]
		}
	}
}

// ProcessPointers is what the RT transport hands to the host process
// callback for one period: the raw in/out pointers, already shaped for
// cfg.Layout (§4.3 step 5). Building this once per period, from
// pre-allocated buffers/plane tables, is what keeps the RT path
// allocation-free.
type ProcessPointers struct {
	In  unsafe.Pointer
	Out unsafe.Pointer
}

// InterleavedPointers returns {in, out} pointers straight into the
// staging buffers, or a nil In when inChannels == 0 (§4.3 step 5,
// "in_ptr is null when in_channels == 0").
func InterleavedPointers(in, out *FloatBuffer, inChannels int) ProcessPointers {
	var inPtr unsafe.Pointer
	if inChannels > 0 {
		inPtr = in.Ptr()
	}
	return ProcessPointers{In: inPtr, Out: out.Ptr()}
}

// PlanarPointers returns {in, out} pointers at the plane-pointer tables
// built once at start() (§4.3 step 5, non-interleaved case). In is left
// null when inChannels == 0 or inPlanes is nil.
func PlanarPointers(inPlanes, outPlanes *PlaneTable, inChannels int) ProcessPointers {
	var inPtr unsafe.Pointer
	if inChannels > 0 && inPlanes != nil {
		inPtr = inPlanes.Ptr()
	}
	return ProcessPointers{In: inPtr, Out: outPlanes.Ptr()}
}
