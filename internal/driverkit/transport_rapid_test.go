package driverkit

import (
	"testing"

	"pgregory.net/rapid"
)

// TestGatherScatter_RoundTrip is the property-check counterpart to
// TestScatterPlanar_RoundTrip: for any frame/channel count and any
// interleaved content, scattering to planes and gathering back must
// recover the original buffer exactly (spec §8, testable properties 6
// and 7 generalized beyond the literal example values).
func TestGatherScatter_RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		frames := rapid.IntRange(1, 64).Draw(rt, "frames")
		channels := rapid.IntRange(1, 8).Draw(rt, "channels")

		interleaved := rapid.SliceOfN(rapid.Float32Range(-1000, 1000), frames*channels, frames*channels).Draw(rt, "interleaved")

		planar := make([]float32, frames*channels)
		ScatterPlanar(interleaved, planar, frames, channels)

		back := make([]float32, frames*channels)
		GatherInterleaved(planar, back, frames, channels)

		for i := range interleaved {
			if interleaved[i] != back[i] {
				rt.Fatalf("round trip mismatch at %d: got %v want %v", i, back[i], interleaved[i])
			}
		}
	})
}

// TestRTCounters_MonotonicUnderRepeatedAdds exercises §5's "counters
// are updated only on the RT thread... readers may observe a
// stale-but-monotonic value" guarantee on a single goroutine: for any
// number of adds rapid picks, a read after each add never observes a
// decrease, and the final count equals the number of adds.
func TestRTCounters_MonotonicUnderRepeatedAdds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 200).Draw(rt, "adds")
		var c RTCounters
		last := c.Underruns()
		for i := 0; i < n; i++ {
			c.AddUnderrun()
			cur := c.Underruns()
			if cur < last {
				rt.Fatalf("underruns decreased: %d -> %d", last, cur)
			}
			last = cur
		}
		if c.Underruns() != uint32(n) {
			rt.Fatalf("expected %d underruns, got %d", n, c.Underruns())
		}
	})
}
