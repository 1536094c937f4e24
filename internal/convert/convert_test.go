package convert

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRoundTrip_KnownPoints(t *testing.T) {
	// Spec §8.8: for x in {-1, -0.5, 0, 0.5, 1}, to_f32(to_i32(x)) == x
	// within +/-1 ULP, saturating at +/-1.
	for _, x := range []float32{-1.0, -0.5, 0.0, 0.5, 1.0} {
		i32 := make([]int32, 1)
		F32ToI32([]float32{x}, i32)
		back := make([]float32, 1)
		I32ToF32(i32, back)
		diff := math.Abs(float64(back[0] - x))
		assert.LessOrEqual(t, diff, 1.0/float64(1<<30), "x=%v back=%v", x, back[0])
	}
}

func TestF32ToI32_Saturates(t *testing.T) {
	out := make([]int32, 3)
	F32ToI32([]float32{2.0, -2.0, 0.0}, out)
	assert.Equal(t, int32(1<<31-1), out[0])
	assert.Equal(t, int32(-1<<31), out[1])
	assert.Equal(t, int32(0), out[2])
}

func TestRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := rapid.Float32Range(-1.0, 1.0).Draw(rt, "x")
		i32 := make([]int32, 1)
		F32ToI32([]float32{x}, i32)
		back := make([]float32, 1)
		I32ToF32(i32, back)
		if diff := math.Abs(float64(back[0] - x)); diff > 1.0/float64(1<<30) {
			rt.Fatalf("round trip drifted: x=%v back=%v diff=%v", x, back[0], diff)
		}
	})
}
