// Package convert implements the I32<->F32 sample conversion used by
// hardware-specialized drivers whose ALSA hw_params only accept signed
// 32-bit PCM. Ground truth: original_source's
// openasio-driver-umc202hd/src/lib.rs, functions i32_to_f32/f32_to_i32
// (spec §4.3 steps 2 and 8, testable property §8.8).
package convert

const (
	i32ToF32Scale = 1.0 / 2147483648.0 // 1 / 2^31
	f32ToI32Max   = 2147483647.0       // 2^31 - 1
)

// I32ToF32 scales each hardware sample into [-1, 1) by 1/2^31.
func I32ToF32(src []int32, dst []float32) {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = float32(src[i]) * i32ToF32Scale
	}
}

// F32ToI32 saturates to [-1, 1] and scales/rounds to the full int32
// range, matching the original driver's rounding (round-half-away-from-
// zero via the platform's float-to-int rounding, as original_source
// does with Rust's f32::round).
func F32ToI32(src []float32, dst []int32) {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		v := src[i]
		switch {
		case v >= 1.0:
			dst[i] = 1<<31 - 1
		case v <= -1.0:
			dst[i] = -1 << 31
		default:
			dst[i] = int32(roundFloat32(v * f32ToI32Max))
		}
	}
}

func roundFloat32(v float32) float32 {
	if v >= 0 {
		return float32(int64(v + 0.5))
	}
	return float32(int64(v - 0.5))
}
