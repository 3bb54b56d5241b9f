package harness

import (
	"fmt"
	"math"

	guda "github.com/LynnColeArt/guda-primitives"
)

// ToleranceConfig defines tolerance parameters for floating-point comparison
type ToleranceConfig struct {
	// AbsTol is the absolute tolerance for values near zero
	AbsTol float64

	// RelTol is the relative tolerance as a fraction of the larger value
	RelTol float64

	// ULPTol is the maximum allowed difference in float32 ULPs
	ULPTol int
}

// Exact accepts bit-identical results only. Integer kernels are verified
// with it since their sums do not depend on accumulation order.
func Exact() ToleranceConfig {
	return ToleranceConfig{}
}

// DefaultTolerance returns default tolerance configuration
func DefaultTolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol: 1e-7,
		RelTol: 1e-5,
		ULPTol: 4,
	}
}

// RelaxedTolerance returns relaxed tolerance for accumulated operations,
// e.g. float matmul whose summation order depends on the tile size
func RelaxedTolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol: 1e-5,
		RelTol: 1e-3,
		ULPTol: 16,
	}
}

// NearEqual checks if two values are equal within tolerance
func NearEqual(a, b float64, tol ToleranceConfig) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}

	diff := math.Abs(a - b)
	if diff <= tol.AbsTol {
		return true
	}
	larger := math.Max(math.Abs(a), math.Abs(b))
	if diff <= larger*tol.RelTol {
		return true
	}
	if tol.ULPTol > 0 && ulpDiff32(float32(a), float32(b)) <= tol.ULPTol {
		return true
	}
	return false
}

// ulpDiff32 computes the difference in ULPs between two float32 values
func ulpDiff32(a, b float32) int {
	aBits := math.Float32bits(a)
	bBits := math.Float32bits(b)

	// Different signs, can't use simple subtraction
	if (aBits^bBits)&0x80000000 != 0 {
		return math.MaxInt32
	}
	if aBits > bBits {
		return int(aBits - bBits)
	}
	return int(bBits - aBits)
}

// Mismatch identifies the first element that failed verification. Index
// holds the coordinate in the checked shape, slowest dimension first.
type Mismatch struct {
	Index []int
	Want  any
	Got   any
}

func (m Mismatch) String() string {
	return fmt.Sprintf("at %v, gt(%v) != result(%v)", m.Index, m.Want, m.Got)
}

// CheckEqual verifies got against want exactly
func CheckEqual[T guda.Number](op string, want, got []T, shape ...int) error {
	return CheckNear(op, want, got, Exact(), shape...)
}

// CheckNear verifies got against want within tol. shape interprets the
// flat index of the first mismatch, e.g. (rows, cols); without it the
// index is reported as is.
func CheckNear[T guda.Number](op string, want, got []T, tol ToleranceConfig, shape ...int) error {
	if len(want) != len(got) {
		return guda.NewNumericalError(op,
			fmt.Sprintf("result has %d elements, want %d", len(got), len(want)), nil)
	}
	exact := tol == ToleranceConfig{}
	for i := range want {
		if want[i] == got[i] || (!exact && NearEqual(float64(want[i]), float64(got[i]), tol)) {
			continue
		}
		m := Mismatch{Index: unflatten(i, shape), Want: want[i], Got: got[i]}
		return guda.NewNumericalError(op, "checking the result failed "+m.String(), m)
	}
	return nil
}

// unflatten converts a row-major flat index into coordinates of shape
func unflatten(i int, shape []int) []int {
	if len(shape) == 0 {
		return []int{i}
	}
	idx := make([]int, len(shape))
	for d := len(shape) - 1; d >= 0; d-- {
		idx[d] = i % shape[d]
		i /= shape[d]
	}
	return idx
}
